package fat12

import (
	"fmt"

	"github.com/dargueta/fat12fs/errors"
	"github.com/dargueta/fat12fs/file_systems/common"
)

// LinkKind says what a FAT entry means for the cluster it belongs to.
type LinkKind int

const (
	// LinkNext means the chain continues at ChainLink.Next.
	LinkNext LinkKind = iota
	// LinkEndOfChain means the cluster is the last one in its file.
	LinkEndOfChain
	// LinkUnallocated means the cluster is free.
	LinkUnallocated
	// LinkBad means the cluster was marked as physically unusable.
	LinkBad
)

func (k LinkKind) String() string {
	switch k {
	case LinkNext:
		return "next"
	case LinkEndOfChain:
		return "end-of-chain"
	case LinkUnallocated:
		return "unallocated"
	case LinkBad:
		return "bad"
	default:
		return fmt.Sprintf("LinkKind(%d)", int(k))
	}
}

// ChainLink is the decoded value of one FAT entry.
type ChainLink struct {
	Kind LinkKind
	// Next is the following cluster in the chain. Only meaningful if Kind is
	// LinkNext.
	Next ClusterID
}

// Raw FAT12 entry values with special meanings.
const (
	entryFree       = 0x000
	entryBadCluster = 0xFF7
	// Any value at or above this marks the end of a chain. 0xFFF is what
	// formatters write, but 0xFF8-0xFFE are equally valid.
	entryEndOfChainMin = 0xFF8
	entryMask          = 0xFFF
)

// Table is one copy of the File Allocation Table: an array of 12-bit entries
// packed two to every three bytes. Entry n lives in the three-byte group
// starting at (n/2)*3, in the low 12 bits if n is even and the high 12 bits if
// n is odd.
type Table []byte

// Entry returns the raw 12-bit value stored for `cluster`.
func (t Table) Entry(cluster ClusterID) (uint16, error) {
	groupOffset := int(cluster/2) * 3

	var value uint32
	var err error
	if cluster%2 == 0 {
		value, err = common.ReadUnsignedLE(t, groupOffset, 2)
		value &= entryMask
	} else {
		value, err = common.ReadUnsignedLE(t, groupOffset+1, 2)
		value >>= 4
	}

	if err != nil {
		return 0, errors.ErrOutOfRange.WithMessage(
			fmt.Sprintf(
				"cluster %d has no entry in a %d-byte FAT", cluster, len(t)))
	}
	return uint16(value), nil
}

// NextCluster decodes the FAT entry for `cluster`. It does no chain following
// and has no side effects.
func (t Table) NextCluster(cluster ClusterID) (ChainLink, error) {
	value, err := t.Entry(cluster)
	if err != nil {
		return ChainLink{}, err
	}
	return classifyEntry(value), nil
}

func classifyEntry(value uint16) ChainLink {
	switch {
	case value == entryFree:
		return ChainLink{Kind: LinkUnallocated}
	case value >= entryEndOfChainMin:
		return ChainLink{Kind: LinkEndOfChain}
	case value == entryBadCluster:
		return ChainLink{Kind: LinkBad}
	default:
		return ChainLink{Kind: LinkNext, Next: ClusterID(value)}
	}
}

// EntryCount returns the number of entries the table can hold.
func (t Table) EntryCount() int {
	return len(t) * 2 / 3
}
