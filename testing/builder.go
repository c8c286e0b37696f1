package testing

import (
	"encoding/binary"
	"strings"
	"testing"
	"time"

	"github.com/dargueta/fat12fs/disks"
	"github.com/noxer/bytewriter"
	"github.com/stretchr/testify/require"
)

// Geometry is the subset of the BIOS Parameter Block needed to lay out a test
// image.
type Geometry struct {
	BytesPerSector    uint16
	SectorsPerCluster uint8
	ReservedSectors   uint16
	FATCopies         uint8
	RootEntries       uint16
	TotalSectors      uint32
	Media             uint8
	SectorsPerFAT     uint16
	SectorsPerTrack   uint16
	Heads             uint16
}

// SmallGeometry is a tiny volume for exercising the driver: 512-byte sectors,
// one sector per cluster, one FAT, and room for 16 entries in the root
// directory. Its data region starts at sector 3 and holds 61 clusters.
func SmallGeometry() Geometry {
	return Geometry{
		BytesPerSector:    512,
		SectorsPerCluster: 1,
		ReservedSectors:   1,
		FATCopies:         1,
		RootEntries:       16,
		TotalSectors:      64,
		Media:             0xF8,
		SectorsPerFAT:     1,
		SectorsPerTrack:   8,
		Heads:             1,
	}
}

// GeometryForDisk returns the layout of one of the standard floppy formats,
// e.g. "1440k".
func GeometryForDisk(t testing.TB, slug string) Geometry {
	disk, err := disks.GetPredefinedDiskGeometry(slug)
	require.NoError(t, err)
	return Geometry{
		BytesPerSector:    disk.BytesPerSector,
		SectorsPerCluster: disk.SectorsPerCluster,
		ReservedSectors:   disk.ReservedSectors,
		FATCopies:         disk.FATCopies,
		RootEntries:       disk.RootEntries,
		TotalSectors:      disk.TotalSectors,
		Media:             disk.Media,
		SectorsPerFAT:     disk.SectorsPerFAT,
		SectorsPerTrack:   disk.SectorsPerTrack,
		Heads:             disk.Heads,
	}
}

// RootDirSectors is the size of the fixed root directory region.
func (g Geometry) RootDirSectors() uint32 {
	bps := uint32(g.BytesPerSector)
	return (uint32(g.RootEntries)*32 + bps - 1) / bps
}

// FATStart is the first sector of the first FAT.
func (g Geometry) FATStart() uint32 {
	return uint32(g.ReservedSectors)
}

// RootDirStart is the first sector of the root directory.
func (g Geometry) RootDirStart() uint32 {
	return g.FATStart() + uint32(g.SectorsPerFAT)*uint32(g.FATCopies)
}

// DataStart is the sector that cluster 2 maps to.
func (g Geometry) DataStart() uint32 {
	return g.RootDirStart() + g.RootDirSectors()
}

// BytesPerCluster is the size of one cluster.
func (g Geometry) BytesPerCluster() int {
	return int(g.BytesPerSector) * int(g.SectorsPerCluster)
}

// ClusterOffset is the byte offset of a cluster within the image.
func (g Geometry) ClusterOffset(cluster uint16) int {
	sector := g.DataStart() + uint32(cluster-2)*uint32(g.SectorsPerCluster)
	return int(sector) * int(g.BytesPerSector)
}

// TotalClusters is the number of data clusters on the volume.
func (g Geometry) TotalClusters() uint32 {
	return (g.TotalSectors - g.DataStart()) / uint32(g.SectorsPerCluster)
}

// Node is a file or directory to put in a test image.
type Node struct {
	// Name is an 8.3 name like "README.TXT". It's stored upper-cased.
	Name     string
	Data     []byte
	Children []Node
	IsDir    bool
	// Attributes are added to the directory bit for directories.
	Attributes uint8
	Modified   time.Time
	// Fragmented leaves a free cluster after each of the node's clusters, so
	// the chain isn't contiguous.
	Fragmented bool
	// Deleted writes the entry with the deleted marker. Its clusters are still
	// allocated so tests can check they aren't found.
	Deleted bool
}

// File is shorthand for a regular file node.
func File(name string, data []byte) Node {
	return Node{Name: name, Data: data}
}

// Dir is shorthand for a directory node.
func Dir(name string, children ...Node) Node {
	return Node{Name: name, IsDir: true, Children: children}
}

// ImageSpec describes a whole test volume.
type ImageSpec struct {
	Geometry Geometry
	// VolumeLabel is written to the extended BPB and, if nonempty, as the first
	// root directory entry.
	VolumeLabel string
	Root        []Node
}

// DefaultTimestamp is the modification time given to nodes that don't set
// one.
var DefaultTimestamp = time.Date(2001, time.September, 8, 13, 37, 42, 0, time.UTC)

// Layout records where the builder put things, so tests can corrupt specific
// structures or predict cluster numbers.
type Layout struct {
	// Clusters maps a slash-delimited path like "/A/B.TXT" to its chain.
	Clusters map[string][]uint16
}

type imageBuilder struct {
	t        testing.TB
	geometry Geometry
	image    []byte
	fat      []byte
	next     uint16
	layout   Layout
}

// BuildImage lays out an in-memory FAT12 image. Clusters are handed out in
// depth-first order starting at 2, so the first thing in the root directory
// gets cluster 2. Every FAT copy is identical.
func BuildImage(t testing.TB, spec ImageSpec) ([]byte, Layout) {
	g := spec.Geometry
	builder := imageBuilder{
		t:        t,
		geometry: g,
		image:    make([]byte, int(g.TotalSectors)*int(g.BytesPerSector)),
		fat:      make([]byte, int(g.SectorsPerFAT)*int(g.BytesPerSector)),
		next:     2,
		layout:   Layout{Clusters: map[string][]uint16{}},
	}

	builder.writeBootSector(spec.VolumeLabel)
	SetFATEntry(builder.fat, 0, 0xF00|uint16(g.Media))
	SetFATEntry(builder.fat, 1, 0xFFF)

	rootEntries := [][]byte{}
	if spec.VolumeLabel != "" {
		rootEntries = append(
			rootEntries,
			RawDirentBytes(spec.VolumeLabel, 0x08, 0, 0, DefaultTimestamp))
	}
	for _, node := range spec.Root {
		rootEntries = append(rootEntries, builder.place(node, "", 0))
	}
	require.LessOrEqual(
		t, len(rootEntries), int(g.RootEntries), "too many entries for the root directory")

	rootOffset := int(g.RootDirStart()) * int(g.BytesPerSector)
	writer := bytewriter.New(builder.image[rootOffset : rootOffset+len(rootEntries)*32])
	for _, entry := range rootEntries {
		_, err := writer.Write(entry)
		require.NoError(t, err)
	}

	for copyIndex := 0; copyIndex < int(g.FATCopies); copyIndex++ {
		offset := (int(g.FATStart()) + copyIndex*int(g.SectorsPerFAT)) * int(g.BytesPerSector)
		copy(builder.image[offset:], builder.fat)
	}
	return builder.image, builder.layout
}

func (b *imageBuilder) writeBootSector(label string) {
	g := b.geometry
	type rawBPB struct {
		JmpBoot           [3]byte
		OEMName           [8]byte
		BytesPerSector    uint16
		SectorsPerCluster uint8
		ReservedSectors   uint16
		NumFATs           uint8
		RootEntryCount    uint16
		TotalSectors16    uint16
		Media             uint8
		SectorsPerFAT     uint16
		SectorsPerTrack   uint16
		NumHeads          uint16
		HiddenSectors     uint32
		TotalSectors32    uint32
		DriveNumber       uint8
		Reserved1         uint8
		BootSignature     uint8
		VolumeID          uint32
		VolumeLabel       [11]byte
		FileSystemType    [8]byte
	}

	bpb := rawBPB{
		JmpBoot:           [3]byte{0xEB, 0x3C, 0x90},
		BytesPerSector:    g.BytesPerSector,
		SectorsPerCluster: g.SectorsPerCluster,
		ReservedSectors:   g.ReservedSectors,
		NumFATs:           g.FATCopies,
		RootEntryCount:    g.RootEntries,
		Media:             g.Media,
		SectorsPerFAT:     g.SectorsPerFAT,
		SectorsPerTrack:   g.SectorsPerTrack,
		NumHeads:          g.Heads,
		BootSignature:     0x29,
		VolumeID:          0x1234ABCD,
	}
	if g.TotalSectors < 0x10000 {
		bpb.TotalSectors16 = uint16(g.TotalSectors)
	} else {
		bpb.TotalSectors32 = g.TotalSectors
	}
	copy(bpb.OEMName[:], "MSDOS5.0")
	copy(bpb.FileSystemType[:], "FAT12   ")
	if label == "" {
		label = "NO NAME"
	}
	copy(bpb.VolumeLabel[:], padRight(strings.ToUpper(label), 11))

	writer := bytewriter.New(b.image[:512])
	err := binary.Write(writer, binary.LittleEndian, &bpb)
	require.NoError(b.t, err)

	b.image[510] = 0x55
	b.image[511] = 0xAA
}

// allocate reserves enough clusters for `size` bytes and chains them together.
// A directory always gets at least one cluster.
func (b *imageBuilder) allocate(size int, fragmented bool) []uint16 {
	clusterSize := b.geometry.BytesPerCluster()
	count := (size + clusterSize - 1) / clusterSize

	chain := make([]uint16, count)
	for i := range chain {
		chain[i] = b.next
		b.next++
		if fragmented {
			b.next++
		}
	}
	require.LessOrEqual(
		b.t,
		uint32(b.next-2),
		b.geometry.TotalClusters(),
		"test image is too small for its contents")

	for i, cluster := range chain {
		if i == len(chain)-1 {
			SetFATEntry(b.fat, cluster, 0xFFF)
		} else {
			SetFATEntry(b.fat, cluster, chain[i+1])
		}
	}
	return chain
}

func (b *imageBuilder) writeChain(chain []uint16, data []byte) {
	clusterSize := b.geometry.BytesPerCluster()
	for i, cluster := range chain {
		start := i * clusterSize
		end := start + clusterSize
		if end > len(data) {
			end = len(data)
		}
		copy(b.image[b.geometry.ClusterOffset(cluster):], data[start:end])
	}
}

// place allocates and writes `node` and everything under it, and returns its
// 32-byte directory entry.
func (b *imageBuilder) place(node Node, parentPath string, parentCluster uint16) []byte {
	path := parentPath + "/" + strings.ToUpper(node.Name)
	modified := node.Modified
	if modified.IsZero() {
		modified = DefaultTimestamp
	}

	if !node.IsDir {
		chain := b.allocate(len(node.Data), node.Fragmented)
		b.writeChain(chain, node.Data)
		b.layout.Clusters[path] = chain

		firstCluster := uint16(0)
		if len(chain) > 0 {
			firstCluster = chain[0]
		}
		return b.finishEntry(
			node,
			RawDirentBytes(node.Name, node.Attributes, firstCluster, uint32(len(node.Data)), modified))
	}

	entryCount := len(node.Children) + 2
	chain := b.allocate(entryCount*32, node.Fragmented)
	b.layout.Clusters[path] = chain

	entries := make([]byte, 0, entryCount*32)
	entries = append(entries, RawDirentBytes(".", 0x10, chain[0], 0, modified)...)
	entries = append(entries, RawDirentBytes("..", 0x10, parentCluster, 0, modified)...)
	for _, child := range node.Children {
		entries = append(entries, b.place(child, path, chain[0])...)
	}
	b.writeChain(chain, entries)

	return b.finishEntry(
		node, RawDirentBytes(node.Name, 0x10|node.Attributes, chain[0], 0, modified))
}

func (b *imageBuilder) finishEntry(node Node, entry []byte) []byte {
	if node.Deleted {
		entry[0] = 0xE5
	}
	return entry
}
