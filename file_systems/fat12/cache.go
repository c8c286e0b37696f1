package fat12

import (
	"fmt"

	"github.com/dargueta/fat12fs/errors"
	"github.com/dargueta/fat12fs/file_systems/common/blockcache"
)

// NewFileCache returns a cache presenting the contents of `entry` as one
// contiguous object, one block per cluster. The chain is walked and checked
// here, once, and only as far as the file's size
// reaches, so reads through the cache never touch the FAT again.
func (v *Volume) NewFileCache(entry Dirent) (*blockcache.BlockCache, error) {
	err := v.checkReadable(entry)
	if err != nil {
		return nil, err
	}

	bytesPerCluster := uint(v.boot.BytesPerCluster)
	needed := (uint(entry.Size) + bytesPerCluster - 1) / bytesPerCluster

	clusters := make([]ClusterID, 0, needed)
	if needed > 0 {
		err = v.WalkChain(
			entry.FirstCluster,
			func(cluster ClusterID) error {
				clusters = append(clusters, cluster)
				if uint(len(clusters)) == needed {
					return SkipRest
				}
				return nil
			},
		)
		if err != nil {
			return nil, err
		}
		if uint(len(clusters)) < needed {
			return nil, errors.ErrInvalidFormat.WithMessage(
				fmt.Sprintf(
					"%q needs %d clusters but its chain only has %d",
					entry.Name,
					needed,
					len(clusters)))
		}
	}

	return blockcache.New(
		bytesPerCluster,
		needed,
		int64(entry.Size),
		func(blockIndex uint, buffer []byte) error {
			data, err := v.ReadCluster(clusters[blockIndex])
			if err != nil {
				return err
			}
			copy(buffer, data)
			return nil
		},
	)
}
