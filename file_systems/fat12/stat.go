package fat12

import (
	"github.com/boljen/go-bitmap"
	"github.com/dargueta/fat12fs/errors"
	"github.com/dargueta/fat12fs/logging"
)

// VolumeStat summarizes cluster usage and the number of files on a volume.
type VolumeStat struct {
	BytesPerCluster uint32
	TotalClusters   uint32
	FreeClusters    uint32
	UsedClusters    uint32
	BadClusters     uint32
	// LostClusters are allocated in the FAT but not reachable from any
	// directory entry. CHKDSK would turn these into FILE0000.CHK.
	LostClusters uint32
	// CrossLinkedClusters are claimed by more than one file or directory.
	CrossLinkedClusters uint32
	Files               uint32
	Directories         uint32
}

// Stat counts the clusters in each state and walks the whole directory tree.
// Damaged chains are counted as far as they can be followed; corruption is
// reported in the counts instead of failing the call. Only I/O errors are
// returned.
func (v *Volume) Stat() (VolumeStat, error) {
	err := v.checkOpen()
	if err != nil {
		return VolumeStat{}, err
	}

	stat := VolumeStat{
		BytesPerCluster: v.boot.BytesPerCluster,
		TotalClusters:   v.boot.TotalClusters,
	}
	allocated := bitmap.Bitmap(bitmap.NewSlice(int(v.boot.MaxCluster()) + 1))

	for cluster := FirstDataCluster; cluster <= v.boot.MaxCluster(); cluster++ {
		link, err := v.table.NextCluster(cluster)
		if err != nil {
			// FAT is too small to cover the whole data region. The
			// clusters it can't describe can never be allocated.
			stat.FreeClusters += uint32(v.boot.MaxCluster()-cluster) + 1
			break
		}
		switch link.Kind {
		case LinkUnallocated:
			stat.FreeClusters++
		case LinkBad:
			stat.BadClusters++
		default:
			stat.UsedClusters++
			allocated.Set(int(cluster), true)
		}
	}

	reachable := bitmap.Bitmap(bitmap.NewSlice(int(v.boot.MaxCluster()) + 1))
	markChain := func(start ClusterID) (alreadySeen bool) {
		err := v.WalkChain(
			start,
			func(cluster ClusterID) error {
				if reachable.Get(int(cluster)) {
					stat.CrossLinkedClusters++
					alreadySeen = true
				}
				reachable.Set(int(cluster), true)
				return nil
			},
		)
		if err != nil {
			logging.Logger().Warnw("damaged cluster chain", "start", start, "error", err)
		}
		return alreadySeen
	}

	pending := []Dirent{RootDirent()}
	for len(pending) > 0 {
		dir := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		stat.Directories++

		err := v.ScanDirectory(
			dir,
			func(entry Dirent) error {
				if entry.Name == "." || entry.Name == ".." {
					return nil
				}
				if !v.isDataCluster(entry.FirstCluster) {
					if !entry.IsDir {
						stat.Files++
					}
					return nil
				}

				seen := markChain(entry.FirstCluster)
				if !entry.IsDir {
					stat.Files++
				} else if !seen {
					// A directory whose clusters were already claimed
					// would lead back into part of the tree already walked.
					pending = append(pending, entry)
				}
				return nil
			},
		)
		if err != nil {
			if isIOError(err) {
				return VolumeStat{}, err
			}
			logging.Logger().Warnw("can't scan directory", "name", dir.Name, "error", err)
		}
	}

	for cluster := FirstDataCluster; cluster <= v.boot.MaxCluster(); cluster++ {
		if allocated.Get(int(cluster)) && !reachable.Get(int(cluster)) {
			stat.LostClusters++
		}
	}
	return stat, nil
}

func isIOError(err error) bool {
	switch errors.ErrnoOf(err) {
	case errors.EIO, errors.EBADF:
		return true
	default:
		return false
	}
}
