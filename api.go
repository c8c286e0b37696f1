// Package fat12fs reads FAT12 volumes, the file system used on IBM PC floppy
// disks.
//
// The work is done by [fat12.Volume]; this package adds the [Reader]
// interface the adapters in driver/ and fusefs/ are written against, and
// [OpenImage], which opens a (possibly compressed) disk image file with a
// user's configuration applied.
package fat12fs

import (
	"github.com/dargueta/fat12fs/config"
	"github.com/dargueta/fat12fs/file_systems/common/blockcache"
	"github.com/dargueta/fat12fs/file_systems/fat12"
	"github.com/dargueta/fat12fs/logging"
	"github.com/dargueta/fat12fs/utilities/compression"
)

// Reader is the interface for read-only access to the contents of a volume.
// Paths are absolute and slash-delimited.
type Reader interface {
	// Resolve returns the directory entry for `path`. "/" returns a
	// synthesized entry for the root directory.
	Resolve(path string) (fat12.Dirent, error)
	// Lookup finds the entry named `name` directly inside the directory `dir`.
	Lookup(dir fat12.Dirent, name string) (fat12.Dirent, error)
	// ListDirectory returns the contents of a directory, excluding "." and
	// "..".
	ListDirectory(dir fat12.Dirent) ([]fat12.Dirent, error)
	// ReadFileData returns the entire contents of a file.
	ReadFileData(entry fat12.Dirent) ([]byte, error)
	// ReadFileAt reads part of a file, with the semantics of [io.ReaderAt].
	ReadFileAt(entry fat12.Dirent, buffer []byte, offset int64) (int, error)
	// NewFileCache returns a lazily loaded view of a file's contents, for
	// callers that read the same file many times.
	NewFileCache(entry fat12.Dirent) (*blockcache.BlockCache, error)
	// Label returns the volume label, or an empty string if there is none.
	Label() (string, error)
	// Stat returns cluster usage and file counts for the whole volume.
	Stat() (fat12.VolumeStat, error)
	// BootSector returns the volume geometry.
	BootSector() fat12.BootSector
	// Close releases the volume's resources. Every other method fails after
	// this has been called.
	Close() error
}

var _ Reader = (*fat12.Volume)(nil)

// OpenImage opens the disk image at `path` as a FAT12 volume. Images may be
// compressed with gzip, zstd, or xz; see [compression.OpenImage]. The image
// file is closed when the volume is.
func OpenImage(path string, cfg config.Config) (*fat12.Volume, error) {
	image, err := compression.OpenImage(path)
	if err != nil {
		return nil, err
	}

	volume, err := fat12.OpenWithOptions(image, cfg.VolumeOptions())
	if err != nil {
		image.Close()
		return nil, err
	}

	logging.Logger().Debugw(
		"opened disk image",
		"path", path,
		"format", image.Format().String(),
		"rle", image.RunLengthEncoded())
	return volume, nil
}
