package driver

import (
	"io/fs"
	"os"
	"time"

	"github.com/dargueta/fat12fs/file_systems/fat12"
)

// FileInfo gives information about a file or directory. It implements both the
// [os.FileInfo] and [os.DirEntry] interfaces.
type FileInfo struct {
	entry fat12.Dirent
}

var (
	_ os.FileInfo = (*FileInfo)(nil)
	_ os.DirEntry = (*FileInfo)(nil)
)

func newFileInfo(entry fat12.Dirent) *FileInfo {
	return &FileInfo{entry: entry}
}

// os.FileInfo implementation --------------------------------------------------

// Name returns the 8.3 name as stored on disk, or "/" for the root directory.
func (info *FileInfo) Name() string {
	return info.entry.Name
}

// Size is the length of a file in bytes. FAT doesn't record a size for
// directories, so it's always 0 for them.
func (info *FileInfo) Size() int64 {
	return int64(info.entry.Size)
}

func (info *FileInfo) Mode() os.FileMode {
	return info.entry.Mode()
}

func (info *FileInfo) ModTime() time.Time {
	return info.entry.Modified
}

func (info *FileInfo) IsDir() bool {
	return info.entry.IsDir
}

// Sys returns the [fat12.Dirent] the information came from.
func (info *FileInfo) Sys() any {
	return info.entry
}

// os.DirEntry implementation --------------------------------------------------

func (info *FileInfo) Type() fs.FileMode {
	return info.entry.Mode().Type()
}

// Info is part of the [os.DirEntry] interface. It returns the FileInfo it was
// called on, since that implements both interfaces.
func (info *FileInfo) Info() (fs.FileInfo, error) {
	return info, nil
}

////////////////////////////////////////////////////////////////////////////////

// Dirent returns the directory entry the information came from.
func (info *FileInfo) Dirent() fat12.Dirent {
	return info.entry
}

func (info *FileInfo) String() string {
	return fs.FormatFileInfo(info)
}
