// Package driver presents a FAT12 volume through the standard file system
// interfaces: [afero.Fs] and, through [Driver.IOFS], [io/fs.FS].
//
// The driver is read-only. Every operation that would modify the volume fails
// with [errors.ErrReadOnlyFileSystem], and files can't be opened for writing.
package driver

import (
	"fmt"
	"os"
	posixpath "path"
	"path/filepath"
	"time"

	"github.com/dargueta/fat12fs"
	"github.com/dargueta/fat12fs/errors"
	"github.com/spf13/afero"
)

// Driver is an [afero.Fs] backed by a FAT12 volume. It's safe for concurrent
// use as long as the volume is.
type Driver struct {
	volume fat12fs.Reader
}

var _ afero.Fs = (*Driver)(nil)

// New creates a new [Driver] for an open volume. Closing the volume
// invalidates the driver and all files opened from it.
func New(volume fat12fs.Reader) *Driver {
	return &Driver{volume: volume}
}

// Name returns the name of this file system implementation.
func (driver *Driver) Name() string {
	return "fat12"
}

// IOFS returns a view of the driver that implements [io/fs.FS] along with
// [io/fs.ReadDirFS], [io/fs.StatFS], and [io/fs.ReadFileFS].
func (driver *Driver) IOFS() afero.IOFS {
	return afero.NewIOFS(driver)
}

// NormalizePath converts `path` to a clean absolute path. Relative paths are
// relative to the root directory, and backslashes are treated as separators on
// systems where they are.
func (driver *Driver) NormalizePath(path string) string {
	path = posixpath.Clean("/" + filepath.ToSlash(path))
	if path == "." {
		path = "/"
	}
	return path
}

// pathError wraps a driver error the way the os package would, so that callers
// can get the path back out with errors.As.
func pathError(op, path string, err error) error {
	return &os.PathError{Op: op, Path: path, Err: err}
}

func readOnlyError(op, path string) error {
	return pathError(
		op,
		path,
		errors.ErrReadOnlyFileSystem.WithMessage(
			fmt.Sprintf("can't %s %q: volume is read-only", op, path)))
}

// Open opens a file or directory for reading.
func (driver *Driver) Open(name string) (afero.File, error) {
	absPath := driver.NormalizePath(name)
	entry, err := driver.volume.Resolve(absPath)
	if err != nil {
		return nil, pathError("open", name, err)
	}
	return newFile(driver.volume, absPath, entry), nil
}

// writeFlags are the open flags that need a writable file system, either to
// create the file or to change it.
const writeFlags = os.O_WRONLY | os.O_RDWR | os.O_APPEND | os.O_CREATE | os.O_TRUNC

// OpenFile is like [Driver.Open], but fails if `flag` asks for write access.
// `perm` is ignored.
func (driver *Driver) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&writeFlags != 0 {
		return nil, readOnlyError("open", name)
	}
	return driver.Open(name)
}

// Stat returns information about the file or directory at `name`.
func (driver *Driver) Stat(name string) (os.FileInfo, error) {
	absPath := driver.NormalizePath(name)
	entry, err := driver.volume.Resolve(absPath)
	if err != nil {
		return nil, pathError("stat", name, err)
	}
	return newFileInfo(entry), nil
}

// ReadDir returns the contents of the directory at `name`, in the order they're
// stored on disk.
func (driver *Driver) ReadDir(name string) ([]os.FileInfo, error) {
	absPath := driver.NormalizePath(name)
	entry, err := driver.volume.Resolve(absPath)
	if err != nil {
		return nil, pathError("readdir", name, err)
	}

	entries, err := driver.volume.ListDirectory(entry)
	if err != nil {
		return nil, pathError("readdir", name, err)
	}

	infos := make([]os.FileInfo, len(entries))
	for i, child := range entries {
		infos[i] = newFileInfo(child)
	}
	return infos, nil
}

// ReadFile returns the entire contents of the file at `name`.
func (driver *Driver) ReadFile(name string) ([]byte, error) {
	absPath := driver.NormalizePath(name)
	entry, err := driver.volume.Resolve(absPath)
	if err != nil {
		return nil, pathError("open", name, err)
	}

	data, err := driver.volume.ReadFileData(entry)
	if err != nil {
		return nil, pathError("read", name, err)
	}
	return data, nil
}

// Read-only stubs for the rest of afero.Fs -----------------------------------

func (driver *Driver) Create(name string) (afero.File, error) {
	return nil, readOnlyError("create", name)
}

func (driver *Driver) Mkdir(name string, perm os.FileMode) error {
	return readOnlyError("mkdir", name)
}

func (driver *Driver) MkdirAll(path string, perm os.FileMode) error {
	return readOnlyError("mkdir", path)
}

func (driver *Driver) Remove(name string) error {
	return readOnlyError("remove", name)
}

func (driver *Driver) RemoveAll(path string) error {
	return readOnlyError("remove", path)
}

func (driver *Driver) Rename(oldname, newname string) error {
	return readOnlyError("rename", oldname)
}

func (driver *Driver) Chmod(name string, mode os.FileMode) error {
	return readOnlyError("chmod", name)
}

func (driver *Driver) Chown(name string, uid, gid int) error {
	return readOnlyError("chown", name)
}

func (driver *Driver) Chtimes(name string, atime time.Time, mtime time.Time) error {
	return readOnlyError("chtimes", name)
}
