package driver

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"

	"github.com/dargueta/fat12fs"
	"github.com/dargueta/fat12fs/errors"
	"github.com/dargueta/fat12fs/file_systems/common/blockcache"
	"github.com/dargueta/fat12fs/file_systems/fat12"
	"github.com/spf13/afero"
)

// File is an open file or directory. It implements [afero.File] and
// [io/fs.ReadDirFile]. Reads, seeks, and directory listings share one cursor
// and are serialized; [File.ReadAt] doesn't touch the cursor.
type File struct {
	volume  fat12fs.Reader
	absPath string
	entry   fat12.Dirent

	lock   sync.Mutex
	closed bool
	offset int64
	// cache is created by the first read of a regular file.
	cache *blockcache.BlockCache
	// children is loaded by the first directory read.
	children []fat12.Dirent
	// childIndex is the index of the next entry in children to return.
	childIndex int
}

var (
	_ afero.File     = (*File)(nil)
	_ fs.ReadDirFile = (*File)(nil)
)

func newFile(volume fat12fs.Reader, absPath string, entry fat12.Dirent) *File {
	return &File{volume: volume, absPath: absPath, entry: entry}
}

func (file *File) checkOpen(op string) error {
	if file.closed {
		return pathError(
			op, file.absPath, errors.ErrBadFileDescriptor.WithMessage("file is closed"))
	}
	return nil
}

// Name returns the absolute path the file was opened with, after
// normalization.
func (file *File) Name() string {
	return file.absPath
}

// Close marks the file as closed. Only the first call succeeds.
func (file *File) Close() error {
	file.lock.Lock()
	defer file.lock.Unlock()

	err := file.checkOpen("close")
	if err != nil {
		return err
	}
	file.closed = true
	file.children = nil
	file.cache = nil
	return nil
}

func (file *File) Stat() (os.FileInfo, error) {
	file.lock.Lock()
	defer file.lock.Unlock()

	err := file.checkOpen("stat")
	if err != nil {
		return nil, err
	}
	return newFileInfo(file.entry), nil
}

// fileCache returns the cache holding the file's contents, creating it if
// needed. The lock must be held.
func (file *File) fileCache() (*blockcache.BlockCache, error) {
	if file.cache == nil {
		cache, err := file.volume.NewFileCache(file.entry)
		if err != nil {
			return nil, pathError("read", file.absPath, err)
		}
		file.cache = cache
	}
	return file.cache, nil
}

// readAt reads through the cache, leaving io.EOF unwrapped.
func (file *File) readAt(
	cache *blockcache.BlockCache,
	buffer []byte,
	offset int64,
) (int, error) {
	n, err := cache.ReadAt(buffer, offset)
	if err != nil && err != io.EOF {
		return n, pathError("read", file.absPath, err)
	}
	return n, err
}

// ReadAt reads from an absolute position in the file. It follows the
// [io.ReaderAt] contract, so a short read always comes with an error.
func (file *File) ReadAt(buffer []byte, offset int64) (int, error) {
	file.lock.Lock()
	err := file.checkOpen("read")
	var cache *blockcache.BlockCache
	if err == nil {
		cache, err = file.fileCache()
	}
	file.lock.Unlock()

	if err != nil {
		return 0, err
	}
	return file.readAt(cache, buffer, offset)
}

// Read reads from the current position and advances it. Like [os.File.Read],
// io.EOF is only returned once there's nothing left to read.
func (file *File) Read(buffer []byte) (int, error) {
	file.lock.Lock()
	defer file.lock.Unlock()

	err := file.checkOpen("read")
	if err != nil {
		return 0, err
	}
	if file.entry.IsDir {
		return 0, pathError(
			"read",
			file.absPath,
			errors.ErrIsADirectory.WithMessage(
				fmt.Sprintf("%q is a directory", file.absPath)))
	}
	if len(buffer) == 0 {
		return 0, nil
	}

	cache, err := file.fileCache()
	if err != nil {
		return 0, err
	}

	n, err := file.readAt(cache, buffer, file.offset)
	file.offset += int64(n)
	if err == io.EOF && n > 0 {
		err = nil
	}
	return n, err
}

// Seek sets the position for the next Read. Seeking past the end of the file is
// allowed; reads from there return io.EOF. For directories, seeking to the
// beginning restarts the listing.
func (file *File) Seek(offset int64, whence int) (int64, error) {
	file.lock.Lock()
	defer file.lock.Unlock()

	err := file.checkOpen("seek")
	if err != nil {
		return 0, err
	}

	var newOffset int64
	switch whence {
	case io.SeekStart:
		newOffset = offset
	case io.SeekCurrent:
		newOffset = file.offset + offset
	case io.SeekEnd:
		newOffset = int64(file.entry.Size) + offset
	default:
		return file.offset, pathError(
			"seek",
			file.absPath,
			errors.ErrInvalidArgument.WithMessage(fmt.Sprintf("invalid whence %d", whence)))
	}

	if newOffset < 0 {
		return file.offset, pathError(
			"seek",
			file.absPath,
			errors.ErrInvalidArgument.WithMessage(
				fmt.Sprintf("can't seek to negative offset %d", newOffset)))
	}

	file.offset = newOffset
	if file.entry.IsDir && newOffset == 0 {
		file.children = nil
		file.childIndex = 0
	}
	return newOffset, nil
}

// nextChildren returns up to `count` directory entries after the cursor, or all
// of the remaining ones if `count` <= 0. The lock must be held.
func (file *File) nextChildren(op string, count int) ([]fat12.Dirent, error) {
	err := file.checkOpen(op)
	if err != nil {
		return nil, err
	}
	if !file.entry.IsDir {
		return nil, pathError(
			op,
			file.absPath,
			errors.ErrNotADirectory.WithMessage(
				fmt.Sprintf("%q is not a directory", file.absPath)))
	}

	if file.children == nil {
		children, err := file.volume.ListDirectory(file.entry)
		if err != nil {
			return nil, pathError(op, file.absPath, err)
		}
		file.children = children
		file.childIndex = 0
	}

	remaining := file.children[file.childIndex:]
	if count <= 0 {
		file.childIndex = len(file.children)
		return remaining, nil
	}
	if len(remaining) == 0 {
		return nil, io.EOF
	}
	if count > len(remaining) {
		count = len(remaining)
	}
	file.childIndex += count
	return remaining[:count], nil
}

// Readdir returns information about the directory's contents, following the
// conventions of [os.File.Readdir]: with `count` > 0 at most that many entries
// are returned and io.EOF signals the end, otherwise everything that's left is
// returned at once.
func (file *File) Readdir(count int) ([]os.FileInfo, error) {
	file.lock.Lock()
	defer file.lock.Unlock()

	children, err := file.nextChildren("readdir", count)
	if err != nil {
		return nil, err
	}

	infos := make([]os.FileInfo, len(children))
	for i, child := range children {
		infos[i] = newFileInfo(child)
	}
	return infos, nil
}

// ReadDir is like Readdir but returns [fs.DirEntry] values.
func (file *File) ReadDir(count int) ([]fs.DirEntry, error) {
	file.lock.Lock()
	defer file.lock.Unlock()

	children, err := file.nextChildren("readdir", count)
	if err != nil {
		return nil, err
	}

	entries := make([]fs.DirEntry, len(children))
	for i, child := range children {
		entries[i] = newFileInfo(child)
	}
	return entries, nil
}

// Readdirnames is like Readdir but only returns the names.
func (file *File) Readdirnames(count int) ([]string, error) {
	file.lock.Lock()
	defer file.lock.Unlock()

	children, err := file.nextChildren("readdir", count)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(children))
	for i, child := range children {
		names[i] = child.Name
	}
	return names, nil
}

// Sync does nothing, as a read-only file never has anything to flush.
func (file *File) Sync() error {
	return nil
}

// Write-related methods of afero.File ----------------------------------------

func (file *File) Write(data []byte) (int, error) {
	return 0, readOnlyError("write", file.absPath)
}

func (file *File) WriteAt(data []byte, offset int64) (int, error) {
	return 0, readOnlyError("write", file.absPath)
}

func (file *File) WriteString(s string) (int, error) {
	return 0, readOnlyError("write", file.absPath)
}

func (file *File) Truncate(size int64) error {
	return readOnlyError("truncate", file.absPath)
}
