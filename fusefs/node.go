//go:build linux || darwin

// Package fusefs exposes a FAT12 volume to the host operating system through
// FUSE. The mount is read-only.
package fusefs

import (
	"context"
	"io"
	"syscall"
	"time"

	"github.com/dargueta/fat12fs"
	"github.com/dargueta/fat12fs/errors"
	"github.com/dargueta/fat12fs/file_systems/common/blockcache"
	"github.com/dargueta/fat12fs/file_systems/fat12"
	"github.com/dargueta/fat12fs/logging"
	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// Node is a file or directory in the mounted tree.
type Node struct {
	fs.Inode
	volume fat12fs.Reader
	entry  fat12.Dirent
}

var (
	_ fs.NodeLookuper  = (*Node)(nil)
	_ fs.NodeReaddirer = (*Node)(nil)
	_ fs.NodeGetattrer = (*Node)(nil)
	_ fs.NodeOpener    = (*Node)(nil)
	_ fs.NodeReader    = (*Node)(nil)
	_ fs.NodeStatfser  = (*Node)(nil)
)

// NewRoot returns the node for the root directory of `volume`.
func NewRoot(volume fat12fs.Reader) *Node {
	return &Node{volume: volume, entry: fat12.RootDirent()}
}

// toErrno converts a driver error to the errno the kernel gets back.
func toErrno(err error) syscall.Errno {
	if err == nil {
		return 0
	}
	return errors.ErrnoOf(err).Syscall()
}

// inodeNumber derives a stable inode number from the first cluster. Empty files
// have no cluster, so they get 0, which tells go-fuse to pick a number.
func inodeNumber(entry fat12.Dirent) uint64 {
	return uint64(entry.FirstCluster)
}

// timeOrEpoch keeps invalid on-disk dates from turning into huge unsigned
// timestamps.
func timeOrEpoch(ts time.Time) time.Time {
	if ts.IsZero() {
		return time.Unix(0, 0)
	}
	return ts
}

func (n *Node) fillAttr(out *fuse.Attr) {
	bytesPerCluster := uint64(n.volume.BootSector().BytesPerCluster)

	out.Ino = inodeNumber(n.entry)
	out.Mode = fat12fs.PosixMode(n.entry)
	out.Nlink = 1
	out.Size = uint64(n.entry.Size)
	// st_blocks is always in 512-byte units.
	clusters := (out.Size + bytesPerCluster - 1) / bytesPerCluster
	out.Blocks = clusters * bytesPerCluster / 512

	accessed := timeOrEpoch(n.entry.Accessed)
	modified := timeOrEpoch(n.entry.Modified)
	created := timeOrEpoch(n.entry.Created)
	out.SetTimes(&accessed, &modified, &created)
}

func (n *Node) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	n.fillAttr(&out.Attr)
	return 0
}

// lookupChild finds `name` in this directory. The kernel resolves "." and ".."
// itself, so those are never looked up on disk.
func (n *Node) lookupChild(name string) (*Node, syscall.Errno) {
	if name == "." || name == ".." {
		return nil, syscall.ENOENT
	}
	child, err := n.volume.Lookup(n.entry, name)
	if err != nil {
		return nil, toErrno(err)
	}
	return &Node{volume: n.volume, entry: child}, 0
}

func (n *Node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	child, errno := n.lookupChild(name)
	if errno != 0 {
		return nil, errno
	}

	child.fillAttr(&out.Attr)
	stable := fs.StableAttr{
		Mode: fat12fs.PosixMode(child.entry) & fat12fs.S_IFMT,
		Ino:  inodeNumber(child.entry),
	}
	return n.NewInode(ctx, child, stable), 0
}

// dirEntries lists the directory in the form go-fuse wants.
func (n *Node) dirEntries() ([]fuse.DirEntry, syscall.Errno) {
	children, err := n.volume.ListDirectory(n.entry)
	if err != nil {
		logging.Logger().Warnw("can't list directory", "name", n.entry.Name, "error", err)
		return nil, toErrno(err)
	}

	entries := make([]fuse.DirEntry, len(children))
	for i, child := range children {
		entries[i] = fuse.DirEntry{
			Name: child.Name,
			Mode: fat12fs.PosixMode(child) & fat12fs.S_IFMT,
			Ino:  inodeNumber(child),
		}
	}
	return entries, 0
}

func (n *Node) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	entries, errno := n.dirEntries()
	if errno != 0 {
		return nil, errno
	}
	return fs.NewListDirStream(entries), 0
}

// openWriteFlags are the open(2) flags that need write access.
const openWriteFlags = syscall.O_WRONLY | syscall.O_RDWR | syscall.O_APPEND |
	syscall.O_CREAT | syscall.O_TRUNC

// fileHandle keeps the contents of an open file cached, so the kernel's reads
// don't walk the cluster chain again for every page.
type fileHandle struct {
	name  string
	cache *blockcache.BlockCache
}

var _ fs.FileReader = (*fileHandle)(nil)

func (h *fileHandle) Read(ctx context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	count, err := h.cache.ReadAt(dest, off)
	if err != nil && err != io.EOF {
		logging.Logger().Warnw("read failed", "name", h.name, "offset", off, "error", err)
		return nil, toErrno(err)
	}
	return fuse.ReadResultData(dest[:count]), 0
}

// Open only allows opening for reading. The contents of the volume never
// change while it's mounted, so the kernel may cache them indefinitely.
func (n *Node) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	if flags&openWriteFlags != 0 {
		return nil, 0, syscall.EROFS
	}
	if n.entry.IsDir {
		return nil, 0, syscall.EISDIR
	}

	cache, err := n.volume.NewFileCache(n.entry)
	if err != nil {
		logging.Logger().Warnw("can't open file", "name", n.entry.Name, "error", err)
		return nil, 0, toErrno(err)
	}
	return &fileHandle{name: n.entry.Name, cache: cache}, fuse.FOPEN_KEEP_CACHE, 0
}

// Read goes through the handle from Open when there is one, and straight to the
// volume otherwise.
func (n *Node) Read(ctx context.Context, fh fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	if handle, ok := fh.(*fileHandle); ok {
		return handle.Read(ctx, dest, off)
	}

	count, err := n.volume.ReadFileAt(n.entry, dest, off)
	if err != nil && err != io.EOF {
		logging.Logger().Warnw(
			"read failed", "name", n.entry.Name, "offset", off, "error", err)
		return nil, toErrno(err)
	}
	return fuse.ReadResultData(dest[:count]), 0
}

func (n *Node) Statfs(ctx context.Context, out *fuse.StatfsOut) syscall.Errno {
	stat, err := n.volume.Stat()
	if err != nil {
		return toErrno(err)
	}

	out.Bsize = stat.BytesPerCluster
	out.Frsize = stat.BytesPerCluster
	out.Blocks = uint64(stat.TotalClusters)
	out.Bfree = uint64(stat.FreeClusters)
	out.Bavail = uint64(stat.FreeClusters)
	out.Files = uint64(stat.Files + stat.Directories)
	// 8.3: eight characters, a dot, and three more.
	out.NameLen = 12
	return 0
}
