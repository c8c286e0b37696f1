package fat12fs

import "github.com/dargueta/fat12fs/file_systems/fat12"

// POSIX file type and permission bits, as used in the st_mode field of a stat
// structure. FAT has no notion of ownership, so volumes are presented as
// readable by everyone and writable by no one.
const (
	S_IXOTH = 0o000001
	S_IROTH = 0o000004
	S_IXGRP = 0o000010
	S_IRGRP = 0o000040
	S_IXUSR = 0o000100
	S_IRUSR = 0o000400
	S_IFDIR = 0o040000
	S_IFREG = 0o100000
	S_IFMT  = 0o170000
)

const S_IRALL = S_IRUSR | S_IRGRP | S_IROTH
const S_IXALL = S_IXUSR | S_IXGRP | S_IXOTH

// PosixMode converts an entry's attributes to st_mode bits. Directories are
// searchable by everyone. The read-only attribute needs no special handling
// because nothing is ever writable.
func PosixMode(entry fat12.Dirent) uint32 {
	if entry.IsDir {
		return S_IFDIR | S_IRALL | S_IXALL
	}
	return S_IFREG | S_IRALL
}
