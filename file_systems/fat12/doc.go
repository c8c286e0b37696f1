// Package fat12 is a read-only driver for FAT12 volumes, the format used by
// nearly every floppy disk ever formatted by DOS or Windows.
//
// A [Volume] is opened once from a [common.Source] and is immutable afterwards:
// the boot sector, the first copy of the File Allocation Table, and the fixed
// root directory are loaded into memory by [Open], and every other read goes to
// the source with a positioned read. A Volume is therefore safe for concurrent
// use by multiple goroutines.
//
// Paths are slash-delimited and always absolute. Names are 8.3 short names
// decoded from code page 437 and compared case-insensitively by default. Long
// file names (VFAT) are not supported; their directory entry fragments are
// skipped.
package fat12
