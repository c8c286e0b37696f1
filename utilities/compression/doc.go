// Package compression loads disk images that may be stored compressed.
//
// Floppy images are mostly empty sectors, so they're usually passed around
// gzipped, and newer archives use zstd or xz. [OpenImage] detects these by
// their magic numbers and decompresses them into memory; a raw image is read
// directly from its file instead.
//
// An image whose name (after removing the compression suffix) ends in ".rle"
// is additionally run-length encoded with RLE8, the scheme used by the BMP
// file format: if a byte B occurs N >= 2 times in a row, B is written twice
// followed by a byte giving N-2. For example:
//
//	WXXXXXXXXXXXXXXXYZZ
//	W XX 13 Y ZZ 0
//
// Runs longer than 257 bytes are split. Gzipping the RLE8 output squeezes an
// empty 1.44M floppy down to a few dozen bytes, which is what the test
// fixtures use.
package compression
