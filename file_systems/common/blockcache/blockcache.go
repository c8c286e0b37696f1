// Package blockcache provides a block-oriented cache that can be used for
// providing a linear view of a single object scattered across discontiguous
// blocks in the disk image, such as a file and its cluster chain.
//
// The cache is read-through: each block is fetched from storage the first time
// any part of it is read, and kept from then on. All block indices begin at 0.
package blockcache

import (
	"fmt"
	"io"
	"sync"

	"github.com/boljen/go-bitmap"
	"github.com/dargueta/fat12fs/errors"
)

// FetchBlockCallback is a pointer to a function that writes the contents of a
// single block from the backing storage into `buffer`. The following guarantees
// apply:
//
// - `blockIndex` is in the range [0, TotalBlocks).
// - `buffer` is always BytesPerBlock bytes.
type FetchBlockCallback func(blockIndex uint, buffer []byte) error

// BlockCache is safe for concurrent use.
type BlockCache struct {
	lock          sync.Mutex
	loadedBlocks  bitmap.Bitmap
	fetch         FetchBlockCallback
	bytesPerBlock uint
	totalBlocks   uint
	// size is the length of the object in bytes. The tail of the last block
	// past this is never returned to callers.
	size int64
	data []byte
}

// New creates a new BlockCache for an object `size` bytes long, stored in
// `totalBlocks` blocks. `size` must fit in the blocks.
func New(
	bytesPerBlock uint,
	totalBlocks uint,
	size int64,
	fetchCb FetchBlockCallback,
) (*BlockCache, error) {
	if bytesPerBlock == 0 {
		return nil, errors.ErrInvalidArgument.WithMessage("block size can't be 0")
	}
	capacity := int64(bytesPerBlock) * int64(totalBlocks)
	if size < 0 || size > capacity {
		return nil, errors.ErrInvalidArgument.WithMessage(
			fmt.Sprintf(
				"object size %d not in [0, %d] for %d blocks of %d bytes",
				size,
				capacity,
				totalBlocks,
				bytesPerBlock))
	}

	return &BlockCache{
		loadedBlocks:  bitmap.NewSlice(int(totalBlocks)),
		data:          make([]byte, capacity),
		fetch:         fetchCb,
		bytesPerBlock: bytesPerBlock,
		totalBlocks:   totalBlocks,
		size:          size,
	}, nil
}

// BytesPerBlock returns the size of a single block, in bytes.
func (cache *BlockCache) BytesPerBlock() uint {
	return cache.bytesPerBlock
}

// TotalBlocks returns the size of the cache, in blocks.
func (cache *BlockCache) TotalBlocks() uint {
	return cache.totalBlocks
}

// Size gives the size of the cached object, in bytes (not blocks!).
func (cache *BlockCache) Size() int64 {
	return cache.size
}

// LengthToNumBlocks gives the minimum number of blocks required to hold the
// given number of bytes.
func (cache *BlockCache) LengthToNumBlocks(size uint) uint {
	return (size + cache.bytesPerBlock - 1) / cache.bytesPerBlock
}

// LoadedBlockCount returns how many blocks have been fetched so far.
func (cache *BlockCache) LoadedBlockCount() uint {
	cache.lock.Lock()
	defer cache.lock.Unlock()

	count := uint(0)
	for i := 0; i < int(cache.totalBlocks); i++ {
		if cache.loadedBlocks.Get(i) {
			count++
		}
	}
	return count
}

// loadBlockRange ensures that all blocks in the range [start, start + count)
// are present in the cache, and loads any missing ones from storage. The lock
// must be held.
func (cache *BlockCache) loadBlockRange(start, count uint) error {
	if start+count > cache.totalBlocks {
		return errors.ErrOutOfRange.WithMessage(
			fmt.Sprintf(
				"can't load %d blocks from block %d; range not in [0, %d)",
				count,
				start,
				cache.totalBlocks))
	}

	for blockIndex := start; blockIndex < start+count; blockIndex++ {
		if cache.loadedBlocks.Get(int(blockIndex)) {
			continue
		}

		// Load the block from backing storage directly into the cache.
		offset := blockIndex * cache.bytesPerBlock
		err := cache.fetch(blockIndex, cache.data[offset:offset+cache.bytesPerBlock])
		if err != nil {
			return errors.ErrIOFailed.WithMessage(
				fmt.Sprintf("failed to load block %d from source", blockIndex)).Wrap(err)
		}
		cache.loadedBlocks.Set(int(blockIndex), true)
	}
	return nil
}

// ReadAt reads from the object starting at byte `offset`, loading any missing
// blocks first. It follows the [io.ReaderAt] contract: a read that stops at the
// end of the object returns io.EOF along with the bytes it got.
func (cache *BlockCache) ReadAt(buffer []byte, offset int64) (int, error) {
	if offset < 0 {
		return 0, errors.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("negative read offset %d", offset))
	}
	if offset >= cache.size {
		return 0, io.EOF
	}
	if len(buffer) == 0 {
		return 0, nil
	}

	end := offset + int64(len(buffer))
	if end > cache.size {
		end = cache.size
	}

	firstBlock := uint(offset / int64(cache.bytesPerBlock))
	lastBlock := uint((end - 1) / int64(cache.bytesPerBlock))

	cache.lock.Lock()
	defer cache.lock.Unlock()

	err := cache.loadBlockRange(firstBlock, lastBlock-firstBlock+1)
	if err != nil {
		return 0, err
	}

	n := copy(buffer, cache.data[offset:end])
	if n < len(buffer) {
		return n, io.EOF
	}
	return n, nil
}

// Data returns a copy of the entire object. This requires loading all blocks
// not yet in the cache.
func (cache *BlockCache) Data() ([]byte, error) {
	cache.lock.Lock()
	defer cache.lock.Unlock()

	err := cache.loadBlockRange(0, cache.totalBlocks)
	if err != nil {
		return nil, err
	}

	data := make([]byte, cache.size)
	copy(data, cache.data)
	return data, nil
}
