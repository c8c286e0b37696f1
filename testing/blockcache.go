package testing

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/dargueta/fat12fs/errors"
	"github.com/dargueta/fat12fs/file_systems/common/blockcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// CreateDefaultCache creates a block cache over an in-memory object.
//
// Arguments:
//
//   - bytesPerBlock: The number of bytes in a single block.
//   - totalBlocks: The number of blocks in the cache.
//   - size: The length of the object, which must fit in the blocks.
//   - backingData: Optional. A byte slice of at least `bytesPerBlock * totalBlocks`
//     that is used as the underlying storage the cache sits on top of. You can
//     pass `nil` for this to get completely random data.
//   - `t`: The testing fixture.
//
// The fetch handler checks bounds and fails the test if they're violated. The
// returned counter is incremented on every fetch, so tests can check that
// blocks aren't fetched more than once.
func CreateDefaultCache(
	bytesPerBlock,
	totalBlocks uint,
	size int64,
	backingData []byte,
	t testing.TB,
) (*blockcache.BlockCache, []byte, *atomic.Int32) {
	if backingData == nil {
		backingData = RandomBytes(t, int(bytesPerBlock*totalBlocks))
	}

	fetches := &atomic.Int32{}
	fetchCallback := func(blockIndex uint, buffer []byte) error {
		fetches.Add(1)
		if blockIndex >= totalBlocks {
			message := fmt.Sprintf(
				"attempted to read outside bounds: block %d not in [0, %d)",
				blockIndex,
				totalBlocks,
			)
			t.Error(message)
			return errors.ErrIOFailed.WithMessage(message)
		}
		assert.Len(t, buffer, int(bytesPerBlock), "fetch buffer is the wrong size")

		start := blockIndex * bytesPerBlock
		copy(buffer, backingData[start:start+bytesPerBlock])
		return nil
	}

	cache, err := blockcache.New(bytesPerBlock, totalBlocks, size, fetchCallback)
	require.NoError(t, err)
	assert.EqualValues(t, bytesPerBlock, cache.BytesPerBlock(), "wrong bytes per block")
	assert.EqualValues(t, totalBlocks, cache.TotalBlocks(), "wrong total blocks")
	assert.EqualValues(t, size, cache.Size(), "total size is wrong")
	return cache, backingData, fetches
}
