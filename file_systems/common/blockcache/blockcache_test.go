package blockcache_test

import (
	"io"
	"testing"

	"github.com/dargueta/fat12fs/errors"
	"github.com/dargueta/fat12fs/file_systems/common/blockcache"
	dt "github.com/dargueta/fat12fs/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Read the whole object in one go with no trickery such as reading past the
// end of it.
func TestBlockCache__ReadAt__Basic(t *testing.T) {
	// 64 blocks, 128 bytes per block. 128 is a common block size in very old
	// *true* floppies.
	cache, rawBlocks, fetches := dt.CreateDefaultCache(128, 64, 128*64, nil, t)

	buffer := make([]byte, 128*64)
	n, err := cache.ReadAt(buffer, 0)
	require.NoError(t, err)
	assert.Equal(t, 128*64, n)
	assert.Equal(t, rawBlocks, buffer, "data read from cache doesn't match")
	assert.EqualValues(t, 64, fetches.Load(), "every block should be fetched once")
	assert.EqualValues(t, 64, cache.LoadedBlockCount())
}

func TestBlockCache__ReadAt__OnlyTouchedBlocksFetched(t *testing.T) {
	cache, rawBlocks, fetches := dt.CreateDefaultCache(512, 8, 512*8, nil, t)

	// Straddles blocks 2 and 3.
	buffer := make([]byte, 100)
	n, err := cache.ReadAt(buffer, 1500)
	require.NoError(t, err)
	assert.Equal(t, 100, n)
	assert.Equal(t, rawBlocks[1500:1600], buffer)
	assert.EqualValues(t, 2, fetches.Load())
	assert.EqualValues(t, 2, cache.LoadedBlockCount())

	// Hitting the same blocks again mustn't go back to storage.
	n, err = cache.ReadAt(buffer, 1024)
	require.NoError(t, err)
	assert.Equal(t, 100, n)
	assert.Equal(t, rawBlocks[1024:1124], buffer)
	assert.EqualValues(t, 2, fetches.Load(), "cached block was fetched again")
}

func TestBlockCache__ReadAt__PartialLastBlock(t *testing.T) {
	// The object ends 10 bytes into its third block.
	cache, rawBlocks, _ := dt.CreateDefaultCache(16, 3, 42, nil, t)

	buffer := make([]byte, 20)
	n, err := cache.ReadAt(buffer, 30)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 12, n)
	assert.Equal(t, rawBlocks[30:42], buffer[:n])

	n, err = cache.ReadAt(buffer, 42)
	assert.ErrorIs(t, err, io.EOF)
	assert.Zero(t, n)

	n, err = cache.ReadAt(buffer[:12], 30)
	assert.NoError(t, err, "read ending exactly at the end of the object isn't EOF")
	assert.Equal(t, 12, n)
}

func TestBlockCache__ReadAt__BadOffset(t *testing.T) {
	cache, _, fetches := dt.CreateDefaultCache(16, 2, 32, nil, t)

	_, err := cache.ReadAt(make([]byte, 4), -1)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)

	n, err := cache.ReadAt(nil, 4)
	assert.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, fetches.Load(), "nothing should have been fetched")
}

func TestBlockCache__EmptyObject(t *testing.T) {
	cache, _, fetches := dt.CreateDefaultCache(512, 0, 0, []byte{}, t)

	n, err := cache.ReadAt(make([]byte, 10), 0)
	assert.ErrorIs(t, err, io.EOF)
	assert.Zero(t, n)

	data, err := cache.Data()
	require.NoError(t, err)
	assert.NotNil(t, data)
	assert.Empty(t, data)
	assert.Zero(t, fetches.Load())
}

func TestBlockCache__Data(t *testing.T) {
	cache, rawBlocks, fetches := dt.CreateDefaultCache(64, 4, 200, nil, t)

	data, err := cache.Data()
	require.NoError(t, err)
	assert.Equal(t, rawBlocks[:200], data)
	assert.EqualValues(t, 4, fetches.Load())

	// Modifying the copy mustn't affect the cache.
	data[0] ^= 0xff
	buffer := make([]byte, 1)
	_, err = cache.ReadAt(buffer, 0)
	require.NoError(t, err)
	assert.Equal(t, rawBlocks[0], buffer[0])
}

func TestBlockCache__FetchFailure(t *testing.T) {
	cache, err := blockcache.New(
		32,
		4,
		128,
		func(blockIndex uint, buffer []byte) error {
			if blockIndex == 2 {
				return errors.ErrInvalidFormat
			}
			return nil
		},
	)
	require.NoError(t, err)

	_, err = cache.ReadAt(make([]byte, 32), 0)
	assert.NoError(t, err)

	_, err = cache.ReadAt(make([]byte, 32), 64)
	assert.ErrorIs(t, err, errors.ErrIOFailed)
	assert.ErrorIs(t, err, errors.ErrInvalidFormat, "fetch error should be wrapped")
	assert.EqualValues(t, 1, cache.LoadedBlockCount(), "failed block marked as loaded")

	_, err = cache.Data()
	assert.Error(t, err)
}

func TestBlockCache__New__InvalidArguments(t *testing.T) {
	fetch := func(uint, []byte) error { return nil }

	_, err := blockcache.New(0, 4, 0, fetch)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)

	_, err = blockcache.New(16, 4, 65, fetch)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument, "size larger than the blocks")

	_, err = blockcache.New(16, 4, -1, fetch)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)
}

func TestBlockCache__LengthToNumBlocks(t *testing.T) {
	cache, _, _ := dt.CreateDefaultCache(512, 4, 0, nil, t)

	assert.EqualValues(t, 0, cache.LengthToNumBlocks(0))
	assert.EqualValues(t, 1, cache.LengthToNumBlocks(1))
	assert.EqualValues(t, 1, cache.LengthToNumBlocks(512))
	assert.EqualValues(t, 2, cache.LengthToNumBlocks(513))
}
