package fat12_test

import (
	stderrors "errors"
	"testing"

	"github.com/dargueta/fat12fs/errors"
	"github.com/dargueta/fat12fs/file_systems/common"
	"github.com/dargueta/fat12fs/file_systems/fat12"
	dt "github.com/dargueta/fat12fs/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chainSpec has a single fragmented file three clusters long, at clusters 2,
// 4, and 6.
func chainSpec(t *testing.T) dt.ImageSpec {
	return dt.ImageSpec{
		Geometry: dt.SmallGeometry(),
		Root: []dt.Node{
			{Name: "FRAG.BIN", Data: dt.RandomBytes(t, 1300), Fragmented: true},
		},
	}
}

func TestChainClusters__Fragmented(t *testing.T) {
	volume, _, layout := openSpec(t, chainSpec(t))
	require.Equal(t, []uint16{2, 4, 6}, layout.Clusters["/FRAG.BIN"])

	clusters, err := volume.ChainClusters(2)
	require.NoError(t, err)
	assert.Equal(t, []fat12.ClusterID{2, 4, 6}, clusters)

	link, err := volume.NextCluster(4)
	require.NoError(t, err)
	assert.Equal(t, fat12.ChainLink{Kind: fat12.LinkNext, Next: 6}, link)

	link, err = volume.NextCluster(3)
	require.NoError(t, err)
	assert.Equal(t, fat12.LinkUnallocated, link.Kind)

	link, err = volume.NextCluster(6)
	require.NoError(t, err)
	assert.Equal(t, fat12.LinkEndOfChain, link.Kind)
}

func TestWalkChain__Cycle(t *testing.T) {
	spec := chainSpec(t)
	image, _ := dt.BuildImage(t, spec)
	// 2 -> 4 -> 6 -> 2 -> ...
	dt.PatchFATEntry(image, spec.Geometry, 6, 2)
	volume := openBytes(t, image)

	visits := 0
	err := volume.WalkChain(
		2,
		func(cluster fat12.ClusterID) error {
			visits++
			return nil
		},
	)
	assert.ErrorIs(t, err, errors.ErrInvalidFormat)
	assert.Equal(t, 3, visits)
}

func TestWalkChain__SelfLoop(t *testing.T) {
	spec := chainSpec(t)
	image, _ := dt.BuildImage(t, spec)
	dt.PatchFATEntry(image, spec.Geometry, 2, 2)
	volume := openBytes(t, image)

	_, err := volume.ChainClusters(2)
	assert.ErrorIs(t, err, errors.ErrInvalidFormat)
}

func TestWalkChain__MaxChainLength(t *testing.T) {
	image, _ := dt.BuildImage(t, chainSpec(t))

	volume, err := fat12.OpenWithOptions(
		common.NewBytesSource(image), fat12.Options{MaxChainLength: 2})
	require.NoError(t, err)
	defer volume.Close()

	_, err = volume.ChainClusters(2)
	assert.ErrorIs(t, err, errors.ErrInvalidFormat)

	_, err = volume.ChainClusters(4)
	assert.NoError(t, err)
}

func TestWalkChain__BrokenLinks(t *testing.T) {
	tests := map[string]uint16{
		"unallocated":    0x000,
		"bad cluster":    0xFF7,
		"reserved":       0x001,
		"past last":      0x100,
		"reserved range": 0xFF0,
	}

	for name, value := range tests {
		t.Run(
			name,
			func(t *testing.T) {
				spec := chainSpec(t)
				image, _ := dt.BuildImage(t, spec)
				dt.PatchFATEntry(image, spec.Geometry, 4, value)
				volume := openBytes(t, image)

				_, err := volume.ChainClusters(2)
				assert.ErrorIs(t, err, errors.ErrInvalidFormat)
			},
		)
	}
}

func TestWalkChain__BadStart(t *testing.T) {
	volume, _, _ := openSpec(t, chainSpec(t))

	for _, start := range []fat12.ClusterID{0, 1, 63, 0xFFF} {
		_, err := volume.ChainClusters(start)
		assert.ErrorIs(t, err, errors.ErrOutOfRange, "start %d", start)
	}
}

func TestWalkChain__SkipRest(t *testing.T) {
	volume, _, _ := openSpec(t, chainSpec(t))

	visited := []fat12.ClusterID{}
	err := volume.WalkChain(
		2,
		func(cluster fat12.ClusterID) error {
			visited = append(visited, cluster)
			if cluster == 4 {
				return fat12.SkipRest
			}
			return nil
		},
	)
	require.NoError(t, err)
	assert.Equal(t, []fat12.ClusterID{2, 4}, visited)
}

func TestWalkChain__VisitorError(t *testing.T) {
	volume, _, _ := openSpec(t, chainSpec(t))
	sentinel := stderrors.New("stop here")

	err := volume.WalkChain(
		2,
		func(cluster fat12.ClusterID) error {
			return sentinel
		},
	)
	assert.ErrorIs(t, err, sentinel)
}
