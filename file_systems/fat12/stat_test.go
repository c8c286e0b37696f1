package fat12_test

import (
	"testing"

	"github.com/dargueta/fat12fs/errors"
	"github.com/dargueta/fat12fs/file_systems/fat12"
	dt "github.com/dargueta/fat12fs/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStat__Clean(t *testing.T) {
	volume, _, _ := openSpec(t, scenarioSpec())

	stat, err := volume.Stat()
	require.NoError(t, err)
	assert.Equal(
		t,
		fat12.VolumeStat{
			BytesPerCluster: 512,
			TotalClusters:   61,
			FreeClusters:    59,
			UsedClusters:    2,
			Files:           1,
			Directories:     2,
		},
		stat)
}

func TestStat__LostAndBad(t *testing.T) {
	spec := scenarioSpec()
	image, _ := dt.BuildImage(t, spec)
	dt.PatchFATEntry(image, spec.Geometry, 10, 0xFFF)
	dt.PatchFATEntry(image, spec.Geometry, 11, 0xFF7)
	volume := openBytes(t, image)

	stat, err := volume.Stat()
	require.NoError(t, err)
	assert.EqualValues(t, 3, stat.UsedClusters)
	assert.EqualValues(t, 1, stat.BadClusters)
	assert.EqualValues(t, 57, stat.FreeClusters)
	assert.EqualValues(t, 1, stat.LostClusters)
	assert.EqualValues(t, 0, stat.CrossLinkedClusters)
}

func TestStat__CrossLinked(t *testing.T) {
	spec := dt.ImageSpec{
		Geometry: dt.SmallGeometry(),
		Root: []dt.Node{
			dt.File("ONE.BIN", make([]byte, 1024)),
			dt.File("TWO.BIN", make([]byte, 1024)),
		},
	}
	image, layout := dt.BuildImage(t, spec)
	require.Equal(t, []uint16{2, 3}, layout.Clusters["/ONE.BIN"])
	require.Equal(t, []uint16{4, 5}, layout.Clusters["/TWO.BIN"])

	// TWO.BIN now ends in ONE.BIN's last cluster, orphaning cluster 5.
	dt.PatchFATEntry(image, spec.Geometry, 4, 3)
	volume := openBytes(t, image)

	stat, err := volume.Stat()
	require.NoError(t, err)
	assert.EqualValues(t, 4, stat.UsedClusters)
	assert.EqualValues(t, 1, stat.CrossLinkedClusters)
	assert.EqualValues(t, 1, stat.LostClusters)
	assert.EqualValues(t, 2, stat.Files)
}

func TestStat__CycleDoesNotHang(t *testing.T) {
	spec := dt.ImageSpec{
		Geometry: dt.SmallGeometry(),
		Root: []dt.Node{
			dt.Dir("LOOP", dt.File("X.TXT", []byte("x"))),
		},
	}
	image, layout := dt.BuildImage(t, spec)
	loop := layout.Clusters["/LOOP"][0]
	dt.PatchFATEntry(image, spec.Geometry, loop, loop)
	volume := openBytes(t, image)

	stat, err := volume.Stat()
	require.NoError(t, err)
	assert.EqualValues(t, 2, stat.Directories)
}

func TestStat__Closed(t *testing.T) {
	image, _ := dt.BuildImage(t, scenarioSpec())
	volume := openBytes(t, image)
	require.NoError(t, volume.Close())

	_, err := volume.Stat()
	assert.ErrorIs(t, err, errors.ErrBadFileDescriptor)
}
