package fat12_test

import (
	"testing"

	"github.com/dargueta/fat12fs/file_systems/common"
	"github.com/dargueta/fat12fs/file_systems/fat12"
	dt "github.com/dargueta/fat12fs/testing"
	"github.com/stretchr/testify/require"
)

// openSpec builds an image and opens it with the default options.
func openSpec(t *testing.T, spec dt.ImageSpec) (*fat12.Volume, []byte, dt.Layout) {
	image, layout := dt.BuildImage(t, spec)
	return openBytes(t, image), image, layout
}

func openBytes(t *testing.T, image []byte) *fat12.Volume {
	volume, err := fat12.Open(common.NewBytesSource(image))
	require.NoError(t, err)
	t.Cleanup(func() { volume.Close() })
	return volume
}

// scenarioSpec is a volume whose root directory holds one subdirectory "A",
// which in turn holds a four-byte file "B.TXT".
func scenarioSpec() dt.ImageSpec {
	return dt.ImageSpec{
		Geometry: dt.SmallGeometry(),
		Root: []dt.Node{
			dt.Dir("A", dt.File("B.TXT", []byte("abcd"))),
		},
	}
}
