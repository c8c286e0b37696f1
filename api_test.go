package fat12fs_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/dargueta/fat12fs"
	"github.com/dargueta/fat12fs/config"
	"github.com/dargueta/fat12fs/errors"
	"github.com/dargueta/fat12fs/file_systems/fat12"
	dt "github.com/dargueta/fat12fs/testing"
	"github.com/dargueta/fat12fs/utilities/compression"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeImage(t *testing.T, name string, format compression.Format) string {
	image, _ := dt.BuildImage(
		t,
		dt.ImageSpec{
			Geometry:    dt.SmallGeometry(),
			VolumeLabel: "API TEST",
			Root: []dt.Node{
				dt.Dir("DOCS", dt.File("README.TXT", []byte("hello, world\r\n"))),
			},
		},
	)

	var stored bytes.Buffer
	_, err := compression.Compress(format, bytes.NewReader(image), &stored)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, stored.Bytes(), 0o644))
	return path
}

func TestOpenImage(t *testing.T) {
	tests := map[string]compression.Format{
		"disk.img":     compression.FormatRaw,
		"disk.img.gz":  compression.FormatGzip,
		"disk.img.zst": compression.FormatZstd,
		"disk.img.xz":  compression.FormatXZ,
	}

	for name, format := range tests {
		t.Run(
			name,
			func(t *testing.T) {
				path := writeImage(t, name, format)

				volume, err := fat12fs.OpenImage(path, config.Default())
				require.NoError(t, err)

				var reader fat12fs.Reader = volume
				entry, err := reader.Resolve("/docs/readme.txt")
				require.NoError(t, err)

				data, err := reader.ReadFileData(entry)
				require.NoError(t, err)
				assert.Equal(t, "hello, world\r\n", string(data))

				label, err := reader.Label()
				require.NoError(t, err)
				assert.Equal(t, "API TEST", label)

				assert.EqualValues(t, 512, reader.BootSector().BytesPerSector)
				require.NoError(t, reader.Close())
			},
		)
	}
}

func TestOpenImage__CaseSensitiveConfig(t *testing.T) {
	path := writeImage(t, "disk.img", compression.FormatRaw)

	cfg := config.Default()
	cfg.CaseSensitive = true
	volume, err := fat12fs.OpenImage(path, cfg)
	require.NoError(t, err)
	defer volume.Close()

	_, err = volume.Resolve("/docs/readme.txt")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestOpenImage__Missing(t *testing.T) {
	_, err := fat12fs.OpenImage(filepath.Join(t.TempDir(), "nope.img"), config.Default())
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestOpenImage__NotFAT(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.img")
	require.NoError(t, os.WriteFile(path, make([]byte, 4096), 0o644))

	_, err := fat12fs.OpenImage(path, config.Default())
	assert.ErrorIs(t, err, errors.ErrInvalidFormat)
}

func TestPosixMode(t *testing.T) {
	assert.EqualValues(t, 0o040555, fat12fs.PosixMode(fat12.RootDirent()))
	assert.EqualValues(
		t,
		0o100444,
		fat12fs.PosixMode(fat12.Dirent{Name: "A.TXT", Attributes: fat12.AttrReadOnly}))
}
