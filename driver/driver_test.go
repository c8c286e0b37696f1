package driver_test

import (
	"io"
	"io/fs"
	"os"
	"testing"

	"github.com/dargueta/fat12fs/driver"
	"github.com/dargueta/fat12fs/errors"
	"github.com/dargueta/fat12fs/file_systems/common"
	"github.com/dargueta/fat12fs/file_systems/fat12"
	dt "github.com/dargueta/fat12fs/testing"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var readmeText = []byte("This disk intentionally left blank.\r\n")

func newTestDriver(t *testing.T) (*driver.Driver, []byte) {
	bigFile := dt.RandomBytes(t, 3000)
	image, _ := dt.BuildImage(
		t,
		dt.ImageSpec{
			Geometry:    dt.SmallGeometry(),
			VolumeLabel: "DRIVER",
			Root: []dt.Node{
				dt.File("README.TXT", readmeText),
				dt.Dir(
					"GAMES",
					dt.File("TETRIS.EXE", bigFile),
					dt.Dir("SAVES"),
				),
				dt.File("EMPTY", nil),
			},
		},
	)

	volume, err := fat12.Open(common.NewBytesSource(image))
	require.NoError(t, err)
	t.Cleanup(func() { volume.Close() })
	return driver.New(volume), bigFile
}

func TestNormalizePath(t *testing.T) {
	drv, _ := newTestDriver(t)

	tests := map[string]string{
		"":                "/",
		".":               "/",
		"/":               "/",
		"games":           "/games",
		"/GAMES/":         "/GAMES",
		"a/b/../c":        "/a/c",
		"/../../x":        "/x",
		"//games//saves/": "/games/saves",
	}
	for input, expected := range tests {
		assert.Equal(t, expected, drv.NormalizePath(input), "%q", input)
	}
}

func TestDriver__ReadFile(t *testing.T) {
	drv, bigFile := newTestDriver(t)

	data, err := afero.ReadFile(drv, "/readme.txt")
	require.NoError(t, err)
	assert.Equal(t, readmeText, data)

	data, err = drv.ReadFile("GAMES/TETRIS.EXE")
	require.NoError(t, err)
	assert.Equal(t, bigFile, data)

	data, err = afero.ReadFile(drv, "/EMPTY")
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestDriver__Stat(t *testing.T) {
	drv, bigFile := newTestDriver(t)

	info, err := drv.Stat("/games/tetris.exe")
	require.NoError(t, err)
	assert.Equal(t, "TETRIS.EXE", info.Name())
	assert.EqualValues(t, len(bigFile), info.Size())
	assert.False(t, info.IsDir())
	assert.Equal(t, os.FileMode(0o444), info.Mode())
	assert.Equal(t, dt.DefaultTimestamp, info.ModTime())

	dirent, ok := info.Sys().(fat12.Dirent)
	require.True(t, ok)
	assert.Equal(t, "TETRIS.EXE", dirent.Name)

	info, err = drv.Stat("/")
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, fs.ModeDir, info.Mode().Type())
}

func TestDriver__StatMissing(t *testing.T) {
	drv, _ := newTestDriver(t)

	_, err := drv.Stat("/NOPE.TXT")
	assert.ErrorIs(t, err, errors.ErrNotFound)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	var pathErr *os.PathError
	require.ErrorAs(t, err, &pathErr)
	assert.Equal(t, "stat", pathErr.Op)
	assert.Equal(t, "/NOPE.TXT", pathErr.Path)

	_, err = drv.Stat("/README.TXT/X")
	assert.ErrorIs(t, err, errors.ErrNotADirectory)
}

func TestDriver__ReadDir(t *testing.T) {
	drv, _ := newTestDriver(t)

	infos, err := afero.ReadDir(drv, "/")
	require.NoError(t, err)

	names := []string{}
	for _, info := range infos {
		names = append(names, info.Name())
	}
	// afero.ReadDir sorts by name.
	assert.Equal(t, []string{"EMPTY", "GAMES", "README.TXT"}, names)

	infos, err = drv.ReadDir("/games")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "TETRIS.EXE", infos[0].Name())
	assert.Equal(t, "SAVES", infos[1].Name())
	assert.True(t, infos[1].IsDir())

	_, err = drv.ReadDir("/README.TXT")
	assert.ErrorIs(t, err, errors.ErrNotADirectory)
}

func TestDriver__WritesRejected(t *testing.T) {
	drv, _ := newTestDriver(t)

	_, err := drv.Create("/NEW.TXT")
	assert.ErrorIs(t, err, errors.ErrReadOnlyFileSystem)

	_, err = drv.OpenFile("/README.TXT", os.O_RDWR, 0)
	assert.ErrorIs(t, err, errors.ErrReadOnlyFileSystem)

	_, err = drv.OpenFile("/README.TXT", os.O_WRONLY|os.O_APPEND, 0)
	assert.ErrorIs(t, err, errors.ErrReadOnlyFileSystem)

	file, err := drv.OpenFile("/README.TXT", os.O_RDONLY, 0)
	require.NoError(t, err)
	defer file.Close()

	_, err = file.Write([]byte("x"))
	assert.ErrorIs(t, err, errors.ErrReadOnlyFileSystem)
	_, err = file.WriteString("x")
	assert.ErrorIs(t, err, errors.ErrReadOnlyFileSystem)
	assert.ErrorIs(t, file.Truncate(0), errors.ErrReadOnlyFileSystem)
	assert.NoError(t, file.Sync())

	assert.ErrorIs(t, drv.Mkdir("/X", 0o755), errors.ErrReadOnlyFileSystem)
	assert.ErrorIs(t, drv.MkdirAll("/X/Y", 0o755), errors.ErrReadOnlyFileSystem)
	assert.ErrorIs(t, drv.Remove("/README.TXT"), errors.ErrReadOnlyFileSystem)
	assert.ErrorIs(t, drv.RemoveAll("/GAMES"), errors.ErrReadOnlyFileSystem)
	assert.ErrorIs(t, drv.Rename("/README.TXT", "/R.TXT"), errors.ErrReadOnlyFileSystem)
	assert.ErrorIs(t, drv.Chmod("/README.TXT", 0o777), errors.ErrReadOnlyFileSystem)
	assert.ErrorIs(t, drv.Chown("/README.TXT", 0, 0), errors.ErrReadOnlyFileSystem)
	assert.ErrorIs(
		t,
		drv.Chtimes("/README.TXT", dt.DefaultTimestamp, dt.DefaultTimestamp),
		errors.ErrReadOnlyFileSystem)
}

func TestDriver__Walk(t *testing.T) {
	drv, _ := newTestDriver(t)

	visited := []string{}
	err := afero.Walk(
		drv,
		"/",
		func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			visited = append(visited, path)
			return nil
		},
	)
	require.NoError(t, err)
	assert.Equal(
		t,
		[]string{
			"/",
			"/EMPTY",
			"/GAMES",
			"/GAMES/SAVES",
			"/GAMES/TETRIS.EXE",
			"/README.TXT",
		},
		visited)
}

func TestDriver__IOFS(t *testing.T) {
	drv, bigFile := newTestDriver(t)
	fsys := drv.IOFS()

	data, err := fs.ReadFile(fsys, "GAMES/TETRIS.EXE")
	require.NoError(t, err)
	assert.Equal(t, bigFile, data)

	entries, err := fs.ReadDir(fsys, ".")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "EMPTY", entries[0].Name())
	assert.Equal(t, "GAMES", entries[1].Name())
	assert.True(t, entries[1].IsDir())
	assert.Equal(t, "README.TXT", entries[2].Name())

	info, err := fs.Stat(fsys, "README.TXT")
	require.NoError(t, err)
	assert.EqualValues(t, len(readmeText), info.Size())

	_, err = fsys.Open("NOPE")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	matches, err := fs.Glob(fsys, "GAMES/*.EXE")
	require.NoError(t, err)
	assert.Equal(t, []string{"GAMES/TETRIS.EXE"}, matches)
}

func TestDriver__ClosedVolume(t *testing.T) {
	image, _ := dt.BuildImage(
		t,
		dt.ImageSpec{
			Geometry: dt.SmallGeometry(),
			Root:     []dt.Node{dt.File("A.TXT", []byte("a"))},
		},
	)
	volume, err := fat12.Open(common.NewBytesSource(image))
	require.NoError(t, err)

	drv := driver.New(volume)
	file, err := drv.Open("/A.TXT")
	require.NoError(t, err)
	require.NoError(t, volume.Close())

	_, err = drv.Stat("/A.TXT")
	assert.ErrorIs(t, err, errors.ErrBadFileDescriptor)

	_, err = io.ReadAll(file)
	assert.ErrorIs(t, err, errors.ErrBadFileDescriptor)
}
