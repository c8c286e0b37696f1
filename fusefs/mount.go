//go:build linux || darwin

package fusefs

import (
	"time"

	"github.com/dargueta/fat12fs"
	"github.com/dargueta/fat12fs/errors"
	"github.com/dargueta/fat12fs/logging"
	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// MountOptions controls how a volume is mounted.
type MountOptions struct {
	// AllowOther lets users other than the one mounting see the files. It
	// needs user_allow_other in /etc/fuse.conf.
	AllowOther bool
	// Debug logs every FUSE request.
	Debug bool
}

// cacheTimeout is how long the kernel may cache attributes and lookups. The
// volume is read-only, so nothing ever goes stale.
const cacheTimeout = time.Hour

// Mount makes the contents of `volume` visible under the directory
// `mountPoint`. The caller must keep the volume open until the returned server
// has been unmounted, e.g. with [fuse.Server.Wait] after an unmount.
func Mount(mountPoint string, volume fat12fs.Reader, options MountOptions) (*fuse.Server, error) {
	label, err := volume.Label()
	if err != nil {
		return nil, err
	}
	fsName := "fat12"
	if label != "" {
		fsName = "fat12:" + label
	}

	timeout := cacheTimeout
	server, err := fs.Mount(
		mountPoint,
		NewRoot(volume),
		&fs.Options{
			MountOptions: fuse.MountOptions{
				AllowOther: options.AllowOther,
				Debug:      options.Debug,
				FsName:     fsName,
				Name:       "fat12",
				Options:    []string{"ro"},
			},
			AttrTimeout:  &timeout,
			EntryTimeout: &timeout,
		},
	)
	if err != nil {
		return nil, errors.ErrIOFailed.Wrap(err)
	}

	logging.Logger().Infow("mounted volume", "mountPoint", mountPoint, "label", label)
	return server, nil
}
