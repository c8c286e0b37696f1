//go:build !linux && !darwin

package main

import (
	"github.com/dargueta/fat12fs/errors"
	"github.com/urfave/cli/v2"
)

func mountCommand() *cli.Command {
	return &cli.Command{
		Name:      "mount",
		Usage:     "Mount an image read-only with FUSE (not available on this platform)",
		ArgsUsage: "IMAGE DIRECTORY",
		Action: func(context *cli.Context) error {
			return errors.ErrNotSupported.WithMessage("FUSE mounts need Linux or macOS")
		},
	}
}
