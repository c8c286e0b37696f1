//go:build linux || darwin

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/dargueta/fat12fs/fusefs"
	"github.com/dargueta/fat12fs/logging"
	"github.com/urfave/cli/v2"
)

func mountCommand() *cli.Command {
	return &cli.Command{
		Name:      "mount",
		Usage:     "Mount an image read-only with FUSE until interrupted",
		ArgsUsage: "IMAGE DIRECTORY",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "allow-other",
				Usage: "let other users access the mounted files",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "log every FUSE request",
			},
		},
		Action: mountImage,
	}
}

func mountImage(context *cli.Context) error {
	err := requireArgs(context, 2, 2)
	if err != nil {
		return err
	}
	volume, err := openVolume(context)
	if err != nil {
		return err
	}
	defer volume.Close()

	server, err := fusefs.Mount(
		context.Args().Get(1),
		volume,
		fusefs.MountOptions{
			AllowOther: context.Bool("allow-other"),
			Debug:      context.Bool("debug"),
		},
	)
	if err != nil {
		return err
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)

	go func() {
		sig := <-signals
		logging.Logger().Infow("unmounting", "signal", sig.String())
		err := server.Unmount()
		if err != nil {
			logging.Logger().Errorw("unmount failed", "error", err)
		}
	}()

	// Returns once the file system is unmounted, by us or by fusermount -u.
	server.Wait()
	return nil
}
