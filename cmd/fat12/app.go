package main

import (
	"fmt"

	"github.com/dargueta/fat12fs"
	"github.com/dargueta/fat12fs/config"
	"github.com/dargueta/fat12fs/errors"
	"github.com/dargueta/fat12fs/file_systems/fat12"
	"github.com/dargueta/fat12fs/logging"
	"github.com/urfave/cli/v2"
)

const configMetadataKey = "config"

func newApp() *cli.App {
	return &cli.App{
		Name:  "fat12",
		Usage: "Read files from FAT12 floppy disk images",
		Flags: []cli.Flag{
			&cli.PathFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "load settings from a YAML `FILE`",
				EnvVars: []string{"FAT12_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "one of debug, info, warn, or error",
			},
			&cli.BoolFlag{
				Name:  "log-json",
				Usage: "write logs as JSON",
			},
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "reject images whose boot sector has out-of-spec values",
			},
			&cli.BoolFlag{
				Name:  "case-sensitive",
				Usage: "match path components exactly instead of ignoring case",
			},
			&cli.UintFlag{
				Name:  "max-chain-length",
				Usage: "give up on cluster chains longer than `N` clusters",
			},
		},
		Before: loadConfig,
		Commands: []*cli.Command{
			{
				Name:      "info",
				Usage:     "Show the geometry and usage statistics of an image",
				ArgsUsage: "IMAGE",
				Action:    showInfo,
			},
			{
				Name:      "ls",
				Usage:     "List the contents of a directory",
				ArgsUsage: "IMAGE [PATH]",
				Action:    listDirectory,
			},
			{
				Name:      "tree",
				Usage:     "List a directory and everything under it",
				ArgsUsage: "IMAGE [PATH]",
				Action:    showTree,
			},
			{
				Name:      "cat",
				Usage:     "Write the contents of a file to standard output",
				ArgsUsage: "IMAGE PATH",
				Action:    catFile,
			},
			{
				Name:      "stat",
				Usage:     "Show the directory entry for a file or directory",
				ArgsUsage: "IMAGE PATH",
				Action:    statPath,
			},
			{
				Name:      "extract",
				Usage:     "Copy a file or directory tree out of an image",
				ArgsUsage: "IMAGE PATH DESTINATION",
				Action:    extractTree,
			},
			{
				Name:      "unpack",
				Usage:     "Write a compressed image out as a raw image",
				ArgsUsage: "IMAGE OUTPUT",
				Action:    unpackImage,
			},
			mountCommand(),
		},
	}
}

// loadConfig builds the effective configuration from the config file and
// command line flags, in that order, and sets up logging.
func loadConfig(context *cli.Context) error {
	cfg := config.Default()
	if path := context.Path("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	if context.IsSet("log-level") {
		cfg.LogLevel = context.String("log-level")
	}
	if context.IsSet("log-json") {
		cfg.LogJSON = context.Bool("log-json")
	}
	if context.IsSet("strict") {
		cfg.Strict = context.Bool("strict")
	}
	if context.IsSet("case-sensitive") {
		cfg.CaseSensitive = context.Bool("case-sensitive")
	}
	if context.IsSet("max-chain-length") {
		cfg.MaxChainLength = uint32(context.Uint("max-chain-length"))
	}

	err := cfg.Validate()
	if err != nil {
		return err
	}
	_, err = logging.Init(cfg.LogLevel, cfg.LogJSON)
	if err != nil {
		return err
	}

	if context.App.Metadata == nil {
		context.App.Metadata = map[string]interface{}{}
	}
	context.App.Metadata[configMetadataKey] = cfg
	return nil
}

func configFromContext(context *cli.Context) config.Config {
	cfg, ok := context.App.Metadata[configMetadataKey].(config.Config)
	if !ok {
		return config.Default()
	}
	return cfg
}

// requireArgs fails unless the command got between `min` and `max` positional
// arguments.
func requireArgs(context *cli.Context, min, max int) error {
	count := context.NArg()
	if count < min || count > max {
		return errors.ErrInvalidArgument.WithMessage(
			fmt.Sprintf(
				"%s: expected arguments %s, got %d",
				context.Command.Name,
				context.Command.ArgsUsage,
				count))
	}
	return nil
}

// openVolume opens the image named by the first argument.
func openVolume(context *cli.Context) (*fat12.Volume, error) {
	path := context.Args().First()
	volume, err := fat12fs.OpenImage(path, configFromContext(context))
	if err != nil {
		return nil, fmt.Errorf("can't open %q: %w", path, err)
	}
	return volume, nil
}

// pathArg returns the positional argument at `index`, or "/" if there isn't
// one.
func pathArg(context *cli.Context, index int) string {
	path := context.Args().Get(index)
	if path == "" {
		return "/"
	}
	return path
}
