package main

import (
	"fmt"
	"io"
	"os"
	posixpath "path"
	"strings"
	"time"

	"github.com/dargueta/fat12fs/disks"
	"github.com/dargueta/fat12fs/driver"
	"github.com/dargueta/fat12fs/file_systems/fat12"
	"github.com/dargueta/fat12fs/logging"
	"github.com/dargueta/fat12fs/utilities/compression"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
)

const timestampFormat = "2006-01-02 15:04:05"

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Format(timestampFormat)
}

// attributeString renders the DOS attribute bits the way ATTRIB does.
func attributeString(entry fat12.Dirent) string {
	flags := []struct {
		bit    uint8
		letter byte
	}{
		{fat12.AttrArchived, 'A'},
		{fat12.AttrSystem, 'S'},
		{fat12.AttrHidden, 'H'},
		{fat12.AttrReadOnly, 'R'},
		{fat12.AttrDirectory, 'D'},
	}

	var builder strings.Builder
	for _, flag := range flags {
		if entry.Attributes&flag.bit != 0 {
			builder.WriteByte(flag.letter)
		} else {
			builder.WriteByte('-')
		}
	}
	return builder.String()
}

func showInfo(context *cli.Context) error {
	err := requireArgs(context, 1, 1)
	if err != nil {
		return err
	}
	volume, err := openVolume(context)
	if err != nil {
		return err
	}
	defer volume.Close()

	boot := volume.BootSector()
	label, err := volume.Label()
	if err != nil {
		return err
	}
	stat, err := volume.Stat()
	if err != nil {
		return err
	}

	diskType := "unknown"
	if geometry, ok := disks.MatchGeometry(boot.TotalSectors, boot.BytesPerSector); ok {
		diskType = geometry.Name
	}

	out := context.App.Writer
	row := func(name string, value any) {
		fmt.Fprintf(out, "%-22s %v\n", name+":", value)
	}

	row("Label", label)
	row("OEM name", boot.OEMName)
	if boot.HasExtendedBPB {
		row("Volume ID", fmt.Sprintf("%04X-%04X", boot.VolumeID>>16, boot.VolumeID&0xFFFF))
	}
	row("Disk type", diskType)
	row("Media descriptor", fmt.Sprintf("0x%02X", boot.Media))
	row("Bytes per sector", boot.BytesPerSector)
	row("Sectors per cluster", boot.SectorsPerCluster)
	row("Total sectors", boot.TotalSectors)
	row("Reserved sectors", boot.ReservedSectors)
	row("FAT copies", boot.FATCopies)
	row("Sectors per FAT", boot.SectorsPerFAT)
	row("Root entries", boot.RootEntryCount)
	row("Data region start", boot.DataRegionStart)
	row("Total clusters", stat.TotalClusters)
	row("Free clusters", stat.FreeClusters)
	row("Used clusters", stat.UsedClusters)
	row("Bad clusters", stat.BadClusters)
	row("Lost clusters", stat.LostClusters)
	row("Cross-linked clusters", stat.CrossLinkedClusters)
	row("Free bytes", uint64(stat.FreeClusters)*uint64(stat.BytesPerCluster))
	row("Files", stat.Files)
	row("Directories", stat.Directories)
	return nil
}

func writeListing(out io.Writer, entry fat12.Dirent) {
	name := entry.Name
	if entry.IsDir {
		name += "/"
	}
	fmt.Fprintf(
		out,
		"%s %10d %s %s\n",
		attributeString(entry),
		entry.Size,
		formatTimestamp(entry.Modified),
		name)
}

func listDirectory(context *cli.Context) error {
	err := requireArgs(context, 1, 2)
	if err != nil {
		return err
	}
	volume, err := openVolume(context)
	if err != nil {
		return err
	}
	defer volume.Close()

	drv := driver.New(volume)
	entry, err := volume.Resolve(drv.NormalizePath(pathArg(context, 1)))
	if err != nil {
		return err
	}

	if !entry.IsDir {
		writeListing(context.App.Writer, entry)
		return nil
	}

	children, err := volume.ListDirectory(entry)
	if err != nil {
		return err
	}
	for _, child := range children {
		writeListing(context.App.Writer, child)
	}
	return nil
}

func showTree(context *cli.Context) error {
	err := requireArgs(context, 1, 2)
	if err != nil {
		return err
	}
	volume, err := openVolume(context)
	if err != nil {
		return err
	}
	defer volume.Close()

	drv := driver.New(volume)
	root := drv.NormalizePath(pathArg(context, 1))
	rootDepth := strings.Count(root, "/")
	if root == "/" {
		rootDepth = 0
	}

	return afero.Walk(
		drv,
		root,
		func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			name := info.Name()
			if path == root {
				name = path
			}
			if info.IsDir() && name != "/" {
				name += "/"
			}

			depth := strings.Count(path, "/") - rootDepth
			if path == root {
				depth = 0
			}
			fmt.Fprintf(context.App.Writer, "%s%s\n", strings.Repeat("  ", depth), name)
			return nil
		},
	)
}

func catFile(context *cli.Context) error {
	err := requireArgs(context, 2, 2)
	if err != nil {
		return err
	}
	volume, err := openVolume(context)
	if err != nil {
		return err
	}
	defer volume.Close()

	file, err := driver.New(volume).Open(context.Args().Get(1))
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = io.Copy(context.App.Writer, file)
	return err
}

func statPath(context *cli.Context) error {
	err := requireArgs(context, 2, 2)
	if err != nil {
		return err
	}
	volume, err := openVolume(context)
	if err != nil {
		return err
	}
	defer volume.Close()

	drv := driver.New(volume)
	entry, err := volume.Resolve(drv.NormalizePath(context.Args().Get(1)))
	if err != nil {
		return err
	}

	kind := "file"
	if entry.IsDir {
		kind = "directory"
	}

	out := context.App.Writer
	row := func(name string, value any) {
		fmt.Fprintf(out, "%-14s %v\n", name+":", value)
	}
	row("Name", entry.Name)
	row("Type", kind)
	row("Size", entry.Size)
	row("Attributes", attributeString(entry))
	row("Mode", entry.Mode())
	row("Created", formatTimestamp(entry.Created))
	row("Modified", formatTimestamp(entry.Modified))
	row("Accessed", formatTimestamp(entry.Accessed))
	row("First cluster", entry.FirstCluster)

	if entry.FirstCluster >= fat12.FirstDataCluster {
		clusters, err := volume.ChainClusters(entry.FirstCluster)
		if err != nil {
			return err
		}
		row("Clusters", len(clusters))
	}
	return nil
}

// extractTree copies PATH out of the image into DESTINATION. A directory is
// copied along with everything under it, keeping its own name, so extracting
// /GAMES into out/ produces out/GAMES/.... File modification times are kept.
func extractTree(context *cli.Context) error {
	err := requireArgs(context, 3, 3)
	if err != nil {
		return err
	}
	volume, err := openVolume(context)
	if err != nil {
		return err
	}
	defer volume.Close()

	destination := context.Args().Get(2)
	osFs := afero.NewOsFs()
	err = osFs.MkdirAll(destination, 0o755)
	if err != nil {
		return err
	}
	destFs := afero.NewBasePathFs(osFs, destination)

	drv := driver.New(volume)
	sourceRoot := drv.NormalizePath(context.Args().Get(1))
	sourceParent := posixpath.Dir(sourceRoot)

	fileCount := 0
	err = afero.Walk(
		drv,
		sourceRoot,
		func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			target := posixpath.Join("/", strings.TrimPrefix(path, sourceParent))
			if info.IsDir() {
				return destFs.MkdirAll(target, 0o755)
			}

			source, err := drv.Open(path)
			if err != nil {
				return err
			}
			defer source.Close()

			err = afero.WriteReader(destFs, target, source)
			if err != nil {
				return err
			}
			if !info.ModTime().IsZero() {
				err = destFs.Chtimes(target, info.ModTime(), info.ModTime())
				if err != nil {
					return err
				}
			}

			fileCount++
			logging.Logger().Debugw("extracted file", "path", path, "size", info.Size())
			return nil
		},
	)
	if err != nil {
		return err
	}

	logging.Logger().Infow(
		"extraction finished", "source", sourceRoot, "destination", destination, "files", fileCount)
	return nil
}

// unpackImage writes out the raw bytes of a compressed or run-length encoded
// image. Raw images are copied as is.
func unpackImage(context *cli.Context) error {
	err := requireArgs(context, 2, 2)
	if err != nil {
		return err
	}

	image, err := compression.OpenImage(context.Args().Get(0))
	if err != nil {
		return err
	}
	defer image.Close()

	output := context.Args().Get(1)
	err = afero.WriteReader(afero.NewOsFs(), output, io.NewSectionReader(image, 0, image.Size()))
	if err != nil {
		return err
	}

	logging.Logger().Infow(
		"unpacked image",
		"output", output,
		"format", image.Format().String(),
		"rle", image.RunLengthEncoded(),
		"bytes", image.Size())
	return nil
}
