// Package disks describes the standard floppy disk formats DOS knew how to
// create, along with the FAT12 parameters its FORMAT command wrote for each.
package disks

import (
	_ "embed"
	"encoding/csv"
	"fmt"
	"sort"
	"strings"

	"github.com/gocarina/gocsv"
)

// DiskGeometry is one standard floppy format.
type DiskGeometry struct {
	Slug               string `csv:"slug"`
	Name               string `csv:"name"`
	FirstYearAvailable uint   `csv:"first_year_available"`

	BytesPerSector    uint16 `csv:"bytes_per_sector"`
	SectorsPerCluster uint8  `csv:"sectors_per_cluster"`
	ReservedSectors   uint16 `csv:"reserved_sectors"`
	FATCopies         uint8  `csv:"fat_copies"`
	RootEntries       uint16 `csv:"root_entries"`
	TotalSectors      uint32 `csv:"total_sectors"`
	// Media is the media descriptor byte, also stored in FAT entry 0.
	Media         uint8  `csv:"media"`
	SectorsPerFAT uint16 `csv:"sectors_per_fat"`

	SectorsPerTrack uint16 `csv:"sectors_per_track"`
	Heads           uint16 `csv:"heads"`
}

// TotalSizeBytes gives the size of a raw image of this format.
func (g *DiskGeometry) TotalSizeBytes() int64 {
	return int64(g.TotalSectors) * int64(g.BytesPerSector)
}

// Tracks gives the number of tracks per head.
func (g *DiskGeometry) Tracks() uint32 {
	return g.TotalSectors / (uint32(g.SectorsPerTrack) * uint32(g.Heads))
}

// https://en.wikipedia.org/wiki/List_of_floppy_disk_formats
//
//go:embed floppy-geometries.csv
var diskGeometriesRawCSV string
var diskGeometries map[string]DiskGeometry

// GetPredefinedDiskGeometry returns the format with the given slug, e.g. "1440k".
func GetPredefinedDiskGeometry(slug string) (DiskGeometry, error) {
	geometry, ok := diskGeometries[slug]
	if ok {
		return geometry, nil
	}

	err := fmt.Errorf("no predefined disk geometry exists with slug %q", slug)
	return DiskGeometry{}, err
}

// MatchGeometry finds the standard format with the given size, if any. Every
// format in the table has a distinct size so there's never more than one.
func MatchGeometry(totalSectors uint32, bytesPerSector uint16) (DiskGeometry, bool) {
	for _, geometry := range diskGeometries {
		if geometry.TotalSectors == totalSectors && geometry.BytesPerSector == bytesPerSector {
			return geometry, true
		}
	}
	return DiskGeometry{}, false
}

// All returns every predefined format, smallest first.
func All() []DiskGeometry {
	geometries := make([]DiskGeometry, 0, len(diskGeometries))
	for _, geometry := range diskGeometries {
		geometries = append(geometries, geometry)
	}
	sort.Slice(
		geometries,
		func(i, j int) bool {
			return geometries[i].TotalSizeBytes() < geometries[j].TotalSizeBytes()
		},
	)
	return geometries
}

func init() {
	reader := strings.NewReader(diskGeometriesRawCSV)
	csvReader := csv.NewReader(reader)
	csvReader.Comma = '|'

	var rows []DiskGeometry
	err := gocsv.UnmarshalCSV(csvReader, &rows)
	if err != nil {
		panic(fmt.Errorf("failed to decode disk geometries: %w", err))
	}

	diskGeometries = make(map[string]DiskGeometry, len(rows))
	for i, row := range rows {
		_, exists := diskGeometries[row.Slug]
		if exists {
			message := fmt.Errorf(
				"duplicate definition for disk %q found on row %d", row.Slug, i+1)
			panic(message)
		}
		diskGeometries[row.Slug] = row
	}
}
