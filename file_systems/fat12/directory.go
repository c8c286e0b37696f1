package fat12

import (
	stderrors "errors"
	"fmt"

	"github.com/dargueta/fat12fs/errors"
)

// errEndOfDirectory ends a scan once the end-of-directory marker is seen.
var errEndOfDirectory = stderrors.New("end of directory")

// rawDirentVisitor receives every in-use raw entry, including volume labels and
// long name fragments.
type rawDirentVisitor func(raw *RawDirent) error

// DirentVisitor receives every visible entry of a directory. Returning
// [SkipRest] ends the scan early without an error.
type DirentVisitor func(entry Dirent) error

// scanBuffer walks one buffer of packed directory entries. It returns
// errEndOfDirectory when it hits the end marker.
func scanBuffer(buffer []byte, visit rawDirentVisitor) error {
	for offset := 0; offset+DirentSize <= len(buffer); offset += DirentSize {
		data := buffer[offset : offset+DirentSize]

		switch ClassifyRawDirent(data) {
		case DirentEnd:
			return errEndOfDirectory
		case DirentDeleted:
			continue
		}

		raw, err := NewRawDirentFromBytes(data)
		if err != nil {
			return err
		}
		err = visit(&raw)
		if err != nil {
			return err
		}
	}
	return nil
}

// scanRawDirents calls `visit` for every in-use entry of `dir`. The root
// directory is scanned from the buffer loaded when the volume was opened.
// Subdirectories are read one cluster at a time, so a scan that stops early
// never touches the clusters after the one it stopped in.
func (v *Volume) scanRawDirents(dir Dirent, visit rawDirentVisitor) error {
	err := v.checkOpen()
	if err != nil {
		return err
	}
	if !dir.IsDir {
		return errors.ErrNotADirectory.WithMessage(
			fmt.Sprintf("%q is not a directory", dir.Name))
	}

	if dir.IsRoot() {
		err = scanBuffer(v.rootDir, visit)
	} else {
		err = v.WalkChain(
			dir.FirstCluster,
			func(cluster ClusterID) error {
				data, err := v.ReadCluster(cluster)
				if err != nil {
					return err
				}
				return scanBuffer(data, visit)
			},
		)
	}

	if err == nil || stderrors.Is(err, errEndOfDirectory) || stderrors.Is(err, SkipRest) {
		return nil
	}
	return err
}

// ScanDirectory calls `visit` for each file and subdirectory in `dir`, in the
// order they're stored. Deleted entries, the volume label, and long file name
// fragments are skipped; "." and ".." are not.
func (v *Volume) ScanDirectory(dir Dirent, visit DirentVisitor) error {
	return v.scanRawDirents(
		dir,
		func(raw *RawDirent) error {
			if raw.IsLongNameFragment() || raw.IsVolumeLabel() {
				return nil
			}
			return visit(raw.Decode())
		},
	)
}

// ListDirectory returns the contents of `dir`, not including "." and "..".
func (v *Volume) ListDirectory(dir Dirent) ([]Dirent, error) {
	entries := []Dirent{}
	err := v.ScanDirectory(
		dir,
		func(entry Dirent) error {
			if entry.Name != "." && entry.Name != ".." {
				entries = append(entries, entry)
			}
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Label returns the volume label. The label entry in the root directory takes
// precedence over the copy in the boot sector, since DOS only ever updated the
// former. Returns an empty string if the volume has no label.
func (v *Volume) Label() (string, error) {
	label := ""
	err := v.scanRawDirents(
		RootDirent(),
		func(raw *RawDirent) error {
			if !raw.IsVolumeLabel() {
				return nil
			}
			label = decodeOEMText(append(raw.Name[:], raw.Extension[:]...))
			return SkipRest
		},
	)
	if err != nil {
		return "", err
	}

	if label == "" && v.boot.HasExtendedBPB && v.boot.VolumeLabel != "NO NAME" {
		label = v.boot.VolumeLabel
	}
	return label, nil
}
