package fat12

import (
	"fmt"
	"io"

	"github.com/dargueta/fat12fs/errors"
)

// checkReadable makes sure `entry` is a regular file whose chain can be read.
func (v *Volume) checkReadable(entry Dirent) error {
	err := v.checkOpen()
	if err != nil {
		return err
	}
	if entry.IsDir {
		return errors.ErrIsADirectory.WithMessage(
			fmt.Sprintf("can't read %q as a file", entry.Name))
	}
	if entry.Size > 0 && entry.FirstCluster == 0 {
		return errors.ErrInvalidFormat.WithMessage(
			fmt.Sprintf(
				"%q is %d bytes long but has no clusters allocated",
				entry.Name,
				entry.Size))
	}
	return nil
}

// ReadFileData returns the entire contents of a file: exactly entry.Size bytes,
// with the slack at the end of the last cluster cut off. A chain with too few
// clusters for the recorded size fails with [errors.ErrInvalidFormat].
func (v *Volume) ReadFileData(entry Dirent) ([]byte, error) {
	err := v.checkReadable(entry)
	if err != nil {
		return nil, err
	}

	data := make([]byte, entry.Size)
	if entry.Size == 0 {
		return data, nil
	}

	filled := 0
	err = v.WalkChain(
		entry.FirstCluster,
		func(cluster ClusterID) error {
			clusterData, err := v.ReadCluster(cluster)
			if err != nil {
				return err
			}
			filled += copy(data[filled:], clusterData)
			if filled == len(data) {
				return SkipRest
			}
			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	if filled < len(data) {
		return nil, errors.ErrInvalidFormat.WithMessage(
			fmt.Sprintf(
				"%q should be %d bytes but its cluster chain only holds %d",
				entry.Name,
				entry.Size,
				filled))
	}
	return data, nil
}

// ReadFileAt reads len(buffer) bytes of a file starting at `offset`, with the
// semantics of [io.ReaderAt]: if fewer bytes are returned than requested, the
// error says why, and it's [io.EOF] if the read hit the end of the file.
//
// Clusters before the one containing `offset` are skipped over in the FAT
// without being read from the image.
func (v *Volume) ReadFileAt(entry Dirent, buffer []byte, offset int64) (int, error) {
	err := v.checkReadable(entry)
	if err != nil {
		return 0, err
	}
	if offset < 0 {
		return 0, errors.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("negative read offset %d", offset))
	}

	fileSize := int64(entry.Size)
	if offset >= fileSize {
		return 0, io.EOF
	}
	if len(buffer) == 0 {
		return 0, nil
	}

	end := offset + int64(len(buffer))
	if end > fileSize {
		end = fileSize
	}

	bytesPerCluster := int64(v.boot.BytesPerCluster)
	firstIndex := offset / bytesPerCluster
	lastIndex := (end - 1) / bytesPerCluster

	clusterIndex := int64(0)
	totalCopied := 0
	err = v.WalkChain(
		entry.FirstCluster,
		func(cluster ClusterID) error {
			index := clusterIndex
			clusterIndex++
			if index < firstIndex {
				return nil
			}

			clusterData, err := v.ReadCluster(cluster)
			if err != nil {
				return err
			}

			clusterStart := index * bytesPerCluster
			from := offset + int64(totalCopied) - clusterStart
			to := bytesPerCluster
			if clusterStart+to > end {
				to = end - clusterStart
			}
			totalCopied += copy(buffer[totalCopied:], clusterData[from:to])

			if index == lastIndex {
				return SkipRest
			}
			return nil
		},
	)
	if err != nil {
		return totalCopied, err
	}

	if int64(totalCopied) < end-offset {
		return totalCopied, errors.ErrInvalidFormat.WithMessage(
			fmt.Sprintf(
				"cluster chain of %q ends before byte %d", entry.Name, end))
	}
	if end == fileSize && int64(len(buffer)) > end-offset {
		return totalCopied, io.EOF
	}
	return totalCopied, nil
}
