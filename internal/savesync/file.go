package savesync

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/openlauncher/savesync/internal/gogsdk"
)

// SyncFile is one file on either side of the sync. Local files carry a
// content hash computed from the gzip-compressed bytes, matching the hash
// the cloud storage reports for uploaded objects.
type SyncFile struct {
	RelativePath string  // slash-separated, posix style
	AbsolutePath string
	ContentHash  string  // md5 of the gzip-compressed content
	ModifiedTime string  // ISO-8601, second precision, UTC
	ModifiedTS   float64 // unix seconds
}

// ScanLocalFiles walks the save directory and builds SyncFiles with
// metadata. Per-file read failures are logged and the file skipped.
func ScanLocalFiles(root string) ([]*SyncFile, error) {
	var files []*SyncFile

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		f := &SyncFile{
			RelativePath: filepath.ToSlash(relPath),
			AbsolutePath: path,
		}
		if err := f.computeMetadata(); err != nil {
			slog.Warn("skipping unreadable file", "path", path, "error", err)
			return nil
		}

		files = append(files, f)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

func (f *SyncFile) computeMetadata() error {
	info, err := os.Stat(f.AbsolutePath)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(f.AbsolutePath)
	if err != nil {
		return err
	}

	hash, err := gogsdk.ContentHash(raw)
	if err != nil {
		return err
	}

	modTime := info.ModTime().UTC().Truncate(time.Second)
	f.ContentHash = hash
	f.ModifiedTime = modTime.Format(time.RFC3339)
	f.ModifiedTS = float64(modTime.Unix())
	return nil
}

// ModTime returns the file's modification time parsed back from metadata.
func (f *SyncFile) ModTime() time.Time {
	t, err := time.Parse(time.RFC3339, f.ModifiedTime)
	if err != nil {
		return time.Unix(int64(f.ModifiedTS), 0).UTC()
	}
	return t
}

// IsTombstone reports whether the file is a cloud deletion tombstone.
func (f *SyncFile) IsTombstone() bool {
	return f.ContentHash == gogsdk.EmptyGzipMD5
}

// cloudSyncFiles converts a storage listing into SyncFiles rooted at savePath.
func cloudSyncFiles(objects []gogsdk.ObjectInfo, savePath string) []*SyncFile {
	files := make([]*SyncFile, 0, len(objects))
	for _, obj := range objects {
		f := &SyncFile{
			RelativePath: obj.RelativePath,
			AbsolutePath: filepath.Join(savePath, filepath.FromSlash(obj.RelativePath)),
			ContentHash:  obj.Hash,
			ModifiedTime: obj.LastModified,
		}
		if !obj.Modified.IsZero() {
			f.ModifiedTS = float64(obj.Modified.Unix())
		}
		files = append(files, f)
	}
	return files
}
