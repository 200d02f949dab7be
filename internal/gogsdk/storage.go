package gogsdk

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/imroc/req/v3"

	"github.com/openlauncher/savesync/internal/utils"
)

const (
	headerObjectMetaUserAgent    = "X-Object-Meta-User-Agent"
	headerObjectMetaLastModified = "X-Object-Meta-LocalLastModified"
)

// ObjectInfo describes one object in the cloud storage listing, with the
// location prefix already stripped from the path.
type ObjectInfo struct {
	RelativePath string
	Hash         string
	LastModified string
	Modified     time.Time
}

// IsTombstone reports whether the object marks an intentionally deleted file.
func (o ObjectInfo) IsTombstone() bool {
	return o.Hash == EmptyGzipMD5
}

type listEntry struct {
	Name         string `json:"name"`
	Hash         string `json:"hash"`
	LastModified string `json:"last_modified"`
}

// StorageClient performs REST operations against one game's cloud storage
// namespace: {base}/v1/{user_id}/{client_id}/{location}/{path}.
type StorageClient struct {
	client      *req.Client
	baseURL     string
	userID      string
	clientID    string
	accessToken string
}

// Storage creates a storage client bound to a game-scoped token.
func (s *SDK) Storage(userID, clientID, accessToken string) *StorageClient {
	return &StorageClient{
		client:      s.client,
		baseURL:     s.cloudStorageURL,
		userID:      userID,
		clientID:    clientID,
		accessToken: accessToken,
	}
}

func (c *StorageClient) clientURL() string {
	return fmt.Sprintf("%s/v1/%s/%s", c.baseURL, c.userID, c.clientID)
}

func (c *StorageClient) objectURL(location, relPath string) string {
	return fmt.Sprintf("%s/%s/%s", c.clientURL(), location, encodePath(relPath))
}

// encodePath percent-encodes each path segment, keeping the separators.
func encodePath(relPath string) string {
	segments := strings.Split(relPath, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

// ListFiles lists the objects stored under a location. A 404 means the
// namespace has never been written and is reported as an empty listing.
func (c *StorageClient) ListFiles(ctx context.Context, location string) ([]ObjectInfo, error) {
	var entries []listEntry
	resp, err := c.client.R().
		SetContext(ctx).
		SetBearerAuthToken(c.accessToken).
		SetHeader("Accept", "application/json").
		SetSuccessResult(&entries).
		Get(c.clientURL())
	if err != nil {
		return nil, newStorageError("list", location, 0, err)
	}
	if resp.IsErrorState() {
		serr := newStorageError("list", location, resp.StatusCode, nil)
		if serr.Kind == StorageNotFound {
			slog.Debug("no files in cloud namespace", "location", location)
			return nil, nil
		}
		return nil, serr
	}

	prefix := location + "/"
	files := make([]ObjectInfo, 0, len(entries))
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name, prefix) {
			continue
		}
		relPath := strings.TrimPrefix(entry.Name, prefix)
		files = append(files, ObjectInfo{
			RelativePath: relPath,
			Hash:         entry.Hash,
			LastModified: entry.LastModified,
			Modified:     parseCloudTime(entry.LastModified),
		})
	}
	slog.Debug("cloud listing", "location", location, "files", len(files))
	return files, nil
}

// UploadFile gzip-compresses the local file and PUTs it with the metadata
// headers the Galaxy protocol requires. Returns ErrFileNotFound when the
// local file vanished since the scan.
func (c *StorageClient) UploadFile(ctx context.Context, location, relPath, absPath string, modTime time.Time) error {
	raw, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrFileNotFound
		}
		return fmt.Errorf("read %s: %w", absPath, err)
	}

	compressed, err := GzipCompress(raw)
	if err != nil {
		return fmt.Errorf("compress %s: %w", relPath, err)
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBearerAuthToken(c.accessToken).
		SetHeader("Etag", md5Hex(compressed)).
		SetHeader("Content-Encoding", "gzip").
		SetHeader(headerObjectMetaLastModified, FormatModTime(modTime)).
		SetBodyBytes(compressed).
		Put(c.objectURL(location, relPath))
	if err != nil {
		return newStorageError("upload", relPath, 0, err)
	}
	if resp.IsErrorState() {
		return newStorageError("upload", relPath, resp.StatusCode, nil)
	}
	slog.Info("uploaded", "path", relPath, "compressedSize", len(compressed))
	return nil
}

// DownloadFile GETs an object, inflates it and writes it to absPath,
// restoring the original modification time when the server kept it. That
// keeps later scans computing the same watermark comparisons on every device.
func (c *StorageClient) DownloadFile(ctx context.Context, location, relPath, absPath string) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBearerAuthToken(c.accessToken).
		// Ask for the stored gzip bytes verbatim; we inflate ourselves.
		SetHeader("Accept-Encoding", "gzip").
		Get(c.objectURL(location, relPath))
	if err != nil {
		return newStorageError("download", relPath, 0, err)
	}
	if resp.IsErrorState() {
		return newStorageError("download", relPath, resp.StatusCode, nil)
	}

	body, err := resp.ToBytes()
	if err != nil {
		return fmt.Errorf("read body %s: %w", relPath, err)
	}
	if len(body) == 0 {
		return ErrEmptyBody
	}

	data, err := GzipDecompress(body)
	if err != nil {
		return fmt.Errorf("decompress %s: %w", relPath, err)
	}

	if err := utils.EnsureParent(absPath); err != nil {
		return fmt.Errorf("create parent dir for %s: %w", absPath, err)
	}
	if err := os.WriteFile(absPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", absPath, err)
	}

	if lastModified := resp.Header.Get(headerObjectMetaLastModified); lastModified != "" {
		if t := parseCloudTime(lastModified); !t.IsZero() {
			if err := os.Chtimes(absPath, t, t); err != nil {
				slog.Warn("failed to restore mtime", "path", absPath, "error", err)
			}
		} else {
			slog.Warn("invalid last-modified metadata", "path", relPath, "value", lastModified)
		}
	}

	slog.Info("downloaded", "path", relPath, "size", len(data))
	return nil
}

// DeleteFile removes an object from the cloud namespace.
func (c *StorageClient) DeleteFile(ctx context.Context, location, relPath string) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBearerAuthToken(c.accessToken).
		Delete(c.objectURL(location, relPath))
	if err != nil {
		return newStorageError("delete", relPath, 0, err)
	}
	if resp.IsErrorState() {
		return newStorageError("delete", relPath, resp.StatusCode, nil)
	}
	slog.Debug("deleted cloud file", "path", relPath)
	return nil
}

// FormatModTime renders a modification time the way the Galaxy protocol
// stores it: UTC, ISO-8601, second precision.
func FormatModTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

// parseCloudTime parses the timestamp formats the storage API emits.
// Returns the zero time when the value is unparseable.
func parseCloudTime(value string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
