package gogsdk

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(srv *httptest.Server) *StorageClient {
	sdk := newTestSDK(srv)
	return sdk.Storage("user-1", "client-1", "scoped-access")
}

func TestListFiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/user-1/client-1", r.URL.Path)
		assert.Equal(t, "Bearer scoped-access", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"name": "saves/a.sav", "hash": "abc123", "last_modified": "2023-05-01T10:00:00"},
			{"name": "saves/nested/b.sav", "hash": "def456", "last_modified": "2023-05-02T11:30:00"},
			{"name": "profiles/other.dat", "hash": "f00", "last_modified": "2023-05-01T10:00:00"}
		]`))
	}))
	defer srv.Close()

	files, err := newTestStorage(srv).ListFiles(context.Background(), "saves")
	require.NoError(t, err)
	require.Len(t, files, 2, "entries outside the location are filtered out")

	assert.Equal(t, "a.sav", files[0].RelativePath)
	assert.Equal(t, "abc123", files[0].Hash)
	assert.Equal(t, time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC), files[0].Modified)
	assert.Equal(t, "nested/b.sav", files[1].RelativePath)
}

func TestListFiles_EmptyNamespace(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	files, err := newTestStorage(srv).ListFiles(context.Background(), "saves")
	require.NoError(t, err, "404 means a never-written namespace, not a failure")
	assert.Empty(t, files)
}

func TestListFiles_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestStorage(srv).ListFiles(context.Background(), "saves")
	var serr *StorageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, StorageTransient, serr.Kind)
}

func TestUploadFile(t *testing.T) {
	content := []byte("save game contents")
	modTime := time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC)

	dir := t.TempDir()
	absPath := filepath.Join(dir, "a.sav")
	require.NoError(t, os.WriteFile(absPath, content, 0o644))

	var gotBody []byte
	var gotHeader http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/v1/user-1/client-1/saves/a.sav", r.URL.Path)
		gotHeader = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := newTestStorage(srv).UploadFile(context.Background(), "saves", "a.sav", absPath, modTime)
	require.NoError(t, err)

	compressed, err := GzipCompress(content)
	require.NoError(t, err)
	assert.Equal(t, compressed, gotBody, "the body is the deterministic gzip stream")

	assert.Equal(t, md5Hex(compressed), gotHeader.Get("Etag"))
	assert.Equal(t, "gzip", gotHeader.Get("Content-Encoding"))
	assert.Equal(t, "2023-05-01T10:00:00Z", gotHeader.Get("X-Object-Meta-LocalLastModified"))
	assert.Equal(t, UserAgent, gotHeader.Get("User-Agent"))
	assert.Equal(t, UserAgent, gotHeader.Get("X-Object-Meta-User-Agent"))
	assert.Equal(t, "Bearer scoped-access", gotHeader.Get("Authorization"))
}

func TestUploadFile_LocalFileVanished(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected when the local file is missing")
	}))
	defer srv.Close()

	err := newTestStorage(srv).UploadFile(context.Background(), "saves", "a.sav",
		filepath.Join(t.TempDir(), "gone.sav"), time.Now())
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestDownloadFile(t *testing.T) {
	content := []byte("downloaded save data")
	compressed, err := GzipCompress(content)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/user-1/client-1/saves/nested/a.sav", r.URL.Path)
		assert.Equal(t, "gzip", r.Header.Get("Accept-Encoding"))
		w.Header().Set("X-Object-Meta-LocalLastModified", "2023-05-01T10:00:00Z")
		w.Write(compressed)
	}))
	defer srv.Close()

	absPath := filepath.Join(t.TempDir(), "nested", "a.sav")
	err = newTestStorage(srv).DownloadFile(context.Background(), "saves", "nested/a.sav", absPath)
	require.NoError(t, err)

	data, err := os.ReadFile(absPath)
	require.NoError(t, err)
	assert.Equal(t, content, data)

	info, err := os.Stat(absPath)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC), info.ModTime().UTC())
}

func TestDownloadFile_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := newTestStorage(srv).DownloadFile(context.Background(), "saves", "a.sav",
		filepath.Join(t.TempDir(), "a.sav"))
	assert.ErrorIs(t, err, ErrEmptyBody)
}

func TestDownloadFile_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	err := newTestStorage(srv).DownloadFile(context.Background(), "saves", "a.sav",
		filepath.Join(t.TempDir(), "a.sav"))
	assert.True(t, IsStorageNotFound(err))
}

func TestDeleteFile(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := newTestStorage(srv).DeleteFile(context.Background(), "saves", "old save.sav")
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/v1/user-1/client-1/saves/old save.sav", gotPath)
}

func TestEncodePath(t *testing.T) {
	assert.Equal(t, "nested/sav%20file.dat", encodePath("nested/sav file.dat"))
	assert.Equal(t, "plain.sav", encodePath("plain.sav"))
}

func TestFormatModTime(t *testing.T) {
	loc := time.FixedZone("CEST", 2*3600)
	t1 := time.Date(2023, 5, 1, 12, 0, 0, 500, loc)
	assert.Equal(t, "2023-05-01T10:00:00Z", FormatModTime(t1))
}

func TestParseCloudTime(t *testing.T) {
	assert.Equal(t,
		time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC),
		parseCloudTime("2023-05-01T10:00:00"))
	assert.Equal(t,
		time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC),
		parseCloudTime("2023-05-01T10:00:00Z").UTC())
	assert.True(t, parseCloudTime("not a timestamp").IsZero())
}
