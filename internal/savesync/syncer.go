package savesync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/openlauncher/savesync/internal/gogsdk"
	"github.com/openlauncher/savesync/internal/utils"
)

// PreferredAction lets a caller steer the sync direction. The plain forms
// are refused when they oppose the classifier's verdict; the forced forms
// replace the transfer set with the whole side and skip the delete pass.
type PreferredAction string

const (
	PreferNone          PreferredAction = ""
	PreferUpload        PreferredAction = "upload"
	PreferDownload      PreferredAction = "download"
	PreferForceUpload   PreferredAction = "forceupload"
	PreferForceDownload PreferredAction = "forcedownload"
)

// Forced reports whether the action overrides the classifier unconditionally.
func (a PreferredAction) Forced() bool {
	return a == PreferForceUpload || a == PreferForceDownload
}

// SyncParams identifies one save location sync pass.
type SyncParams struct {
	GameID       string
	SavePath     string
	LocationName string
	Platform     gogsdk.Platform
	RefreshToken string
	Preferred    PreferredAction
}

// SyncResult reports what one sync pass did. Err is set only when the pass
// aborted before any action could be determined; per-file failures just
// leave the file out of the transfer lists.
type SyncResult struct {
	Action       SyncAction
	Uploaded     []string
	Downloaded   []string
	DeletedLocal []string
	DeletedCloud []string
	Timestamp    float64
	Err          error
}

// Storage is the slice of the cloud storage API the orchestrator needs.
// *gogsdk.StorageClient satisfies it.
type Storage interface {
	ListFiles(ctx context.Context, location string) ([]gogsdk.ObjectInfo, error)
	UploadFile(ctx context.Context, location, relPath, absPath string, modTime time.Time) error
	DownloadFile(ctx context.Context, location, relPath, absPath string) error
	DeleteFile(ctx context.Context, location, relPath string) error
}

// Backend abstracts the credential chain, location discovery, and storage
// construction so tests can run the orchestrator and runner against fakes.
type Backend interface {
	GameClientCredentials(ctx context.Context, gameID string, platform gogsdk.Platform) (*gogsdk.GameCredentials, error)
	GameScopedToken(ctx context.Context, refreshToken, clientID, clientSecret string) (*gogsdk.TokenResponse, error)
	CloudSaveLocations(ctx context.Context, accessToken, clientID string, platform gogsdk.Platform) ([]gogsdk.CloudSaveLocation, error)
	Storage(userID, clientID, accessToken string) Storage
}

type sdkBackend struct {
	sdk *gogsdk.SDK
}

func (b sdkBackend) GameClientCredentials(ctx context.Context, gameID string, platform gogsdk.Platform) (*gogsdk.GameCredentials, error) {
	return b.sdk.GameClientCredentials(ctx, gameID, platform)
}

func (b sdkBackend) GameScopedToken(ctx context.Context, refreshToken, clientID, clientSecret string) (*gogsdk.TokenResponse, error) {
	return b.sdk.GameScopedToken(ctx, refreshToken, clientID, clientSecret)
}

func (b sdkBackend) CloudSaveLocations(ctx context.Context, accessToken, clientID string, platform gogsdk.Platform) ([]gogsdk.CloudSaveLocation, error) {
	return b.sdk.CloudSaveLocations(ctx, accessToken, clientID, platform)
}

func (b sdkBackend) Storage(userID, clientID, accessToken string) Storage {
	return b.sdk.Storage(userID, clientID, accessToken)
}

// Syncer orchestrates one save location sync: credential chain, local scan,
// cloud listing, classification, transfer, watermark commit.
type Syncer struct {
	backend Backend
	store   WatermarkStore

	// commitOnPartialFailure keeps the original engine's behavior: a pass
	// that ran to completion advances the watermark even when individual
	// files failed to transfer. Early aborts never commit.
	commitOnPartialFailure bool

	now func() time.Time
}

type SyncerOption func(*Syncer)

// WithCommitOnPartialFailure controls whether a completed pass with failed
// files still advances the watermark. Default true.
func WithCommitOnPartialFailure(commit bool) SyncerOption {
	return func(s *Syncer) {
		s.commitOnPartialFailure = commit
	}
}

func NewSyncer(sdk *gogsdk.SDK, store WatermarkStore, opts ...SyncerOption) *Syncer {
	return newSyncerWithBackend(sdkBackend{sdk: sdk}, store, opts...)
}

func newSyncerWithBackend(backend Backend, store WatermarkStore, opts ...SyncerOption) *Syncer {
	s := &Syncer{
		backend:                backend,
		store:                  store,
		commitOnPartialFailure: true,
		now:                    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SyncSaves reconciles one save location against the cloud. The returned
// result always carries the action taken; Err is set when the pass aborted
// before a direction could be decided.
func (s *Syncer) SyncSaves(ctx context.Context, params SyncParams) *SyncResult {
	result := &SyncResult{Action: ActionNone}

	if err := utils.EnsureDir(params.SavePath); err != nil {
		return s.fail(result, fmt.Errorf("create save dir %s: %w", params.SavePath, err))
	}

	creds, err := s.backend.GameClientCredentials(ctx, params.GameID, params.Platform)
	if err != nil {
		return s.fail(result, fmt.Errorf("game credentials: %w", err))
	}

	token, err := s.backend.GameScopedToken(ctx, params.RefreshToken, creds.ClientID, creds.ClientSecret)
	if err != nil {
		return s.fail(result, fmt.Errorf("game-scoped token: %w", err))
	}
	if token.AccessToken == "" || token.UserID == "" {
		return s.fail(result, errors.New("token response missing access_token or user_id"))
	}

	storage := s.backend.Storage(token.UserID, creds.ClientID, token.AccessToken)

	localFiles, err := ScanLocalFiles(params.SavePath)
	if err != nil {
		return s.fail(result, fmt.Errorf("scan %s: %w", params.SavePath, err))
	}

	objects, err := storage.ListFiles(ctx, params.LocationName)
	if err != nil {
		return s.fail(result, fmt.Errorf("list cloud files: %w", err))
	}
	cloudFiles := cloudSyncFiles(objects, params.SavePath)

	downloadable := make([]*SyncFile, 0, len(cloudFiles))
	for _, f := range cloudFiles {
		if !f.IsTombstone() {
			downloadable = append(downloadable, f)
		}
	}

	slog.Info("sync state", "game", params.GameID, "location", params.LocationName,
		"local", len(localFiles), "cloud", len(cloudFiles))

	// Bootstrap shortcuts: one empty side needs no classification.
	if len(localFiles) > 0 && len(cloudFiles) == 0 {
		slog.Info("cloud empty, uploading everything", "location", params.LocationName)
		failed := s.uploadFiles(ctx, storage, params.LocationName, localFiles, result)
		result.Action = ActionUpload
		s.commit(params, result, failed)
		return result
	}
	if len(localFiles) == 0 && len(downloadable) > 0 {
		slog.Info("local empty, downloading everything", "location", params.LocationName)
		failed := s.downloadFiles(ctx, storage, params.LocationName, downloadable, result)
		result.Action = ActionDownload
		s.commit(params, result, failed)
		return result
	}

	watermark, err := s.store.Get(params.GameID, params.LocationName)
	if err != nil {
		slog.Warn("failed to read watermark, assuming never synced", "game", params.GameID, "error", err)
		watermark = 0
	}

	classifier := Classify(localFiles, cloudFiles, watermark)
	action := classifier.Action()

	uploadSet := classifier.UpdatedLocal
	downloadSet := classifier.UpdatedCloud
	forced := params.Preferred.Forced()

	switch params.Preferred {
	case PreferForceUpload:
		slog.Warn("forcing upload", "location", params.LocationName)
		uploadSet = localFiles
		action = ActionUpload
	case PreferForceDownload:
		slog.Warn("forcing download", "location", params.LocationName)
		downloadSet = downloadable
		action = ActionDownload
	case PreferUpload:
		if action == ActionDownload {
			slog.Warn("refusing upload, cloud has newer files", "location", params.LocationName)
			result.Action = ActionNone
			return result
		}
	case PreferDownload:
		if action == ActionUpload {
			slog.Warn("refusing download, local has newer files", "location", params.LocationName)
			result.Action = ActionNone
			return result
		}
	}

	var failed int
	switch action {
	case ActionUpload:
		slog.Info("uploading", "count", len(uploadSet), "location", params.LocationName)
		failed = s.uploadFiles(ctx, storage, params.LocationName, uploadSet, result)
		if !forced {
			failed += s.deleteCloudFiles(ctx, storage, params.LocationName, classifier.NotExistingLocally, result)
		}

	case ActionDownload:
		slog.Info("downloading", "count", len(downloadSet), "location", params.LocationName)
		failed = s.downloadFiles(ctx, storage, params.LocationName, downloadSet, result)
		if !forced {
			failed += s.deleteLocalFiles(classifier.NotExistingRemotely, result)
		}

	case ActionConflict:
		slog.Warn("both sides changed since last sync, user action required",
			"game", params.GameID, "location", params.LocationName)

	case ActionNone:
		slog.Debug("saves up to date", "location", params.LocationName)
	}

	result.Action = action
	if action != ActionConflict {
		s.commit(params, result, failed)
	}
	return result
}

func (s *Syncer) uploadFiles(ctx context.Context, storage Storage, location string, files []*SyncFile, result *SyncResult) int {
	failed := 0
	for _, f := range files {
		if err := storage.UploadFile(ctx, location, f.RelativePath, f.AbsolutePath, f.ModTime()); err != nil {
			slog.Error("upload failed", "path", f.RelativePath, "error", err)
			failed++
			continue
		}
		result.Uploaded = append(result.Uploaded, f.RelativePath)
	}
	return failed
}

func (s *Syncer) downloadFiles(ctx context.Context, storage Storage, location string, files []*SyncFile, result *SyncResult) int {
	failed := 0
	for _, f := range files {
		if err := storage.DownloadFile(ctx, location, f.RelativePath, f.AbsolutePath); err != nil {
			slog.Error("download failed", "path", f.RelativePath, "error", err)
			failed++
			continue
		}
		result.Downloaded = append(result.Downloaded, f.RelativePath)
	}
	return failed
}

func (s *Syncer) deleteCloudFiles(ctx context.Context, storage Storage, location string, files []*SyncFile, result *SyncResult) int {
	failed := 0
	for _, f := range files {
		if err := storage.DeleteFile(ctx, location, f.RelativePath); err != nil {
			slog.Error("cloud delete failed", "path", f.RelativePath, "error", err)
			failed++
			continue
		}
		result.DeletedCloud = append(result.DeletedCloud, f.RelativePath)
	}
	return failed
}

func (s *Syncer) deleteLocalFiles(files []*SyncFile, result *SyncResult) int {
	failed := 0
	for _, f := range files {
		slog.Info("deleting local file", "path", f.AbsolutePath)
		if err := os.Remove(f.AbsolutePath); err != nil {
			slog.Error("local delete failed", "path", f.AbsolutePath, "error", err)
			failed++
			continue
		}
		result.DeletedLocal = append(result.DeletedLocal, f.RelativePath)
	}
	return failed
}

// commit advances the watermark for a completed pass. A pass with failed
// files only commits when commitOnPartialFailure allows it.
func (s *Syncer) commit(params SyncParams, result *SyncResult, failed int) {
	if failed > 0 && !s.commitOnPartialFailure {
		slog.Warn("skipping watermark commit after partial failure",
			"location", params.LocationName, "failed", failed)
		return
	}

	ts := float64(s.now().UnixNano()) / float64(time.Second)
	if err := s.store.Set(params.GameID, params.LocationName, ts); err != nil {
		slog.Error("failed to persist watermark", "game", params.GameID,
			"location", params.LocationName, "error", err)
		return
	}
	result.Timestamp = ts
}

func (s *Syncer) fail(result *SyncResult, err error) *SyncResult {
	slog.Error("sync aborted", "error", err)
	result.Action = ActionNone
	result.Err = err
	return result
}
