package savesync

import (
	"context"
	"log/slog"

	"github.com/openlauncher/savesync/internal/gogsdk"
	"github.com/openlauncher/savesync/internal/utils"
)

// GameInfo carries the install metadata a launcher knows about one game.
type GameInfo struct {
	AppID        string
	Name         string
	Platform     gogsdk.Platform
	InstallPath  string
	Native       bool
	CompatPrefix string
	CompatUser   string
}

// ConflictResolver is asked what to do when a location is classified as a
// conflict. It returns PreferUpload, PreferDownload, or PreferNone to skip.
type ConflictResolver interface {
	Resolve(game GameInfo, location string) PreferredAction
}

// ResolvedLocation pairs a cloud save location with its local directory.
type ResolvedLocation struct {
	Name     string
	SavePath string
}

// Runner syncs all save locations of a game around its lifecycle: download
// direction before launch, upload direction after quit. Locations are
// independent; one failing never stops the others.
type Runner struct {
	backend  Backend
	syncer   *Syncer
	resolver ConflictResolver
}

func NewRunner(sdk *gogsdk.SDK, syncer *Syncer, resolver ConflictResolver) *Runner {
	return newRunnerWithBackend(sdkBackend{sdk: sdk}, syncer, resolver)
}

func newRunnerWithBackend(backend Backend, syncer *Syncer, resolver ConflictResolver) *Runner {
	return &Runner{backend: backend, syncer: syncer, resolver: resolver}
}

// ResolveLocations runs the credential chain and resolves every declared
// cloud save location to a local directory. Locations whose template cannot
// be resolved are skipped with a warning.
func (r *Runner) ResolveLocations(ctx context.Context, refreshToken string, game GameInfo) ([]ResolvedLocation, error) {
	creds, err := r.backend.GameClientCredentials(ctx, game.AppID, game.Platform)
	if err != nil {
		return nil, err
	}

	token, err := r.backend.GameScopedToken(ctx, refreshToken, creds.ClientID, creds.ClientSecret)
	if err != nil {
		return nil, err
	}

	locations, err := r.backend.CloudSaveLocations(ctx, token.AccessToken, creds.ClientID, game.Platform)
	if err != nil {
		return nil, err
	}

	resolved := make([]ResolvedLocation, 0, len(locations))
	for _, loc := range locations {
		savePath, unresolvedVars, err := ResolveSavePath(loc, ResolveOptions{
			InstallPath:  game.InstallPath,
			Native:       game.Native,
			CompatPrefix: game.CompatPrefix,
			CompatUser:   game.CompatUser,
		})
		if err != nil {
			slog.Warn("skipping unresolvable save location", "location", loc.Name, "error", err)
			continue
		}
		if len(unresolvedVars) > 0 {
			slog.Warn("save location has unknown variables", "location", loc.Name, "variables", unresolvedVars)
		}
		if !utils.DirExists(savePath) {
			slog.Debug("save directory does not exist yet", "location", loc.Name, "path", savePath)
		}
		resolved = append(resolved, ResolvedLocation{Name: loc.Name, SavePath: savePath})
	}
	return resolved, nil
}

// SyncBeforeLaunch pulls newer cloud saves down before the game starts.
func (r *Runner) SyncBeforeLaunch(ctx context.Context, refreshToken string, game GameInfo) []*SyncResult {
	return r.SyncAll(ctx, refreshToken, game, PreferDownload)
}

// SyncAfterQuit pushes newer local saves up after the game exits.
func (r *Runner) SyncAfterQuit(ctx context.Context, refreshToken string, game GameInfo) []*SyncResult {
	return r.SyncAll(ctx, refreshToken, game, PreferUpload)
}

// SyncAll syncs every save location of the game with the given preference.
func (r *Runner) SyncAll(ctx context.Context, refreshToken string, game GameInfo, preferred PreferredAction) []*SyncResult {
	locations, err := r.ResolveLocations(ctx, refreshToken, game)
	if err != nil {
		slog.Error("failed to resolve save locations", "game", game.AppID, "error", err)
		return nil
	}
	if len(locations) == 0 {
		slog.Debug("no cloud save locations", "game", game.AppID)
		return nil
	}

	results := make([]*SyncResult, 0, len(locations))
	for _, loc := range locations {
		slog.Info("syncing save location", "game", game.AppID, "location", loc.Name, "path", loc.SavePath)

		result := r.syncer.SyncSaves(ctx, SyncParams{
			GameID:       game.AppID,
			SavePath:     loc.SavePath,
			LocationName: loc.Name,
			Platform:     game.Platform,
			RefreshToken: refreshToken,
			Preferred:    preferred,
		})

		if result.Action == ActionConflict && r.resolver != nil {
			choice := r.resolver.Resolve(game, loc.Name)
			switch choice {
			case PreferUpload, PreferDownload:
				slog.Info("conflict resolved by user", "location", loc.Name, "choice", choice)
				result = r.syncer.SyncSaves(ctx, SyncParams{
					GameID:       game.AppID,
					SavePath:     loc.SavePath,
					LocationName: loc.Name,
					Platform:     game.Platform,
					RefreshToken: refreshToken,
					Preferred:    PreferredAction("force" + string(choice)),
				})
			default:
				slog.Info("conflict left unresolved", "location", loc.Name)
			}
		}

		if result.Err != nil {
			slog.Error("location sync failed", "game", game.AppID, "location", loc.Name, "error", result.Err)
		}
		results = append(results, result)
	}
	return results
}
