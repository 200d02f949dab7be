package gogsdk

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// remoteConfigComponentVersion pins the galaxy_client component revision the
// remote config API expects.
const remoteConfigComponentVersion = "2.0.45"

// CloudSaveLocation is one cloud save root declared by the remote config,
// with its path template still unresolved (<?VAR?> placeholders).
type CloudSaveLocation struct {
	Name     string
	Location string
}

type remoteConfigResponse struct {
	Content map[string]platformConfig `json:"content"`
}

type platformConfig struct {
	CloudStorage cloudStorageConfig `json:"cloudStorage"`
}

type cloudStorageConfig struct {
	Enabled   bool             `json:"enabled"`
	Locations []locationConfig `json:"locations"`
}

type locationConfig struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

// remoteConfigPlatformNames maps the lowercase wire platform to the
// capitalized keys the remote config API uses.
var remoteConfigPlatformNames = map[Platform]string{
	PlatformWindows: "Windows",
	PlatformLinux:   "Linux",
	PlatformOSX:     "MacOS",
}

// CloudSaveLocations fetches the cloud save locations declared for a game
// client. A game without cloud storage (block absent or disabled) yields an
// empty slice and no error.
func (s *SDK) CloudSaveLocations(ctx context.Context, accessToken, clientID string, platform Platform) ([]CloudSaveLocation, error) {
	var cfg remoteConfigResponse
	url := fmt.Sprintf("%s/components/galaxy_client/clients/%s", s.remoteConfigURL, clientID)
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("component_version", remoteConfigComponentVersion).
		SetBearerAuthToken(accessToken).
		SetSuccessResult(&cfg).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch remote config: %w", err)
	}
	if resp.IsErrorState() {
		return nil, fmt.Errorf("fetch remote config: status %d", resp.StatusCode)
	}

	if len(cfg.Content) == 0 {
		slog.Warn("remote config has no content block", "client", clientID)
		return nil, nil
	}

	platformCfg, ok := cfg.Content[remoteConfigPlatformName(platform)]
	if !ok {
		// The API's capitalization is not fully consistent; fall back to a
		// case-insensitive scan before giving up.
		for name, c := range cfg.Content {
			if strings.EqualFold(name, string(platform)) {
				platformCfg = c
				ok = true
				break
			}
		}
	}
	if !ok || !platformCfg.CloudStorage.Enabled {
		slog.Debug("cloud storage not enabled", "client", clientID, "platform", platform)
		return nil, nil
	}

	locations := make([]CloudSaveLocation, 0, len(platformCfg.CloudStorage.Locations))
	for _, loc := range platformCfg.CloudStorage.Locations {
		name := loc.Name
		if name == "" {
			name = "__default"
		}
		locations = append(locations, CloudSaveLocation{Name: name, Location: loc.Location})
	}
	return locations, nil
}

func remoteConfigPlatformName(platform Platform) string {
	if name, ok := remoteConfigPlatformNames[Platform(strings.ToLower(string(platform)))]; ok {
		return name
	}
	return string(platform)
}
