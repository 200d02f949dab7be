package gogsdk

import (
	"bytes"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/goccy/go-json"
)

// GameCredentials is the per-game OAuth client identity extracted from the
// build manifest. The secret may legitimately be empty.
type GameCredentials struct {
	ClientID     string
	ClientSecret string
}

// TokenResponse is the auth endpoint's answer to a refresh-token exchange.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"user_id"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
	SessionID    string `json:"session_id"`
}

type buildsResponse struct {
	Items []buildItem `json:"items"`
}

type buildItem struct {
	Link string     `json:"link"`
	URLs []buildURL `json:"urls"`
}

type buildURL struct {
	URL string `json:"url"`
}

type buildManifest struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}

// GameClientCredentials derives the game-scoped OAuth client id and secret
// from the first build's manifest. Manifests may be plain JSON or
// zlib-compressed JSON (generation 2).
func (s *SDK) GameClientCredentials(ctx context.Context, gameID string, platform Platform) (*GameCredentials, error) {
	cacheKey := gameID + "/" + string(platform)
	if s.credCache != nil {
		if creds, ok := s.credCache.get(cacheKey); ok {
			slog.Debug("using cached game credentials", "game", gameID, "platform", platform)
			return creds, nil
		}
	}

	var builds buildsResponse
	buildsURL := fmt.Sprintf("%s/products/%s/os/%s/builds", s.contentSystemURL, gameID, platform)
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("generation", "2").
		SetSuccessResult(&builds).
		Get(buildsURL)
	if err != nil {
		return nil, fmt.Errorf("fetch builds: %w", err)
	}
	if resp.IsErrorState() {
		return nil, fmt.Errorf("fetch builds: status %d", resp.StatusCode)
	}

	if len(builds.Items) == 0 {
		return nil, &ManifestError{GameID: gameID, Reason: fmt.Sprintf("no builds for platform %s", platform)}
	}

	metaURL := builds.Items[0].Link
	if metaURL == "" && len(builds.Items[0].URLs) > 0 {
		metaURL = builds.Items[0].URLs[0].URL
	}
	if metaURL == "" {
		return nil, &ManifestError{GameID: gameID, Reason: "no manifest url in build"}
	}

	manifest, err := s.fetchManifest(ctx, metaURL)
	if err != nil {
		return nil, err
	}
	if manifest.ClientID == "" {
		return nil, &ManifestError{GameID: gameID, Reason: "no clientId in manifest"}
	}

	creds := &GameCredentials{
		ClientID:     manifest.ClientID,
		ClientSecret: manifest.ClientSecret,
	}
	if s.credCache != nil {
		s.credCache.set(cacheKey, creds)
	}
	return creds, nil
}

func (s *SDK) fetchManifest(ctx context.Context, metaURL string) (*buildManifest, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		Get(metaURL)
	if err != nil {
		return nil, fmt.Errorf("fetch manifest: %w", err)
	}
	if resp.IsErrorState() {
		return nil, fmt.Errorf("fetch manifest: status %d", resp.StatusCode)
	}

	body, err := resp.ToBytes()
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var manifest buildManifest
	if err := json.Unmarshal(decodeManifestBody(body), &manifest); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &manifest, nil
}

// decodeManifestBody transparently inflates zlib-compressed manifests.
func decodeManifestBody(body []byte) []byte {
	zr, err := zlib.NewReader(bytes.NewReader(body))
	if err != nil {
		return body
	}
	defer zr.Close()
	decompressed, err := io.ReadAll(zr)
	if err != nil {
		return body
	}
	return decompressed
}

// GameScopedToken exchanges the account refresh token for a token scoped to
// the game's client id. The refresh token is never logged.
func (s *SDK) GameScopedToken(ctx context.Context, refreshToken, clientID, clientSecret string) (*TokenResponse, error) {
	var token TokenResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"client_id":           clientID,
			"client_secret":       clientSecret,
			"grant_type":          "refresh_token",
			"refresh_token":       refreshToken,
			"without_new_session": "1",
		}).
		SetSuccessResult(&token).
		Get(s.authURL + "/token")
	if err != nil {
		return nil, fmt.Errorf("token exchange: %w", err)
	}
	if resp.IsErrorState() {
		return nil, &TokenExchangeError{StatusCode: resp.StatusCode, Body: truncate(resp.String(), 200)}
	}
	return &token, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
