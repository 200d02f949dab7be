package gogsdk

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/imroc/req/v3"
)

// Default GOG Galaxy endpoint bases. Overridable for tests via WithBaseURLs.
const (
	DefaultCloudStorageURL  = "https://cloudstorage.gog.com"
	DefaultContentSystemURL = "https://content-system.gog.com"
	DefaultRemoteConfigURL  = "https://remote-config.gog.com"
	DefaultAuthURL          = "https://auth.gog.com"
)

// UserAgent identifies us as the Galaxy communication service. The cloud
// storage API rejects requests carrying anything else.
const UserAgent = "GOGGalaxyCommunicationService/2.0.13.27 (Windows_32bit) dont_sync_marker/true installation_source/gog"

const requestTimeout = 30 * time.Second

// Platform is a GOG build platform identifier, always lowercase on the wire.
type Platform string

const (
	PlatformWindows Platform = "windows"
	PlatformLinux   Platform = "linux"
	PlatformOSX     Platform = "osx"
)

// SDK is the client for the GOG Galaxy APIs involved in cloud save sync:
// the content-system builds endpoint, the auth token endpoint, the remote
// config endpoint and the cloud storage namespace.
type SDK struct {
	client *req.Client

	cloudStorageURL  string
	contentSystemURL string
	remoteConfigURL  string
	authURL          string

	credCache *credCache
}

type Option func(*SDK)

// WithBaseURLs overrides the endpoint bases. Empty strings keep the default.
func WithBaseURLs(cloudStorage, contentSystem, remoteConfig, auth string) Option {
	return func(s *SDK) {
		if cloudStorage != "" {
			s.cloudStorageURL = cloudStorage
		}
		if contentSystem != "" {
			s.contentSystemURL = contentSystem
		}
		if remoteConfig != "" {
			s.remoteConfigURL = remoteConfig
		}
		if auth != "" {
			s.authURL = auth
		}
	}
}

// WithCredentialCache enables caching of game client credentials for ttl.
// By default every call re-derives them from the build manifest.
func WithCredentialCache(ttl time.Duration) Option {
	return func(s *SDK) {
		s.credCache = newCredCache(ttl)
	}
}

// New creates an SDK client.
func New(opts ...Option) *SDK {
	client := req.C().
		SetUserAgent(UserAgent).
		SetCommonHeader(headerObjectMetaUserAgent, UserAgent).
		SetTimeout(requestTimeout).
		SetJsonMarshal(json.Marshal).
		SetJsonUnmarshal(json.Unmarshal)

	s := &SDK{
		client:           client,
		cloudStorageURL:  DefaultCloudStorageURL,
		contentSystemURL: DefaultContentSystemURL,
		remoteConfigURL:  DefaultRemoteConfigURL,
		authURL:          DefaultAuthURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close releases the underlying HTTP client resources.
func (s *SDK) Close() {
	s.client.GetClient().CloseIdleConnections()
}
