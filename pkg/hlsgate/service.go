package hlsgate

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// ManifestContentType is the media type for rewritten playlists.
const ManifestContentType = "application/vnd.apple.mpegurl"

// Default expiries: short for fetches the gateway performs itself, long for
// URLs handed to the end client, where playback or download may be slow or
// paused.
const (
	DefaultManifestExpiry = 1 * time.Hour
	DefaultDownloadExpiry = 4 * time.Hour
)

// DefaultRewriteConcurrency caps concurrent per-line signing during a single
// manifest rewrite.
const DefaultRewriteConcurrency = 16

// Doer is the outbound HTTP client used to reach the object store.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Service is the per-tenant signing engine. All operations are stateless;
// tenants come from the registry held by the caller.
type Service interface {
	// RewriteManifest fetches the playlist at objectKey and replaces every
	// media-segment reference with a presigned URL, preserving all other
	// lines byte for byte.
	RewriteManifest(ctx context.Context, tenant *Tenant, objectKey string) (string, error)

	// PresignDownload returns a long-expiry signed URL for objectKey with a
	// forced-download disposition signed into the query.
	PresignDownload(ctx context.Context, tenant *Tenant, objectKey string) (SignedURL, error)

	// RelayHead issues a presigned HEAD against the store and returns the
	// upstream response headers.
	RelayHead(ctx context.Context, tenant *Tenant, objectKey string) (http.Header, error)
}

// Option configures the service
type Option func(*service)

// WithHTTPClient sets the outbound HTTP client used for manifest fetches and
// HEAD relays.
func WithHTTPClient(client Doer) Option {
	return func(s *service) {
		s.client = client
	}
}

// WithExpiries sets the signing expiries for gateway-internal fetches and for
// client-held URLs.
func WithExpiries(manifest, download time.Duration) Option {
	return func(s *service) {
		if manifest > 0 {
			s.manifestExpiry = manifest
		}
		if download > 0 {
			s.downloadExpiry = download
		}
	}
}

// WithRewriteConcurrency bounds concurrent signing operations per manifest
// rewrite.
func WithRewriteConcurrency(n int) Option {
	return func(s *service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

type service struct {
	client         Doer
	manifestExpiry time.Duration
	downloadExpiry time.Duration
	concurrency    int
	logger         *slog.Logger
}

// New creates the signing service with the given options.
func New(opts ...Option) Service {
	s := &service{
		client:         http.DefaultClient,
		manifestExpiry: DefaultManifestExpiry,
		downloadExpiry: DefaultDownloadExpiry,
		concurrency:    DefaultRewriteConcurrency,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
