package api_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmstream/hlsgate/pkg/hlsgate"
	"github.com/mmstream/hlsgate/pkg/hlsgate/api"
)

// fakeService records calls and serves canned results.
type fakeService struct {
	mu          sync.Mutex
	calls       []string
	manifest    string
	manifestErr error
	signed      hlsgate.SignedURL
	signErr     error
	headHeaders http.Header
	headErr     error
}

func (f *fakeService) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeService) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeService) RewriteManifest(_ context.Context, tenant *hlsgate.Tenant, objectKey string) (string, error) {
	f.record("rewrite " + tenant.ID + " " + objectKey)
	return f.manifest, f.manifestErr
}

func (f *fakeService) PresignDownload(_ context.Context, tenant *hlsgate.Tenant, objectKey string) (hlsgate.SignedURL, error) {
	f.record("download " + tenant.ID + " " + objectKey)
	return f.signed, f.signErr
}

func (f *fakeService) RelayHead(_ context.Context, tenant *hlsgate.Tenant, objectKey string) (http.Header, error) {
	f.record("head " + tenant.ID + " " + objectKey)
	return f.headHeaders, f.headErr
}

func testRegistry(t *testing.T) *hlsgate.Registry {
	t.Helper()
	registry, err := hlsgate.NewRegistry(map[string]hlsgate.Credentials{
		"1": {AccessKeyID: "A", SecretAccessKey: "B", AccountID: "acct1", BucketName: "bkt"},
	}, "")
	require.NoError(t, err)
	return registry
}

func noRedirectClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func setupGateway(t *testing.T, svc hlsgate.Service, configErr error) *httptest.Server {
	t.Helper()
	var registry *hlsgate.Registry
	if configErr == nil {
		registry = testRegistry(t)
	}
	handler := api.NewGatewayHandler(svc, registry, configErr)
	srv := httptest.NewServer(handler.Routes())
	t.Cleanup(srv.Close)
	return srv
}

func TestPing(t *testing.T) {
	for _, target := range []string{"/?video=ping", "/1/ping", "/?video=ping&acc=99"} {
		t.Run(target, func(t *testing.T) {
			fake := &fakeService{}
			srv := setupGateway(t, fake, nil)

			resp, err := http.Get(srv.URL + target)
			require.NoError(t, err)
			defer resp.Body.Close()

			body, _ := io.ReadAll(resp.Body)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, "Pong!", string(body))
			assert.Zero(t, fake.callCount(), "ping must not trigger signing")
		})
	}
}

func TestUnknownAccount(t *testing.T) {
	fake := &fakeService{}
	srv := setupGateway(t, fake, nil)

	resp, err := http.Get(srv.URL + "/?video=movie.mp4&acc=99")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, fake.callCount(), "unknown account must not reach the signer")
}

func TestInvalidRequest(t *testing.T) {
	fake := &fakeService{}
	srv := setupGateway(t, fake, nil)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestManifestResponse(t *testing.T) {
	fake := &fakeService{manifest: "#EXTM3U\nhttps://signed.example/seg0.ts\n"}
	srv := setupGateway(t, fake, nil)

	resp, err := http.Get(srv.URL + "/1/hls/video/master.m3u8")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, fake.manifest, string(body))
	assert.Equal(t, "application/vnd.apple.mpegurl", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, []string{"rewrite 1 hls/video/master.m3u8"}, fake.calls)
}

func TestManifestNotFound(t *testing.T) {
	fake := &fakeService{manifestErr: fmt.Errorf("%w: upstream status 404", hlsgate.ErrManifestNotFound)}
	srv := setupGateway(t, fake, nil)

	resp, err := http.Get(srv.URL + "/1/hls/missing.m3u8")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDownloadRedirect(t *testing.T) {
	fake := &fakeService{signed: hlsgate.SignedURL{URL: "https://acct1.r2.cloudflarestorage.com/bkt/videos/movie.mp4?X-Amz-Signature=abc"}}
	srv := setupGateway(t, fake, nil)

	resp, err := noRedirectClient().Get(srv.URL + "/1/videos/movie.mp4")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Equal(t, fake.signed.URL, resp.Header.Get("Location"))
	assert.Equal(t, []string{"download 1 videos/movie.mp4"}, fake.calls)
}

func TestHeadRelay(t *testing.T) {
	headers := http.Header{}
	headers.Set("Content-Length", "52428800")
	headers.Set("Content-Type", "video/mp4")
	fake := &fakeService{headHeaders: headers}
	srv := setupGateway(t, fake, nil)

	req, err := http.NewRequest(http.MethodHead, srv.URL+"/1/videos/movie.mp4", nil)
	require.NoError(t, err)
	resp, err := noRedirectClient().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "52428800", resp.Header.Get("Content-Length"))
	assert.Equal(t, "video/mp4", resp.Header.Get("Content-Type"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Expose-Headers"))
	assert.Equal(t, []string{"head 1 videos/movie.mp4"}, fake.calls)
}

func TestHeadRelayDegradesToRedirect(t *testing.T) {
	fake := &fakeService{
		headErr: errors.New("upstream unreachable"),
		signed:  hlsgate.SignedURL{URL: "https://acct1.r2.cloudflarestorage.com/bkt/videos/movie.mp4?X-Amz-Signature=abc"},
	}
	srv := setupGateway(t, fake, nil)

	req, err := http.NewRequest(http.MethodHead, srv.URL+"/1/videos/movie.mp4", nil)
	require.NoError(t, err)
	resp, err := noRedirectClient().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Equal(t, fake.signed.URL, resp.Header.Get("Location"))
}

func TestConfigurationError(t *testing.T) {
	fake := &fakeService{}
	srv := setupGateway(t, fake, fmt.Errorf("%w: ACCOUNTS_JSON is not set", hlsgate.ErrConfiguration))

	t.Run("media requests fail", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/1/videos/movie.mp4")
		require.NoError(t, err)
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Contains(t, string(body), "ACCOUNTS_JSON")
	})

	t.Run("ping stays up", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/?video=ping")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("health reports degraded", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), "degraded")
	})
}

func TestHealth(t *testing.T) {
	srv := setupGateway(t, &fakeService{}, nil)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "healthy")
}

// End to end with the real signing service: the redirect target must point at
// the tenant's storage endpoint and carry a future-dated signature.
func TestDownloadRedirectEndToEnd(t *testing.T) {
	svc := hlsgate.New(hlsgate.WithExpiries(time.Hour, 4*time.Hour))
	handler := api.NewGatewayHandler(svc, testRegistry(t), nil)
	srv := httptest.NewServer(handler.Routes())
	t.Cleanup(srv.Close)

	resp, err := noRedirectClient().Get(srv.URL + "/1/videos/movie.mp4")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)

	target, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)

	assert.Equal(t, "acct1.r2.cloudflarestorage.com", target.Host)
	assert.Equal(t, "/bkt/videos/movie.mp4", target.EscapedPath())

	q := target.Query()
	assert.NotEmpty(t, q.Get("X-Amz-Signature"))
	assert.Equal(t, "14400", q.Get("X-Amz-Expires"))
	assert.Contains(t, q.Get("response-content-disposition"), `attachment; filename="movie.mp4"`)
}
