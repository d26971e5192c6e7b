package hlsgate_test

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/mmstream/hlsgate/pkg/hlsgate"
)

// fakeSigner produces deterministic "signed" URLs under a test server's base
// URL and records every call, so tests can assert which keys were signed and
// with which expiry/disposition.
type fakeSigner struct {
	baseURL  string
	failKeys map[string]bool
	delay    time.Duration

	mu           sync.Mutex
	calls        []string
	dispositions map[string]string
}

func newFakeSigner(baseURL string) *fakeSigner {
	return &fakeSigner{
		baseURL:      baseURL,
		failKeys:     make(map[string]bool),
		dispositions: make(map[string]string),
	}
}

func (f *fakeSigner) sign(method, key string, expires time.Duration, disposition string) (hlsgate.SignedURL, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	f.calls = append(f.calls, method+" "+key)
	if disposition != "" {
		f.dispositions[key] = disposition
	}
	f.mu.Unlock()

	if f.failKeys[key] {
		return hlsgate.SignedURL{}, errors.New("sign failure")
	}

	q := url.Values{}
	q.Set("X-Amz-Expires", strconv.Itoa(int(expires.Seconds())))
	q.Set("X-Amz-Signature", "fake")
	return hlsgate.SignedURL{
		URL:       f.baseURL + "/" + key + "?" + q.Encode(),
		Host:      "fake.test",
		ExpiresIn: expires,
	}, nil
}

func (f *fakeSigner) PresignGet(_ context.Context, key string, expires time.Duration, disposition string) (hlsgate.SignedURL, error) {
	return f.sign("GET", key, expires, disposition)
}

func (f *fakeSigner) PresignHead(_ context.Context, key string, expires time.Duration, disposition string) (hlsgate.SignedURL, error) {
	return f.sign("HEAD", key, expires, disposition)
}

func (f *fakeSigner) signedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func testTenant(signer hlsgate.Signer) *hlsgate.Tenant {
	return &hlsgate.Tenant{
		ID: "1",
		Credentials: hlsgate.Credentials{
			AccessKeyID:     "A",
			SecretAccessKey: "B",
			AccountID:       "acct1",
			BucketName:      "bkt",
		},
		Signer: signer,
	}
}
