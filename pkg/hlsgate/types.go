package hlsgate

import (
	"errors"
	"strings"
	"time"
)

// Credentials holds one tenant's storage account secrets, decoded from the
// accounts document. All fields are required.
type Credentials struct {
	AccessKeyID     string `json:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey"`
	AccountID       string `json:"accountId"`
	BucketName      string `json:"bucketName"`
}

// Validate checks that every credential field is present.
func (c Credentials) Validate() error {
	if c.AccessKeyID == "" {
		return errors.New("access key ID is required")
	}
	if c.SecretAccessKey == "" {
		return errors.New("secret access key is required")
	}
	if c.AccountID == "" {
		return errors.New("storage account ID is required")
	}
	if c.BucketName == "" {
		return errors.New("bucket name is required")
	}
	return nil
}

// ResolvedRequest is the outcome of request resolution: which tenant is being
// addressed, which object, and with which verb. Derived fresh per request.
type ResolvedRequest struct {
	Account   string
	ObjectKey string
	Method    string
}

// IsPing reports whether the request is the liveness probe, which bypasses
// tenant lookup and signing entirely.
func (r ResolvedRequest) IsPing() bool {
	return r.ObjectKey == PingToken
}

// IsPlaylist reports whether the object key names an HLS playlist.
func (r ResolvedRequest) IsPlaylist() bool {
	return strings.HasSuffix(r.ObjectKey, ".m3u8")
}

// SignedURL describes one presigned target. Host is the authority the
// signature was computed against; the URL is only accepted by the store when
// requested via that exact host.
type SignedURL struct {
	URL       string
	Host      string
	ExpiresIn time.Duration
}
