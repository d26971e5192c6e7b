package hlsgate

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// DefaultStorageDomain is the authority suffix for tenant storage endpoints.
// A tenant with storage account "acct1" is reached at
// https://acct1.r2.cloudflarestorage.com with path-style bucket addressing.
const DefaultStorageDomain = "r2.cloudflarestorage.com"

// signingRegion is what R2-style stores expect in the credential scope.
const signingRegion = "auto"

// SignerConfig options for a tenant presigner
type SignerConfig struct {
	Credentials   Credentials
	StorageDomain string // defaults to DefaultStorageDomain
}

// Signer issues SigV4 query-signed URLs for one tenant's bucket. Signatures
// are always query-embedded so the resulting URL works from any HTTP client
// without extra headers. An empty disposition leaves the stored
// Content-Disposition untouched; a non-empty one is signed into the query as
// a response-content-disposition override.
type Signer interface {
	PresignGet(ctx context.Context, key string, expires time.Duration, disposition string) (SignedURL, error)
	PresignHead(ctx context.Context, key string, expires time.Duration, disposition string) (SignedURL, error)
}

type s3Signer struct {
	presign *s3.PresignClient
	bucket  string
	host    string
}

// NewSigner creates a presigner bound to one tenant's storage endpoint.
func NewSigner(cfg SignerConfig) (Signer, error) {
	if err := cfg.Credentials.Validate(); err != nil {
		return nil, err
	}
	if cfg.StorageDomain == "" {
		cfg.StorageDomain = DefaultStorageDomain
	}

	host := fmt.Sprintf("%s.%s", cfg.Credentials.AccountID, cfg.StorageDomain)
	endpoint := "https://" + host

	// HostnameImmutable keeps the signed Host identical to the tenant
	// endpoint; the store rejects signatures computed for any other authority.
	customResolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               endpoint,
				SigningRegion:     signingRegion,
				HostnameImmutable: true,
			}, nil
		})

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(signingRegion),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.Credentials.AccessKeyID,
				cfg.Credentials.SecretAccessKey,
				"",
			),
		),
		awsconfig.WithEndpointResolverWithOptions(customResolver),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	return &s3Signer{
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Credentials.BucketName,
		host:    host,
	}, nil
}

// PresignGet returns a query-signed GET URL for key. The SDK percent-encodes
// each path segment of the key independently, so keys containing "/" keep
// their separators intact.
func (s *s3Signer) PresignGet(ctx context.Context, key string, expires time.Duration, disposition string) (SignedURL, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if disposition != "" {
		input.ResponseContentDisposition = aws.String(disposition)
	}

	result, err := s.presign.PresignGetObject(ctx, input,
		s3.WithPresignExpires(expires))
	if err != nil {
		return SignedURL{}, fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return SignedURL{URL: result.URL, Host: s.host, ExpiresIn: expires}, nil
}

// PresignHead returns a query-signed HEAD URL for key, used by the gateway
// itself to relay object metadata.
func (s *s3Signer) PresignHead(ctx context.Context, key string, expires time.Duration, disposition string) (SignedURL, error) {
	input := &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if disposition != "" {
		input.ResponseContentDisposition = aws.String(disposition)
	}

	result, err := s.presign.PresignHeadObject(ctx, input,
		s3.WithPresignExpires(expires))
	if err != nil {
		return SignedURL{}, fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return SignedURL{URL: result.URL, Host: s.host, ExpiresIn: expires}, nil
}
