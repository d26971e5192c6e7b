package hlsgate

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mmstream/hlsgate/pkg/utils"
)

// AttachmentDisposition builds the forced-download Content-Disposition value
// for an object key: the plain filename for legacy clients plus the RFC 5987
// UTF-8 form. It is signed into the query so the store itself emits the
// header; the gateway cannot attach it to a redirect target after the fact.
func AttachmentDisposition(objectKey string) string {
	name := objectKey
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s",
		utils.SanitizeFilename(name), url.PathEscape(name))
}

// PresignDownload returns a long-expiry signed URL carrying the
// forced-download disposition override.
func (s *service) PresignDownload(ctx context.Context, tenant *Tenant, objectKey string) (SignedURL, error) {
	signed, err := tenant.Signer.PresignGet(ctx, objectKey, s.downloadExpiry, AttachmentDisposition(objectKey))
	if err != nil {
		return SignedURL{}, &SignError{Account: tenant.ID, Key: objectKey, Op: "download", Err: err}
	}
	return signed, nil
}

// RelayHead issues a short-expiry presigned HEAD against the store and
// returns the upstream headers, so callers that cannot follow redirects for
// HEAD probes still see size and type metadata.
func (s *service) RelayHead(ctx context.Context, tenant *Tenant, objectKey string) (http.Header, error) {
	signed, err := tenant.Signer.PresignHead(ctx, objectKey, s.manifestExpiry, AttachmentDisposition(objectKey))
	if err != nil {
		return nil, &SignError{Account: tenant.ID, Key: objectKey, Op: "head", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, signed.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("head relay for %s: %w", objectKey, err)
	}
	resp.Body.Close()

	return resp.Header.Clone(), nil
}
