package hlsgate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Recognized media-segment extensions inside playlists.
var segmentExtensions = []string{".ts", ".m4s", ".mp4"}

// RewriteManifest fetches the playlist via a short-expiry signed URL, then
// signs every segment reference with the download expiry. Per-line signing
// fans out under a bounded errgroup; each result is written back to its input
// index, so output order matches input order regardless of completion order.
//
// Any single line failure fails the whole rewrite. A manifest mixing signed
// and unsigned references would play partway and stall, which is strictly
// worse than a clean error.
func (s *service) RewriteManifest(ctx context.Context, tenant *Tenant, objectKey string) (string, error) {
	signed, err := tenant.Signer.PresignGet(ctx, objectKey, s.manifestExpiry, "")
	if err != nil {
		return "", &SignError{Account: tenant.ID, Key: objectKey, Op: "manifest", Err: err}
	}

	body, err := s.fetchManifest(ctx, signed.URL)
	if err != nil {
		// The only externally meaningful fact is "no such playlist".
		return "", fmt.Errorf("%w: %v", ErrManifestNotFound, err)
	}

	// Base directory anchors relative segment references: everything up to
	// and including the last "/", or empty for a key with no "/".
	baseDir := ""
	if i := strings.LastIndex(objectKey, "/"); i >= 0 {
		baseDir = objectKey[:i+1]
	}

	lines := strings.Split(body, "\n")
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	rewritten := 0
	for i, line := range lines {
		ref, ok := segmentReference(line)
		if !ok {
			continue
		}
		rewritten++
		if strings.HasPrefix(ref, "http") {
			// Already a full URL; passes through as-is, no re-signing.
			lines[i] = ref
			continue
		}
		i, ref := i, ref
		g.Go(func() error {
			su, err := tenant.Signer.PresignGet(ctx, baseDir+ref, s.downloadExpiry, "")
			if err != nil {
				return &RewriteError{Key: objectKey, Line: i + 1, Err: err}
			}
			lines[i] = su.URL
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	s.logger.Debug("manifest rewritten",
		"account", tenant.ID,
		"key", objectKey,
		"lines", len(lines),
		"segments", rewritten)

	return strings.Join(lines, "\n"), nil
}

func (s *service) fetchManifest(ctx context.Context, signedURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, signedURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("upstream status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// segmentReference returns the trimmed reference when a playlist line names a
// media segment: non-empty after trimming, not a directive or comment, and
// carrying a recognized extension. Directive, comment and blank lines keep
// their original bytes.
func segmentReference(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", false
	}
	for _, ext := range segmentExtensions {
		if strings.HasSuffix(trimmed, ext) {
			return trimmed, true
		}
	}
	return "", false
}
