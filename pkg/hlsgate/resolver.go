package hlsgate

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// PingToken is the reserved object key that short-circuits the pipeline to a
// liveness acknowledgment. Uptime monitors use it to keep the process warm
// without incurring signing cost or needing a valid account.
const PingToken = "ping"

// Resolve extracts the addressed (account, object key, method) triple from a
// request. Two addressing conventions are tried in fixed order:
//
//  1. query parameters: ?video=<path>&acc=<id>
//  2. path segments:    /<account>/<object-path...>
//
// The object key is percent-decoded exactly once in either form. For the path
// form the remainder after the account segment is decoded as one unit, so
// encoded slashes inside a segment survive resolution.
func Resolve(r *http.Request) (ResolvedRequest, error) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return ResolvedRequest{}, fmt.Errorf("%w: method %s not supported", ErrInvalidRequest, r.Method)
	}

	q := r.URL.Query()
	video := q.Get("video")
	if video == PingToken {
		// No account validation for the liveness probe.
		return ResolvedRequest{Account: q.Get("acc"), ObjectKey: PingToken, Method: r.Method}, nil
	}
	if acc := q.Get("acc"); video != "" && acc != "" {
		return newResolved(acc, video, r.Method)
	}

	path := strings.TrimPrefix(r.URL.EscapedPath(), "/")
	account, rest, ok := strings.Cut(path, "/")
	if !ok || account == "" || rest == "" {
		return ResolvedRequest{}, fmt.Errorf("%w: missing video or account", ErrInvalidRequest)
	}
	key, err := url.PathUnescape(rest)
	if err != nil {
		return ResolvedRequest{}, fmt.Errorf("%w: malformed object path %q", ErrInvalidRequest, rest)
	}
	return newResolved(account, key, r.Method)
}

func newResolved(account, key, method string) (ResolvedRequest, error) {
	if account == "" || key == "" {
		return ResolvedRequest{}, fmt.Errorf("%w: missing video or account", ErrInvalidRequest)
	}
	// Reject traversal attempts before anything gets signed. Empty segments
	// also cover leading slashes and "//" runs.
	for _, seg := range strings.Split(key, "/") {
		switch seg {
		case "", ".", "..":
			return ResolvedRequest{}, fmt.Errorf("%w: unsafe object path %q", ErrInvalidRequest, key)
		}
	}
	return ResolvedRequest{Account: account, ObjectKey: key, Method: method}, nil
}
