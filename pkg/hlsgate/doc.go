// Package hlsgate implements a multi-tenant signing gateway for media objects
// stored in S3-compatible buckets.
//
// The gateway resolves an (account, object key) pair from each request, looks
// the account up in an immutable tenant registry, and either rewrites an HLS
// playlist so that every segment reference becomes a presigned URL, or answers
// with a presigned download redirect / metadata relay for flat objects.
//
// Presigned URLs are SigV4 query-signed, so they are self-contained: the video
// player or download client that receives them needs no extra headers to be
// accepted by the store.
package hlsgate
