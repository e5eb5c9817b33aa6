package bytesource

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/flywave/acog/cogerr"
)

// s3Requester builds ranged GET requests against an S3-compatible
// endpoint for a /vsis3/bucket/key path, honouring the AWS_* and
// AWS_S3_ENDPOINT environment variables. Grounded on
// original_source/src/sources/s3.rs, generalised from its hardcoded
// MinIO endpoint to AWS_S3_ENDPOINT.
type s3Requester struct {
	endpoint       string
	virtualHosting bool
	https          bool
	noSignRequest  bool
	accessKey      string
	secretKey      string
	bucket         string
	key            string
}

func newS3Requester(bucket, key string) *s3Requester {
	endpoint := os.Getenv("AWS_S3_ENDPOINT")
	if endpoint == "" {
		endpoint = "s3.amazonaws.com"
	}
	return &s3Requester{
		endpoint:       endpoint,
		virtualHosting: os.Getenv("AWS_VIRTUAL_HOSTING") != "NO",
		https:          os.Getenv("AWS_HTTPS") != "NO",
		noSignRequest:  os.Getenv("AWS_NO_SIGN_REQUEST") == "YES",
		accessKey:      os.Getenv("AWS_ACCESS_KEY_ID"),
		secretKey:      os.Getenv("AWS_SECRET_ACCESS_KEY"),
		bucket:         bucket,
		key:            key,
	}
}

func (s *s3Requester) scheme() string {
	if s.https {
		return "https"
	}
	return "http"
}

func (s *s3Requester) objectURL() string {
	if s.virtualHosting {
		return fmt.Sprintf("%s://%s.%s/%s", s.scheme(), s.bucket, s.endpoint, s.key)
	}
	return fmt.Sprintf("%s://%s/%s/%s", s.scheme(), s.endpoint, s.bucket, s.key)
}

func (s *s3Requester) displayURL() string { return "/vsis3/" + s.bucket + "/" + s.key }

func (s *s3Requester) buildRequest(ctx context.Context, from, to int64) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.objectURL(), nil)
	if err != nil {
		return nil, cogerr.New(cogerr.TransportError, "s3Requester.buildRequest", err).WithURL(s.displayURL())
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", from, to))
	if !s.noSignRequest {
		if err := signAWSV4(req, s.accessKey, s.secretKey); err != nil {
			return nil, cogerr.New(cogerr.AuthError, "s3Requester.buildRequest", err).WithURL(s.displayURL())
		}
	}
	return req, nil
}

// parseVsis3 splits /vsis3/bucket/key/with/slashes into bucket and key.
func parseVsis3(path string) (bucket, key string, err error) {
	trimmed := strings.TrimPrefix(path, "/vsis3/")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("malformed /vsis3/ path: %q", path)
	}
	return parts[0], parts[1], nil
}

// OpenS3 opens a /vsis3/bucket/key path against an S3-compatible store.
func OpenS3(path string, opts ...Option) (*HTTPSource, error) {
	bucket, key, err := parseVsis3(path)
	if err != nil {
		return nil, cogerr.New(cogerr.MalformedTiff, "OpenS3", err).WithURL(path)
	}
	o := buildOptions(DefaultRemoteChunkSize, opts)
	return newHTTPSource(o.HTTPClient, newS3Requester(bucket, key), o.ChunkSize, o.CacheBudget)
}
