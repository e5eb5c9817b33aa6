package bytesource

import (
	"os"
	"strings"

	"github.com/flywave/acog/cogerr"
)

// Open recognizes: a bare path or file:// URL (local), http(s)://
// (HTTP), /vsis3/bucket/key (S3-compatible), /vsigs/bucket/key (GCS).
func Open(rawURL string, opts ...Option) (ByteSource, error) {
	switch {
	case strings.HasPrefix(rawURL, "file://"):
		return OpenLocal(strings.TrimPrefix(rawURL, "file://"), opts...)
	case strings.HasPrefix(rawURL, "http://"), strings.HasPrefix(rawURL, "https://"):
		return OpenHTTP(rawURL, opts...)
	case strings.HasPrefix(rawURL, "/vsis3/"):
		return OpenS3(rawURL, opts...)
	case strings.HasPrefix(rawURL, "/vsigs/"):
		content := os.Getenv("GOOGLE_SERVICE_ACCOUNT_CONTENT")
		if content == "" {
			return nil, cogerr.Newf(cogerr.AuthError, "Open", "GOOGLE_SERVICE_ACCOUNT_CONTENT not set").WithURL(rawURL)
		}
		return OpenGCS(rawURL, content, opts...)
	default:
		return OpenLocal(rawURL, opts...)
	}
}
