package bytesource

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
)

// signAWSV4 signs req with AWS Signature Version 4 for an unsigned-
// payload GET request. No library in the retrieved pack implements S3
// request signing (DESIGN.md notes the hand-rolled, stdlib-only SigV4
// choice), so this follows the algorithm directly from
// the AWS SigV4 specification: canonical request -> string to sign ->
// signing key derivation -> Authorization header.
func signAWSV4(req *http.Request, accessKey, secretKey string) error {
	if accessKey == "" || secretKey == "" {
		return fmt.Errorf("missing AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY")
	}
	now := time.Now().UTC()
	amzDate := now.Format("20060102T150405Z")
	dateStamp := now.Format("20060102")
	region := "us-east-1"
	service := "s3"

	req.Header.Set("X-Amz-Date", amzDate)
	req.Header.Set("X-Amz-Content-Sha256", "UNSIGNED-PAYLOAD")

	canonicalHeaders, signedHeaders := canonicalizeHeaders(req)
	canonicalRequest := strings.Join([]string{
		req.Method,
		canonicalURI(req.URL.Path),
		req.URL.RawQuery,
		canonicalHeaders,
		signedHeaders,
		"UNSIGNED-PAYLOAD",
	}, "\n")

	credentialScope := fmt.Sprintf("%s/%s/%s/aws4_request", dateStamp, region, service)
	hash := sha256.Sum256([]byte(canonicalRequest))
	stringToSign := strings.Join([]string{
		"AWS4-HMAC-SHA256",
		amzDate,
		credentialScope,
		hex.EncodeToString(hash[:]),
	}, "\n")

	signingKey := hmacSHA256(hmacSHA256(hmacSHA256(hmacSHA256([]byte("AWS4"+secretKey), dateStamp), region), service), "aws4_request")
	signature := hex.EncodeToString(hmacSHA256(signingKey, stringToSign))

	req.Header.Set("Authorization", fmt.Sprintf(
		"AWS4-HMAC-SHA256 Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		accessKey, credentialScope, signedHeaders, signature,
	))
	return nil
}

func hmacSHA256(key []byte, data string) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(data))
	return h.Sum(nil)
}

func canonicalURI(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

func canonicalizeHeaders(req *http.Request) (canonical, signed string) {
	names := []string{"host", "range", "x-amz-content-sha256", "x-amz-date"}
	var kept []string
	var lines []string
	for _, n := range names {
		var v string
		switch n {
		case "host":
			v = req.Host
			if v == "" {
				v = req.URL.Host
			}
		default:
			v = req.Header.Get(n)
		}
		if v == "" {
			continue
		}
		kept = append(kept, n)
		lines = append(lines, n+":"+strings.TrimSpace(v))
	}
	sort.Strings(kept)
	sort.Strings(lines)
	return strings.Join(lines, "\n") + "\n", strings.Join(kept, ";")
}
