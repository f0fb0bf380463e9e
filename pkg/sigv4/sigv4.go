// Package sigv4 implements AWS Signature Version 4 request signing for the
// S3 service.
//
// Every function is a pure transformation of its inputs: the caller supplies
// the method, URL, header set, payload hash and timestamp, and receives the
// canonical request, string-to-sign, derived key and final Authorization
// header value. Nothing here performs I/O or reads ambient state, which keeps
// the algorithm directly testable against the published AWS vectors.
package sigv4

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/cloudbend/stratus/pkg/credentials"
)

// EmptyPayloadSHA256 is the well-known SHA-256 of the empty string, used
// verbatim as the payload hash for bodiless requests.
const EmptyPayloadSHA256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

// LongDateFormat is the x-amz-date timestamp layout (ISO 8601 basic).
const LongDateFormat = "20060102T150405Z"

// ShortDateFormat is the date portion used in the credential scope.
const ShortDateFormat = "20060102"

const (
	algorithm = "AWS4-HMAC-SHA256"
	service   = "s3"
)

// URIEncode percent-encodes s following the AWS canonicalization rules:
// unreserved characters (ALPHA, DIGIT, '-', '.', '_', '~') pass through, the
// forward slash passes through unless encodeSlash is set, and everything else
// is encoded as uppercase %XX (UTF-8 bytes for multi-byte runes).
func URIEncode(s string, encodeSlash bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteByte(c)
		case c == '-' || c == '.' || c == '_' || c == '~':
			b.WriteByte(c)
		case c == '/' && !encodeSlash:
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&0xf])
		}
	}
	return b.String()
}

const upperhex = "0123456789ABCDEF"

// CanonicalURI decodes the URL path's percent-encoding and re-encodes it with
// URIEncode, preserving slashes. Repeated slashes are kept as-is; AWS matches
// the signed path byte for byte.
func CanonicalURI(u *url.URL) string {
	path := u.EscapedPath()
	decoded, err := url.PathUnescape(path)
	if err != nil {
		// Not valid percent-encoding; sign the raw path instead.
		decoded = path
	}
	return URIEncode(decoded, false)
}

// CanonicalQuery parses the raw query, sorts key/value pairs lexicographically
// by key then value, and re-encodes both with slash-encoding enabled. An
// absent query yields the empty string.
func CanonicalQuery(u *url.URL) string {
	if u.RawQuery == "" {
		return ""
	}
	values, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return ""
	}
	type pair struct{ k, v string }
	pairs := make([]pair, 0, len(values))
	for k, vs := range values {
		for _, v := range vs {
			pairs = append(pairs, pair{k: k, v: v})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].k != pairs[j].k {
			return pairs[i].k < pairs[j].k
		}
		return pairs[i].v < pairs[j].v
	})
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = URIEncode(p.k, true) + "=" + URIEncode(p.v, true)
	}
	return strings.Join(parts, "&")
}

// CanonicalHeaders lower-cases each header name, trims value whitespace,
// formats "name:value" lines, sorts them and joins with newline.
func CanonicalHeaders(headers http.Header) string {
	lines := make([]string, 0, len(headers))
	for name, values := range headers {
		for _, v := range values {
			lines = append(lines, strings.ToLower(name)+":"+strings.TrimSpace(v))
		}
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

// SignedHeaders returns the sorted, semicolon-joined list of lower-cased
// header names participating in the signature.
func SignedHeaders(headers http.Header) string {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, strings.ToLower(name))
	}
	sort.Strings(names)
	return strings.Join(names, ";")
}

// CanonicalRequest assembles the deterministic request representation signed
// by SigV4:
//
//	METHOD\nCANONICAL_URI\nCANONICAL_QUERY\nCANONICAL_HEADERS\n\nSIGNED_HEADERS\nPAYLOAD_SHA256
func CanonicalRequest(method string, u *url.URL, headers http.Header, payloadSHA256 string) string {
	return strings.Join([]string{
		method,
		CanonicalURI(u),
		CanonicalQuery(u),
		CanonicalHeaders(headers),
		"",
		SignedHeaders(headers),
		payloadSHA256,
	}, "\n")
}

// Scope returns the credential scope: short-date/region/s3/aws4_request.
func Scope(t time.Time, region credentials.Region) string {
	return t.UTC().Format(ShortDateFormat) + "/" + region.String() + "/" + service + "/aws4_request"
}

// StringToSign hashes the canonical request and frames it with the algorithm,
// timestamp and scope.
func StringToSign(t time.Time, region credentials.Region, canonicalRequest string) string {
	sum := sha256.Sum256([]byte(canonicalRequest))
	return strings.Join([]string{
		algorithm,
		t.UTC().Format(LongDateFormat),
		Scope(t, region),
		hex.EncodeToString(sum[:]),
	}, "\n")
}

// SigningKey derives the per-day signing key through the four chained
// HMAC-SHA256 operations over "AWS4"+secret, short date, region, service and
// the terminal "aws4_request" literal.
func SigningKey(t time.Time, secret credentials.AccessKeySecret, region credentials.Region) []byte {
	dateKey := hmacSHA256([]byte("AWS4"+secret.Reveal()), []byte(t.UTC().Format(ShortDateFormat)))
	regionKey := hmacSHA256(dateKey, []byte(region.String()))
	serviceKey := hmacSHA256(regionKey, []byte(service))
	return hmacSHA256(serviceKey, []byte("aws4_request"))
}

// Signature computes the final hex-encoded request signature.
func Signature(signingKey []byte, stringToSign string) string {
	return hex.EncodeToString(hmacSHA256(signingKey, []byte(stringToSign)))
}

// AuthorizationHeader formats the Authorization header value carrying the
// credential scope, the signed-header list and the signature.
func AuthorizationHeader(keyID credentials.AccessKeyID, t time.Time, region credentials.Region, signedHeaders, signature string) string {
	return algorithm +
		" Credential=" + keyID.String() + "/" + Scope(t, region) +
		",SignedHeaders=" + signedHeaders +
		",Signature=" + signature
}

// Sign runs the full pipeline for a prepared request and returns the
// Authorization header value. The headers passed in must be exactly the set
// to be signed; in particular the human-readable Date header must not be
// present yet (its RFC 2822 encoding is not byte-stable, so it is added to
// the outgoing request only after signing).
func Sign(method string, u *url.URL, headers http.Header, payloadSHA256 string, t time.Time, region credentials.Region, creds credentials.Credentials) string {
	canonical := CanonicalRequest(method, u, headers, payloadSHA256)
	sts := StringToSign(t, region, canonical)
	key := SigningKey(t, creds.Secret(), region)
	sig := Signature(key, sts)
	return AuthorizationHeader(creds.AccessKeyID(), t, region, SignedHeaders(headers), sig)
}

func hmacSHA256(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}
