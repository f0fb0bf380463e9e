// Package command models the closed set of S3 operations the client can
// issue.
//
// Each variant fully determines the HTTP method, payload hash, content
// metadata, query parameters and operation-specific headers for its request.
// The Command interface is sealed: only types in this package implement it,
// so the mapping from operation to wire shape stays exhaustive — adding a
// variant forces an implementation of every accessor.
package command

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"net/url"
	"strconv"

	"github.com/cloudbend/stratus/pkg/sigv4"
)

// DefaultContentType is applied to uploads when the caller does not override.
const DefaultContentType = "application/octet-stream"

// Command is one S3 operation variant. Implementations are ephemeral: build
// one per call, hand it to the bucket, discard it.
type Command interface {
	// Method returns the HTTP method for this operation.
	Method() string
	// Body returns the request payload, nil for bodiless operations.
	Body() []byte
	// ContentLength returns the payload length in bytes.
	ContentLength() int
	// ContentType returns the content type to apply when the header set does
	// not already carry one. Empty means the operation sets no Content-Type.
	ContentType() string
	// PayloadHash returns the hex SHA-256 of the payload, or the well-known
	// empty-payload hash for bodiless operations.
	PayloadHash() string
	// Query returns the operation's query parameters, nil when it has none.
	Query() url.Values
	// Headers returns operation-specific headers to merge into the signed
	// header set (Range, x-amz-copy-source, Content-MD5, ...), nil when none.
	Headers() http.Header

	sealed()
}

// MultipartRef ties an upload-part request to its multipart session.
type MultipartRef struct {
	PartNumber int
	UploadID   string
}

// Head requests object metadata.
type Head struct{}

// Get requests a full object body.
type Get struct{}

// GetRange requests a byte range of an object. End is inclusive per the HTTP
// Range header; nil means read to the end of the object.
type GetRange struct {
	Start uint64
	End   *uint64
}

// Delete removes an object.
type Delete struct{}

// Put uploads an object body in one request. When Multipart is set, the
// request becomes an UploadPart for the referenced session and no
// Content-Type is applied (it was fixed at initiation).
type Put struct {
	Content   []byte
	MIMEType  string
	Extra     http.Header
	Multipart *MultipartRef
}

// PutTagging replaces the tag set of an object.
type PutTagging struct {
	Tags string
}

// GetTagging reads the tag set of an object.
type GetTagging struct{}

// DeleteTagging removes the tag set of an object.
type DeleteTagging struct{}

// ListObjects is the legacy v1 listing with its single marker cursor.
type ListObjects struct {
	Prefix    string
	Delimiter string
	Marker    string
	MaxKeys   int
}

// ListObjectsV2 is the v2 listing with continuation-token pagination.
type ListObjectsV2 struct {
	Prefix            string
	Delimiter         string
	ContinuationToken string
	StartAfter        string
	MaxKeys           int
}

// ListMultipartUploads lists in-progress multipart sessions.
type ListMultipartUploads struct {
	Prefix     string
	Delimiter  string
	KeyMarker  string
	MaxUploads int
}

// InitiateMultipartUpload opens a multipart session for a key.
type InitiateMultipartUpload struct {
	MIMEType string
	Extra    http.Header
}

// UploadPart transmits one numbered part of a multipart session.
type UploadPart struct {
	PartNumber int
	Content    []byte
	UploadID   string
}

// AbortMultipartUpload discards a multipart session and its parts.
type AbortMultipartUpload struct {
	UploadID string
}

// CompleteMultipartUpload stitches uploaded parts into the final object.
type CompleteMultipartUpload struct {
	UploadID string
	Manifest CompleteManifest

	encoded []byte
}

// CopyObject server-side copies From (bucket/key, no leading slash) onto the
// request path.
type CopyObject struct {
	From  string
	Extra http.Header
}

// GetBucketLocation reads the bucket's region constraint.
type GetBucketLocation struct{}

func (Head) sealed()                    {}
func (Get) sealed()                     {}
func (GetRange) sealed()                {}
func (Delete) sealed()                  {}
func (*Put) sealed()                    {}
func (PutTagging) sealed()              {}
func (GetTagging) sealed()              {}
func (DeleteTagging) sealed()           {}
func (ListObjects) sealed()             {}
func (ListObjectsV2) sealed()           {}
func (ListMultipartUploads) sealed()    {}
func (InitiateMultipartUpload) sealed() {}
func (*UploadPart) sealed()             {}
func (AbortMultipartUpload) sealed()    {}
func (*CompleteMultipartUpload) sealed() {}
func (CopyObject) sealed()              {}
func (GetBucketLocation) sealed()       {}

// Method implementations.

func (Head) Method() string                    { return http.MethodHead }
func (Get) Method() string                     { return http.MethodGet }
func (GetRange) Method() string                { return http.MethodGet }
func (Delete) Method() string                  { return http.MethodDelete }
func (*Put) Method() string                    { return http.MethodPut }
func (PutTagging) Method() string              { return http.MethodPut }
func (GetTagging) Method() string              { return http.MethodGet }
func (DeleteTagging) Method() string           { return http.MethodDelete }
func (ListObjects) Method() string             { return http.MethodGet }
func (ListObjectsV2) Method() string           { return http.MethodGet }
func (ListMultipartUploads) Method() string    { return http.MethodGet }
func (InitiateMultipartUpload) Method() string { return http.MethodPost }
func (*UploadPart) Method() string             { return http.MethodPut }
func (AbortMultipartUpload) Method() string    { return http.MethodDelete }
func (*CompleteMultipartUpload) Method() string { return http.MethodPost }
func (CopyObject) Method() string              { return http.MethodPut }
func (GetBucketLocation) Method() string       { return http.MethodGet }

// Body implementations. Only upload-style operations carry a payload.

func (Head) Body() []byte                    { return nil }
func (Get) Body() []byte                     { return nil }
func (GetRange) Body() []byte                { return nil }
func (Delete) Body() []byte                  { return nil }
func (c *Put) Body() []byte                  { return c.Content }
func (c PutTagging) Body() []byte            { return []byte(c.Tags) }
func (GetTagging) Body() []byte              { return nil }
func (DeleteTagging) Body() []byte           { return nil }
func (ListObjects) Body() []byte             { return nil }
func (ListObjectsV2) Body() []byte           { return nil }
func (ListMultipartUploads) Body() []byte    { return nil }
func (InitiateMultipartUpload) Body() []byte { return nil }
func (c *UploadPart) Body() []byte           { return c.Content }
func (AbortMultipartUpload) Body() []byte    { return nil }
func (c *CompleteMultipartUpload) Body() []byte { return c.encodedManifest() }
func (CopyObject) Body() []byte              { return nil }
func (GetBucketLocation) Body() []byte       { return nil }

func (c *CompleteMultipartUpload) encodedManifest() []byte {
	if c.encoded == nil {
		c.encoded = c.Manifest.Encode()
	}
	return c.encoded
}

// ContentLength implementations.

func (Head) ContentLength() int                    { return 0 }
func (Get) ContentLength() int                     { return 0 }
func (GetRange) ContentLength() int                { return 0 }
func (Delete) ContentLength() int                  { return 0 }
func (c *Put) ContentLength() int                  { return len(c.Content) }
func (c PutTagging) ContentLength() int            { return len(c.Tags) }
func (GetTagging) ContentLength() int              { return 0 }
func (DeleteTagging) ContentLength() int           { return 0 }
func (ListObjects) ContentLength() int             { return 0 }
func (ListObjectsV2) ContentLength() int           { return 0 }
func (ListMultipartUploads) ContentLength() int    { return 0 }
func (InitiateMultipartUpload) ContentLength() int { return 0 }
func (c *UploadPart) ContentLength() int           { return len(c.Content) }
func (AbortMultipartUpload) ContentLength() int    { return 0 }
func (c *CompleteMultipartUpload) ContentLength() int { return len(c.encodedManifest()) }
func (CopyObject) ContentLength() int              { return 0 }
func (GetBucketLocation) ContentLength() int       { return 0 }

// ContentType implementations.

func (Head) ContentType() string      { return "" }
func (Get) ContentType() string       { return "" }
func (GetRange) ContentType() string  { return "" }
func (Delete) ContentType() string    { return "" }
func (c *Put) ContentType() string {
	if c.Multipart != nil {
		// Fixed at initiation; parts carry no Content-Type of their own.
		return ""
	}
	if c.MIMEType != "" {
		return c.MIMEType
	}
	return DefaultContentType
}
func (PutTagging) ContentType() string    { return "text/plain" }
func (GetTagging) ContentType() string    { return "" }
func (DeleteTagging) ContentType() string { return "text/plain" }
func (ListObjects) ContentType() string   { return "" }
func (ListObjectsV2) ContentType() string { return "" }
func (ListMultipartUploads) ContentType() string { return "text/plain" }
func (c InitiateMultipartUpload) ContentType() string {
	if c.MIMEType != "" {
		return c.MIMEType
	}
	return DefaultContentType
}
func (*UploadPart) ContentType() string           { return "text/plain" }
func (AbortMultipartUpload) ContentType() string  { return "text/plain" }
func (*CompleteMultipartUpload) ContentType() string { return "application/xml" }
func (CopyObject) ContentType() string            { return "" }
func (GetBucketLocation) ContentType() string     { return "" }

// PayloadHash implementations.

func (Head) PayloadHash() string                    { return sigv4.EmptyPayloadSHA256 }
func (Get) PayloadHash() string                     { return sigv4.EmptyPayloadSHA256 }
func (GetRange) PayloadHash() string                { return sigv4.EmptyPayloadSHA256 }
func (Delete) PayloadHash() string                  { return sigv4.EmptyPayloadSHA256 }
func (c *Put) PayloadHash() string                  { return payloadSHA256(c.Content) }
func (c PutTagging) PayloadHash() string            { return payloadSHA256([]byte(c.Tags)) }
func (GetTagging) PayloadHash() string              { return sigv4.EmptyPayloadSHA256 }
func (DeleteTagging) PayloadHash() string           { return sigv4.EmptyPayloadSHA256 }
func (ListObjects) PayloadHash() string             { return sigv4.EmptyPayloadSHA256 }
func (ListObjectsV2) PayloadHash() string           { return sigv4.EmptyPayloadSHA256 }
func (ListMultipartUploads) PayloadHash() string    { return sigv4.EmptyPayloadSHA256 }
func (InitiateMultipartUpload) PayloadHash() string { return sigv4.EmptyPayloadSHA256 }
func (c *UploadPart) PayloadHash() string           { return payloadSHA256(c.Content) }
func (AbortMultipartUpload) PayloadHash() string    { return sigv4.EmptyPayloadSHA256 }
func (c *CompleteMultipartUpload) PayloadHash() string { return payloadSHA256(c.encodedManifest()) }
func (CopyObject) PayloadHash() string              { return sigv4.EmptyPayloadSHA256 }
func (GetBucketLocation) PayloadHash() string       { return sigv4.EmptyPayloadSHA256 }

// Query implementations.

func (Head) Query() url.Values     { return nil }
func (Get) Query() url.Values      { return nil }
func (GetRange) Query() url.Values { return nil }
func (Delete) Query() url.Values   { return nil }

func (c *Put) Query() url.Values {
	if c.Multipart == nil {
		return nil
	}
	return url.Values{
		"partNumber": {strconv.Itoa(c.Multipart.PartNumber)},
		"uploadId":   {c.Multipart.UploadID},
	}
}

func (PutTagging) Query() url.Values    { return url.Values{"tagging": {""}} }
func (GetTagging) Query() url.Values    { return url.Values{"tagging": {""}} }
func (DeleteTagging) Query() url.Values { return url.Values{"tagging": {""}} }

func (c ListObjects) Query() url.Values {
	q := url.Values{}
	q.Set("prefix", c.Prefix)
	if c.Delimiter != "" {
		q.Set("delimiter", c.Delimiter)
	}
	if c.Marker != "" {
		q.Set("marker", c.Marker)
	}
	if c.MaxKeys > 0 {
		q.Set("max-keys", strconv.Itoa(c.MaxKeys))
	}
	return q
}

func (c ListObjectsV2) Query() url.Values {
	q := url.Values{}
	q.Set("prefix", c.Prefix)
	q.Set("list-type", "2")
	if c.Delimiter != "" {
		q.Set("delimiter", c.Delimiter)
	}
	if c.ContinuationToken != "" {
		q.Set("continuation-token", c.ContinuationToken)
	}
	if c.StartAfter != "" {
		q.Set("start-after", c.StartAfter)
	}
	if c.MaxKeys > 0 {
		q.Set("max-keys", strconv.Itoa(c.MaxKeys))
	}
	return q
}

func (c ListMultipartUploads) Query() url.Values {
	q := url.Values{"uploads": {""}}
	if c.Prefix != "" {
		q.Set("prefix", c.Prefix)
	}
	if c.Delimiter != "" {
		q.Set("delimiter", c.Delimiter)
	}
	if c.KeyMarker != "" {
		q.Set("key-marker", c.KeyMarker)
	}
	if c.MaxUploads > 0 {
		q.Set("max-uploads", strconv.Itoa(c.MaxUploads))
	}
	return q
}

func (InitiateMultipartUpload) Query() url.Values { return url.Values{"uploads": {""}} }

func (c *UploadPart) Query() url.Values {
	return url.Values{
		"partNumber": {strconv.Itoa(c.PartNumber)},
		"uploadId":   {c.UploadID},
	}
}

func (c AbortMultipartUpload) Query() url.Values {
	return url.Values{"uploadId": {c.UploadID}}
}

func (c *CompleteMultipartUpload) Query() url.Values {
	return url.Values{"uploadId": {c.UploadID}}
}

func (CopyObject) Query() url.Values        { return nil }
func (GetBucketLocation) Query() url.Values { return url.Values{"location": {""}} }

// Headers implementations.

func (Head) Headers() http.Header   { return nil }
func (Get) Headers() http.Header {
	return http.Header{"Accept": {DefaultContentType}}
}

func (c GetRange) Headers() http.Header {
	value := "bytes=" + strconv.FormatUint(c.Start, 10) + "-"
	if c.End != nil {
		value += strconv.FormatUint(*c.End, 10)
	}
	return http.Header{
		"Accept": {DefaultContentType},
		"Range":  {value},
	}
}

func (Delete) Headers() http.Header { return nil }

func (c *Put) Headers() http.Header {
	h := cloneHeader(c.Extra)
	h.Set("Content-MD5", contentMD5(c.Content))
	return h
}

func (c PutTagging) Headers() http.Header {
	h := http.Header{}
	h.Set("Content-MD5", contentMD5([]byte(c.Tags)))
	return h
}

func (GetTagging) Headers() http.Header           { return nil }
func (DeleteTagging) Headers() http.Header        { return nil }
func (ListObjects) Headers() http.Header          { return nil }
func (ListObjectsV2) Headers() http.Header        { return nil }
func (ListMultipartUploads) Headers() http.Header { return nil }

func (c InitiateMultipartUpload) Headers() http.Header {
	return cloneHeader(c.Extra)
}

func (c *UploadPart) Headers() http.Header {
	return http.Header{"Content-Md5": {contentMD5(c.Content)}}
}

func (AbortMultipartUpload) Headers() http.Header     { return nil }
func (*CompleteMultipartUpload) Headers() http.Header { return nil }

func (c CopyObject) Headers() http.Header {
	h := cloneHeader(c.Extra)
	h.Set("X-Amz-Copy-Source", c.From)
	return h
}

func (GetBucketLocation) Headers() http.Header { return nil }

func payloadSHA256(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// contentMD5 is the base64 of the raw MD5 digest (not hex), as required by
// the Content-MD5 header.
func contentMD5(body []byte) string {
	sum := md5.Sum(body)
	return base64.StdEncoding.EncodeToString(sum[:])
}

func cloneHeader(h http.Header) http.Header {
	out := make(http.Header, len(h)+2)
	for k, vs := range h {
		out[k] = append([]string(nil), vs...)
	}
	return out
}
