package bucket

import (
	"encoding/xml"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// Response is a successful S3 reply. The body is an opaque byte stream,
// consumable either incrementally through Body or buffered through Bytes.
type Response struct {
	// StatusCode is the HTTP status of the reply (always 2xx).
	StatusCode int

	// Header is the response header set.
	Header http.Header

	// Body is the response stream. The caller owns it and must close it;
	// Bytes does so on the caller's behalf.
	Body io.ReadCloser
}

// Bytes reads the remaining body in full and closes it.
func (r *Response) Bytes() ([]byte, error) {
	defer func() { _ = r.Body.Close() }()
	return io.ReadAll(r.Body)
}

// Close discards the body without reading it.
func (r *Response) Close() error {
	return r.Body.Close()
}

// Owner identifies the owner of a listed object.
type Owner struct {
	DisplayName string `xml:"DisplayName"`
	ID          string `xml:"ID"`
}

// Object is one entry of a bucket listing.
type Object struct {
	Key          string `xml:"Key"`
	LastModified string `xml:"LastModified"`
	ETag         string `xml:"ETag"`
	Size         uint64 `xml:"Size"`
	StorageClass string `xml:"StorageClass"`
	Owner        *Owner `xml:"Owner"`
}

// CommonPrefix groups keys sharing a prefix when a delimiter is used.
type CommonPrefix struct {
	Prefix string `xml:"Prefix"`
}

// ListBucketResult is one page of a bucket listing, for both the v1 and v2
// operations. Pages accumulate client-side in arrival order and are never
// merged or reordered.
type ListBucketResult struct {
	XMLName        xml.Name       `xml:"ListBucketResult"`
	Name           string         `xml:"Name"`
	Prefix         string         `xml:"Prefix"`
	Delimiter      string         `xml:"Delimiter"`
	MaxKeys        int            `xml:"MaxKeys"`
	EncodingType   string         `xml:"EncodingType"`
	IsTruncated    bool           `xml:"IsTruncated"`
	KeyCount       int            `xml:"KeyCount"`
	Contents       []Object       `xml:"Contents"`
	CommonPrefixes []CommonPrefix `xml:"CommonPrefixes"`

	// ContinuationToken echoes the v2 request cursor; Marker is its v1
	// counterpart.
	ContinuationToken string `xml:"ContinuationToken"`
	Marker            string `xml:"Marker"`

	// NextContinuationToken (v2) and NextMarker (v1) carry the cursor for
	// the following page; both empty means the listing is exhausted.
	NextContinuationToken string `xml:"NextContinuationToken"`
	NextMarker            string `xml:"NextMarker"`
}

// NextToken returns the continuation cursor for the next page, preferring the
// v2 token. Empty means no more pages.
func (r *ListBucketResult) NextToken() string {
	if r.NextContinuationToken != "" {
		return r.NextContinuationToken
	}
	return r.NextMarker
}

// InitiateMultipartUploadResult is the XML reply opening a multipart session.
type InitiateMultipartUploadResult struct {
	XMLName  xml.Name `xml:"InitiateMultipartUploadResult"`
	Bucket   string   `xml:"Bucket"`
	Key      string   `xml:"Key"`
	UploadID string   `xml:"UploadId"`
}

// MultipartUploadEntry describes one in-progress multipart session.
type MultipartUploadEntry struct {
	Key       string `xml:"Key"`
	UploadID  string `xml:"UploadId"`
	Initiated string `xml:"Initiated"`
}

// ListMultipartUploadsResult is the reply of a ListMultipartUploads call.
type ListMultipartUploadsResult struct {
	XMLName            xml.Name               `xml:"ListMultipartUploadsResult"`
	Bucket             string                 `xml:"Bucket"`
	KeyMarker          string                 `xml:"KeyMarker"`
	UploadIDMarker     string                 `xml:"UploadIdMarker"`
	NextKeyMarker      string                 `xml:"NextKeyMarker"`
	NextUploadIDMarker string                 `xml:"NextUploadIdMarker"`
	MaxUploads         int                    `xml:"MaxUploads"`
	IsTruncated        bool                   `xml:"IsTruncated"`
	Uploads            []MultipartUploadEntry `xml:"Upload"`
	CommonPrefixes     []CommonPrefix         `xml:"CommonPrefixes"`
}

// PutStreamResponse summarizes a streaming upload.
type PutStreamResponse struct {
	// StatusCode is the status of the final request (the single Put for
	// small objects, CompleteMultipartUpload otherwise).
	StatusCode int

	// UploadedBytes is the total payload size transmitted.
	UploadedBytes int64
}

// HeadObjectResult is the object metadata extracted from a HEAD reply's
// headers.
type HeadObjectResult struct {
	AcceptRanges       string
	CacheControl       string
	ContentDisposition string
	ContentEncoding    string
	ContentLanguage    string
	ContentLength      int64
	ContentType        string
	DeleteMarker       bool
	ETag               string
	Expiration         string
	Expires            string
	LastModified       string
	Metadata           map[string]string
	PartsCount         int
	ReplicationStatus  string
	Restore            string
	StorageClass       string
	VersionID          string
}

const metaPrefix = "x-amz-meta-"

// headObjectResultFromHeaders maps a HEAD reply's headers onto the result
// struct. Unknown x-amz-meta-* headers land in Metadata with the prefix
// stripped.
func headObjectResultFromHeaders(h http.Header) *HeadObjectResult {
	res := &HeadObjectResult{
		AcceptRanges:       h.Get("Accept-Ranges"),
		CacheControl:       h.Get("Cache-Control"),
		ContentDisposition: h.Get("Content-Disposition"),
		ContentEncoding:    h.Get("Content-Encoding"),
		ContentLanguage:    h.Get("Content-Language"),
		ContentType:        h.Get("Content-Type"),
		ETag:               h.Get("ETag"),
		Expiration:         h.Get("x-amz-expiration"),
		Expires:            h.Get("Expires"),
		LastModified:       h.Get("Last-Modified"),
		Metadata:           map[string]string{},
		ReplicationStatus:  h.Get("x-amz-replication-status"),
		Restore:            h.Get("x-amz-restore"),
		StorageClass:       h.Get("x-amz-storage-class"),
		VersionID:          h.Get("x-amz-version-id"),
	}
	if v, err := strconv.ParseInt(h.Get("Content-Length"), 10, 64); err == nil {
		res.ContentLength = v
	}
	if v, err := strconv.ParseBool(h.Get("x-amz-delete-marker")); err == nil {
		res.DeleteMarker = v
	}
	if v, err := strconv.Atoi(h.Get("x-amz-mp-parts-count")); err == nil {
		res.PartsCount = v
	}
	for name, values := range h {
		lower := strings.ToLower(name)
		if strings.HasPrefix(lower, metaPrefix) && len(values) > 0 {
			res.Metadata[lower[len(metaPrefix):]] = values[0]
		}
	}
	return res
}
