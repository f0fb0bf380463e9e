package command

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudbend/stratus/pkg/sigv4"
)

func TestMethods(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{"head", Head{}, http.MethodHead},
		{"get", Get{}, http.MethodGet},
		{"get range", GetRange{Start: 0}, http.MethodGet},
		{"delete", Delete{}, http.MethodDelete},
		{"put", &Put{Content: []byte("x")}, http.MethodPut},
		{"put tagging", PutTagging{Tags: "<Tagging/>"}, http.MethodPut},
		{"get tagging", GetTagging{}, http.MethodGet},
		{"delete tagging", DeleteTagging{}, http.MethodDelete},
		{"list v1", ListObjects{}, http.MethodGet},
		{"list v2", ListObjectsV2{}, http.MethodGet},
		{"list uploads", ListMultipartUploads{}, http.MethodGet},
		{"initiate", InitiateMultipartUpload{}, http.MethodPost},
		{"upload part", &UploadPart{PartNumber: 1}, http.MethodPut},
		{"abort", AbortMultipartUpload{UploadID: "u"}, http.MethodDelete},
		{"complete", &CompleteMultipartUpload{UploadID: "u"}, http.MethodPost},
		{"copy", CopyObject{From: "b/k"}, http.MethodPut},
		{"location", GetBucketLocation{}, http.MethodGet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cmd.Method())
		})
	}
}

func TestBodilessPayloadHash(t *testing.T) {
	for _, cmd := range []Command{
		Head{}, Get{}, GetRange{}, Delete{}, GetTagging{}, DeleteTagging{},
		ListObjects{}, ListObjectsV2{}, ListMultipartUploads{},
		InitiateMultipartUpload{}, AbortMultipartUpload{}, CopyObject{}, GetBucketLocation{},
	} {
		assert.Nil(t, cmd.Body())
		assert.Zero(t, cmd.ContentLength())
		assert.Equal(t, sigv4.EmptyPayloadSHA256, cmd.PayloadHash())
	}
}

func TestPutContentType(t *testing.T) {
	assert.Equal(t, DefaultContentType, (&Put{Content: []byte("x")}).ContentType())
	assert.Equal(t, "text/csv", (&Put{Content: []byte("x"), MIMEType: "text/csv"}).ContentType())

	// Parts carry no Content-Type; it was fixed when the session was opened.
	part := &Put{Content: []byte("x"), MIMEType: "text/csv", Multipart: &MultipartRef{PartNumber: 1, UploadID: "u"}}
	assert.Equal(t, "", part.ContentType())
}

func TestPutPayload(t *testing.T) {
	content := []byte("hello world")
	p := &Put{Content: content}

	assert.Equal(t, content, p.Body())
	assert.Equal(t, len(content), p.ContentLength())
	// SHA-256("hello world")
	assert.Equal(t, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9", p.PayloadHash())
	// base64(MD5("hello world"))
	assert.Equal(t, "XrY7u+Ae7tCTyyK7j1rNww==", p.Headers().Get("Content-MD5"))
}

func TestPutMultipartQuery(t *testing.T) {
	p := &Put{Content: []byte("x"), Multipart: &MultipartRef{PartNumber: 7, UploadID: "session-1"}}

	q := p.Query()
	assert.Equal(t, "7", q.Get("partNumber"))
	assert.Equal(t, "session-1", q.Get("uploadId"))

	assert.Nil(t, (&Put{Content: []byte("x")}).Query())
}

func TestPutExtraHeadersNotMutated(t *testing.T) {
	extra := http.Header{"X-Amz-Meta-Owner": {"ops"}}
	p := &Put{Content: []byte("x"), Extra: extra}

	h := p.Headers()
	assert.Equal(t, "ops", h.Get("X-Amz-Meta-Owner"))
	assert.NotEmpty(t, h.Get("Content-MD5"))
	assert.Empty(t, extra.Get("Content-MD5"), "caller header set must stay untouched")
}

func TestGetRangeHeader(t *testing.T) {
	end := uint64(1023)

	tests := []struct {
		name string
		cmd  GetRange
		want string
	}{
		{"bounded", GetRange{Start: 0, End: &end}, "bytes=0-1023"},
		{"open ended", GetRange{Start: 4096}, "bytes=4096-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cmd.Headers().Get("Range"))
		})
	}
}

func TestPutTaggingContentMD5(t *testing.T) {
	h := PutTagging{Tags: "<Tagging/>"}.Headers()
	require.Len(t, h, 1)
	// base64(MD5("<Tagging/>"))
	assert.Equal(t, "5MKq9Afjj8VFAV5vB64atA==", h.Get("Content-MD5"))
}

func TestTaggingQuery(t *testing.T) {
	for _, cmd := range []Command{PutTagging{Tags: "t"}, GetTagging{}, DeleteTagging{}} {
		q := cmd.Query()
		_, ok := q["tagging"]
		assert.True(t, ok)
	}
}

func TestListObjectsQuery(t *testing.T) {
	q := ListObjects{Prefix: "data/", Delimiter: "/", Marker: "data/m", MaxKeys: 100}.Query()
	assert.Equal(t, "data/", q.Get("prefix"))
	assert.Equal(t, "/", q.Get("delimiter"))
	assert.Equal(t, "data/m", q.Get("marker"))
	assert.Equal(t, "100", q.Get("max-keys"))

	// Prefix is always present, even empty; the cursor only when set.
	q = ListObjects{}.Query()
	_, ok := q["prefix"]
	assert.True(t, ok)
	_, ok = q["marker"]
	assert.False(t, ok)
}

func TestListObjectsV2Query(t *testing.T) {
	q := ListObjectsV2{Prefix: "p/", ContinuationToken: "tok", StartAfter: "p/a", MaxKeys: 50}.Query()
	assert.Equal(t, "2", q.Get("list-type"))
	assert.Equal(t, "p/", q.Get("prefix"))
	assert.Equal(t, "tok", q.Get("continuation-token"))
	assert.Equal(t, "p/a", q.Get("start-after"))
	assert.Equal(t, "50", q.Get("max-keys"))
}

func TestMultipartLifecycleQueries(t *testing.T) {
	q := InitiateMultipartUpload{}.Query()
	_, ok := q["uploads"]
	assert.True(t, ok)

	q = (&UploadPart{PartNumber: 3, UploadID: "u1"}).Query()
	assert.Equal(t, "3", q.Get("partNumber"))
	assert.Equal(t, "u1", q.Get("uploadId"))

	q = AbortMultipartUpload{UploadID: "u1"}.Query()
	assert.Equal(t, "u1", q.Get("uploadId"))

	q = ListMultipartUploads{Prefix: "p/", KeyMarker: "k"}.Query()
	_, ok = q["uploads"]
	assert.True(t, ok)
	assert.Equal(t, "p/", q.Get("prefix"))
	assert.Equal(t, "k", q.Get("key-marker"))
}

func TestCompleteMultipartUpload(t *testing.T) {
	cmd := &CompleteMultipartUpload{UploadID: "u1"}
	cmd.Manifest.Append(Part{PartNumber: 1, ETag: `"etag-1"`})
	cmd.Manifest.Append(Part{PartNumber: 2, ETag: `"etag-2"`})

	body := cmd.Body()
	require.NotEmpty(t, body)
	assert.Contains(t, string(body), "<CompleteMultipartUpload>")
	assert.Contains(t, string(body), "<PartNumber>1</PartNumber>")
	assert.Contains(t, string(body), "<PartNumber>2</PartNumber>")

	assert.Equal(t, len(body), cmd.ContentLength())
	assert.Equal(t, "application/xml", cmd.ContentType())
	assert.NotEqual(t, sigv4.EmptyPayloadSHA256, cmd.PayloadHash())

	// The manifest encodes once; repeated accessors see the same bytes.
	assert.Equal(t, body, cmd.Body())
}

func TestCopyObjectHeaders(t *testing.T) {
	h := CopyObject{From: "src-bucket/src-key"}.Headers()
	assert.Equal(t, "src-bucket/src-key", h.Get("X-Amz-Copy-Source"))
}

func TestGetBucketLocationQuery(t *testing.T) {
	q := GetBucketLocation{}.Query()
	_, ok := q["location"]
	assert.True(t, ok)
	assert.Equal(t, url.Values{"location": {""}}, q)
}
