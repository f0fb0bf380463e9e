// Package bucket is the main entrypoint of the client: it binds an
// S3-compatible endpoint, builds and signs requests for the closed command
// set, and exposes the public object operations including the streaming
// multipart uploader and the paginated lister.
package bucket

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/cloudbend/stratus/pkg/command"
	"github.com/cloudbend/stratus/pkg/credentials"
	"github.com/cloudbend/stratus/pkg/sigv4"
	"github.com/cloudbend/stratus/pkg/transport"
)

// DefaultChunkSize is the multipart chunk threshold. S3 requires at least
// 5 MiB per part (except the last).
const DefaultChunkSize = 8 * 1024 * 1024

// MinChunkSize is the protocol minimum for a non-final multipart part.
const MinChunkSize = 5 * 1024 * 1024

// DefaultPipelineDepth bounds the chunk hand-off channel so at most two
// chunks are in flight: one being read, one being sent. This caps multipart
// memory at 2x the chunk size regardless of object size.
const DefaultPipelineDepth = 2

// Options tune a bucket binding. The zero value selects virtual-hosted
// addressing, v2 listing and the default multipart pipeline.
type Options struct {
	// PathStyle selects path-style addressing
	// (scheme://host/bucket/key) instead of virtual-hosted
	// (scheme://bucket.host/key). Most S3-compatible stores need it.
	PathStyle bool

	// UseLegacyList switches listing to the v1 ListObjects operation with
	// its single marker cursor. Default is ListObjects v2.
	UseLegacyList bool

	// ChunkSize is the multipart chunk threshold in bytes.
	// Default: DefaultChunkSize. Values below MinChunkSize are only valid
	// against test endpoints.
	ChunkSize int

	// PipelineDepth is the capacity of the chunk hand-off channel between
	// the stream reader and the part uploader. This is an advanced
	// memory-vs-throughput knob; the default of 2 is deliberate.
	PipelineDepth int

	// RateLimit caps part-upload requests per second during streaming
	// uploads. Zero means unlimited.
	RateLimit float64

	// Logger receives debug-level pipeline logging. Default: zap.NewNop().
	Logger *zap.Logger
}

// Bucket binds a bucket name on an endpoint to credentials and a shared
// transport. Buckets are cheap to copy; the credentials and transport client
// are shared, never mutated.
type Bucket struct {
	host    *url.URL
	name    string
	region  credentials.Region
	creds   credentials.Credentials
	client  *transport.Client
	logger  *zap.Logger
	limiter *rate.Limiter

	pathStyle     bool
	useLegacyList bool
	chunkSize     int
	pipelineDepth int

	// now is the signing clock, replaceable in tests.
	now func() time.Time
}

// New binds a bucket. hostURL is the endpoint (scheme://host[:port]) without
// the bucket name; client is the shared transport. Configuration arrives
// pre-validated per the collaborator contract, so only the URL is parsed
// here.
func New(client *transport.Client, hostURL, name string, region credentials.Region, creds credentials.Credentials, opts Options) (*Bucket, error) {
	host, err := url.Parse(hostURL)
	if err != nil {
		return nil, &OpError{Op: "New", Bucket: name, Err: err}
	}

	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.PipelineDepth <= 0 {
		opts.PipelineDepth = DefaultPipelineDepth
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	b := &Bucket{
		host:          host,
		name:          name,
		region:        region,
		creds:         creds,
		client:        client,
		logger:        opts.Logger,
		pathStyle:     opts.PathStyle,
		useLegacyList: opts.UseLegacyList,
		chunkSize:     opts.ChunkSize,
		pipelineDepth: opts.PipelineDepth,
		now:           time.Now,
	}
	if opts.RateLimit > 0 {
		b.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return b, nil
}

// Name returns the bucket name.
func (b *Bucket) Name() string {
	return b.name
}

// hostDomain is host[:port] of the endpoint without scheme.
func (b *Bucket) hostDomain() string {
	return b.host.Host
}

// hostHeader is the Host header value: the bare domain for path-style,
// bucket-prefixed for virtual-hosted addressing.
func (b *Bucket) hostHeader() string {
	if b.pathStyle {
		return b.hostDomain()
	}
	return b.name + "." + b.hostDomain()
}

// buildURL turns a command and object path into the fully qualified request
// URL, encoding the key with the AWS character rules (slashes preserved) and
// attaching the command's query parameters.
func (b *Bucket) buildURL(cmd command.Command, path string) (*url.URL, error) {
	path = strings.TrimPrefix(path, "/")

	var raw strings.Builder
	raw.WriteString(b.host.Scheme)
	raw.WriteString("://")
	if b.pathStyle {
		raw.WriteString(b.hostDomain())
		raw.WriteString("/")
		raw.WriteString(b.name)
	} else {
		raw.WriteString(b.name)
		raw.WriteString(".")
		raw.WriteString(b.hostDomain())
	}
	raw.WriteString("/")
	raw.WriteString(sigv4.URIEncode(path, false))

	if q := cmd.Query(); len(q) > 0 {
		raw.WriteString("?")
		raw.WriteString(q.Encode())
	}

	u, err := url.Parse(raw.String())
	if err != nil {
		return nil, err
	}
	return u, nil
}

// buildHeaders assembles and signs the header set for a command. Everything
// present at signing time participates in the signature; the human-readable
// Date header is appended afterwards on purpose, since its RFC 2822 encoding
// is not byte-stable across implementations. Replay bounding comes from the
// signed x-amz-date instead.
func (b *Bucket) buildHeaders(cmd command.Command, u *url.URL, now time.Time) http.Header {
	headers := cmd.Headers()
	if headers == nil {
		headers = make(http.Header, 6)
	}

	headers.Set("Host", b.hostHeader())

	if ct := cmd.ContentType(); ct != "" && headers.Get("Content-Type") == "" {
		headers.Set("Content-Type", ct)
	}
	// Only bodied requests declare a length; an explicit zero would be signed
	// but not transmitted for GET/DELETE, breaking server-side verification.
	if n := cmd.ContentLength(); n > 0 {
		headers.Set("Content-Length", strconv.Itoa(n))
	}

	headers.Set("x-amz-content-sha256", cmd.PayloadHash())
	headers.Set("x-amz-date", now.UTC().Format(sigv4.LongDateFormat))

	auth := sigv4.Sign(cmd.Method(), u, headers, cmd.PayloadHash(), now, b.region, b.creds)
	headers.Set("Authorization", auth)
	headers.Set("Date", now.UTC().Format(http.TimeFormat))

	return headers
}

// send builds, signs and issues one command. A non-2xx reply surfaces as a
// *transport.StatusError carrying the status and the response body text.
func (b *Bucket) send(ctx context.Context, cmd command.Command, path string) (*Response, error) {
	u, err := b.buildURL(cmd, path)
	if err != nil {
		return nil, err
	}
	headers := b.buildHeaders(cmd, u, b.now())

	res, err := b.client.Do(ctx, cmd.Method(), u.String(), headers, cmd.Body())
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: res.StatusCode, Header: res.Header, Body: res.Body}, nil
}

// Head returns the metadata of an object.
func (b *Bucket) Head(ctx context.Context, path string) (*HeadObjectResult, error) {
	res, err := b.send(ctx, command.Head{}, path)
	if err != nil {
		return nil, &OpError{Op: "Head", Bucket: b.name, Key: path, Err: err}
	}
	defer func() { _ = res.Close() }()
	return headObjectResultFromHeaders(res.Header), nil
}

// Get retrieves an object. The caller owns the response body.
func (b *Bucket) Get(ctx context.Context, path string) (*Response, error) {
	res, err := b.send(ctx, command.Get{}, path)
	if err != nil {
		return nil, &OpError{Op: "Get", Bucket: b.name, Key: path, Err: err}
	}
	return res, nil
}

// GetRange retrieves the byte range [start, end] of an object (the end bound
// is inclusive, per HTTP Range semantics); a nil end reads to the object's
// end. A start at or past the end is rejected before any request is issued.
func (b *Bucket) GetRange(ctx context.Context, path string, start uint64, end *uint64) (*Response, error) {
	if end != nil && start >= *end {
		return nil, &OpError{Op: "GetRange", Bucket: b.name, Key: path, Err: ErrInvalidRange}
	}
	res, err := b.send(ctx, command.GetRange{Start: start, End: end}, path)
	if err != nil {
		return nil, &OpError{Op: "GetRange", Bucket: b.name, Key: path, Err: err}
	}
	return res, nil
}

// Delete removes an object.
func (b *Bucket) Delete(ctx context.Context, path string) (*Response, error) {
	res, err := b.send(ctx, command.Delete{}, path)
	if err != nil {
		return nil, &OpError{Op: "Delete", Bucket: b.name, Key: path, Err: err}
	}
	return res, nil
}

// Put uploads an object with the default content type.
func (b *Bucket) Put(ctx context.Context, path string, content []byte) (*Response, error) {
	return b.PutWithContentType(ctx, path, content, command.DefaultContentType)
}

// PutWithContentType uploads an object with an explicit content type.
func (b *Bucket) PutWithContentType(ctx context.Context, path string, content []byte, contentType string) (*Response, error) {
	extra := http.Header{}
	extra.Set("Content-Type", contentType)
	return b.PutWith(ctx, path, content, extra)
}

// PutWith uploads an object with additional request headers. Required
// headers (Authorization, Content-Length, hashes) are still handled here and
// need not be included.
func (b *Bucket) PutWith(ctx context.Context, path string, content []byte, extra http.Header) (*Response, error) {
	res, err := b.send(ctx, &command.Put{Content: content, Extra: extra}, path)
	if err != nil {
		return nil, &OpError{Op: "Put", Bucket: b.name, Key: path, Err: err}
	}
	return res, nil
}

// PutTagging replaces the tag set of an object. tags is the raw Tagging XML
// document.
func (b *Bucket) PutTagging(ctx context.Context, path, tags string) (*Response, error) {
	res, err := b.send(ctx, command.PutTagging{Tags: tags}, path)
	if err != nil {
		return nil, &OpError{Op: "PutTagging", Bucket: b.name, Key: path, Err: err}
	}
	return res, nil
}

// GetTagging reads the tag set of an object as raw XML.
func (b *Bucket) GetTagging(ctx context.Context, path string) (*Response, error) {
	res, err := b.send(ctx, command.GetTagging{}, path)
	if err != nil {
		return nil, &OpError{Op: "GetTagging", Bucket: b.name, Key: path, Err: err}
	}
	return res, nil
}

// DeleteTagging removes the tag set of an object.
func (b *Bucket) DeleteTagging(ctx context.Context, path string) (*Response, error) {
	res, err := b.send(ctx, command.DeleteTagging{}, path)
	if err != nil {
		return nil, &OpError{Op: "DeleteTagging", Bucket: b.name, Key: path, Err: err}
	}
	return res, nil
}

// CopyInternal server-side copies an object within this bucket.
func (b *Bucket) CopyInternal(ctx context.Context, from, to string) (int, error) {
	return b.CopyInternalWith(ctx, from, to, nil)
}

// CopyInternalWith server-side copies an object within this bucket with
// additional request headers (e.g. x-amz-metadata-directive: REPLACE to
// rewrite metadata in place).
func (b *Bucket) CopyInternalWith(ctx context.Context, from, to string, extra http.Header) (int, error) {
	source := b.name + "/" + strings.TrimPrefix(from, "/")
	res, err := b.send(ctx, command.CopyObject{From: source, Extra: extra}, to)
	if err != nil {
		return 0, &OpError{Op: "CopyObject", Bucket: b.name, Key: to, Err: err}
	}
	defer func() { _ = res.Close() }()
	return res.StatusCode, nil
}

// CopyInternalFrom server-side copies an object from another bucket on the
// same endpoint into this bucket.
func (b *Bucket) CopyInternalFrom(ctx context.Context, fromBucket, fromObject, to string) (int, error) {
	source := fromBucket + "/" + strings.TrimPrefix(fromObject, "/")
	res, err := b.send(ctx, command.CopyObject{From: source}, to)
	if err != nil {
		return 0, &OpError{Op: "CopyObject", Bucket: b.name, Key: to, Err: err}
	}
	defer func() { _ = res.Close() }()
	return res.StatusCode, nil
}

// Location reads the bucket's region constraint. An empty value means the
// endpoint's default region (us-east-1 on AWS).
func (b *Bucket) Location(ctx context.Context) (string, error) {
	res, err := b.send(ctx, command.GetBucketLocation{}, "/")
	if err != nil {
		return "", &OpError{Op: "GetBucketLocation", Bucket: b.name, Err: err}
	}
	var constraint struct {
		Value string `xml:",chardata"`
	}
	if err := decodeXMLBody(res, "LocationConstraint", &constraint); err != nil {
		return "", &OpError{Op: "GetBucketLocation", Bucket: b.name, Err: err}
	}
	return strings.TrimSpace(constraint.Value), nil
}
