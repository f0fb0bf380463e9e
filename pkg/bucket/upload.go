package bucket

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cloudbend/stratus/pkg/command"
)

// abortTimeout bounds the automatic AbortMultipartUpload issued after a part
// failure. It runs on a detached context so cancellation of the upload still
// lets the abort go out.
const abortTimeout = 30 * time.Second

// InitiateMultipartUpload opens a multipart session for a key. The content
// type of the final object is fixed here; individual parts carry none.
func (b *Bucket) InitiateMultipartUpload(ctx context.Context, path, contentType string) (*InitiateMultipartUploadResult, error) {
	return b.initiateMultipartUpload(ctx, path, headerWithContentType(contentType))
}

func (b *Bucket) initiateMultipartUpload(ctx context.Context, path string, extra http.Header) (*InitiateMultipartUploadResult, error) {
	res, err := b.send(ctx, command.InitiateMultipartUpload{Extra: extra}, path)
	if err != nil {
		return nil, &OpError{Op: "InitiateMultipartUpload", Bucket: b.name, Key: path, Err: err}
	}
	var out InitiateMultipartUploadResult
	if err := decodeXMLBody(res, "InitiateMultipartUploadResult", &out); err != nil {
		return nil, &OpError{Op: "InitiateMultipartUpload", Bucket: b.name, Key: path, Err: err}
	}
	return &out, nil
}

// UploadPart transmits one numbered part of an open multipart session and
// returns the part's ETag. Part numbers are 1-based and must be issued in
// sequence without gaps. A reply without an ETag header fails with
// ErrMissingETag.
func (b *Bucket) UploadPart(ctx context.Context, path, uploadID string, partNumber int, content []byte) (string, error) {
	cmd := &command.UploadPart{PartNumber: partNumber, Content: content, UploadID: uploadID}
	etag, err := b.sendPart(ctx, cmd, path)
	if err != nil {
		return "", &OpError{Op: "UploadPart", Bucket: b.name, Key: path, Err: err}
	}
	return etag, nil
}

// AbortMultipartUpload discards an open session and every part uploaded into
// it. The upload ID must not be used afterwards.
func (b *Bucket) AbortMultipartUpload(ctx context.Context, path, uploadID string) error {
	res, err := b.send(ctx, command.AbortMultipartUpload{UploadID: uploadID}, path)
	if err != nil {
		return &OpError{Op: "AbortMultipartUpload", Bucket: b.name, Key: path, Err: err}
	}
	return res.Close()
}

// CompleteMultipartUpload stitches the uploaded parts into the final object.
// The manifest must list contiguous part numbers starting at 1, in upload
// order.
func (b *Bucket) CompleteMultipartUpload(ctx context.Context, path, uploadID string, parts []command.Part) (*Response, error) {
	cmd := &command.CompleteMultipartUpload{
		UploadID: uploadID,
		Manifest: command.CompleteManifest{Parts: parts},
	}
	res, err := b.send(ctx, cmd, path)
	if err != nil {
		return nil, &OpError{Op: "CompleteMultipartUpload", Bucket: b.name, Key: path, Err: err}
	}
	return res, nil
}

// PutStream uploads a byte stream of unknown length with the default content
// type.
func (b *Bucket) PutStream(ctx context.Context, reader io.Reader, path string) (*PutStreamResponse, error) {
	return b.PutStreamWithContentType(ctx, reader, path, command.DefaultContentType)
}

// PutStreamWithContentType uploads a byte stream with an explicit content
// type.
func (b *Bucket) PutStreamWithContentType(ctx context.Context, reader io.Reader, path, contentType string) (*PutStreamResponse, error) {
	return b.PutStreamWith(ctx, reader, path, headerWithContentType(contentType))
}

// PutStreamWith uploads a byte stream with additional request headers.
//
// Objects that fit in a single chunk are uploaded with one ordinary Put and
// never engage the multipart machinery. Larger streams run a two-stage
// pipeline: the calling goroutine keeps reading chunks while a second
// goroutine initiates the multipart session and uploads parts strictly in
// read order. The hand-off channel is bounded, so at most PipelineDepth
// chunks are held in memory at any instant, independent of object size. Part
// uploads are not parallelized on purpose; sequential parts keep the memory
// bound tight and the ordering trivially correct.
func (b *Bucket) PutStreamWith(ctx context.Context, reader io.Reader, path string, extra http.Header) (*PutStreamResponse, error) {
	first, rerr := readChunk(reader, b.chunkSize)
	if rerr != nil && !errors.Is(rerr, io.EOF) {
		return nil, &OpError{Op: "PutStream", Bucket: b.name, Key: path, Err: rerr}
	}

	b.logger.Debug("first chunk read", zap.String("key", path), zap.Int("bytes", len(first)))

	if len(first) < b.chunkSize {
		// Whole object fits in one chunk: plain Put, no multipart session.
		res, err := b.PutWith(ctx, path, first, extra)
		if err != nil {
			return nil, err
		}
		defer func() { _ = res.Close() }()
		return &PutStreamResponse{StatusCode: res.StatusCode, UploadedBytes: int64(len(first))}, nil
	}

	// At least two chunks. The hand-off channel bounds in-flight chunks; the
	// done channel lets the reader notice when the uploader stopped early.
	chunks := make(chan []byte, b.pipelineDepth)
	done := make(chan struct{})
	result := make(chan streamResult, 1)

	go func(first []byte) {
		defer close(done)
		result <- b.uploadParts(ctx, path, first, extra, chunks)
	}(first)
	first = nil // ownership moved to the uploader, not copied

	for {
		chunk, err := readChunk(reader, b.chunkSize)
		if len(chunk) > 0 {
			select {
			case chunks <- chunk:
			case <-done:
				b.logger.Warn("part uploader stopped before reader finished",
					zap.String("key", path))
				err = io.EOF
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				b.logger.Error("stream reader error", zap.String("key", path), zap.Error(err))
			}
			break
		}
	}
	// Closing the channel is the no-more-data sentinel for the uploader.
	close(chunks)

	r := <-result
	return r.resp, r.err
}

type streamResult struct {
	resp *PutStreamResponse
	err  error
}

// uploadParts is the consumer half of the streaming pipeline: it opens the
// multipart session, turns the first buffer and every chunk drained from the
// channel into sequentially numbered parts, and finishes with a completion
// call. Any part failure triggers exactly one AbortMultipartUpload before
// the failure propagates.
func (b *Bucket) uploadParts(ctx context.Context, path string, first []byte, extra http.Header, chunks <-chan []byte) streamResult {
	init, err := b.initiateMultipartUpload(ctx, path, extra)
	if err != nil {
		return streamResult{err: err}
	}
	key := init.Key
	uploadID := init.UploadID
	logger := b.logger.With(zap.String("key", key), zap.String("upload_id", uploadID))
	logger.Debug("multipart session initiated")

	var (
		parts      []command.Part
		partNumber int
		total      int64
	)
	for {
		var chunk []byte
		if partNumber == 0 {
			chunk = first
		} else {
			var ok bool
			chunk, ok = <-chunks
			if !ok {
				logger.Debug("no more chunks, finishing upload", zap.Int("parts", partNumber))
				break
			}
		}

		partNumber++
		total += int64(len(chunk))

		if b.limiter != nil {
			if err := b.limiter.Wait(ctx); err != nil {
				return streamResult{err: b.failPart(key, uploadID, err, logger)}
			}
		}

		etag, err := b.sendPart(ctx, &command.Put{
			Content:   chunk,
			Multipart: &command.MultipartRef{PartNumber: partNumber, UploadID: uploadID},
		}, key)
		if err != nil {
			return streamResult{err: b.failPart(key, uploadID, err, logger)}
		}

		logger.Debug("part uploaded", zap.Int("part", partNumber), zap.Int("bytes", len(chunk)))
		parts = append(parts, command.Part{PartNumber: partNumber, ETag: etag})
	}

	res, err := b.CompleteMultipartUpload(ctx, key, uploadID, parts)
	if err != nil {
		return streamResult{err: err}
	}
	defer func() { _ = res.Close() }()

	logger.Debug("multipart upload completed",
		zap.Int("parts", partNumber), zap.Int64("bytes", total))

	return streamResult{resp: &PutStreamResponse{StatusCode: res.StatusCode, UploadedBytes: total}}
}

// sendPart issues one part request and extracts the mandatory ETag header.
func (b *Bucket) sendPart(ctx context.Context, cmd command.Command, key string) (string, error) {
	res, err := b.send(ctx, cmd, key)
	if err != nil {
		return "", err
	}
	defer func() { _ = res.Close() }()

	etag := res.Header.Get("ETag")
	if etag == "" {
		return "", ErrMissingETag
	}
	return etag, nil
}

// failPart issues the cleanup abort for a failed part and wraps both
// failures. The original cause keeps precedence; an abort failure is carried
// as supplementary context. The abort runs on a detached context so it is
// still attempted when the caller's context caused the failure.
func (b *Bucket) failPart(key, uploadID string, cause error, logger *zap.Logger) error {
	logger.Error("part upload failed, aborting session", zap.Error(cause))

	ctx, cancel := context.WithTimeout(context.Background(), abortTimeout)
	defer cancel()

	if aerr := b.AbortMultipartUpload(ctx, key, uploadID); aerr != nil {
		logger.Error("abort after part failure also failed", zap.Error(aerr))
		return &OpError{Op: "PutStream", Bucket: b.name, Key: key,
			Err: &MultipartError{Cause: cause, AbortErr: aerr}}
	}
	return &OpError{Op: "PutStream", Bucket: b.name, Key: key,
		Err: &MultipartError{Cause: cause}}
}

// readChunk reads up to size bytes. It returns io.EOF alongside any final
// partial (or empty) chunk once the stream is exhausted.
func readChunk(r io.Reader, size int) ([]byte, error) {
	buf := make([]byte, size)
	n, err := io.ReadFull(r, buf)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = io.EOF
	}
	return buf[:n], err
}

func headerWithContentType(contentType string) http.Header {
	h := http.Header{}
	h.Set("Content-Type", contentType)
	return h
}
