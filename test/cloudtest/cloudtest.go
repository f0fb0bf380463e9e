// Package cloudtest provides helpers for cloud integration tests using moto.
//
// These helpers enable testing against a local S3-compatible endpoint without
// requiring real credentials. Tests using this package should be tagged with
// //go:build cloudintegration.
//
// Usage:
//
//	func TestRoundTrip(t *testing.T) {
//	    cloudtest.SkipIfUnavailable(t)
//	    b := cloudtest.NewBucket(t, ctx)
//	    // ... test code ...
//	}
package cloudtest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/cloudbend/stratus/pkg/bucket"
	"github.com/cloudbend/stratus/pkg/credentials"
	"github.com/cloudbend/stratus/pkg/sigv4"
	"github.com/cloudbend/stratus/pkg/transport"
)

const (
	// DefaultEndpoint is the default moto server endpoint.
	// Port 5555 avoids conflict with macOS AirTunes on 5000.
	DefaultEndpoint = "http://localhost:5555"

	// DefaultRegion is the default signing region for tests.
	DefaultRegion = "us-east-1"

	// TestAccessKeyID is the access key used for moto (accepts any).
	TestAccessKeyID = "testing"

	// TestSecretAccessKey is the secret key used for moto (accepts any).
	TestSecretAccessKey = "testing"
)

var (
	// Endpoint is the moto server endpoint, configurable via MOTO_ENDPOINT.
	Endpoint = getEnvOrDefault("MOTO_ENDPOINT", DefaultEndpoint)

	// Region is the signing region for tests, configurable via MOTO_REGION.
	Region = getEnvOrDefault("MOTO_REGION", DefaultRegion)
)

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// Available checks if the moto server is reachable.
func Available() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, Endpoint+"/moto-api/", nil)
	if err != nil {
		return false
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode == http.StatusOK
}

// SkipIfUnavailable skips the test if the moto server is not available.
func SkipIfUnavailable(t *testing.T) {
	t.Helper()
	if !Available() {
		t.Skipf("moto server not available at %s (start with: make moto-start)", Endpoint)
	}
}

// Reset clears all moto state. Call this between tests for isolation.
func Reset(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, Endpoint+"/moto-api/reset", nil)
	if err != nil {
		return fmt.Errorf("create reset request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("reset request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reset returned status %d", resp.StatusCode)
	}

	return nil
}

// ResetT resets moto state, failing the test on error.
func ResetT(t *testing.T, ctx context.Context) {
	t.Helper()
	if err := Reset(ctx); err != nil {
		t.Fatalf("failed to reset moto: %v", err)
	}
}

// Creds returns the static test credentials.
func Creds() credentials.Credentials {
	return credentials.New(TestAccessKeyID, TestSecretAccessKey)
}

// NewBucket creates a test bucket with a unique name, returns a handle bound
// to it, and registers cleanup that empties and deletes the bucket.
func NewBucket(t *testing.T, ctx context.Context) *bucket.Bucket {
	t.Helper()

	name := strings.ToLower(t.Name())
	name = strings.ReplaceAll(name, "/", "-")
	name = strings.ReplaceAll(name, "_", "-")
	if len(name) > 50 {
		name = name[:50]
	}
	name = fmt.Sprintf("%s-%d", name, time.Now().UnixNano()%100000)

	client := transport.New(transport.Options{})
	t.Cleanup(client.Close)

	if err := bucketRequest(ctx, client, http.MethodPut, name); err != nil {
		t.Fatalf("failed to create bucket %s: %v", name, err)
	}

	b, err := bucket.New(client, Endpoint, name, credentials.NewRegion(Region), Creds(), bucket.Options{
		PathStyle: true,
	})
	if err != nil {
		t.Fatalf("failed to open bucket %s: %v", name, err)
	}

	t.Cleanup(func() {
		cleanupBucket(t, client, b, name)
	})

	return b
}

// cleanupBucket deletes all objects and then the bucket itself.
func cleanupBucket(t *testing.T, client *transport.Client, b *bucket.Bucket, name string) {
	t.Helper()
	ctx := context.Background()

	pages, err := b.List(ctx, "", "")
	if err != nil {
		t.Logf("cleanup: list bucket %s: %v", name, err)
		return
	}
	for _, page := range pages {
		for _, obj := range page.Contents {
			if res, err := b.Delete(ctx, obj.Key); err != nil {
				t.Logf("cleanup: delete %s/%s: %v", name, obj.Key, err)
			} else {
				res.Close()
			}
		}
	}

	if err := bucketRequest(ctx, client, http.MethodDelete, name); err != nil {
		t.Logf("cleanup: delete bucket %s: %v", name, err)
	}
}

// bucketRequest issues a signed bucket-level request (create or delete) that
// the object-level handle does not expose.
func bucketRequest(ctx context.Context, client *transport.Client, method, name string) error {
	rawURL := fmt.Sprintf("%s/%s/", Endpoint, name)
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse %s: %w", rawURL, err)
	}

	now := time.Now().UTC()
	headers := http.Header{}
	headers.Set("Host", u.Host)
	headers.Set("X-Amz-Content-Sha256", sigv4.EmptyPayloadSHA256)
	headers.Set("X-Amz-Date", now.Format(sigv4.LongDateFormat))

	auth := sigv4.Sign(method, u, headers, sigv4.EmptyPayloadSHA256, now, credentials.NewRegion(Region), Creds())
	headers.Set("Authorization", auth)

	resp, err := client.Do(ctx, method, rawURL, headers, nil)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}
