package images

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeS3 struct {
	puts    []s3.PutObjectInput
	deletes []s3.DeleteObjectInput
	err     error
}

func (f *fakeS3) PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.puts = append(f.puts, *input)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deletes = append(f.deletes, *input)
	return &s3.DeleteObjectOutput{}, nil
}

func TestUploadSendsObject(t *testing.T) {
	fake := &fakeS3{}
	store := NewWithClient(fake, Config{Bucket: "listings"})

	body := strings.NewReader("image-bytes")
	if err := store.Upload(context.Background(), "businesses/1/1", "image/jpeg", body, int64(body.Len())); err != nil {
		t.Fatalf("upload: %v", err)
	}

	if len(fake.puts) != 1 {
		t.Fatalf("puts = %d, want 1", len(fake.puts))
	}
	put := fake.puts[0]
	if *put.Bucket != "listings" {
		t.Errorf("Bucket = %q, want listings", *put.Bucket)
	}
	if *put.Key != "businesses/1/1" {
		t.Errorf("Key = %q, want businesses/1/1", *put.Key)
	}
	if *put.ContentType != "image/jpeg" {
		t.Errorf("ContentType = %q, want image/jpeg", *put.ContentType)
	}
}

func TestUploadPropagatesError(t *testing.T) {
	fake := &fakeS3{err: errors.New("bucket unavailable")}
	store := NewWithClient(fake, Config{Bucket: "listings"})

	err := store.Upload(context.Background(), "k", "image/png", strings.NewReader("x"), 1)
	if err == nil {
		t.Fatal("expected error from failing client")
	}
}

func TestDeleteSendsKey(t *testing.T) {
	fake := &fakeS3{}
	store := NewWithClient(fake, Config{Bucket: "listings"})

	if err := store.Delete(context.Background(), "businesses/1/2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(fake.deletes) != 1 || *fake.deletes[0].Key != "businesses/1/2" {
		t.Errorf("deletes = %+v, want one delete of businesses/1/2", fake.deletes)
	}
}

func TestNotConfigured(t *testing.T) {
	store := New(Config{})
	if store.Configured() {
		t.Error("empty config reported as configured")
	}
	if err := store.Upload(context.Background(), "k", "image/png", strings.NewReader("x"), 1); err == nil {
		t.Error("upload without a bucket should fail")
	}
}

func TestURL(t *testing.T) {
	store := NewWithClient(&fakeS3{}, Config{
		Bucket:        "listings",
		PublicBaseURL: "https://cdn.example.com/",
	})
	if got := store.URL("businesses/1/1"); got != "https://cdn.example.com/businesses/1/1" {
		t.Errorf("URL = %q, want cdn-prefixed key", got)
	}

	fallback := NewWithClient(&fakeS3{}, Config{
		Endpoint: "https://s3.example.com",
		Bucket:   "listings",
	})
	if got := fallback.URL("k"); got != "https://s3.example.com/listings/k" {
		t.Errorf("fallback URL = %q, want endpoint/bucket/key", got)
	}
}
