package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestPutReturnsPublicURL(t *testing.T) {
	fake := &fakePutter{}
	c := newR2Client(fake, "trays", "https://cdn.example.com/")

	url, err := c.Put(context.Background(), "scans/a/before.png", []byte("png"), "image/png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://cdn.example.com/scans/a/before.png" {
		t.Fatalf("unexpected url %q", url)
	}
	if *fake.input.Bucket != "trays" || *fake.input.ContentType != "image/png" || string(fake.body) != "png" {
		t.Fatalf("unexpected put input %+v", fake.input)
	}
}

func TestPutWithoutPublicURL(t *testing.T) {
	c := newR2Client(&fakePutter{}, "trays", "")

	url, _ := c.Put(context.Background(), "k", []byte("x"), "")
	if url != "r2://trays/k" {
		t.Fatalf("unexpected reference %q", url)
	}
}

func TestPutWrapsErrors(t *testing.T) {
	boom := errors.New("boom")
	c := newR2Client(&fakePutter{err: boom}, "trays", "")

	if _, err := c.Put(context.Background(), "k", []byte("x"), ""); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
