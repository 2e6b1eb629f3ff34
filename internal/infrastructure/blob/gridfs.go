// Package blob keeps prescription images in a MongoDB GridFS bucket.
package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// DefaultBucket is the GridFS bucket holding prescription images.
	DefaultBucket = "prescription_images"

	refScheme      = "gridfs://"
	defaultTimeout = 30 * time.Second
)

// ErrInvalidRef is returned for references not produced by GridFSStore.
var ErrInvalidRef = errors.New("invalid image reference")

// GridFSStore implements ports.BlobStore. A bucket handle is opened per call
// because GridFS deadlines are set on the handle.
type GridFSStore struct {
	db     *mongo.Database
	bucket string
}

func NewGridFSStore(db *mongo.Database, bucket string) *GridFSStore {
	if bucket == "" {
		bucket = DefaultBucket
	}
	return &GridFSStore{db: db, bucket: bucket}
}

// Put uploads data and returns a gridfs://<object id> reference.
func (s *GridFSStore) Put(ctx context.Context, filename string, data []byte) (string, error) {
	b, err := s.open()
	if err != nil {
		return "", err
	}
	if err := b.SetWriteDeadline(deadline(ctx)); err != nil {
		return "", fmt.Errorf("gridfs deadline: %w", err)
	}

	id, err := b.UploadFromStream(filename, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("gridfs upload: %w", err)
	}
	return refScheme + id.Hex(), nil
}

func (s *GridFSStore) Get(ctx context.Context, ref string) ([]byte, error) {
	id, err := ParseRef(ref)
	if err != nil {
		return nil, err
	}
	b, err := s.open()
	if err != nil {
		return nil, err
	}
	if err := b.SetReadDeadline(deadline(ctx)); err != nil {
		return nil, fmt.Errorf("gridfs deadline: %w", err)
	}

	var buf bytes.Buffer
	if _, err := b.DownloadToStream(id, &buf); err != nil {
		return nil, fmt.Errorf("gridfs download %s: %w", ref, err)
	}
	return buf.Bytes(), nil
}

// Delete removes the image. A missing file is not an error.
func (s *GridFSStore) Delete(ctx context.Context, ref string) error {
	id, err := ParseRef(ref)
	if err != nil {
		return err
	}
	b, err := s.open()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := b.DeleteContext(ctx, id); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
		return fmt.Errorf("gridfs delete %s: %w", ref, err)
	}
	return nil
}

func (s *GridFSStore) open() (*gridfs.Bucket, error) {
	b, err := gridfs.NewBucket(s.db, options.GridFSBucket().SetName(s.bucket))
	if err != nil {
		return nil, fmt.Errorf("gridfs bucket: %w", err)
	}
	return b, nil
}

// ParseRef extracts the GridFS file id from a gridfs:// reference.
func ParseRef(ref string) (primitive.ObjectID, error) {
	hex, ok := strings.CutPrefix(ref, refScheme)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return id, nil
}

func deadline(ctx context.Context) time.Time {
	if d, ok := ctx.Deadline(); ok {
		return d
	}
	return time.Now().Add(defaultTimeout)
}
