package audit

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// Archiver persists audit receipts outside the session. Archiving is
// best-effort: a failed archive never blocks or fails the tick that produced
// the receipt.
type Archiver interface {
	Archive(ctx context.Context, objectName string, data []byte) error
}

// NopArchiver discards receipts. Used when no bucket is configured.
type NopArchiver struct{}

// Archive implements the Archiver interface.
func (NopArchiver) Archive(ctx context.Context, objectName string, data []byte) error {
	return nil
}

// GCSArchiver writes receipts to a Cloud Storage bucket under a fixed prefix.
// It assumes Application Default Credentials unless a credentials file is
// provided.
type GCSArchiver struct {
	bucket          string
	prefix          string
	credentialsFile string
}

// NewGCSArchiver creates an archiver for the given bucket. prefix namespaces
// receipt objects (e.g. "audit-receipts"); credentialsFile may be empty.
func NewGCSArchiver(bucket, prefix, credentialsFile string) *GCSArchiver {
	return &GCSArchiver{
		bucket:          bucket,
		prefix:          strings.Trim(prefix, "/"),
		credentialsFile: credentialsFile,
	}
}

// Archive implements the Archiver interface.
func (g *GCSArchiver) Archive(ctx context.Context, objectName string, data []byte) error {
	var opts []option.ClientOption
	if g.credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(g.credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return fmt.Errorf("GCSArchiver.Archive: create storage client: %w", err)
	}
	defer client.Close()

	if g.prefix != "" {
		objectName = g.prefix + "/" + objectName
	}

	w := client.Bucket(g.bucket).Object(objectName).NewWriter(ctx)
	if _, err := io.Copy(w, strings.NewReader(string(data))); err != nil {
		_ = w.Close()
		return fmt.Errorf("GCSArchiver.Archive: write object %s: %w", objectName, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("GCSArchiver.Archive: finalize object %s: %w", objectName, err)
	}
	return nil
}

// Ensure both implementations satisfy the Archiver interface.
var (
	_ Archiver = NopArchiver{}
	_ Archiver = (*GCSArchiver)(nil)
)
