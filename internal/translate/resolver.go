package translate

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/storage"
)

// ErrVideoNotFound reports that no clip exists for the requested sign
// sequence. Callers match it with errors.Is.
var ErrVideoNotFound = errors.New("no video for this sign sequence")

// VideoResolver maps a video object name to a playable URL.
type VideoResolver interface {
	Resolve(ctx context.Context, objectName string) (string, error)
}

// GCSResolver resolves clips stored in a Google Cloud Storage bucket under
// output_videos/.
type GCSResolver struct {
	client *storage.Client
	bucket string
}

// NewGCSResolver wraps an existing storage client for the given bucket.
func NewGCSResolver(client *storage.Client, bucket string) *GCSResolver {
	return &GCSResolver{client: client, bucket: bucket}
}

// Resolve checks that the object exists and returns its media link. A
// missing object maps to ErrVideoNotFound.
func (r *GCSResolver) Resolve(ctx context.Context, objectName string) (string, error) {
	attrs, err := r.client.Bucket(r.bucket).Object(objectName).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return "", fmt.Errorf("%s: %w", objectName, ErrVideoNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", objectName, err)
	}
	return attrs.MediaLink, nil
}
