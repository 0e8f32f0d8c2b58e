package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"

	"freshpoint-watch/core/storage"
	"freshpoint-watch/feature/dispatch"
	"freshpoint-watch/feature/product"
)

// Archiver uploads catalog snapshots to object storage, one object per
// observed page state. Objects are keyed by location and fingerprint, so
// re-archiving an unchanged catalog overwrites the same object.
type Archiver struct {
	client storage.Client
	bucket string
	log    *zap.Logger
}

// NewArchiver creates an archiver writing to the given bucket. A nil logger
// disables logging.
func NewArchiver(client storage.Client, bucket string, log *zap.Logger) *Archiver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Archiver{client: client, bucket: bucket, log: log}
}

// EnsureBucket creates the archive bucket when it does not exist yet.
func (a *Archiver) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check archive bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create archive bucket: %w", err)
	}
	a.log.Info("Created archive bucket", zap.String("bucket", a.bucket))
	return nil
}

// Archive uploads the catalog as a JSON object. Picture references are
// dropped from the archived payload to keep objects small.
func (a *Archiver) Archive(ctx context.Context, catalog *product.Catalog) error {
	if catalog.Fingerprint() == "" {
		return fmt.Errorf("refusing to archive catalog %d without a fingerprint", catalog.LocationID())
	}

	payload, err := catalog.MarshalFiltered(product.FieldPicURL)
	if err != nil {
		return fmt.Errorf("failed to encode catalog %d: %w", catalog.LocationID(), err)
	}

	objectName := objectName(catalog.LocationID(), catalog.Fingerprint())
	_, err = a.client.PutObject(ctx, a.bucket, objectName,
		bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("failed to archive catalog %d: %w", catalog.LocationID(), err)
	}

	a.log.Debug("Archived catalog",
		zap.Int("locationId", catalog.LocationID()),
		zap.String("object", objectName))
	return nil
}

// Load restores an archived catalog by location and fingerprint.
func (a *Archiver) Load(ctx context.Context, locationID int, fingerprint string) (*product.Catalog, error) {
	object, err := a.client.GetObject(ctx, a.bucket, objectName(locationID, fingerprint), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch archived catalog %d: %w", locationID, err)
	}
	defer object.Close()

	payload, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("failed to read archived catalog %d: %w", locationID, err)
	}
	var catalog product.Catalog
	if err := json.Unmarshal(payload, &catalog); err != nil {
		return nil, fmt.Errorf("failed to decode archived catalog %d: %w", locationID, err)
	}
	return &catalog, nil
}

// Fingerprints lists the archived fingerprints of a location.
func (a *Archiver) Fingerprints(ctx context.Context, locationID int) ([]string, error) {
	prefix := fmt.Sprintf("locations/%d/", locationID)
	var fingerprints []string
	for object := range a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if object.Err != nil {
			return nil, fmt.Errorf("failed to list archived catalogs %d: %w", locationID, object.Err)
		}
		name := strings.TrimPrefix(object.Key, prefix)
		fingerprints = append(fingerprints, strings.TrimSuffix(name, ".json"))
	}
	return fingerprints, nil
}

// Handler returns a dispatch handler that archives the current catalog of
// the event's location. The resolve function maps a location identity to
// its current catalog; a nil catalog skips archiving. Events of one update
// cycle share a fingerprint, so the repeated uploads they trigger target
// the same object.
func (a *Archiver) Handler(resolve func(locationID int) *product.Catalog) dispatch.Handler {
	return func(ctx context.Context, event *dispatch.Context) error {
		catalog := resolve(event.LocationID())
		if catalog == nil || catalog.Fingerprint() == "" {
			return nil
		}
		return a.Archive(ctx, catalog)
	}
}

func objectName(locationID int, fingerprint string) string {
	return fmt.Sprintf("locations/%d/%s.json", locationID, fingerprint)
}
