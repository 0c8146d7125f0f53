package e2e_harness

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
)

// SeedPostgres creates the "trees" layer table and inserts seed features.
// The returned ids are ordered by tree name (Alder, Birch, Cedar).
func SeedPostgres(ctx context.Context, db *sql.DB) ([]uuid.UUID, error) {
	ddl := `CREATE TABLE IF NOT EXISTS trees (
	id uuid PRIMARY KEY,
	name text,
	species text,
	height double precision,
	count bigint,
	surveyed bigint,
	geom_lat double precision,
	geom_lon double precision
)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return nil, fmt.Errorf("create trees table: %w", err)
	}

	now := time.Now().UnixMilli()
	seeds := []struct {
		name    string
		species string
		height  float64
		count   int64
		lat     float64
		lon     float64
	}{
		{"Alder", "alnus", 12.5, 3, 48.8566, 2.3522},
		{"Birch", "betula", 8.2, 1, 48.8570, 2.3530},
		{"Cedar", "cedrus", 21.0, 2, 48.8581, 2.3541},
	}

	ids := make([]uuid.UUID, 0, len(seeds))
	for i, s := range seeds {
		id := uuid.Must(uuid.NewV7())
		if _, err := db.ExecContext(ctx, `
INSERT INTO trees (id, name, species, height, count, surveyed, geom_lat, geom_lon)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`, id, s.name, s.species, s.height, s.count, now-int64(1000*i), s.lat, s.lon); err != nil {
			return nil, fmt.Errorf("insert tree: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// WriteFieldFiles writes the trees layer field definition file into dir so
// a file schema provider can serve it.
func WriteFieldFiles(dir string) error {
	fields := `[
  {"name": "name", "alias": "Tree name", "type": "string"},
  {"name": "species", "alias": "Species", "type": "string"},
  {"name": "height", "alias": "Height (m)", "type": "real"},
  {"name": "count", "alias": "Trunk count", "type": "integer"},
  {"name": "surveyed", "alias": "Surveyed at", "type": "datetime"}
]`
	return os.WriteFile(filepath.Join(dir, "trees_fields.json"), []byte(fields), 0o644)
}

// TreesFormSpec returns a form document covering the seeded layer, in the
// bare element-array shape.
func TreesFormSpec() []byte {
	return []byte(`[
  {"type": "text_edit", "attributes": {"field_name": "name"}},
  {"type": "text_edit", "attributes": {"field_name": "species"}},
  {"type": "text_edit", "attributes": {"field_name": "height"}},
  {"type": "text_edit", "attributes": {"field_name": "count"}},
  {"type": "date_time", "attributes": {"field_name": "surveyed", "date_type": 2}}
]`)
}

// EnsureBucket creates the attachment bucket on the S3 endpoint if it does
// not exist yet. RustFS starts with no buckets.
func EnsureBucket(ctx context.Context, endpoint, accessKey, secretKey, bucket string) error {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
		config.WithBaseEndpoint(endpoint),
	)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)}); err == nil {
		return nil
	}
	if _, err := client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)}); err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			code := apiErr.ErrorCode()
			if code == "BucketAlreadyOwnedByYou" || code == "BucketAlreadyExists" {
				return nil
			}
		}
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}
