package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ANIKETSHETTY47/motor-condition-monitor/internal/domain"
)

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Client archives snapshots to object storage
type S3Client struct {
	svc    s3API
	bucket string
}

func NewS3Client(ctx context.Context, region, bucket string) (*S3Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	return &S3Client{
		svc:    s3.NewFromConfig(cfg),
		bucket: bucket,
	}, nil
}

// SnapshotKey is where a snapshot is archived:
// snapshots/<motor>/<yyyy-mm-dd>/<sequence>.json
func SnapshotKey(snap domain.Snapshot) string {
	return fmt.Sprintf("snapshots/%s/%s/%d.json", snap.MotorID, snap.Timestamp.UTC().Format("2006-01-02"), snap.Sequence)
}

// ArchiveSnapshot uploads the full snapshot, sensor windows included, and
// returns its key.
func (c *S3Client) ArchiveSnapshot(ctx context.Context, snap domain.Snapshot) (string, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	key := SnapshotKey(snap)
	_, err = c.svc.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"uploaded-at":  time.Now().Format(time.RFC3339),
			"fault-status": string(snap.FaultData.Status),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return key, nil
}
