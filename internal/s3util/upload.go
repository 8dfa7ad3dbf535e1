package s3util

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// UploadFile uploads a local file to S3 with the given content type.
func UploadFile(ctx context.Context, client API, bucket, key, localPath, contentType string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        f,
		ContentType: &contentType,
	})
	if err != nil {
		return fmt.Errorf("S3 PutObject s3://%s/%s: %w", bucket, key, err)
	}

	log.Info().Str("bucket", bucket).Str("key", key).Msg("Uploaded to S3")
	return nil
}
