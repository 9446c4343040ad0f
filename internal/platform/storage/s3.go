package storage

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Signer issues presigned upload URLs for profile images. Clients upload
// directly to the bucket; the backend never proxies image bytes.
type Signer struct {
	presign *s3.PresignClient
	bucket  string
	expiry  time.Duration
}

func NewSigner(client *s3.Client, bucket string) *Signer {
	return &Signer{
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
		expiry:  15 * time.Minute,
	}
}

// SignedPutURL returns a presigned PUT URL for the given object key.
func (s *Signer) SignedPutURL(ctx context.Context, key string) (string, error) {
	out, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return "", err
	}
	return out.URL, nil
}
