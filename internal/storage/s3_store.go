package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/mikael-devkh/sistema/internal/model"
)

// S3API is the subset of the S3 client used by S3FsaStore
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3FsaStore implements FsaStore using AWS S3
type S3FsaStore struct {
	client     S3API
	bucketName string
	codec      codec
}

// NewS3FsaStore creates a new S3FsaStore. A nil encryptKey stores records in clear JSON.
func NewS3FsaStore(client S3API, bucketName string, encryptKey []byte) *S3FsaStore {
	return &S3FsaStore{
		client:     client,
		bucketName: bucketName,
		codec:      codec{encryptKey: encryptKey},
	}
}

// GetFsa fetches the record stored for id
func (s *S3FsaStore) GetFsa(ctx context.Context, id string) (*model.FsaRecord, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(s.getKey(id)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get fsa %s from S3: %w", id, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read fsa %s from S3: %w", id, err)
	}
	return s.codec.decode(data)
}

// PutFsa stores the record under its id, replacing any previous version
func (s *S3FsaStore) PutFsa(ctx context.Context, record *model.FsaRecord) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("fsa record without id")
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = time.Now().UTC()
	}

	data, err := s.codec.encode(record)
	if err != nil {
		return err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(s.getKey(record.ID)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to store fsa %s in S3: %w", record.ID, err)
	}
	return nil
}

// getKey generates the S3 key for a record
func (s *S3FsaStore) getKey(id string) string {
	return fmt.Sprintf("fsas/%s.json", id)
}
