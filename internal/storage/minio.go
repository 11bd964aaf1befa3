package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Minio implements Engine on a MinIO (or any S3-compatible) backend.
// Objects are keyed "<clientID>/<storedName>", so the key prefix carries
// the same per-client isolation as the Disk directory layout.
type Minio struct {
	client     *minio.Client
	bucket     string
	publicBase string
}

var _ Engine = (*Minio)(nil)

// NewMinio creates a MinIO client, ensures the bucket exists with a
// public-read policy, and returns a ready-to-use engine.
func NewMinio(endpoint, accessKey, secretKey, bucket, publicBase string, useSSL bool) (*Minio, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx := context.Background()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", bucket, err)
		}
		log.Printf("storage: created bucket %q", bucket)
	}

	if err := client.SetBucketPolicy(ctx, bucket, publicReadPolicy(bucket)); err != nil {
		return nil, fmt.Errorf("set bucket policy: %w", err)
	}

	return &Minio{
		client:     client,
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
	}, nil
}

// objectKey validates both segments and builds the object key.
func objectKey(clientID, name string) (string, error) {
	if !validClientID(clientID) {
		return "", ErrInvalidClientID
	}
	if !validMemName(name) {
		return "", ErrPathEscape
	}
	return clientID + "/" + name, nil
}

func (s *Minio) Save(ctx context.Context, clientID, storedName string, r io.Reader, size int64, contentType string) error {
	key, err := objectKey(clientID, storedName)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}
	return nil
}

func (s *Minio) List(ctx context.Context, clientID string) ([]FileInfo, error) {
	if !validClientID(clientID) {
		return nil, ErrInvalidClientID
	}
	prefix := clientID + "/"

	var files []FileInfo
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects: %w", obj.Err)
		}
		files = append(files, FileInfo{
			Name:       strings.TrimPrefix(obj.Key, prefix),
			Size:       obj.Size,
			UploadTime: obj.LastModified,
		})
	}
	sortNewestFirst(files)
	return files, nil
}

func (s *Minio) Delete(ctx context.Context, clientID, name string) error {
	key, err := objectKey(clientID, name)
	if err != nil {
		return err
	}
	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return ErrNotFound
		}
		return fmt.Errorf("stat object %q: %w", key, err)
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %q: %w", key, err)
	}
	return nil
}

func (s *Minio) ListAll(ctx context.Context) ([]OwnedFileInfo, error) {
	var all []OwnedFileInfo
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects: %w", obj.Err)
		}
		clientID, name, ok := strings.Cut(obj.Key, "/")
		if !ok || !validClientID(clientID) {
			continue
		}
		all = append(all, OwnedFileInfo{
			FileInfo: FileInfo{Name: name, Size: obj.Size, UploadTime: obj.LastModified},
			ClientID: clientID,
		})
	}
	return all, nil
}

// PublicURL returns the browser-accessible URL for a stored file.
// For local MinIO: "http://localhost:9000/images/<clientID>/<storedName>".
func (s *Minio) PublicURL(clientID, storedName string) string {
	return s.publicBase + "/" + clientID + "/" + storedName
}

// publicReadPolicy returns an S3 bucket policy JSON that allows anonymous GET on all objects.
func publicReadPolicy(bucket string) string {
	policy := map[string]interface{}{
		"Version": "2012-10-17",
		"Statement": []map[string]interface{}{
			{
				"Effect":    "Allow",
				"Principal": "*",
				"Action":    "s3:GetObject",
				"Resource":  fmt.Sprintf("arn:aws:s3:::%s/*", bucket),
			},
		},
	}
	b, _ := json.Marshal(policy)
	return string(b)
}
