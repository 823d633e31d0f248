// Package storage is the blob-store collaborator: put/get/list/delete over
// S3 (or any S3-compatible provider), with object keys namespaced by user
// and project.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"scenecast/faults"
)

// Config contains minimal configuration for creating the blob store.
// Values fall back to the standard AWS config/credential chain.
type Config struct {
	Bucket string
	Region string
	// PublicBaseURL is prepended to object keys to form public URLs, e.g.
	// "https://cdn.example.com". Empty uses the bucket's virtual-host URL.
	PublicBaseURL string
	// UsePathStyle forces path-style addressing (some S3-compatible
	// providers need it).
	UsePathStyle bool
}

// Entry is one listed object.
type Entry struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Blob wraps the AWS SDK v2 S3 client behind the narrow interface the
// pipeline needs.
type Blob struct {
	client *s3.Client
	cfg    Config
}

// New creates a blob store using the default AWS configuration chain.
func New(ctx context.Context, cfg Config) (*Blob, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}

	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})
	return &Blob{client: client, cfg: cfg}, nil
}

// ObjectKey builds the namespaced key for a user/project asset.
func ObjectKey(userID, projectID, name string) string {
	return fmt.Sprintf("users/%s/projects/%s/%s", userID, projectID, name)
}

// Put uploads bytes and returns the object's public URL. Transient failures
// are retried once.
func (b *Blob) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	put := func() error {
		_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(b.cfg.Bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(contentType),
			ACL:         s3types.ObjectCannedACLPublicRead,
		})
		return err
	}

	err := put()
	if err != nil {
		err = put()
	}
	if err != nil {
		return "", &faults.StorageError{Op: "put", Key: key, Err: err}
	}
	return b.PublicURL(key), nil
}

// UploadFile uploads a local file. Satisfies render.Uploader.
func (b *Blob) UploadFile(ctx context.Context, key, localPath, contentType string) (string, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", &faults.StorageError{Op: "read", Key: localPath, Err: err}
	}
	return b.Put(ctx, key, data, contentType)
}

// Get fetches an object's contents. Transient failures are retried once.
func (b *Blob) Get(ctx context.Context, key string) ([]byte, error) {
	get := func() ([]byte, error) {
		out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(b.cfg.Bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, err
		}
		defer out.Body.Close()
		return io.ReadAll(out.Body)
	}

	data, err := get()
	if err != nil {
		data, err = get()
	}
	if err != nil {
		return nil, &faults.StorageError{Op: "get", Key: key, Err: err}
	}
	return data, nil
}

// List returns all objects under prefix with their timestamps, following
// pagination to the end.
func (b *Blob) List(ctx context.Context, prefix string) ([]Entry, error) {
	var entries []Entry
	var token *string

	for {
		out, err := b.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(b.cfg.Bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, &faults.StorageError{Op: "list", Key: prefix, Err: err}
		}

		for _, obj := range out.Contents {
			e := Entry{Key: aws.ToString(obj.Key), Size: aws.ToInt64(obj.Size)}
			if obj.LastModified != nil {
				e.LastModified = *obj.LastModified
			}
			entries = append(entries, e)
		}

		if out.NextContinuationToken == nil {
			return entries, nil
		}
		token = out.NextContinuationToken
	}
}

// Delete removes the given objects in one batch call.
func (b *Blob) Delete(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	objects := make([]s3types.ObjectIdentifier, len(keys))
	for i, k := range keys {
		objects[i] = s3types.ObjectIdentifier{Key: aws.String(k)}
	}

	_, err := b.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(b.cfg.Bucket),
		Delete: &s3types.Delete{Objects: objects, Quiet: aws.Bool(true)},
	})
	if err != nil {
		return &faults.StorageError{Op: "delete", Key: keys[0], Err: err}
	}
	return nil
}

// Exists reports whether an object exists, mapping 404/NotFound to false.
func (b *Blob) Exists(ctx context.Context, key string) (bool, error) {
	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == 404 {
		return false, nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFound" {
		return false, nil
	}

	return false, &faults.StorageError{Op: "head", Key: key, Err: err}
}

// PublicURL returns the public URL for a key.
func (b *Blob) PublicURL(key string) string {
	if b.cfg.PublicBaseURL != "" {
		return b.cfg.PublicBaseURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", b.cfg.Bucket, key)
}
