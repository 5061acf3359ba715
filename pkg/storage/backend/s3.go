// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/LeeDigitalWorks/sharefs/pkg/share"
	"github.com/LeeDigitalWorks/sharefs/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

func init() {
	Register(types.StorageTypeS3, NewS3)
}

// S3 implements BackendStorage for S3-compatible storage. Directories are
// key prefixes ending in "/".
type S3 struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3 creates an S3 backend
func NewS3(cfg types.BackendConfig) (types.BackendStorage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket required for S3 backend")
	}

	opts := []func(*config.LoadOptions) error{}

	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	// Build S3 client options
	s3Opts := []func(*s3.Options){}
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return &S3{
		client: s3.NewFromConfig(awsCfg, s3Opts...),
		bucket: cfg.Bucket,
		prefix: CleanKey(cfg.Prefix),
	}, nil
}

func (s *S3) Type() types.StorageType {
	return types.StorageTypeS3
}

func (s *S3) objectKey(key string) string {
	return strings.TrimPrefix(path.Join(s.prefix, CleanKey(key)), "/")
}

func (s *S3) dirPrefix(key string) string {
	k := s.objectKey(key)
	if k == "" {
		return ""
	}
	return k + "/"
}

func (s *S3) Open(ctx context.Context, key string) (share.Source, error) {
	objKey := s.objectKey(key)
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objKey),
	})
	if err != nil {
		return nil, s.wrapErr(key, "head object", err)
	}
	return &s3Source{
		ctx:     ctx,
		client:  s.client,
		bucket:  s.bucket,
		key:     objKey,
		size:    aws.ToInt64(out.ContentLength),
		modTime: aws.ToTime(out.LastModified),
	}, nil
}

func (s *S3) Stat(ctx context.Context, key string) (fs.FileInfo, error) {
	name := path.Base(CleanKey(key))
	if CleanKey(key) != "" {
		out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.objectKey(key)),
		})
		if err == nil {
			return &share.FileInfo{
				FileName: name,
				FileSize: aws.ToInt64(out.ContentLength),
				FileMode: 0644,
				Modified: aws.ToTime(out.LastModified),
			}, nil
		}
		if !isNotFound(err) {
			return nil, fmt.Errorf("head object: %w", err)
		}
	}

	// Not an object, check whether it is a prefix
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucket),
		Prefix:  aws.String(s.dirPrefix(key)),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	if aws.ToInt32(out.KeyCount) == 0 && CleanKey(key) != "" {
		return nil, fmt.Errorf("key not found: %s: %w", key, fs.ErrNotExist)
	}
	return dirInfo(name), nil
}

func (s *S3) ReadDir(ctx context.Context, key string) ([]fs.FileInfo, error) {
	prefix := s.dirPrefix(key)
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	var infos []fs.FileInfo
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		for _, cp := range page.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), prefix), "/")
			infos = append(infos, dirInfo(name))
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			if name == "" {
				continue
			}
			infos = append(infos, &share.FileInfo{
				FileName: name,
				FileSize: aws.ToInt64(obj.Size),
				FileMode: 0644,
				Modified: aws.ToTime(obj.LastModified),
			})
		}
	}
	if len(infos) == 0 && CleanKey(key) != "" {
		return nil, fmt.Errorf("key not found: %s: %w", key, fs.ErrNotExist)
	}
	return infos, nil
}

func (s *S3) Write(ctx context.Context, key string, data io.Reader, size int64) error {
	// For simplicity, buffer the data (production should use multipart for large objects)
	buf, err := io.ReadAll(data)
	if err != nil {
		return fmt.Errorf("read data: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.objectKey(key)),
		Body:          bytes.NewReader(buf),
		ContentLength: aws.Int64(int64(len(buf))),
	})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

func (s *S3) Close() error {
	return nil
}

func (s *S3) wrapErr(key, op string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("key not found: %s: %w", key, fs.ErrNotExist)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isNotFound(err error) bool {
	var nf *s3types.NotFound
	var nsk *s3types.NoSuchKey
	return errors.As(err, &nf) || errors.As(err, &nsk)
}

// s3Source reads an object with ranged GETs. The size is fixed when the
// source is opened.
type s3Source struct {
	ctx     context.Context
	client  *s3.Client
	bucket  string
	key     string
	size    int64
	modTime time.Time
}

func (s *s3Source) Size() (int64, error) {
	return s.size, nil
}

func (s *s3Source) ReadAt(offset, length int64) ([]byte, error) {
	if offset < 0 || length <= 0 || offset >= s.size {
		return []byte{}, nil
	}
	length = min(length, s.size-offset)

	rangeStr := fmt.Sprintf("bytes=%d-%d", offset, offset+length-1)
	out, err := s.client.GetObject(s.ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
		Range:  aws.String(rangeStr),
	})
	if err != nil {
		return nil, fmt.Errorf("get object range: %w", err)
	}
	defer out.Body.Close()

	buf := make([]byte, length)
	if _, err := io.ReadFull(out.Body, buf); err != nil {
		// A short body is not end of object; never surface it as a short read
		return nil, fmt.Errorf("read object range %s: %w", rangeStr, err)
	}
	return buf, nil
}

func (s *s3Source) Stat() (fs.FileInfo, error) {
	return &share.FileInfo{FileName: path.Base(s.key), FileSize: s.size, FileMode: 0444, Modified: s.modTime}, nil
}

func (s *s3Source) Close() error {
	return nil
}
