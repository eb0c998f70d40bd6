package objstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/komponen/marketplace/pkg/validator"
)

type S3Config struct {
	Region          string `yaml:"region" validate:"required"`
	Bucket          string `yaml:"bucket" validate:"required"`
	AccessKeyID     string `yaml:"accessKeyId" validate:"-"`
	SecretAccessKey string `yaml:"secretAccessKey" validate:"-"`

	// Endpoint overrides the AWS endpoint, for minio or localstack.
	Endpoint string `yaml:"endpoint" validate:"omitempty,url"`
}

type S3 struct {
	conf    S3Config
	client  *s3.Client
	presign *s3.PresignClient
}

var _ Storage = (*S3)(nil)

func NewS3(ctx context.Context, conf S3Config) (*S3, error) {
	err := validator.Validate(conf)
	if err != nil {
		err = fmt.Errorf("s3 config error: %w", err)
		return nil, err
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(conf.Region),
	}

	if conf.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(conf.AccessKeyID, conf.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		err = fmt.Errorf("load aws config error: %w", err)
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if conf.Endpoint != "" {
			o.BaseEndpoint = aws.String(conf.Endpoint)
			o.UsePathStyle = true
		}
	})

	store := &S3{
		conf:    conf,
		client:  client,
		presign: s3.NewPresignClient(client),
	}

	return store, nil
}

func (s *S3) SignedUploadURL(ctx context.Context, key, contentType string, expiry time.Duration) (u string, err error) {
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.conf.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPublicRead,
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		err = fmt.Errorf("presign put object key=%s error: %w", key, err)
		return
	}

	u = req.URL
	return
}

func (s *S3) Head(ctx context.Context, key string) (info ObjectInfo, err error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.conf.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			err = ErrNotFound
			return
		}

		err = fmt.Errorf("head object key=%s error: %w", key, err)
		return
	}

	info = ObjectInfo{
		Key:           key,
		ContentLength: aws.ToInt64(out.ContentLength),
		ContentType:   aws.ToString(out.ContentType),
		LastModified:  aws.ToTime(out.LastModified),
	}

	return
}

func (s *S3) Copy(ctx context.Context, srcKey, dstKey string) (err error) {
	_, err = s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.conf.Bucket),
		CopySource: aws.String(fmt.Sprintf("%s/%s", s.conf.Bucket, srcKey)),
		Key:        aws.String(dstKey),
		ACL:        types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		err = fmt.Errorf("copy object %s -> %s error: %w", srcKey, dstKey, err)
		return
	}

	return
}

func (s *S3) Delete(ctx context.Context, key string) (err error) {
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.conf.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		err = fmt.Errorf("delete object key=%s error: %w", key, err)
		return
	}

	return
}

func (s *S3) Get(ctx context.Context, key string) (body []byte, err error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.conf.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			err = ErrNotFound
			return
		}

		err = fmt.Errorf("get object key=%s error: %w", key, err)
		return
	}

	defer func() {
		if _err := out.Body.Close(); _err != nil && err == nil {
			err = fmt.Errorf("close object body key=%s error: %w", key, _err)
		}
	}()

	body, err = io.ReadAll(out.Body)
	if err != nil {
		err = fmt.Errorf("read object body key=%s error: %w", key, err)
		return
	}

	return
}

func (s *S3) Put(ctx context.Context, key string, body []byte, contentType string) (err error) {
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.conf.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		err = fmt.Errorf("put object key=%s error: %w", key, err)
		return
	}

	return
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}

	switch apiErr.ErrorCode() {
	case "NotFound", "NoSuchKey", "Forbidden", "AccessDenied":
		return true
	}

	return false
}
