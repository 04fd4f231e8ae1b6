package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// Uploader - интерфейс managed загрузчика (*manager.Uploader)
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Store реализует ObjectStore через managed upload: небольшие документы
// уходят одним PutObject, большие - multipart загрузкой.
type S3Store struct {
	uploader Uploader
}

// NewS3Store создает хранилище поверх S3 клиента
func NewS3Store(client manager.UploadAPIClient, cfg *Config) (*S3Store, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client cannot be nil")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = cfg.PartSize
	})
	return NewS3StoreWithUploader(uploader)
}

// NewS3StoreWithUploader создает хранилище с готовым загрузчиком
func NewS3StoreWithUploader(uploader Uploader) (*S3Store, error) {
	if uploader == nil {
		return nil, fmt.Errorf("uploader cannot be nil")
	}
	return &S3Store{uploader: uploader}, nil
}

// Put записывает объект одним вызовом без повторов на нашей стороне
func (s *S3Store) Put(ctx context.Context, obj StorageObject) (*UploadResult, error) {
	output, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(obj.Bucket),
		Key:           aws.String(obj.Key),
		Body:          bytes.NewReader(obj.Body),
		ContentType:   aws.String(obj.ContentType),
		ContentLength: aws.Int64(int64(len(obj.Body))),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageWriteFailed, err)
	}

	result := &UploadResult{
		Bucket: obj.Bucket,
		Key:    obj.Key,
	}
	if output != nil {
		result.Location = output.Location
		result.ETag = aws.ToString(output.ETag)
		result.VersionID = aws.ToString(output.VersionID)
		if output.Key != nil {
			result.Key = aws.ToString(output.Key)
		}
	}
	return result, nil
}

// ProviderError - сериализуемое представление ошибки хранилища для тела ответа
type ProviderError struct {
	Code       string `json:"code,omitempty"`
	Message    string `json:"message"`
	Fault      string `json:"fault,omitempty"`
	StatusCode int    `json:"statusCode,omitempty"`
	RequestID  string `json:"requestId,omitempty"`
}

// NewProviderError извлекает код, сообщение и HTTP статус из ошибки SDK
func NewProviderError(err error) ProviderError {
	pe := ProviderError{Message: err.Error()}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		pe.Code = apiErr.ErrorCode()
		pe.Message = apiErr.ErrorMessage()
		if fault := apiErr.ErrorFault(); fault != smithy.FaultUnknown {
			pe.Fault = fault.String()
		}
	}

	var httpErr interface{ HTTPStatusCode() int }
	if errors.As(err, &httpErr) {
		pe.StatusCode = httpErr.HTTPStatusCode()
	}

	var reqErr interface{ ServiceRequestID() string }
	if errors.As(err, &reqErr) {
		pe.RequestID = reqErr.ServiceRequestID()
	}

	if pe.Message == "" {
		pe.Message = err.Error()
	}
	return pe
}
