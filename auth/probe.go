package auth

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ListObjectsAPI - узкий интерфейс S3 клиента для пробного чтения
type ListObjectsAPI interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// ProbeClientFactory создает S3 клиент, подписывающий запросы переданной
// парой access key / secret key.
type ProbeClientFactory func(accessKeyID, secretAccessKey string) (ListObjectsAPI, error)

// probeMaxKeys - пробный вызов запрашивает минимально возможный результат
const probeMaxKeys = 1

// S3Probe реализует CredentialProbe: username/password трактуются как
// access key / secret key, и выполняется ListObjectsV2 с MaxKeys=1.
// Хранилище отклоняет неверные ключи на границе API, поэтому успешный
// вызов подтверждает валидность ключей.
type S3Probe struct {
	newClient ProbeClientFactory
}

// NewS3Probe создает резервный аутентификатор
func NewS3Probe(factory ProbeClientFactory) (*S3Probe, error) {
	if factory == nil {
		return nil, fmt.Errorf("probe client factory cannot be nil")
	}
	return &S3Probe{newClient: factory}, nil
}

// Probe выполняет пробное чтение. Успех - вызов завершился без ошибки.
func (p *S3Probe) Probe(ctx context.Context, creds CredentialRecord) (outcome AuthOutcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Panic in storage probe: %v", r)
			outcome = Failed(FailureProviderUnavailable)
		}
	}()

	if creds.Bucket == "" {
		log.Debug("Skipping storage probe: bucket is empty")
		return Failed(FailureAuthenticationFailed)
	}

	client, err := p.newClient(creds.Username, creds.Password)
	if err != nil {
		log.Error("Error in creating storage probe client: %v", err)
		return Failed(FailureProviderUnavailable)
	}

	_, err = client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(creds.Bucket),
		MaxKeys: aws.Int32(probeMaxKeys),
	})
	if err != nil {
		kind := ClassifyProviderError(err)
		log.Info("Error in accessing bucket %s (%s): %v", creds.Bucket, kind, err)
		return Failed(kind)
	}

	return Succeeded(nil)
}
