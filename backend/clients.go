package backend

import (
	"context"
	"fmt"
	"strings"

	"idocgw/auth"
	"idocgw/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go/middleware"
)

// NewAWSConfig загружает базовую конфигурацию SDK. Статические ключи
// используются только если заданы в конфигурации, иначе работает
// стандартная цепочка провайдеров.
func NewAWSConfig(ctx context.Context, cfg *Config) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return awsConfig, nil
}

// NewIdentityProviderClient создает клиент Cognito User Pools
func NewIdentityProviderClient(awsConfig aws.Config, cfg *Config) *cip.Client {
	client := cip.NewFromConfig(awsConfig, func(o *cip.Options) {
		if cfg.CognitoEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.CognitoEndpoint)
		}
	})
	logger.Info("Created identity provider client (region: %s, endpoint: %s)", cfg.Region, endpointOrDefault(cfg.CognitoEndpoint))
	return client
}

// NewStorageClient создает S3 клиент, которым шлюз пишет документы
func NewStorageClient(awsConfig aws.Config, cfg *Config) *s3.Client {
	client := s3.NewFromConfig(awsConfig, storageOptions(cfg))
	logger.Info("Created storage client (region: %s, endpoint: %s, path style: %t)",
		cfg.Region, endpointOrDefault(cfg.S3Endpoint), cfg.S3UsePathStyle)
	return client
}

// NewProbeClientFactory возвращает фабрику S3 клиентов для резервной проверки.
// Каждый клиент использует базовую конфигурацию, но подписывает запросы
// ключами из проверяемого запроса. Повторов нет: один вызов - один ответ.
func NewProbeClientFactory(awsConfig aws.Config, cfg *Config) auth.ProbeClientFactory {
	withEndpoint := storageOptions(cfg)
	return func(accessKeyID, secretAccessKey string) (auth.ListObjectsAPI, error) {
		if accessKeyID == "" || secretAccessKey == "" {
			return nil, fmt.Errorf("access key and secret key are required")
		}

		probeConfig := awsConfig.Copy()
		probeConfig.Credentials = credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, "")

		return s3.NewFromConfig(probeConfig, withEndpoint, func(o *s3.Options) {
			o.RetryMaxAttempts = 1
		}), nil
	}
}

// storageOptions настраивает адрес хранилища. Для HTTP адресов (локальный MinIO)
// отключается вычисление SHA256 тела, и SDK подписывает UNSIGNED-PAYLOAD.
func storageOptions(cfg *Config) func(*s3.Options) {
	return func(o *s3.Options) {
		o.UsePathStyle = cfg.S3UsePathStyle
		if cfg.S3Endpoint == "" {
			return
		}
		o.BaseEndpoint = aws.String(cfg.S3Endpoint)

		if strings.HasPrefix(strings.ToLower(cfg.S3Endpoint), "http://") {
			o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
			o.APIOptions = append(o.APIOptions, func(stack *middleware.Stack) error {
				return v4.SwapComputePayloadSHA256ForUnsignedPayloadMiddleware(stack)
			})
		}
	}
}

func endpointOrDefault(endpoint string) string {
	if endpoint == "" {
		return "default"
	}
	return endpoint
}
