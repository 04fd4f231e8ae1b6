package auth

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

// IdentityProviderAPI - узкий интерфейс клиента Cognito, нужный авторизатору.
// Реализуется *cip.Client и оберткой с circuit breaker из пакета backend.
type IdentityProviderAPI interface {
	AdminInitiateAuth(ctx context.Context, params *cip.AdminInitiateAuthInput, optFns ...func(*cip.Options)) (*cip.AdminInitiateAuthOutput, error)
}

// IdentityDetail - сводка успешного ответа провайдера. Сами токены не сохраняются.
type IdentityDetail struct {
	TokenType string
	ExpiresIn int32
}

// CognitoAuthenticator реализует IdentityAuthenticator через
// admin-аутентификацию по паролю в пуле пользователей.
type CognitoAuthenticator struct {
	client IdentityProviderAPI
}

// NewCognitoAuthenticator создает основной аутентификатор
func NewCognitoAuthenticator(client IdentityProviderAPI) (*CognitoAuthenticator, error) {
	if client == nil {
		return nil, fmt.Errorf("identity provider client cannot be nil")
	}
	return &CognitoAuthenticator{client: client}, nil
}

// Authenticate выполняет одну попытку ADMIN_NO_SRP_AUTH.
// Успех - только непустой IdToken в ответе без ошибки.
func (c *CognitoAuthenticator) Authenticate(ctx context.Context, creds CredentialRecord) (outcome AuthOutcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Panic in identity provider authentication: %v", r)
			outcome = Failed(FailureProviderUnavailable)
		}
	}()

	// Без пула или клиента провайдер все равно отклонит запрос
	if creds.TenantID == "" || creds.ClientID == "" {
		log.Debug("Skipping identity provider: user pool id or client id is empty")
		return Failed(FailureAuthenticationFailed)
	}

	input := &cip.AdminInitiateAuthInput{
		AuthFlow:   types.AuthFlowTypeAdminNoSrpAuth,
		UserPoolId: aws.String(creds.TenantID),
		ClientId:   aws.String(creds.ClientID),
		AuthParameters: map[string]string{
			"USERNAME": creds.Username,
			"PASSWORD": creds.Password,
		},
	}

	log.Debug("Admin auth for user %q in pool %s", creds.Username, creds.TenantID)
	output, err := c.client.AdminInitiateAuth(ctx, input)
	if err != nil {
		kind := ClassifyProviderError(err)
		log.Info("Error in getting identity token through admin auth (%s): %v", kind, err)
		return Failed(kind)
	}

	if output == nil || output.AuthenticationResult == nil {
		challenge := ""
		if output != nil {
			challenge = string(output.ChallengeName)
		}
		log.Info("Identity provider returned no authentication result (challenge: %q)", challenge)
		return Failed(FailureAuthenticationFailed)
	}

	result := output.AuthenticationResult
	if aws.ToString(result.IdToken) == "" {
		log.Info("Identity provider returned an empty id token")
		return Failed(FailureAuthenticationFailed)
	}

	return Succeeded(IdentityDetail{
		TokenType: aws.ToString(result.TokenType),
		ExpiresIn: result.ExpiresIn,
	})
}
