package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeIdentityProvider записывает входы и возвращает заданный ответ
type fakeIdentityProvider struct {
	output *cip.AdminInitiateAuthOutput
	err    error
	panic  any
	calls  []*cip.AdminInitiateAuthInput
}

func (f *fakeIdentityProvider) AdminInitiateAuth(_ context.Context, params *cip.AdminInitiateAuthInput, _ ...func(*cip.Options)) (*cip.AdminInitiateAuthOutput, error) {
	f.calls = append(f.calls, params)
	if f.panic != nil {
		panic(f.panic)
	}
	return f.output, f.err
}

func testCredentials() CredentialRecord {
	return CredentialRecord{
		Username: "user",
		Password: "pass",
		TenantID: "pool1",
		ClientID: "client1",
		Bucket:   "bucket1",
	}
}

func tokenOutput(idToken string) *cip.AdminInitiateAuthOutput {
	return &cip.AdminInitiateAuthOutput{
		AuthenticationResult: &types.AuthenticationResultType{
			IdToken:   aws.String(idToken),
			TokenType: aws.String("Bearer"),
			ExpiresIn: 3600,
		},
	}
}

func TestNewCognitoAuthenticator_NilClient(t *testing.T) {
	_, err := NewCognitoAuthenticator(nil)
	assert.Error(t, err)
}

func TestCognitoAuthenticator_Success(t *testing.T) {
	fake := &fakeIdentityProvider{output: tokenOutput("eyJ.id.token")}
	a, err := NewCognitoAuthenticator(fake)
	require.NoError(t, err)

	outcome := a.Authenticate(context.Background(), testCredentials())

	assert.True(t, outcome.Authenticated)
	assert.Equal(t, FailureNone, outcome.Failure)
	assert.Equal(t, IdentityDetail{TokenType: "Bearer", ExpiresIn: 3600}, outcome.Detail)

	require.Len(t, fake.calls, 1)
	in := fake.calls[0]
	assert.Equal(t, types.AuthFlowTypeAdminNoSrpAuth, in.AuthFlow)
	assert.Equal(t, "pool1", aws.ToString(in.UserPoolId))
	assert.Equal(t, "client1", aws.ToString(in.ClientId))
	assert.Equal(t, map[string]string{"USERNAME": "user", "PASSWORD": "pass"}, in.AuthParameters)
}

func TestCognitoAuthenticator_Failures(t *testing.T) {
	cases := []struct {
		name     string
		fake     *fakeIdentityProvider
		expected FailureKind
	}{
		{
			name:     "EmptyIdToken",
			fake:     &fakeIdentityProvider{output: tokenOutput("")},
			expected: FailureAuthenticationFailed,
		},
		{
			name: "Challenge",
			fake: &fakeIdentityProvider{output: &cip.AdminInitiateAuthOutput{
				ChallengeName: types.ChallengeNameTypeNewPasswordRequired,
				Session:       aws.String("session"),
			}},
			expected: FailureAuthenticationFailed,
		},
		{
			name:     "NilOutput",
			fake:     &fakeIdentityProvider{},
			expected: FailureAuthenticationFailed,
		},
		{
			name:     "NotAuthorized",
			fake:     &fakeIdentityProvider{err: &types.NotAuthorizedException{Message: aws.String("Incorrect username or password.")}},
			expected: FailureAuthenticationFailed,
		},
		{
			name:     "ServerFault",
			fake:     &fakeIdentityProvider{err: &smithy.GenericAPIError{Code: "InternalErrorException", Fault: smithy.FaultServer}},
			expected: FailureProviderUnavailable,
		},
		{
			name:     "TransportError",
			fake:     &fakeIdentityProvider{err: errors.New("dial tcp: i/o timeout")},
			expected: FailureProviderUnavailable,
		},
		{
			name:     "Panic",
			fake:     &fakeIdentityProvider{panic: "boom"},
			expected: FailureProviderUnavailable,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a, err := NewCognitoAuthenticator(tc.fake)
			require.NoError(t, err)

			outcome := a.Authenticate(context.Background(), testCredentials())

			assert.False(t, outcome.Authenticated)
			assert.Equal(t, tc.expected, outcome.Failure)
			assert.Len(t, tc.fake.calls, 1)
		})
	}
}

func TestCognitoAuthenticator_EmptyPoolSkipsProvider(t *testing.T) {
	for name, mutate := range map[string]func(*CredentialRecord){
		"NoTenant": func(c *CredentialRecord) { c.TenantID = "" },
		"NoClient": func(c *CredentialRecord) { c.ClientID = "" },
	} {
		t.Run(name, func(t *testing.T) {
			fake := &fakeIdentityProvider{output: tokenOutput("token")}
			a, err := NewCognitoAuthenticator(fake)
			require.NoError(t, err)

			creds := testCredentials()
			mutate(&creds)
			outcome := a.Authenticate(context.Background(), creds)

			assert.False(t, outcome.Authenticated)
			assert.Equal(t, FailureAuthenticationFailed, outcome.Failure)
			assert.Empty(t, fake.calls)
		})
	}
}
