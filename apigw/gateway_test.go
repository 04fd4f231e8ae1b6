package apigw

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"idocgw/auth"
	"idocgw/ingest"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testPrefix = "arn:aws:execute-api:eu-central-1:123456789012:abcdef123/prod"

type mockAuthorizer struct {
	mock.Mock
}

func (m *mockAuthorizer) Authorize(ctx context.Context, req *auth.Request) (*auth.Decision, error) {
	args := m.Called(ctx, req)
	decision, _ := args.Get(0).(*auth.Decision)
	return decision, args.Error(1)
}

type mockIngest struct {
	mock.Mock
}

func (m *mockIngest) Handle(ctx context.Context, req *ingest.Request) *ingest.Response {
	args := m.Called(ctx, req)
	return args.Get(0).(*ingest.Response)
}

func newTestGateway(t *testing.T, authorizer Authorizer, handler IngestHandler) (*Gateway, *Metrics) {
	t.Helper()
	config := DefaultConfig()
	config.ResourcePrefix = testPrefix
	metrics := NewMetrics(prometheus.NewRegistry())
	gw, err := New(config, authorizer, handler, WithMetrics(metrics))
	require.NoError(t, err)
	return gw, metrics
}

func uploadRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/idoc?bn=bucket1&upid=pool1&cid=client1", strings.NewReader(body))
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	req.Header.Set("Content-Type", "application/xml")
	return req
}

func TestNew_Validation(t *testing.T) {
	_, err := New(DefaultConfig(), nil, &mockIngest{})
	assert.Error(t, err)

	_, err = New(DefaultConfig(), &mockAuthorizer{}, nil)
	assert.Error(t, err)

	config := DefaultConfig()
	config.MaxBodyBytes = 0
	_, err = New(config, &mockAuthorizer{}, &mockIngest{})
	assert.Error(t, err)
}

func TestGateway_UploadAllowed(t *testing.T) {
	resource := testPrefix + "/POST/idoc"
	authorizer := &mockAuthorizer{}
	authorizer.On("Authorize", mock.Anything, mock.MatchedBy(func(req *auth.Request) bool {
		return req.MethodArn == resource &&
			req.Headers["authorization"] == "Basic dXNlcjpwYXNz" &&
			req.Query["bn"] == "bucket1"
	})).Return(auth.RenderDecision("me", resource), nil).Once()

	handler := &mockIngest{}
	var gotRequestID string
	handler.On("Handle", mock.Anything, mock.MatchedBy(func(req *ingest.Request) bool {
		gotRequestID = req.RequestID
		return req.Query["bn"] == "bucket1" && string(req.Body) == "<IDOC/>" && req.RequestID != ""
	})).Return(&ingest.Response{StatusCode: http.StatusOK, Body: `{"message":"{}"}`}).Once()

	gw, metrics := newTestGateway(t, authorizer, handler)
	rec := httptest.NewRecorder()
	gw.ServeHTTP(rec, uploadRequest("<IDOC/>"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"message":"{}"}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, gotRequestID, rec.Header().Get(HeaderRequestID))
	authorizer.AssertExpectations(t)
	handler.AssertExpectations(t)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues("upload", "200")))
}

func TestGateway_UploadDenied(t *testing.T) {
	tests := []struct {
		name     string
		decision *auth.Decision
		err      error
	}{
		{"Unauthorized", nil, auth.ErrUnauthorized},
		{"NoStatement", auth.RenderDecision("me", ""), nil},
		{"OtherResource", auth.RenderDecision("me", testPrefix+"/POST/other"), nil},
		{"NilDecision", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authorizer := &mockAuthorizer{}
			authorizer.On("Authorize", mock.Anything, mock.Anything).Return(tt.decision, tt.err)
			handler := &mockIngest{}

			gw, _ := newTestGateway(t, authorizer, handler)
			rec := httptest.NewRecorder()
			gw.ServeHTTP(rec, uploadRequest("<IDOC/>"))

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"message":"Unauthorized"}`, rec.Body.String())
			assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))
			handler.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
		})
	}
}

func TestGateway_UploadIngestError(t *testing.T) {
	authorizer := &mockAuthorizer{}
	authorizer.On("Authorize", mock.Anything, mock.Anything).Return(auth.RenderDecision("me", testPrefix+"/PUT/idoc"), nil)
	handler := &mockIngest{}
	handler.On("Handle", mock.Anything, mock.Anything).
		Return(&ingest.Response{StatusCode: http.StatusBadRequest, Body: `{"message":"S3 bucket not provided in the request. Hence can't store the data to S3"}`})

	gw, _ := newTestGateway(t, authorizer, handler)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/idoc", strings.NewReader("<IDOC/>"))
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	gw.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "S3 bucket not provided")
}

func TestGateway_BodyTooLarge(t *testing.T) {
	authorizer := &mockAuthorizer{}
	handler := &mockIngest{}

	config := DefaultConfig()
	config.MaxBodyBytes = 4
	gw, err := New(config, authorizer, handler, WithMetrics(NewMetrics(prometheus.NewRegistry())))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	gw.ServeHTTP(rec, uploadRequest("<IDOC/>"))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	authorizer.AssertNotCalled(t, "Authorize", mock.Anything, mock.Anything)
	handler.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestGateway_Authorize(t *testing.T) {
	resource := testPrefix + "/POST/idoc"
	event := `{
		"type": "REQUEST",
		"methodArn": "` + resource + `",
		"headers": {"authorization": "Basic dXNlcjpwYXNz"},
		"queryStringParameters": {"upid": "pool1", "cid": "client1", "bn": "bucket1"}
	}`

	t.Run("Allow", func(t *testing.T) {
		authorizer := &mockAuthorizer{}
		authorizer.On("Authorize", mock.Anything, &auth.Request{
			Headers:   map[string]string{"authorization": "Basic dXNlcjpwYXNz"},
			Query:     map[string]string{"upid": "pool1", "cid": "client1", "bn": "bucket1"},
			MethodArn: resource,
		}).Return(auth.RenderDecision("me", resource), nil).Once()

		gw, metrics := newTestGateway(t, authorizer, &mockIngest{})
		rec := httptest.NewRecorder()
		gw.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/authorize", strings.NewReader(event)))

		require.Equal(t, http.StatusOK, rec.Code)
		var decision auth.Decision
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decision))
		assert.Equal(t, "me", decision.PrincipalID)
		require.NotNil(t, decision.PolicyDocument)
		assert.Equal(t, resource, decision.PolicyDocument.Statement[0].Resource)
		assert.Equal(t, auth.EffectAllow, decision.PolicyDocument.Statement[0].Effect)
		authorizer.AssertExpectations(t)
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues("authorize", "200")))
	})

	t.Run("Deny", func(t *testing.T) {
		authorizer := &mockAuthorizer{}
		authorizer.On("Authorize", mock.Anything, mock.Anything).Return(nil, auth.ErrUnauthorized)

		gw, _ := newTestGateway(t, authorizer, &mockIngest{})
		rec := httptest.NewRecorder()
		gw.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/authorize", strings.NewReader(event)))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"message":"Unauthorized"}`, rec.Body.String())
	})

	t.Run("InvalidEvent", func(t *testing.T) {
		authorizer := &mockAuthorizer{}
		gw, _ := newTestGateway(t, authorizer, &mockIngest{})
		rec := httptest.NewRecorder()
		gw.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/authorize", strings.NewReader("not json")))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		authorizer.AssertNotCalled(t, "Authorize", mock.Anything, mock.Anything)
	})
}

func TestGateway_UnknownRoute(t *testing.T) {
	gw, metrics := newTestGateway(t, &mockAuthorizer{}, &mockIngest{})
	rec := httptest.NewRecorder()
	gw.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Header().Get(HeaderRequestID))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues("unsupported", "404")))
}
