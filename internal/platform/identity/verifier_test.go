package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pronet-backend/internal/common/errors"
)

func TestVerifyResolvesIdentity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer good-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"sub":"sub-1","email":"alice@example.com","name":"Alice","birthdate":"1990-04-15"}`))
	}))
	defer server.Close()

	verifier := NewUserInfoVerifier(server.URL)
	info, err := verifier.Verify(context.Background(), "good-token")
	require.NoError(t, err)
	assert.Equal(t, "sub-1", info.Sub)
	assert.Equal(t, "alice@example.com", info.Email)
	assert.Equal(t, "1990-04-15", info.Birthdate)
}

func TestVerifyRejectedToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	verifier := NewUserInfoVerifier(server.URL)
	_, err := verifier.Verify(context.Background(), "bad-token")
	require.Error(t, err)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeAuthentication, appErr.Code)
}

func TestVerifyUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	verifier := NewUserInfoVerifier(server.URL)
	_, err := verifier.Verify(context.Background(), "token")
	require.Error(t, err)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeThirdParty, appErr.Code)
}

func TestVerifyMissingSubject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"email":"alice@example.com"}`))
	}))
	defer server.Close()

	verifier := NewUserInfoVerifier(server.URL)
	_, err := verifier.Verify(context.Background(), "token")
	require.Error(t, err)
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeAuthentication, appErr.Code)
}
