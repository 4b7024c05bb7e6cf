package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testAPISecret = "test-signing-secret"

func newTestClient(t *testing.T, handler http.HandlerFunc, maxRetries int) (*RESTClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewRESTClient(server.URL, "deletion-service", testAPISecret, maxRetries, 10*time.Millisecond)
	require.NoError(t, err)
	return client, server
}

func TestDeleteAccountSendsSignedServiceToken(t *testing.T) {
	uid := uuid.New()
	var gotPath, gotAuth string

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}, 0)

	require.NoError(t, client.DeleteAccount(context.Background(), uid))
	require.Equal(t, "/accounts/"+uid.String(), gotPath)

	require.True(t, strings.HasPrefix(gotAuth, "Bearer "))
	tokenStr := strings.TrimPrefix(gotAuth, "Bearer ")

	parsed, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		require.Equal(t, jwt.SigningMethodHS256, token.Method)
		return []byte(testAPISecret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims := parsed.Claims.(jwt.MapClaims)
	require.Equal(t, "deletion-service", claims["iss"])
}

func TestDeleteAccountNotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "no such account"}`))
	}, 0)

	err := client.DeleteAccount(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestDeleteAccountUnauthorized(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": "bad credentials"}`))
	}, 0)

	err := client.DeleteAccount(context.Background(), uuid.New())
	require.Error(t, err)
	require.Contains(t, err.Error(), "unauthorized (401)")
	require.Contains(t, err.Error(), "bad credentials")
}

func TestDeleteAccountRetriesOnRateLimit(t *testing.T) {
	var calls int
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error": "slow down"}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}, 2)

	require.NoError(t, client.DeleteAccount(context.Background(), uuid.New()))
	require.Equal(t, 2, calls)
}

func TestDeleteAccountRateLimitExhaustsRetries(t *testing.T) {
	var calls int
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": "slow down"}`))
	}, 1)

	err := client.DeleteAccount(context.Background(), uuid.New())
	require.Error(t, err)

	var rlErr *RateLimitError
	require.ErrorAs(t, err, &rlErr)
	require.Equal(t, 2, calls) // initial attempt + one retry
}

func TestDeleteAccountNonJSONErrorBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}, 0)

	err := client.DeleteAccount(context.Background(), uuid.New())
	require.Error(t, err)
	require.Contains(t, err.Error(), "http error (502)")
	require.Contains(t, err.Error(), "upstream exploded")
}
