package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authority(t *testing.T, status int, info UserInfo) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_token"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(info)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestVerifyTokenSuccess(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		_ = json.NewEncoder(w).Encode(UserInfo{Sub: "u1", Username: "ana", Roles: []string{"admin"}, Permissions: []string{"users:read"}})
	}))
	defer srv.Close()

	info, err := NewClient(srv.URL, time.Second, nil).VerifyToken(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/api/verify-token", gotPath)
	assert.Equal(t, "u1", info.Sub)
	assert.Equal(t, []string{"users:read"}, info.Permissions)
}

func TestGetUserInfoUsesGet(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		_ = json.NewEncoder(w).Encode(UserInfo{Sub: "u1"})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second, nil).GetUserInfo(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, gotMethod)
	assert.Equal(t, "/api/userinfo", gotPath)
}

func TestRejectedToken(t *testing.T) {
	srv, _ := authority(t, http.StatusOK, UserInfo{Sub: "u1"})

	_, err := NewClient(srv.URL, time.Second, nil).VerifyToken(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrTokenRejected)
}

func TestServerErrorAndTransportErrorAreUnavailable(t *testing.T) {
	srv, _ := authority(t, http.StatusBadGateway, UserInfo{})
	_, err := NewClient(srv.URL, time.Second, nil).VerifyToken(context.Background(), "good")
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = NewClient("http://127.0.0.1:1", 200*time.Millisecond, nil).VerifyToken(context.Background(), "good")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(UserInfo{Sub: "u1"})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 50*time.Millisecond, nil).VerifyToken(context.Background(), "good")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCallerCancellationIsNotPropagated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(UserInfo{Sub: "u1"})
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	info, err := NewClient(srv.URL, time.Second, nil).VerifyToken(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, "u1", info.Sub)
}

func TestBreakerIgnoresRejectionsButOpensOnFailures(t *testing.T) {
	rejecting, rejectCalls := authority(t, http.StatusOK, UserInfo{})
	client := NewClient(rejecting.URL, time.Second, nil).WithCircuitBreaker("test-rejections")
	for i := 0; i < 5; i++ {
		_, err := client.VerifyToken(context.Background(), "bad")
		assert.ErrorIs(t, err, ErrTokenRejected)
	}
	assert.EqualValues(t, 5, rejectCalls.Load(), "rejections never open the breaker")

	failing, failCalls := authority(t, http.StatusInternalServerError, UserInfo{})
	client = NewClient(failing.URL, time.Second, nil).WithCircuitBreaker("test-failures")
	for i := 0; i < 5; i++ {
		_, err := client.VerifyToken(context.Background(), "good")
		assert.ErrorIs(t, err, ErrUnavailable)
	}
	assert.EqualValues(t, 3, failCalls.Load(), "breaker opens after three failures")
}

func TestUnreadableBodyIsUnavailableAndTripsBreaker(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	}))
	t.Cleanup(srv.Close)

	_, err := NewClient(srv.URL, time.Second, nil).VerifyToken(context.Background(), "good")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.NotErrorIs(t, err, ErrTokenRejected)

	calls.Store(0)
	client := NewClient(srv.URL, time.Second, nil).WithCircuitBreaker("test-garbage")
	for i := 0; i < 5; i++ {
		_, err := client.GetUserInfo(context.Background(), "good")
		assert.ErrorIs(t, err, ErrUnavailable)
	}
	assert.EqualValues(t, 3, calls.Load(), "breaker opens after three unreadable responses")
}
