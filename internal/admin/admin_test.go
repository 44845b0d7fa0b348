package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront/internal/sessionstore"
	"github.com/angelmondragon/storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "admin-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

// fakeAdminAPI accepts admin@example.com / secret and any bearer token
// listed in valid.
func fakeAdminAPI(t *testing.T, token string, valid map[string]bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body loginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body.Email != "admin@example.com" || body.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Invalid credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"token":"` + token + `","admin":{"id":7,"email":"admin@example.com","name":"Root"}}`))
	})
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if len(auth) < 7 || !valid[auth[7:]] {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"admin":{"id":"7","email":"admin@example.com"}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(config.AdminConfig{APIBaseURL: baseURL + "/", Timeout: time.Second}, nil, nil)
	require.NoError(t, err)
	return client
}

func newSession(t *testing.T) *sessionstore.Session {
	t.Helper()
	session, err := sessionstore.NewSession(sessionstore.NewMemory(0), "sid-admin")
	require.NoError(t, err)
	return session
}

func TestNewCredentialReadsExpiry(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	cred := NewCredential(signedToken(t, exp))
	require.True(t, cred.ExpiresAt.Equal(exp))
	require.False(t, cred.Expired(exp.Add(-time.Second)))
	require.True(t, cred.Expired(exp))

	opaque := NewCredential("  opaque-token ")
	require.Equal(t, "opaque-token", opaque.Token)
	require.True(t, opaque.ExpiresAt.IsZero())
	require.False(t, opaque.Expired(time.Now()))
}

func TestCredentialApply(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	NewCredential("abc").Apply(req)
	require.Equal(t, "Bearer abc", req.Header.Get("Authorization"))

	Credential{}.Apply(req)
	require.Empty(t, req.Header.Get("Authorization"))
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(config.AdminConfig{APIBaseURL: " "}, nil, nil)
	require.Error(t, err)
}

func TestClientLoginAndMe(t *testing.T) {
	srv := fakeAdminAPI(t, "tok-1", map[string]bool{"tok-1": true})
	client := newTestClient(t, srv.URL)
	ctx := context.Background()

	cred, profile, err := client.Login(ctx, "admin@example.com", "secret")
	require.NoError(t, err)
	require.Equal(t, "tok-1", cred.Token)
	require.Equal(t, "7", profile.ID)
	require.Equal(t, "Root", profile.Name)

	me, err := client.Me(ctx, cred)
	require.NoError(t, err)
	require.Equal(t, "7", me.ID)

	_, err = client.Me(ctx, NewCredential("forged"))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	_, err = client.Me(ctx, Credential{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestClientLoginRejected(t *testing.T) {
	srv := fakeAdminAPI(t, "tok-1", nil)
	client := newTestClient(t, srv.URL)

	_, _, err := client.Login(context.Background(), "admin@example.com", "wrong")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
	require.Equal(t, "Invalid credentials", typed.Message())

	_, _, err = client.Login(context.Background(), "", "secret")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestClientUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	client := newTestClient(t, srv.URL)

	_, _, err := client.Login(context.Background(), "admin@example.com", "secret")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestAuthLifecycle(t *testing.T) {
	srv := fakeAdminAPI(t, "tok-1", map[string]bool{"tok-1": true})
	session := newSession(t)
	auth := NewAuth(newTestClient(t, srv.URL), session, nil)
	ctx := context.Background()

	_, err := auth.Current(ctx)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	_, err = auth.Login(ctx, "admin@example.com", "secret")
	require.NoError(t, err)

	raw, ok, err := session.Get(ctx, sessionstore.KeyAdminToken)
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `"tok-1"`, string(raw))

	profile, err := auth.Current(ctx)
	require.NoError(t, err)
	require.Equal(t, "admin@example.com", profile.Email)

	require.NoError(t, auth.Logout(ctx))
	_, err = auth.Current(ctx)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestAuthDropsRejectedToken(t *testing.T) {
	srv := fakeAdminAPI(t, "tok-1", map[string]bool{})
	session := newSession(t)
	auth := NewAuth(newTestClient(t, srv.URL), session, nil)
	ctx := context.Background()

	require.NoError(t, sessionstore.SetJSON(ctx, session, sessionstore.KeyAdminToken, "revoked"))
	_, err := auth.Current(ctx)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	_, ok, err := session.Get(ctx, sessionstore.KeyAdminToken)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAuthDropsExpiredAndCorruptTokens(t *testing.T) {
	session := newSession(t)
	auth := NewAuth(nil, session, nil)
	ctx := context.Background()

	expired := signedToken(t, time.Now().Add(-time.Hour))
	require.NoError(t, sessionstore.SetJSON(ctx, session, sessionstore.KeyAdminToken, expired))
	cred, err := auth.Credential(ctx)
	require.NoError(t, err)
	require.True(t, cred.Empty())
	_, ok, _ := session.Get(ctx, sessionstore.KeyAdminToken)
	require.False(t, ok)

	require.NoError(t, session.Set(ctx, sessionstore.KeyAdminToken, []byte("{not json")))
	cred, err = auth.Credential(ctx)
	require.NoError(t, err)
	require.True(t, cred.Empty())
	_, ok, _ = session.Get(ctx, sessionstore.KeyAdminToken)
	require.False(t, ok)
}
