package admin

import (
	"context"
	"time"

	"github.com/angelmondragon/storefront/internal/sessionstore"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// Auth keeps the admin credential for one session in session storage.
type Auth struct {
	client  *Client
	storage sessionstore.Storage
	logg    *logger.Logger
	now     func() time.Time
}

func NewAuth(client *Client, storage sessionstore.Storage, logg *logger.Logger) *Auth {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Auth{client: client, storage: storage, logg: logg, now: time.Now}
}

// Login signs in and stores the credential.
func (a *Auth) Login(ctx context.Context, email, password string) (Profile, error) {
	cred, profile, err := a.client.Login(ctx, email, password)
	if err != nil {
		return Profile{}, err
	}
	if err := sessionstore.SetJSON(ctx, a.storage, sessionstore.KeyAdminToken, cred.Token); err != nil {
		return Profile{}, err
	}
	return profile, nil
}

// Credential returns the stored credential, or an empty one. An expired or
// corrupt token is removed.
func (a *Auth) Credential(ctx context.Context) (Credential, error) {
	var token string
	ok, err := sessionstore.GetJSON(ctx, a.storage, sessionstore.KeyAdminToken, &token)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			a.logg.Warn(ctx, "dropping corrupt admin token")
			return Credential{}, a.Logout(ctx)
		}
		return Credential{}, err
	}
	if !ok {
		return Credential{}, nil
	}
	cred := NewCredential(token)
	if cred.Expired(a.now()) {
		a.logg.Info(ctx, "admin token expired")
		return Credential{}, a.Logout(ctx)
	}
	return cred, nil
}

// Current resolves the signed-in admin. A token the admin API rejects is
// dropped and reported as unauthorized.
func (a *Auth) Current(ctx context.Context) (Profile, error) {
	cred, err := a.Credential(ctx)
	if err != nil {
		return Profile{}, err
	}
	if cred.Empty() {
		return Profile{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "not signed in")
	}

	profile, err := a.client.Me(ctx, cred)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
			if logoutErr := a.Logout(ctx); logoutErr != nil {
				a.logg.Error(ctx, "failed to drop rejected admin token", logoutErr)
			}
		}
		return Profile{}, err
	}
	return profile, nil
}

func (a *Auth) Logout(ctx context.Context) error {
	return a.storage.Delete(ctx, sessionstore.KeyAdminToken)
}

// Sessions builds per-session Auth values over a shared session backend.
type Sessions struct {
	client  *Client
	backend sessionstore.Backend
	logg    *logger.Logger
}

func NewSessions(client *Client, backend sessionstore.Backend, logg *logger.Logger) *Sessions {
	return &Sessions{client: client, backend: backend, logg: logg}
}

func (s *Sessions) For(sessionID string) (*Auth, error) {
	session, err := sessionstore.NewSession(s.backend, sessionID)
	if err != nil {
		return nil, err
	}
	return NewAuth(s.client, session, s.logg), nil
}
