package sessionstore

import (
	"context"
	"encoding/json"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

// Fixed keys written by the storefront.
const (
	KeyCart       = "cart"
	KeyAdminToken = "adminToken"
)

// Backend persists values for many browsing sessions.
type Backend interface {
	Get(ctx context.Context, sessionID, key string) ([]byte, bool, error)
	Set(ctx context.Context, sessionID, key string, value []byte) error
	Delete(ctx context.Context, sessionID, key string) error
}

// Purger is implemented by backends that need expired entries swept.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Storage is the key-value view of a single session.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Session binds a Backend to one session id.
type Session struct {
	backend Backend
	id      string
}

func NewSession(backend Backend, sessionID string) (*Session, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if backend == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session backend is required")
	}
	return &Session{backend: backend, id: sessionID}, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.backend.Get(ctx, s.id, key)
}

func (s *Session) Set(ctx context.Context, key string, value []byte) error {
	return s.backend.Set(ctx, s.id, key, value)
}

func (s *Session) Delete(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, s.id, key)
}

// GetJSON decodes the value at key into dest. It reports false when the key is
// absent. A value that does not decode is returned as a validation error so
// callers can treat it as empty.
func GetJSON(ctx context.Context, s Storage, key string, dest any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "corrupt session value").
			WithDetails(map[string]any{"key": key})
	}
	return true, nil
}

// SetJSON encodes value and writes it at key.
func SetJSON(ctx context.Context, s Storage, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode session value")
	}
	return s.Set(ctx, key, raw)
}

func dependencyErr(err error, op, key string) error {
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "session storage "+op+" failed").
		WithDetails(map[string]any{"key": key})
}
