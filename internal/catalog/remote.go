package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/retry"
)

const defaultRemoteTimeout = 5 * time.Second

// RemoteSource reads the catalog from an HTTP JSON endpoint shaped like
// GET /products, GET /products/{id} and GET /products/categories.
type RemoteSource struct {
	baseURL string
	client  *http.Client
	retry   retry.Config
}

// RemoteOptions tunes the remote source.
type RemoteOptions struct {
	Timeout     time.Duration
	MaxAttempts int
	Backoff     retry.Backoff
	HTTPClient  *http.Client
}

func NewRemoteSource(baseURL string, opts RemoteOptions) (*RemoteSource, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("catalog base url required")
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultRemoteTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &RemoteSource{
		baseURL: base,
		client:  client,
		retry: retry.Config{
			MaxAttempts: opts.MaxAttempts,
			Backoff:     opts.Backoff,
			ShouldRetry: isTransient,
		},
	}, nil
}

func (s *RemoteSource) Products(ctx context.Context) ([]Product, error) {
	var raw []Product
	if err := s.getJSON(ctx, "/products", &raw); err != nil {
		return nil, err
	}
	return filter(raw, Product.Valid), nil
}

func (s *RemoteSource) Product(ctx context.Context, id int) (Product, error) {
	var p Product
	if err := s.getJSON(ctx, "/products/"+strconv.Itoa(id), &p); err != nil {
		return Product{}, err
	}
	// Some catalog services answer unknown ids with 200 and an empty body.
	if p.ID == 0 {
		return Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").WithDetails(map[string]any{"id": id})
	}
	return p, nil
}

func (s *RemoteSource) Categories(ctx context.Context) ([]string, error) {
	var out []string
	if err := s.getJSON(ctx, "/products/categories", &out); err != nil {
		return nil, err
	}
	return out, nil
}

type statusError struct {
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.status)
}

func isTransient(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.status >= http.StatusInternalServerError || se.status == http.StatusTooManyRequests
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var decodeErr *json.SyntaxError
	if errors.As(err, &decodeErr) {
		return false
	}
	var typeErr *json.UnmarshalTypeError
	return !errors.As(err, &typeErr)
}

func (s *RemoteSource) getJSON(ctx context.Context, path string, dest any) error {
	url := s.baseURL + path
	err := retry.Do(ctx, s.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer func() {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}()

		if resp.StatusCode != http.StatusOK {
			return &statusError{status: resp.StatusCode}
		}
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	})
	if err == nil {
		return nil
	}

	var se *statusError
	if errors.As(err, &se) && se.status == http.StatusNotFound {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "catalog resource not found").WithDetails(map[string]any{"path": path})
	}
	return pkgerrors.Wrap(pkgerrors.CodeSourceUnavailable, err, "catalog fetch failed").WithDetails(map[string]any{"path": path})
}
