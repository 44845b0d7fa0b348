package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 24
	// MaxLimit caps how many items a single page can hold.
	MaxLimit = 100
)

// Params holds cursor pagination inputs from controllers.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor points just past the last item of the previous page. LastID guards
// against a catalog that changed between requests.
type Cursor struct {
	Offset int
	LastID int
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// EncodeCursor builds a base64 cursor string from the provided values.
func EncodeCursor(cursor Cursor) string {
	payload := fmt.Sprintf("%d|%d", cursor.Offset, cursor.LastID)
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

// ParseCursor decodes the cursor string back into its components. A blank
// value yields nil.
func ParseCursor(value string) (*Cursor, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid cursor format")
	}

	offset, err := strconv.Atoi(parts[0])
	if err != nil || offset <= 0 {
		return nil, fmt.Errorf("invalid cursor offset %q", parts[0])
	}
	lastID, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid cursor id: %w", err)
	}
	return &Cursor{Offset: offset, LastID: lastID}, nil
}

// Page slices items according to params. idOf identifies an item for cursor
// checks. next is empty on the last page.
func Page[T any](items []T, params Params, idOf func(T) int) (page []T, next string, err error) {
	limit := NormalizeLimit(params.Limit)

	cursor, err := ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	start := 0
	if cursor != nil {
		if cursor.Offset > len(items) || idOf(items[cursor.Offset-1]) != cursor.LastID {
			return nil, "", fmt.Errorf("cursor is stale")
		}
		start = cursor.Offset
	}

	end := min(start+limit, len(items))
	page = items[start:end]
	if end < len(items) {
		next = EncodeCursor(Cursor{Offset: end, LastID: idOf(items[end-1])})
	}
	return page, next, nil
}
