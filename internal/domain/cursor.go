package domain

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidCursor is returned for cursors that do not decode.
var ErrInvalidCursor = errors.New("invalid cursor")

// Cursor is the sort key of the last review on a page. Lists ordered by
// (created_at DESC, id DESC) resume strictly after it.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

type cursorWire struct {
	T  string `json:"t"`
	ID string `json:"id"`
}

// CursorFor returns the cursor positioned at r.
func CursorFor(r Review) Cursor {
	return Cursor{CreatedAt: r.CreatedAt, ID: r.ID}
}

// Encode returns the opaque URL-safe form of c.
func (c Cursor) Encode() string {
	b, _ := json.Marshal(cursorWire{T: c.CreatedAt.UTC().Format(time.RFC3339Nano), ID: c.ID})
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeCursor parses an opaque cursor. An empty string yields nil.
func DecodeCursor(s string) (*Cursor, error) {
	if s == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	var w cursorWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if w.ID == "" || w.T == "" {
		return nil, fmt.Errorf("%w: missing sort key", ErrInvalidCursor)
	}
	t, err := time.Parse(time.RFC3339Nano, w.T)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	return &Cursor{CreatedAt: t.UTC(), ID: w.ID}, nil
}

// After reports whether r sorts strictly after c in (created_at DESC, id DESC)
// order, i.e. whether r belongs on the next page.
func (c Cursor) After(r Review) bool {
	if r.CreatedAt.Equal(c.CreatedAt) {
		return r.ID < c.ID
	}
	return r.CreatedAt.Before(c.CreatedAt)
}
