package dto

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/eddostedson/eddo-budg-sub001/internal/domain"
)

// ErrInvalidCursor is returned for a cursor this server did not issue.
var ErrInvalidCursor = errors.New("invalid cursor")

// EncodeCursor renders a page position as an opaque URL-safe token.
func EncodeCursor(c *domain.Cursor) string {
	if c == nil {
		return ""
	}
	raw := strconv.FormatInt(c.OccurredAt.UnixMicro(), 10) + ":" + c.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a token produced by EncodeCursor. An empty token
// decodes to nil.
func DecodeCursor(token string) (*domain.Cursor, error) {
	if token == "" {
		return nil, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	micros, id, ok := strings.Cut(string(raw), ":")
	if !ok || id == "" {
		return nil, ErrInvalidCursor
	}

	us, err := strconv.ParseInt(micros, 10, 64)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	return &domain.Cursor{OccurredAt: time.UnixMicro(us).UTC(), ID: id}, nil
}
