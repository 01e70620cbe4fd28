package repositories

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/anonto42/jackpot/backend/internal/apperrors"
)

// cursor is the decoded position of a keyset page: the sort timestamp plus the
// tie-break key of the last row served.
type cursor struct {
	At  time.Time
	Key string
}

func encodeCursor(at time.Time, key string) string {
	raw := strconv.FormatInt(at.UnixNano(), 10) + "|" + key
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(s string) (*cursor, error) {
	if s == "" {
		return nil, nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, invalidCursor(err)
	}
	nanos, key, ok := strings.Cut(string(decoded), "|")
	if !ok || key == "" {
		return nil, apperrors.New(apperrors.InvalidArgument, "invalid cursor")
	}
	n, err := strconv.ParseInt(nanos, 10, 64)
	if err != nil {
		return nil, invalidCursor(err)
	}
	return &cursor{At: time.Unix(0, n).UTC(), Key: key}, nil
}

// trimPage cuts a limit+1 fetch down to limit and reports whether more rows exist.
func trimPage[T any](rows []T, limit int) ([]T, bool) {
	if len(rows) > limit {
		return rows[:limit], true
	}
	return rows, false
}

func invalidCursor(err error) error {
	return apperrors.Wrap(apperrors.InvalidArgument, err, "invalid cursor")
}
