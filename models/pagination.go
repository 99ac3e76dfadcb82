package models

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type PageInfo struct {
	StartCursor string `json:"startCursor"`
	EndCursor   string `json:"endCursor"`
	HasNextPage *bool  `json:"hasNextPage,omitempty"`
}

// ErrInvalidCursor is returned for cursors that were not produced by EncodeCompositeCursor.
type ErrInvalidCursor struct {
	Cursor string
}

func (e *ErrInvalidCursor) Error() string {
	return fmt.Sprintf("invalid cursor %q", e.Cursor)
}

// DecodeCompositeCursor splits a "timestamp|id" cursor, the timestamp in UTC
// RFC 3339 with nanoseconds. A nil or empty cursor decodes to the zero time
// and id 0, meaning "from the beginning".
func DecodeCompositeCursor(cursor *string) (time.Time, int, error) {
	if cursor == nil || *cursor == "" {
		return time.Time{}, 0, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(*cursor)
	if err != nil {
		return time.Time{}, 0, &ErrInvalidCursor{Cursor: *cursor}
	}

	parts := strings.Split(string(decoded), "|")
	if len(parts) != 2 {
		return time.Time{}, 0, &ErrInvalidCursor{Cursor: *cursor}
	}

	at, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return time.Time{}, 0, &ErrInvalidCursor{Cursor: *cursor}
	}
	id, err := strconv.Atoi(parts[1])
	if err != nil || id <= 0 {
		return time.Time{}, 0, &ErrInvalidCursor{Cursor: *cursor}
	}

	return at.UTC(), id, nil
}

func EncodeCompositeCursor(key string, id int) string {
	cursor := fmt.Sprintf("%s|%d", key, id)
	return base64.StdEncoding.EncodeToString([]byte(cursor))
}

// IsAfterCursor reports whether a journal sorts after the cursor position in
// (journal_date DESC, id DESC) order, the order both stores page in.
func IsAfterCursor(j *Journal, cursorAt time.Time, cursorId int) bool {
	if cursorId == 0 {
		return true
	}
	if j.JournalDate.Before(cursorAt) {
		return true
	}
	return j.JournalDate.Equal(cursorAt) && j.ID < cursorId
}
