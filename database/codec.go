// tavle/database/codec.go
//
// Row decoding. SQLite columns have affinity, not strict types, so legacy or
// hand-edited rows can hold text where an integer is expected. Columns are
// scanned as raw driver values and coerced here: a structurally required id
// that fails to coerce rejects the whole row, an auxiliary numeric falls back
// to zero, a nullable foreign key falls back to absence.
package database

import (
	"database/sql"
	"errors"
	"math"
	"strconv"
	"strings"

	"tavle/models"
)

// errCorruptRow marks a row whose required id fields could not be decoded.
var errCorruptRow = errors.New("corrupt row")

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// Column lists shared by the lifecycle manager and the query façade.
const (
	userColumns   = "user_id, user_name, user_password_hash, user_group, user_timestamp"
	imageColumns  = "image_id, user_id, image_file_name, image_file_extension, image_timestamp"
	threadColumns = "thread_id, user_id, post_id, thread_subject, thread_timestamp, thread_last_modified"
	postColumns   = "post_id, thread_id, user_id, image_id, post_text, post_timestamp, post_last_modified"
)

// coerceInt converts a raw driver value to an int64.
func coerceInt(v any) (int64, bool) {
	switch val := v.(type) {
	case int64:
		return val, true
	case float64:
		if val == math.Trunc(val) {
			return int64(val), true
		}
		return 0, false
	case []byte:
		return parseIntText(string(val))
	case string:
		return parseIntText(val)
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func parseIntText(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// coerceIntOrZero is for auxiliary numerics: timestamps, last-modified,
// user_group. A value that cannot be coerced becomes zero, not a rejection.
func coerceIntOrZero(v any) int64 {
	if v == nil {
		return 0
	}
	n, ok := coerceInt(v)
	if !ok {
		return 0
	}
	return n
}

// coerceNullableInt is for nullable foreign keys. NULL and uncoercible
// values both decode to explicit absence.
func coerceNullableInt(v any) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	n, ok := coerceInt(v)
	if !ok {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: n, Valid: true}
}

func coerceText(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	case nil:
		return ""
	default:
		return ""
	}
}

func decodeUser(s rowScanner) (models.User, error) {
	var raw [5]any
	if err := s.Scan(&raw[0], &raw[1], &raw[2], &raw[3], &raw[4]); err != nil {
		return models.User{}, err
	}
	id, ok := coerceInt(raw[0])
	if !ok {
		return models.User{}, errCorruptRow
	}
	return models.User{
		ID:           id,
		Name:         coerceText(raw[1]),
		PasswordHash: coerceText(raw[2]),
		Group:        coerceIntOrZero(raw[3]),
		Timestamp:    coerceIntOrZero(raw[4]),
	}, nil
}

func decodeImage(s rowScanner) (models.Image, error) {
	var raw [5]any
	if err := s.Scan(&raw[0], &raw[1], &raw[2], &raw[3], &raw[4]); err != nil {
		return models.Image{}, err
	}
	id, idOK := coerceInt(raw[0])
	userID, userOK := coerceInt(raw[1])
	if !idOK || !userOK {
		return models.Image{}, errCorruptRow
	}
	return models.Image{
		ID:            id,
		UserID:        userID,
		FileName:      coerceText(raw[2]),
		FileExtension: coerceText(raw[3]),
		Timestamp:     coerceIntOrZero(raw[4]),
	}, nil
}

func decodeThread(s rowScanner) (models.Thread, error) {
	var raw [6]any
	if err := s.Scan(&raw[0], &raw[1], &raw[2], &raw[3], &raw[4], &raw[5]); err != nil {
		return models.Thread{}, err
	}
	id, idOK := coerceInt(raw[0])
	userID, userOK := coerceInt(raw[1])
	if !idOK || !userOK {
		return models.Thread{}, errCorruptRow
	}
	return models.Thread{
		ID:           id,
		UserID:       userID,
		PostID:       coerceNullableInt(raw[2]),
		Subject:      coerceText(raw[3]),
		Timestamp:    coerceIntOrZero(raw[4]),
		LastModified: coerceIntOrZero(raw[5]),
	}, nil
}

func decodePost(s rowScanner) (models.Post, error) {
	var raw [7]any
	if err := s.Scan(&raw[0], &raw[1], &raw[2], &raw[3], &raw[4], &raw[5], &raw[6]); err != nil {
		return models.Post{}, err
	}
	id, idOK := coerceInt(raw[0])
	threadID, threadOK := coerceInt(raw[1])
	userID, userOK := coerceInt(raw[2])
	if !idOK || !threadOK || !userOK {
		return models.Post{}, errCorruptRow
	}
	return models.Post{
		ID:           id,
		ThreadID:     threadID,
		UserID:       userID,
		ImageID:      coerceNullableInt(raw[3]),
		Text:         coerceText(raw[4]),
		Timestamp:    coerceIntOrZero(raw[5]),
		LastModified: coerceIntOrZero(raw[6]),
	}, nil
}
