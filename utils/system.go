// tavle/utils/system.go
package utils

import (
	"time"
)

// GetTime returns the current time. Useful for mocking in tests.
func GetTime() time.Time {
	return time.Now()
}

// GetUnixTime returns the current time as unix seconds for database storage.
func GetUnixTime() int64 {
	return GetTime().UTC().Unix()
}
