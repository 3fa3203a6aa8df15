//go:build !linux

package storage

import "time"

// birthTime is not recorded on this platform.
func birthTime(string) time.Time {
	return time.Time{}
}
