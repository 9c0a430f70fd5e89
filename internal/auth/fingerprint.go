package auth

import (
	"fmt"
	"os"
	"runtime"
	"time"
)

// LocalFingerprint is a coarse device identifier: platform, time zone and
// locale. It is recorded with sessions and never used for authentication.
func LocalFingerprint() string {
	zone, offset := time.Now().Zone()

	locale := os.Getenv("LC_ALL")
	if locale == "" {
		locale = os.Getenv("LANG")
	}
	if locale == "" {
		locale = "C"
	}
	return fmt.Sprintf("%s/%s|%s%+d|%s", runtime.GOOS, runtime.GOARCH, zone, offset/3600, locale)
}
