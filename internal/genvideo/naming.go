package genvideo

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const timestampLayout = "20060102_150405"

// uniqueKey builds a storage key of the form
// {prefix}/{YYYYMMDD_HHMMSS}_{uuid}{ext}. The random suffix keeps keys from
// two calls within the same second distinct, so variants and repeated runs
// never collide in the bucket.
func uniqueKey(prefix string, now time.Time, ext string) string {
	return fmt.Sprintf("%s/%s_%s%s",
		strings.Trim(prefix, "/"),
		now.Format(timestampLayout),
		uuid.NewString(),
		ext,
	)
}

// extensionForMIME maps the supported input content types to a file suffix.
func extensionForMIME(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "video/mp4":
		return ".mp4"
	default:
		return ".bin"
	}
}
