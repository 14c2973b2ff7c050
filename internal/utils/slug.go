package utils

import (
	"fmt"
	"strings"
	"time"
)

// MakeSlug derives a URL-safe slug from a listing title. The unix-millis
// suffix keeps slugs distinct across listings that share a title; on the
// rare same-millisecond collision the caller retries the insert.
func MakeSlug(title string) string {
	base := strings.ToLower(strings.Join(strings.Fields(title), "-"))
	return fmt.Sprintf("%s-%d", base, time.Now().UnixMilli())
}
