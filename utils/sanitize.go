package utils

import "github.com/microcosm-cc/bluemonday"

var (
	ugcSanitizer   = bluemonday.UGCPolicy()
	plainSanitizer = bluemonday.StrictPolicy()
)

// Sanitize cleans user-generated HTML content (post bodies, comments)
// to prevent XSS while keeping benign markup.
func Sanitize(input string) string {
	return ugcSanitizer.Sanitize(input)
}

// SanitizePlain strips all markup; used for plain-text fields such as
// titles and bios.
func SanitizePlain(input string) string {
	return plainSanitizer.Sanitize(input)
}
