package utils

import (
	"fmt"

	"github.com/gosimple/slug"
)

// Slugify converts arbitrary text into a URL-safe slug.
func Slugify(s string) string {
	return slug.Make(s)
}

// DedupSlug appends a numeric suffix to the base slug. Counter 0 returns
// the base itself; callers probe counters until the store reports the
// candidate free.
func DedupSlug(base string, counter int) string {
	if counter == 0 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, counter)
}
