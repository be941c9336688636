package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "hello-world", Slugify("Hello, World!"))
	assert.Equal(t, "go-1-21-released", Slugify("Go 1.21 Released"))
	assert.Equal(t, "", Slugify("!!!"))
}

func TestDedupSlug(t *testing.T) {
	assert.Equal(t, "hello", DedupSlug("hello", 0))
	assert.Equal(t, "hello-1", DedupSlug("hello", 1))
	assert.Equal(t, "hello-12", DedupSlug("hello", 12))
}
