package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateYear(t *testing.T) {
	current := time.Now().Year()

	assert.NoError(t, validateYear(current))
	assert.NoError(t, validateYear(1895))
	assert.NoError(t, validateYear(-450))
	assert.ErrorIs(t, validateYear(current+1), ErrYearInFuture)
}

func TestSlugPattern(t *testing.T) {
	valid := []string{"movies", "sci-fi", "tv_shows", "Top10"}
	invalid := []string{"", "has space", "cyrillic-ж", "slash/y"}

	for _, slug := range valid {
		assert.True(t, slugRe.MatchString(slug), "slug %q must be valid", slug)
	}
	for _, slug := range invalid {
		assert.False(t, slugRe.MatchString(slug), "slug %q must be invalid", slug)
	}
}
