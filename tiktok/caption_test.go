package tiktok

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatCaption(t *testing.T) {
	testCases := []struct {
		description string
		caption     string
		hashtags    []string
		expected    string
	}{
		{"caption with hashtags", "Check out this video!", []string{"fyp", "viral"}, "Check out this video! #fyp #viral"},
		{"caption without hashtags", "Just a caption", []string{}, "Just a caption"},
		{"hashtags without caption", "", []string{"fyp"}, "#fyp"},
		{"nothing at all", "", nil, ""},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			assert.Equal(t, testCase.expected, FormatCaption(testCase.caption, testCase.hashtags))
		})
	}
}

func TestTitleFromCaption(t *testing.T) {
	t.Run("short captions are kept whole", func(t *testing.T) {
		assert.Equal(t, "short", titleFromCaption("short"))
	})

	t.Run("long captions are cut to the title limit", func(t *testing.T) {
		title := titleFromCaption(strings.Repeat("a", 200))
		assert.Len(t, title, maxTitleLength)
	})

	t.Run("multi-byte characters are not split", func(t *testing.T) {
		title := titleFromCaption(strings.Repeat("日", 100))
		assert.Equal(t, maxTitleLength, len([]rune(title)))
		assert.Equal(t, strings.Repeat("日", maxTitleLength), title)
	})
}

func TestConstructVideoURL(t *testing.T) {
	assert.Equal(t, "https://www.tiktok.com/@creator/video/7300000000000000001", ConstructVideoURL("creator", "7300000000000000001"))
}
