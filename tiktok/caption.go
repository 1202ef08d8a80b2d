package tiktok

import (
	"fmt"
	"strings"
)

// TikTok truncates longer titles
const maxTitleLength = 80

// FormatCaption appends the hashtags to the caption the way TikTok expects them.
func FormatCaption(caption string, hashtags []string) string {
	tags := make([]string, 0, len(hashtags))
	for _, tag := range hashtags {
		tags = append(tags, "#"+tag)
	}
	return strings.TrimSpace(caption + " " + strings.Join(tags, " "))
}

// titleFromCaption cuts the caption to the title limit without splitting a character.
func titleFromCaption(caption string) string {
	runes := []rune(caption)
	if len(runes) <= maxTitleLength {
		return caption
	}
	return string(runes[:maxTitleLength])
}

func ConstructVideoURL(username string, videoID string) string {
	return fmt.Sprintf("https://www.tiktok.com/@%s/video/%s", username, videoID)
}
