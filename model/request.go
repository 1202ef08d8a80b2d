package model

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// ErrInvalidRequest is returned for caller input that can never succeed.
var ErrInvalidRequest = errors.New("invalid request")

// PostRequest is a validated request to publish a video from a URL.
type PostRequest struct {
	VideoURL string   `json:"video_url"`
	Caption  string   `json:"caption"`
	Hashtags []string `json:"hashtags"`
}

// NewPostRequest validates the video URL and normalizes hashtags. Caption and
// hashtags default to empty values.
func NewPostRequest(videoURL string, caption string, hashtags []string) (PostRequest, error) {
	videoURL, err := ValidateVideoURL(videoURL)
	if err != nil {
		return PostRequest{}, err
	}
	return PostRequest{
		VideoURL: videoURL,
		Caption:  strings.TrimSpace(caption),
		Hashtags: NormalizeHashtags(hashtags),
	}, nil
}

// FilePostRequest is a validated request to publish a local video file.
type FilePostRequest struct {
	Path     string
	Size     int64
	Caption  string
	Hashtags []string
}

// NewFilePostRequest checks that path names a non-empty regular .mp4 file.
func NewFilePostRequest(path string, caption string, hashtags []string) (FilePostRequest, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return FilePostRequest{}, fmt.Errorf("%w: file path is required", ErrInvalidRequest)
	}
	if !strings.EqualFold(filepath.Ext(path), ".mp4") {
		return FilePostRequest{}, fmt.Errorf("%w: only .mp4 files can be uploaded: %q", ErrInvalidRequest, path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return FilePostRequest{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if !info.Mode().IsRegular() {
		return FilePostRequest{}, fmt.Errorf("%w: not a regular file: %q", ErrInvalidRequest, path)
	}
	if info.Size() == 0 {
		return FilePostRequest{}, fmt.Errorf("%w: file is empty: %q", ErrInvalidRequest, path)
	}
	return FilePostRequest{
		Path:     path,
		Size:     info.Size(),
		Caption:  strings.TrimSpace(caption),
		Hashtags: NormalizeHashtags(hashtags),
	}, nil
}

// ValidateVideoURL trims the URL and checks that it is an absolute http(s) URL.
func ValidateVideoURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: video_url is required", ErrInvalidRequest)
	}
	parsed, err := url.ParseRequestURI(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: video_url is not a valid URL: %q", ErrInvalidRequest, trimmed)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("%w: video_url must use http or https: %q", ErrInvalidRequest, trimmed)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("%w: video_url has no host: %q", ErrInvalidRequest, trimmed)
	}
	return trimmed, nil
}

// NormalizeHashtags strips leading '#' characters and embedded whitespace, drops
// empty tags, and removes duplicates (case-insensitively) keeping the first
// spelling seen. The result is never nil.
func NormalizeHashtags(hashtags []string) []string {
	normalized := make([]string, 0, len(hashtags))
	seen := make(map[string]bool, len(hashtags))
	for _, tag := range hashtags {
		tag = strings.TrimLeft(removeWhitespace(tag), "#")
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		normalized = append(normalized, tag)
	}
	return normalized
}

func removeWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
