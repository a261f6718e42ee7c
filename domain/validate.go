package domain

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	usernameRe = regexp.MustCompile(`^[a-z0-9._]{3,30}$`)
	hashtagRe  = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)
)

// NormalizeUsername lowercases and trims a handle, dropping a leading '@'.
func NormalizeUsername(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "@")
	return strings.ToLower(s)
}

// ValidateUsername checks a normalized handle.
func ValidateUsername(username string) error {
	if username == "" {
		return ErrEmptyUsername
	}
	if !usernameRe.MatchString(username) {
		return ErrInvalidUsername
	}
	if strings.HasPrefix(username, ".") || strings.HasSuffix(username, ".") || strings.Contains(username, "..") {
		return ErrInvalidUsername
	}
	return nil
}

// ValidateComment trims body and rejects blanks.
func ValidateComment(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", ErrEmptyComment
	}
	return body, nil
}

// ValidateMessage trims body and rejects blanks.
func ValidateMessage(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", ErrEmptyMessage
	}
	return body, nil
}

// ValidateCaption trims the caption and enforces MaxCaptionLength.
func ValidateCaption(caption string) (string, error) {
	caption = strings.TrimSpace(caption)
	if utf8.RuneCountInString(caption) > MaxCaptionLength {
		return "", ErrCaptionTooLong
	}
	return caption, nil
}

// Hashtags returns the distinct lowercase tags in text, in order of appearance.
func Hashtags(text string) []string {
	matches := hashtagRe.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		tag := strings.ToLower(m[1])
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// NormalizeHashtag strips '#' and whitespace and lowercases.
func NormalizeHashtag(tag string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
}

func formatCoords(lat, lng float64) string {
	return fmt.Sprintf("%.4f, %.4f", lat, lng)
}
