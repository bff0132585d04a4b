// Package xurl provides helpers for data URLs carried in chat attachments.
package xurl

import "strings"

type DataURL struct {
	MediaType string
	Data      string
	IsBase64  bool
}

// ParseDataURL parses data:[<mediatype>][;base64],<data>. It returns nil for
// anything that is not a data URL.
func ParseDataURL(url string) *DataURL {
	if !IsDataURL(url) {
		return nil
	}
	header, data, ok := strings.Cut(url, ",")
	if !ok {
		return nil
	}
	parts := strings.Split(strings.TrimPrefix(header, "data:"), ";")
	mediaType := strings.ToLower(strings.TrimSpace(parts[0]))
	if mediaType == "" {
		mediaType = "text/plain"
	}
	isBase64 := false
	for _, p := range parts[1:] {
		if strings.TrimSpace(p) == "base64" {
			isBase64 = true
			break
		}
	}
	return &DataURL{MediaType: mediaType, Data: data, IsBase64: isBase64}
}

func IsDataURL(url string) bool {
	return strings.HasPrefix(url, "data:")
}

// MediaType returns the media type of a data URL, or "" for other URLs.
func MediaType(url string) string {
	if d := ParseDataURL(url); d != nil {
		return d.MediaType
	}
	return ""
}
