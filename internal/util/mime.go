package util

import (
	"mime"
	"net/http"
	"strings"
)

// DetectMIME sniffs data and falls back to the extension when sniffing only
// yields a generic type.
func DetectMIME(data []byte, extension string) string {
	sniffLen := len(data)
	if sniffLen > 512 {
		sniffLen = 512
	}
	detected := http.DetectContentType(data[:sniffLen])

	if detected == "application/octet-stream" || strings.HasPrefix(detected, "text/plain") {
		if byExt := mime.TypeByExtension(strings.ToLower(extension)); byExt != "" {
			return byExt
		}
	}
	return detected
}

func IsImageMIME(mimeType string) bool {
	cleaned := strings.ToLower(strings.TrimSpace(mimeType))
	return strings.HasPrefix(cleaned, "image/")
}

func IsImageExtension(extension string) bool {
	switch strings.ToLower(strings.TrimSpace(extension)) {
	case ".png", ".jpg", ".jpeg", ".jfif", ".gif", ".webp", ".bmp", ".tiff", ".tif", ".svg", ".ico", ".avif", ".heic":
		return true
	default:
		return false
	}
}
