package util

import (
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"go-admin-console/pkg/apierror"
)

var unsafeNameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

const maxUploadNameRunes = 200

// SanitizeUploadName makes a client supplied filename safe to send as a
// multipart filename: path components, control and invisible characters are
// dropped, reserved characters replaced, and the result is truncated by runes
// while keeping the extension.
func SanitizeUploadName(name string) (string, error) {
	base := filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if base == "." || base == "/" || base == "" {
		return "", apierror.New(apierror.CodeValidation, "File name is required", name, http.StatusBadRequest)
	}

	var b strings.Builder
	for _, r := range base {
		if unicode.IsControl(r) || unicode.Is(unicode.Cf, r) {
			continue
		}
		b.WriteRune(r)
	}

	cleaned := strings.TrimSpace(unsafeNameChars.ReplaceAllString(b.String(), "_"))
	cleaned = strings.TrimLeft(cleaned, ".")
	if cleaned == "" {
		return "", apierror.New(apierror.CodeValidation, "File name is invalid", name, http.StatusBadRequest)
	}

	runes := []rune(cleaned)
	if len(runes) > maxUploadNameRunes {
		ext := []rune(filepath.Ext(cleaned))
		if len(ext) >= maxUploadNameRunes {
			ext = nil
		}
		runes = append(runes[:maxUploadNameRunes-len(ext)], ext...)
	}

	return string(runes), nil
}
