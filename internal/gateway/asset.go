package gateway

import "strings"

// AssetBase is the origin image paths are resolved against: the API base
// with a trailing "/api" path segment removed.
func AssetBase(apiBase string) string {
	base := strings.TrimRight(strings.TrimSpace(apiBase), "/")
	if strings.HasSuffix(base, "/api") {
		base = strings.TrimSuffix(base, "/api")
	}
	return base
}

// ResolveAsset turns a relative image path returned by the remote API into a
// fetchable URL. Absolute URLs pass through unchanged.
func ResolveAsset(apiBase string, path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return AssetBase(apiBase) + path
}
