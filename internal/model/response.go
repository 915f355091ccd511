package model

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *Meta     `json:"meta,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type Meta struct {
	Total    int      `json:"total"`
	CacheHit bool     `json:"cache_hit"`
	Notices  []string `json:"notices,omitempty"`
}

// RemoteError is the error body shape of the remote content API.
type RemoteError struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
