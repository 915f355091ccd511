package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

const RoleAdmin = "admin"

// Identity is the subject behind the current credential as reported by the
// remote "who am I" endpoint or the login response.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
}

// UnmarshalJSON accepts numeric and string ids.
func (i *Identity) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID    json.RawMessage `json:"id"`
		Name  string          `json:"name"`
		Email string          `json:"email"`
		Role  string          `json:"role"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	id, err := flexibleID(raw.ID)
	if err != nil {
		return fmt.Errorf("identity id: %w", err)
	}

	*i = Identity{ID: id, Name: raw.Name, Email: raw.Email, Role: raw.Role}
	return nil
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the registration profile sent to the remote API.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type AuthResponse struct {
	Token string   `json:"token"`
	User  Identity `json:"user"`
}

// User is a row of the admin-only users listing.
type User struct {
	Identity
	CreatedAt string `json:"createdAt,omitempty"`
}

func (u *User) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &u.Identity); err != nil {
		return err
	}

	var extra struct {
		CreatedAt string `json:"createdAt"`
	}
	if err := json.Unmarshal(data, &extra); err != nil {
		return err
	}
	u.CreatedAt = extra.CreatedAt
	return nil
}

func flexibleID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return "", err
	}
	return n.String(), nil
}
