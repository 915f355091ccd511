package resource

import (
	"go-admin-console/internal/model"
)

type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type DialogMode int

const (
	DialogClosed DialogMode = iota
	DialogCreate
	DialogEdit
)

func (m DialogMode) String() string {
	switch m {
	case DialogCreate:
		return "create"
	case DialogEdit:
		return "edit"
	default:
		return "closed"
	}
}

func (m DialogMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Dialog is the create/edit form of a controller. ItemID is the record id,
// or the role tag for leader records.
type Dialog struct {
	Mode   DialogMode `json:"mode"`
	ItemID string     `json:"item_id,omitempty"`
	Form   model.Form `json:"-"`
	Error  string     `json:"error,omitempty"`
}

func (d Dialog) Open() bool {
	return d.Mode != DialogClosed
}

// Confirmer asks the operator to confirm a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Status is what a view needs to render a controller.
type Status struct {
	State     State    `json:"state"`
	Error     string   `json:"error,omitempty"`
	Dialog    Dialog   `json:"dialog"`
	Busy      bool     `json:"busy"`
	CanMutate bool     `json:"can_mutate"`
	Notices   []string `json:"notices,omitempty"`
}
