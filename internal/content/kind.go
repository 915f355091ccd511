// Package content describes the editable sections of the public site: which
// text fields each one carries, which are mandatory, and how its images are
// uploaded.
package content

import (
	"fmt"
	"strings"

	"go-admin-console/internal/gateway"
	"go-admin-console/internal/model"
	"go-admin-console/internal/util"
)

type Field struct {
	Name      string
	Label     string
	Required  bool
	Multiline bool
}

// ImageRule says how a kind uploads images. Images are mandatory when an
// item is created and optional on edit, where omission keeps the stored one.
type ImageRule struct {
	Field            string
	Multiple         bool
	RequiredOnCreate bool
	Message          string
}

type Kind struct {
	Name   string
	Label  string
	Noun   string
	Fields []Field
	Image  ImageRule
}

// ValidationError is a client-side form failure. It is shown inline in the
// dialog and never reaches the remote API.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return model.ErrValidation
}

// Validate checks form for a create (editing false) or an edit. For leader
// records editing means a record already exists for the role.
func (k Kind) Validate(form model.Form, editing bool) error {
	if !editing && k.Image.RequiredOnCreate && len(form.Files) == 0 {
		return &ValidationError{Field: k.Image.Field, Message: k.Image.Message}
	}

	for _, field := range k.Fields {
		if field.Required && strings.TrimSpace(form.Field(field.Name)) == "" {
			return &ValidationError{Field: field.Name, Message: field.Label + " is required"}
		}
	}

	if !k.Image.Multiple && len(form.Files) > 1 {
		return &ValidationError{Field: k.Image.Field, Message: "Only one image can be uploaded"}
	}

	for _, file := range form.Files {
		if _, err := util.SanitizeUploadName(file.Filename); err != nil {
			return &ValidationError{Field: k.Image.Field, Message: "Image file name is invalid"}
		}
		if _, err := util.InspectImage(file.Filename, file.Data); err != nil {
			return &ValidationError{Field: k.Image.Field, Message: fmt.Sprintf("%s is not a valid image", file.Filename)}
		}
	}

	return nil
}

// Payload assembles the multipart body: trimmed text fields in declaration
// order followed by the image attachments.
func (k Kind) Payload(form model.Form) (*gateway.Multipart, error) {
	payload := &gateway.Multipart{}
	for _, field := range k.Fields {
		payload.AddField(field.Name, strings.TrimSpace(form.Field(field.Name)))
	}

	for _, file := range form.Files {
		name, err := util.SanitizeUploadName(file.Filename)
		if err != nil {
			return nil, err
		}
		payload.AddFile(k.Image.Field, name, file.Data)
	}

	return payload, nil
}

// FieldSource is anything that exposes text fields by name.
type FieldSource interface {
	Field(name string) string
}

// Prefill copies an item's text fields into a fresh edit form. Image files
// start empty.
func (k Kind) Prefill(item FieldSource) model.Form {
	fields := make(map[string]string, len(k.Fields))
	for _, field := range k.Fields {
		fields[field.Name] = item.Field(field.Name)
	}
	return model.Form{Fields: fields}
}

func (k Kind) EmptyNotice() string {
	return fmt.Sprintf("No %s found. Click Add to create one.", strings.ToLower(k.Label))
}

func (k Kind) ReadOnlyNotice() string {
	return fmt.Sprintf("You can view %s. Only admins can add/edit/delete.", strings.ToLower(k.Label))
}

func (k Kind) LoadFailedMessage() string {
	return "Failed to load " + strings.ToLower(k.Label)
}

func (k Kind) SaveFailedMessage() string {
	return "Failed to save " + k.Noun
}

func (k Kind) DeleteFailedMessage() string {
	return "Failed to delete " + k.Noun
}

func (k Kind) DeletePrompt() string {
	return "Delete this " + k.Noun + "?"
}
