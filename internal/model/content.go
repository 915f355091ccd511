package model

import "encoding/json"

// Item is one server-owned record of a content section. Type specific text
// fields live in Fields; image references are relative paths returned by the
// remote API.
type Item struct {
	ID         string            `json:"id"`
	Fields     map[string]string `json:"fields"`
	ImagePath  string            `json:"imagePath,omitempty"`
	ImagePaths []string          `json:"imagePaths,omitempty"`
}

func (it Item) Key() string {
	return it.ID
}

func (it Item) Field(name string) string {
	return it.Fields[name]
}

// Images returns every image path of the item, single image first.
func (it Item) Images() []string {
	out := make([]string, 0, len(it.ImagePaths)+1)
	if it.ImagePath != "" {
		out = append(out, it.ImagePath)
	}
	out = append(out, it.ImagePaths...)
	return out
}

// UnmarshalJSON flattens the remote representation, where text fields sit next
// to id and image paths, into Fields.
func (it *Item) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := Item{Fields: map[string]string{}}
	for key, value := range raw {
		switch key {
		case "id", "_id":
			id, err := flexibleID(value)
			if err != nil {
				return err
			}
			if out.ID == "" || key == "id" {
				out.ID = id
			}
		case "imagePath":
			_ = json.Unmarshal(value, &out.ImagePath)
		case "imagePaths", "images":
			_ = json.Unmarshal(value, &out.ImagePaths)
		default:
			var s string
			if err := json.Unmarshal(value, &s); err == nil {
				out.Fields[key] = s
			}
		}
	}

	*it = out
	return nil
}

// MarshalJSON writes the flat remote representation back out.
func (it Item) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(it.Fields)+3)
	for key, value := range it.Fields {
		flat[key] = value
	}
	flat["id"] = it.ID
	if it.ImagePath != "" {
		flat["imagePath"] = it.ImagePath
	}
	if len(it.ImagePaths) > 0 {
		flat["imagePaths"] = it.ImagePaths
	}
	return json.Marshal(flat)
}

// Upload is one binary attachment of a multipart save.
type Upload struct {
	Filename string
	Data     []byte
}

// Form is the editable state of a create/edit dialog.
type Form struct {
	Fields map[string]string
	Files  []Upload
}

func (f Form) Field(name string) string {
	if f.Fields == nil {
		return ""
	}
	return f.Fields[name]
}
