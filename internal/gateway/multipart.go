package gateway

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/textproto"
	"path/filepath"
	"strings"

	"go-admin-console/internal/util"
)

type formField struct {
	name  string
	value string
}

type formFile struct {
	field    string
	filename string
	data     []byte
}

// Multipart is an ordered multipart/form-data payload of text fields and
// binary attachments.
type Multipart struct {
	fields []formField
	files  []formFile
}

func (m *Multipart) AddField(name string, value string) {
	m.fields = append(m.fields, formField{name: name, value: value})
}

func (m *Multipart) AddFile(field string, filename string, data []byte) {
	m.files = append(m.files, formFile{field: field, filename: filename, data: data})
}

func (m *Multipart) FileCount() int {
	return len(m.files)
}

func (m *Multipart) Encode() (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)

	for _, field := range m.fields {
		if err := writer.WriteField(field.name, field.value); err != nil {
			return nil, "", err
		}
	}

	for _, file := range m.files {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="`+escapeQuotes(file.field)+`"; filename="`+escapeQuotes(file.filename)+`"`)
		header.Set("Content-Type", util.DetectMIME(file.data, filepath.Ext(file.filename)))

		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(file.data); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return buf, writer.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
