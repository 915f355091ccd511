package handler

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"go-admin-console/internal/model"
	"go-admin-console/pkg/apierror"
)

const maxFieldBytes = 64 << 10

// readForm reads a dialog submission. Multipart bodies may carry image
// files; url-encoded bodies carry text fields only.
func readForm(w http.ResponseWriter, r *http.Request, maxUploadSize int64) (model.Form, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	form := model.Form{Fields: map[string]string{}}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		if err := r.ParseForm(); err != nil {
			return form, formError(err)
		}
		for key := range r.PostForm {
			form.Fields[key] = r.PostForm.Get(key)
		}
		return form, nil
	}

	reader, err := r.MultipartReader()
	if err != nil {
		return form, apierror.New(apierror.CodeBadRequest, "invalid multipart body", "", http.StatusBadRequest)
	}

	for {
		part, nextErr := reader.NextPart()
		if nextErr == io.EOF {
			break
		}
		if nextErr != nil {
			return form, formError(nextErr)
		}

		if part.FileName() == "" {
			value, readErr := io.ReadAll(io.LimitReader(part, maxFieldBytes))
			_ = part.Close()
			if readErr != nil {
				return form, formError(readErr)
			}
			form.Fields[part.FormName()] = string(value)
			continue
		}

		var buf bytes.Buffer
		_, copyErr := io.Copy(&buf, part)
		_ = part.Close()
		if copyErr != nil {
			return form, formError(copyErr)
		}
		form.Files = append(form.Files, model.Upload{Filename: part.FileName(), Data: buf.Bytes()})
	}

	return form, nil
}

func formError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apierror.New("PAYLOAD_TOO_LARGE", "request body exceeds MAX_UPLOAD_SIZE", "MAX_UPLOAD_SIZE", http.StatusRequestEntityTooLarge)
	}
	return apierror.New(apierror.CodeBadRequest, "invalid form body", err.Error(), http.StatusBadRequest)
}

// confirmed reports whether a delete request carries confirm=true.
func confirmed(r *http.Request) bool {
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("confirm"))) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}
