package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-admin-console/internal/content"
	"go-admin-console/internal/model"
	"go-admin-console/pkg/apierror"
)

func TestWriteError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", &content.ValidationError{Field: "image", Message: "Image file is required"}, http.StatusUnprocessableEntity, apierror.CodeValidation},
		{"remote", apierror.New(apierror.CodeForbidden, "Admin access required", "", http.StatusForbidden), http.StatusForbidden, apierror.CodeForbidden},
		{"not confirmed", model.ErrNotConfirmed, http.StatusPreconditionRequired, "CONFIRMATION_REQUIRED"},
		{"in flight", model.ErrMutationInFlight, http.StatusConflict, apierror.CodeMutationInFlight},
		{"missing item", fmt.Errorf("%w: about detail %q", model.ErrItemNotFound, "x"), http.StatusNotFound, apierror.CodeNotFound},
		{"invalid input", fmt.Errorf("%w: unknown leader role", model.ErrInvalidInput), http.StatusBadRequest, apierror.CodeBadRequest},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, apierror.CodeInternal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tc.err)

			assert.Equal(t, tc.status, rec.Code)
			var body model.APIResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.False(t, body.Success)
			assert.Equal(t, tc.code, body.Error.Code)
			assert.NotEmpty(t, body.Error.Message)
		})
	}
}

func TestReadForm(t *testing.T) {
	t.Parallel()

	t.Run("multipart fields and files", func(t *testing.T) {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		require.NoError(t, writer.WriteField("title", "Fair"))
		part, err := writer.CreateFormFile("images", "a.png")
		require.NoError(t, err)
		_, _ = part.Write([]byte("png-bytes"))
		require.NoError(t, writer.Close())

		req := httptest.NewRequest(http.MethodPost, "/gallery-details", body)
		req.Header.Set("Content-Type", writer.FormDataContentType())

		form, err := readForm(httptest.NewRecorder(), req, 1<<20)
		require.NoError(t, err)
		assert.Equal(t, "Fair", form.Field("title"))
		require.Len(t, form.Files, 1)
		assert.Equal(t, "a.png", form.Files[0].Filename)
		assert.Equal(t, []byte("png-bytes"), form.Files[0].Data)
	})

	t.Run("url encoded", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/about-details/1", strings.NewReader("title=T&description=D"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		form, err := readForm(httptest.NewRecorder(), req, 1<<20)
		require.NoError(t, err)
		assert.Equal(t, "D", form.Field("description"))
		assert.Empty(t, form.Files)
	})

	t.Run("too large", func(t *testing.T) {
		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		part, err := writer.CreateFormFile("image", "big.png")
		require.NoError(t, err)
		_, _ = part.Write(bytes.Repeat([]byte{1}, 4096))
		require.NoError(t, writer.Close())

		req := httptest.NewRequest(http.MethodPost, "/about-details", body)
		req.Header.Set("Content-Type", writer.FormDataContentType())

		_, err = readForm(httptest.NewRecorder(), req, 512)
		assert.True(t, apierror.HasCode(err, "PAYLOAD_TOO_LARGE"))
	})
}

func TestRedirectTarget(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/about-details?page=2", redirectTarget("/about-details?page=2"))
	assert.Equal(t, "/", redirectTarget(""))
	assert.Equal(t, "/", redirectTarget("https://evil.test/"))
	assert.Equal(t, "/", redirectTarget("//evil.test"))
	assert.Equal(t, "/", redirectTarget("/login"))
	assert.Equal(t, "/", redirectTarget("/unknown"))
}

func TestConfirmed(t *testing.T) {
	t.Parallel()

	for raw, want := range map[string]bool{"true": true, "1": true, "YES": true, "": false, "false": false} {
		req := httptest.NewRequest(http.MethodDelete, "/about-details/1?confirm="+raw, nil)
		assert.Equal(t, want, confirmed(req), raw)
	}
}
