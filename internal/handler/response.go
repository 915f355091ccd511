package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"go-admin-console/internal/content"
	"go-admin-console/internal/model"
	"go-admin-console/pkg/apierror"
)

func writeSuccess(w http.ResponseWriter, status int, data any, meta *model.Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := &model.APIError{
		Code:    apierror.CodeInternal,
		Message: "Unexpected console error",
	}

	var (
		apiErr *apierror.APIError
		verr   *content.ValidationError
	)
	if errors.As(err, &verr) {
		status = http.StatusUnprocessableEntity
		body.Code = apierror.CodeValidation
		body.Message = verr.Message
		body.Details = verr.Field
	} else if errors.As(err, &apiErr) {
		status = apiErr.HTTPStatus
		body.Code = apiErr.Code
		body.Message = apiErr.Message
		body.Details = apiErr.Details
		if status == 0 {
			status = http.StatusBadGateway
		}
		if body.Message == "" {
			body.Message = "The content API request failed"
		}
	} else if errors.Is(err, model.ErrNotConfirmed) {
		status = http.StatusPreconditionRequired
		body.Code = "CONFIRMATION_REQUIRED"
		body.Message = "Deletion must be confirmed with confirm=true"
	} else if errors.Is(err, model.ErrMutationInFlight) {
		status = http.StatusConflict
		body.Code = apierror.CodeMutationInFlight
		body.Message = "Another change is still being saved"
	} else if errors.Is(err, model.ErrItemNotFound) {
		status = http.StatusNotFound
		body.Code = apierror.CodeNotFound
		body.Message = "Item not found"
		body.Details = err.Error()
	} else if errors.Is(err, model.ErrForbidden) {
		status = http.StatusForbidden
		body.Code = apierror.CodeForbidden
		body.Message = "Access denied"
	} else if errors.Is(err, model.ErrUnauthorized) || errors.Is(err, model.ErrNoSession) {
		status = http.StatusUnauthorized
		body.Code = apierror.CodeUnauthorized
		body.Message = "Authentication required"
	} else if errors.Is(err, model.ErrInvalidInput) {
		status = http.StatusBadRequest
		body.Code = apierror.CodeBadRequest
		body.Message = "Invalid input"
		body.Details = err.Error()
	} else {
		slog.Error("unhandled error in writeError", "error", err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error:   body,
	})
}
