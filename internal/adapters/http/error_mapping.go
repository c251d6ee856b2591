package httpadapter

import (
	"context"
	"errors"
	"net/http"

	"github.com/ragforge/orchestrator/internal/core/domain"
)

const (
	codeConfiguration    = "configuration_error"
	codeConnection       = "connection_error"
	codeAuthentication   = "authentication_error"
	codeResourceNotFound = "resource_not_found"
	codeBadRequest       = "bad_request"
	codeGuardCheckFailed = "guard_check_failed"
	codeCompressor       = "compressor_error"
	codeUnknown          = "unknown_error"
)

func mapErrorToHTTPStatus(err error) (code string, status int) {
	switch {
	case domain.IsKind(err, domain.ErrGuardCheckFailed):
		return codeGuardCheckFailed, http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrConfiguration):
		return codeConfiguration, http.StatusBadRequest
	case domain.IsKind(err, domain.ErrBadRequest):
		return codeBadRequest, http.StatusBadRequest
	case domain.IsKind(err, domain.ErrAuthentication):
		return codeAuthentication, http.StatusUnauthorized
	case domain.IsKind(err, domain.ErrResourceNotFound):
		return codeResourceNotFound, http.StatusNotFound
	case domain.IsKind(err, domain.ErrConnection):
		return codeConnection, http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrCompressor):
		return codeCompressor, http.StatusInternalServerError
	case errors.Is(err, context.DeadlineExceeded):
		return codeConnection, http.StatusGatewayTimeout
	default:
		return codeUnknown, http.StatusInternalServerError
	}
}

type errorBody struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Detail  string   `json:"detail,omitempty"`
	Reasons []string `json:"reasons,omitempty"`

	Provider string `json:"provider,omitempty"`
	Request  string `json:"request,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func errorResponse(err error) (int, errorEnvelope) {
	code, status := mapErrorToHTTPStatus(err)

	body := errorBody{
		Code:    code,
		Message: err.Error(),
	}

	switch {
	case domain.IsKind(err, domain.ErrContextLengthExceeded):
		body.Detail = "context_length_exceeded"
	case domain.IsKind(err, domain.ErrModelNotFound):
		body.Detail = "model_not_found"
	case domain.IsKind(err, domain.ErrDeploymentNotFound):
		body.Detail = "deployment_not_found"
	case domain.IsKind(err, domain.ErrIndexNotFound):
		body.Detail = "index_not_found"
	case domain.IsKind(err, domain.ErrUnknownProviderSetting):
		body.Detail = "unknown_provider_setting"
	}

	var provErr *domain.ProviderError
	if errors.As(err, &provErr) {
		body.Provider = provErr.Provider
		if provErr.Method != "" && provErr.URL != "" {
			body.Request = provErr.Method + " " + provErr.URL
		}
	}

	var guardErr *domain.GuardError
	if errors.As(err, &guardErr) {
		body.Reasons = guardErr.Reasons
	}

	return status, errorEnvelope{Error: body}
}
