package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cardealbroker/dealbroker/pkg/dealbroker/apperr"
)

// errorBody mirrors the {"detail": ...} shape the frontend already handles.
type errorBody struct {
	Detail string            `json:"detail"`
	Code   apperr.Code       `json:"code"`
	Errors map[string]string `json:"errors,omitempty"`
}

func (h *httpServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("encode response", "error", err)
	}
}

func (h *httpServer) writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		h.log.Error("write response", "error", err)
	}
}

func (h *httpServer) writeError(w http.ResponseWriter, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		appErr = apperr.Internal("internal server error", err)
	}
	if appErr.Code == apperr.CodeInternal {
		h.log.Error("request failed", "error", err)
	}
	body := errorBody{Detail: appErr.Message, Code: appErr.Code, Errors: appErr.Details}
	if appErr.Code == apperr.CodeInternal {
		body.Detail = "internal server error"
	}
	h.writeJSON(w, appErr.Code.HTTPStatus(), body)
}
