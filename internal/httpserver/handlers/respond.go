package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"todorbac/internal/apperr"
)

const maxBodyBytes = 1 << 20

// Envelope is the uniform response body for every API endpoint.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func respondOK(w http.ResponseWriter, status int, data any, msg string) {
	respondJSON(w, status, Envelope{Success: true, Data: data, Message: msg})
}

// RespondError maps err to its status and a caller-safe message. The full
// error, including any store diagnostics, only goes to the log.
func RespondError(w http.ResponseWriter, r *http.Request, lg *zap.SugaredLogger, err error) {
	kind := apperr.KindOf(err)
	status := apperr.Status(kind)
	fields := []interface{}{
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()),
		"kind", kind,
		"error", err,
	}
	switch {
	case status >= http.StatusInternalServerError:
		lg.Errorw("request failed", fields...)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		lg.Infow("request denied", fields...)
	default:
		lg.Debugw("request rejected", fields...)
	}
	respondJSON(w, status, Envelope{Success: false, Data: nil, Message: apperr.PublicMessage(err)})
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	return decodeBody(w, r, v, false)
}

// decodeOptional is decode for endpoints where the body may be absent,
// including chunked requests that turn out to be empty.
func decodeOptional(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	return decodeBody(w, r, v, true)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any, optional bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.New(apperr.KindValidation, "request body too large")
		}
		return apperr.Wrap(apperr.KindValidation, "invalid request body", err)
	}
	return nil
}
