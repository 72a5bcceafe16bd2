// Package httpx reúne el sobre JSON común a todas las respuestas y los
// helpers de request/response que comparten los handlers.
package httpx

import (
	"encoding/json"
	"net/http"

	"vet-clinic/internal/platform/apperr"
	"vet-clinic/internal/platform/logger"
	"vet-clinic/internal/platform/pagination"
	"vet-clinic/internal/platform/validation"
)

const (
	MsgValidation = "Errores de validación"
	MsgInternal   = "Error interno del servidor"
	MsgInvalidID  = "El ID debe ser un número válido"
)

// Envelope es el sobre {success, message, data, ...} de todas las respuestas.
type Envelope struct {
	Success    bool                    `json:"success"`
	Message    string                  `json:"message"`
	Data       any                     `json:"data,omitempty"`
	Pagination *pagination.Meta        `json:"pagination,omitempty"`
	Count      *int                    `json:"count,omitempty"`
	Errors     []validation.FieldError `json:"errors,omitempty"`
	Field      string                  `json:"field,omitempty"`
	Error      string                  `json:"error,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func OK(w http.ResponseWriter, msg string, data any) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Message: msg, Data: data})
}

func Created(w http.ResponseWriter, msg string, data any) {
	WriteJSON(w, http.StatusCreated, Envelope{Success: true, Message: msg, Data: data})
}

// List responde una colección con su count.
func List(w http.ResponseWriter, msg string, data any, count int) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Message: msg, Data: data, Count: &count})
}

// Page responde una colección con metadata de paginación.
func Page(w http.ResponseWriter, msg string, data any, meta pagination.Meta) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Message: msg, Data: data, Pagination: &meta})
}

func Fail(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, Envelope{Success: false, Message: msg})
}

// WriteError traduce err al status y sobre correspondientes:
// validación y apperr.KindInvalid -> 400, KindNotFound -> 404,
// KindConflict -> 409, cualquier otro -> 500 (se loguea).
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	if asValidation(err, &verr) {
		WriteJSON(w, http.StatusBadRequest, Envelope{
			Success: false,
			Message: MsgValidation,
			Errors:  verr.Fields,
		})
		return
	}

	if e, ok := apperr.As(err); ok {
		status := http.StatusInternalServerError
		switch e.Kind {
		case apperr.KindInvalid:
			status = http.StatusBadRequest
		case apperr.KindNotFound:
			status = http.StatusNotFound
		case apperr.KindConflict:
			status = http.StatusConflict
		}
		WriteJSON(w, status, Envelope{Success: false, Message: e.Message, Field: e.Field})
		return
	}

	logger.FromContext(r.Context()).Error("request failed", map[string]any{
		"method": r.Method,
		"path":   r.URL.Path,
		"error":  err.Error(),
	})
	WriteJSON(w, http.StatusInternalServerError, Envelope{
		Success: false,
		Message: MsgInternal,
		Error:   err.Error(),
	})
}
