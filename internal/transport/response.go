package transport

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

var ErrBadRequestBody = errors.New("invalid request body")

type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// JSON writes {"success":true,"data":...}.
func JSON(w http.ResponseWriter, status int, data any) {
	write(w, status, envelope{Success: true, Data: data})
}

// Error writes {"success":false,"error":{"message":...}}.
func Error(w http.ResponseWriter, status int, message string) {
	write(w, status, envelope{Error: &errorBody{Message: message}})
}

func FieldErrors(w http.ResponseWriter, status int, message string, fields map[string]string) {
	write(w, status, envelope{Error: &errorBody{Message: message, Fields: fields}})
}

// Raw writes v without the envelope, for callers with their own contract.
func Raw(w http.ResponseWriter, status int, v any) {
	write(w, status, v)
}

func write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L().Warn("failed to write response", zap.Error(err))
	}
}

// Decode reads a JSON body of at most 1MB into dst, rejecting unknown fields.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return ErrBadRequestBody
	}
	return nil
}

// ReadBody returns the raw body, capped at 1MB.
func ReadBody(r *http.Request) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
}
