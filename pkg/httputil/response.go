// Package httputil holds the JSON response writers shared by the admin API
// and the mock engine.
package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// MaxBodySize bounds request bodies decoded by DecodeJSON.
const MaxBodySize = 1 << 20

// Message is the error envelope: {"message": "..."}.
type Message struct {
	Message string `json:"message"`
}

// WriteJSON writes data as JSON with the given status code.
// A nil data writes only the status.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteOK writes a 200 response with data.
func WriteOK(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, data)
}

// WriteNoContent writes a 204 No Content response.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteMessage writes {"message": message} with the given status.
func WriteMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Message{Message: message})
}

// WriteError writes err's text in the message envelope.
func WriteError(w http.ResponseWriter, status int, err error) {
	WriteMessage(w, status, err.Error())
}

// WriteBadRequest writes a 400 with err's text.
func WriteBadRequest(w http.ResponseWriter, err error) {
	WriteError(w, http.StatusBadRequest, err)
}

// WriteNotFound writes a 404 with err's text.
func WriteNotFound(w http.ResponseWriter, err error) {
	WriteError(w, http.StatusNotFound, err)
}

// WriteInternalError writes a 500 with err's text.
func WriteInternalError(w http.ResponseWriter, err error) {
	WriteError(w, http.StatusInternalServerError, err)
}

// DecodeJSON decodes the request body into v. An empty body is an error.
func DecodeJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodySize+1))
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}
	if len(body) > MaxBodySize {
		return errors.New("request body too large")
	}
	if len(body) == 0 {
		return errors.New("request body is empty")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}
