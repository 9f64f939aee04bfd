// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for constructing JSON responses.
// Every endpoint answers with either a complete payload or an error object.

package http

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// Error messages returned to clients.
const (
	msgInvalidMonth = "Invalid month abbreviation"
	msgInternal     = "Internal Server Error"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(key, value string) *JSONResponseBuilder {
	b.headers[key] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Error sets an error status and the matching error body.
func (b *JSONResponseBuilder) Error(code int, message string) *JSONResponseBuilder {
	b.statusCode = code
	b.body = ErrorBody{Error: message}
	return b
}

// Send encodes the body and writes the response. The body is encoded before
// any header is written, so an encoding failure still yields a clean 500.
func (b *JSONResponseBuilder) Send(w http.ResponseWriter) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(b.body); err != nil {
		writeInternalError(w)
		return err
	}

	for key, value := range b.headers {
		w.Header().Set(key, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_, err := w.Write(buf.Bytes())
	return err
}

func writeInternalError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(`{"error":"` + msgInternal + `"}` + "\n"))
}
