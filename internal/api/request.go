package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// MaxBodySize is the maximum allowed request body size (1 MB).
const MaxBodySize = 1 << 20

// ErrNotObject is returned when the body is valid JSON but not an object
var ErrNotObject = errors.New("request body must be a JSON object")

// DecodeJSONObject reads a request body that must be a single JSON object of
// arbitrary shape. It returns user-friendly error messages instead of leaking
// Go internals.
func DecodeJSONObject(r *http.Request) (map[string]interface{}, error) {
	if r.Body == nil {
		return nil, errors.New("request body is empty")
	}

	// Enforce max body size.
	r.Body = http.MaxBytesReader(nil, r.Body, MaxBodySize)

	var raw interface{}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, translateDecodeError(err)
	}

	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, ErrNotObject
	}
	return obj, nil
}

// translateDecodeError turns common JSON errors into friendly messages.
func translateDecodeError(err error) error {
	var syntaxErr *json.SyntaxError
	var maxBytesErr *http.MaxBytesError

	switch {
	case errors.As(err, &syntaxErr):
		return fmt.Errorf("malformed JSON at position %d", syntaxErr.Offset)
	case errors.Is(err, io.EOF):
		return errors.New("request body is empty")
	case errors.Is(err, io.ErrUnexpectedEOF):
		return errors.New("malformed JSON: unexpected end of input")
	case errors.As(err, &maxBytesErr):
		return fmt.Errorf("request body exceeds maximum size of %d bytes", MaxBodySize)
	default:
		return errors.New("invalid JSON in request body")
	}
}
