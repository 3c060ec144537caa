package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// StatusError reports a non-2xx answer from the backend.
type StatusError struct {
	Method  string
	Path    string
	Code    int
	Message string // backend-supplied message, when the body carried one
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api %s %s returned status %d: %s", e.Method, e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("api %s %s returned status %d", e.Method, e.Path, e.Code)
}

// StatusCode extracts the HTTP status from err, or 0 when err is not a
// *StatusError.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

func newStatusError(method, path string, resp *http.Response) *StatusError {
	se := &StatusError{Method: method, Path: path, Code: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return se
	}
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil {
		switch {
		case body.Message != "":
			se.Message = body.Message
		case body.Error != "":
			se.Message = body.Error
		}
		return se
	}
	se.Message = strings.TrimSpace(string(raw))
	return se
}
