// Package resterr maps backend REST error envelopes to Go errors.
package resterr

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/comrade-chat/comrade-client/internal/models"
	"github.com/go-resty/resty/v2"
)

// APIError is a non-2xx response from the backend. The body envelope is
// {"message": "..."} when the backend has anything to say.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Message)
}

// From inspects a completed resty response and returns nil for success, a
// sentinel for 404, or an *APIError otherwise.
func From(resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}

	apiErr := &APIError{Status: resp.StatusCode()}
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err == nil {
		apiErr.Message = body.Message
	}

	if resp.StatusCode() == http.StatusNotFound {
		return fmt.Errorf("%w: %s", models.ErrNotFound, apiErr.Message)
	}
	return apiErr
}
