package dashboard

import "time"

// APIResponse is the envelope returned by every JSON endpoint.
type APIResponse struct {
	Status    string      `json:"status"`
	Timestamp string      `json:"timestamp"`
	Kind      string      `json:"kind,omitempty"`
	Data      interface{} `json:"data"`
}

// NewAPIResponse wraps payload data in a success envelope.
func NewAPIResponse(kind string, data interface{}) APIResponse {
	return APIResponse{
		Status:    "success",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Kind:      kind,
		Data:      data,
	}
}

// NewAPIError wraps an error message in a failure envelope.
func NewAPIError(kind, message string) APIResponse {
	return APIResponse{
		Status:    "error",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Kind:      kind,
		Data:      map[string]string{"error": message},
	}
}
