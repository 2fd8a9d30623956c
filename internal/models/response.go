package models

// ErrorResponse is the envelope for failed requests
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     Error  `json:"error"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Error represents an API error
type Error struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Field   string      `json:"field,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse is the envelope for successful requests
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message *string     `json:"message,omitempty"`
}

// ImportPreviewResponse is returned by the upload endpoints
type ImportPreviewResponse struct {
	Success bool           `json:"success"`
	Preview *ImportPreview `json:"preview"`
	Job     *ImportJob     `json:"job,omitempty"`
}
