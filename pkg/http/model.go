package http

// APIResponse represents the standard response envelope used for errors.
type APIResponse struct {
	Status  int         `json:"status" example:"200"`
	Message string      `json:"message" example:"OK"`
	Data    interface{} `json:"data,omitempty"`
}

// APIResponse422Err represents a schema violation response.
type APIResponse422Err struct {
	Status  int               `json:"status" example:"422"`
	Message string            `json:"message" example:"Unprocessable Entity"`
	Data    []ValidationError `json:"data,omitempty"`
}

// ValidationError represents validation error detail.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_GT"`
	Field   string                 `json:"field,omitempty" example:"age"`
	Message string                 `json:"message,omitempty" example:"age must be greater than 0"`
	Params  map[string]interface{} `json:"params,omitempty"`
}
