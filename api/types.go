package api

// listResponse is the envelope for collection endpoints.
type listResponse struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
	Data    any  `json:"data"`
}

type itemResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type uploadResponse struct {
	Success  bool   `json:"success"`
	ImageURL string `json:"imageUrl"`
}

type healthResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
}

// ErrorResponse represents an error response from the API
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message" example:"Blog not found"`
	Field   string `json:"field,omitempty" example:"title"`
}
