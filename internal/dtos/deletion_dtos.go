package dtos

// RequestDeletionRequest is the body of the deletion-request endpoint.
type RequestDeletionRequest struct {
	ID    string `json:"id" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

// HealthCheckResponse is returned by the health endpoint.
type HealthCheckResponse struct {
	Status string `json:"status"`
}
