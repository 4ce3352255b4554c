package transport

import "github.com/google/uuid"

type SignupRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
}

type SignupResponse struct {
	Message string    `json:"message"`
	UserID  uuid.UUID `json:"user_id"`
	Email   string    `json:"email"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token  string    `json:"token"`
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
