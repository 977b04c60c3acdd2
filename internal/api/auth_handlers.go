package api

import (
	"net/http"

	"github.com/grimoireapp/grimoire-server/internal/http/response"
)

// SignupRequest is the request body for account creation.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=1024"`
}

// LoginRequest is the request body for credential login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued token and the account it belongs to.
type LoginResponse struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := s.authService.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, map[string]string{"userId": user.ID}, s.logger)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	token, user, err := s.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, LoginResponse{UserID: user.ID, Token: token}, s.logger)
}
