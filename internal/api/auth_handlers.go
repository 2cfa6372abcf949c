package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/shelfwise/internal/domain"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getSession",
		Method:      http.MethodGet,
		Path:        "/api/v1/session",
		Summary:     "Current session",
		Description: "Returns whether a user is logged in and who",
		Tags:        []string{"Authentication"},
	}, s.handleGetSession)

	huma.Register(s.api, huma.Operation{
		OperationID:   "register",
		Method:        http.MethodPost,
		Path:          "/api/v1/auth/register",
		Summary:       "Register new user",
		Description:   "Creates a user if the username and email are unused, then logs it in",
		Tags:          []string{"Authentication"},
		DefaultStatus: http.StatusCreated,
	}, s.handleRegister)

	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "User login",
		Description: "Authenticates by username and password",
		Tags:        []string{"Authentication"},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID:   "logout",
		Method:        http.MethodPost,
		Path:          "/api/v1/auth/logout",
		Summary:       "Logout",
		Description:   "Clears the session and forgets the remembered user",
		Tags:          []string{"Authentication"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleLogout)

	huma.Register(s.api, huma.Operation{
		OperationID: "restore",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/restore",
		Summary:     "Restore last user",
		Description: "Logs in again with the user remembered on this device",
		Tags:        []string{"Authentication"},
	}, s.handleRestore)
}

// === DTOs ===

// RegisterRequest is the request body for registration.
type RegisterRequest struct {
	Username     string       `json:"username" doc:"Unique username"`
	Password     string       `json:"password" doc:"8-25 letters and digits with an uppercase letter and a digit"`
	Email        string       `json:"email" doc:"Unique email address"`
	PersonalInfo PersonalInfo `json:"personal_info"`
}

// RegisterInput wraps the registration request for Huma.
type RegisterInput struct {
	Body RegisterRequest
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Username string `json:"username" minLength:"1" doc:"Username"`
	Password string `json:"password" minLength:"1" doc:"Password"`
}

// LoginInput wraps the login request for Huma.
type LoginInput struct {
	Body LoginRequest
}

// SessionOutput wraps the session for Huma.
type SessionOutput struct {
	Body SessionResponse
}

// === Handlers ===

func (s *Server) handleGetSession(_ context.Context, _ *struct{}) (*SessionOutput, error) {
	return &SessionOutput{Body: toSessionResponse(s.services.Account.Session())}, nil
}

func (s *Server) handleRegister(ctx context.Context, input *RegisterInput) (*UserOutput, error) {
	dob := input.Body.PersonalInfo.DateOfBirth
	if !dob.IsZero() {
		dob = dob.UTC().Truncate(24 * time.Hour)
	}

	user, err := s.services.Account.Register(ctx, &domain.User{
		Username: input.Body.Username,
		Password: input.Body.Password,
		Email:    input.Body.Email,
		PersonalInfo: domain.PersonalInfo{
			Name:        input.Body.PersonalInfo.Name,
			Surname:     input.Body.PersonalInfo.Surname,
			DateOfBirth: dob,
		},
	})
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: toUserResponse(user)}, nil
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*UserOutput, error) {
	user, err := s.services.Account.Login(ctx, input.Body.Username, input.Body.Password)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: toUserResponse(user)}, nil
}

func (s *Server) handleLogout(ctx context.Context, _ *struct{}) (*struct{}, error) {
	if err := s.services.Account.Logout(ctx); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleRestore(ctx context.Context, _ *struct{}) (*UserOutput, error) {
	user, err := s.services.Account.Restore(ctx)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: toUserResponse(user)}, nil
}
