package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerAccountRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "changePassword",
		Method:        http.MethodPut,
		Path:          "/api/v1/me/password",
		Summary:       "Change password",
		Description:   "Replaces the password after confirming the current one, then logs out",
		Tags:          []string{"Account"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleChangePassword)

	huma.Register(s.api, huma.Operation{
		OperationID: "viewBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/me/recent",
		Summary:     "Record viewed book",
		Description: "Makes the book the user's most recent one",
		Tags:        []string{"Account"},
	}, s.handleViewBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "likeBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/me/likes",
		Summary:     "Like book",
		Description: "Adds the book to the liked list (at most 50)",
		Tags:        []string{"Account"},
	}, s.handleLike)

	huma.Register(s.api, huma.Operation{
		OperationID: "unlikeBook",
		Method:      http.MethodDelete,
		Path:        "/api/v1/me/likes",
		Summary:     "Unlike book",
		Description: "Removes every liked book with the given title",
		Tags:        []string{"Account"},
	}, s.handleUnlike)
}

// ChangePasswordRequest is the request body for a password change.
type ChangePasswordRequest struct {
	Confirmation string `json:"confirmation" minLength:"1" doc:"Current password"`
	NewPassword  string `json:"new_password" minLength:"1" doc:"New password"`
}

// ChangePasswordInput wraps the password change for Huma.
type ChangePasswordInput struct {
	Body ChangePasswordRequest
}

// UnlikeInput selects the liked book to remove.
type UnlikeInput struct {
	Title string `query:"title" required:"true" minLength:"1" doc:"Title of the book to unlike"`
}

func (s *Server) handleChangePassword(ctx context.Context, input *ChangePasswordInput) (*struct{}, error) {
	if err := s.services.Account.ChangePassword(ctx, input.Body.Confirmation, input.Body.NewPassword); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleViewBook(ctx context.Context, input *BookInput) (*UserOutput, error) {
	user, err := s.services.Account.ViewBook(ctx, input.Body.toDoc())
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: toUserResponse(user)}, nil
}

func (s *Server) handleLike(ctx context.Context, input *BookInput) (*UserOutput, error) {
	user, err := s.services.Account.Like(ctx, input.Body.toDoc())
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: toUserResponse(user)}, nil
}

func (s *Server) handleUnlike(ctx context.Context, input *UnlikeInput) (*UserOutput, error) {
	user, err := s.services.Account.Unlike(ctx, input.Title)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: toUserResponse(user)}, nil
}
