package api

import (
	"time"

	"github.com/listenupapp/shelfwise/internal/domain"
	"github.com/listenupapp/shelfwise/internal/session"
)

// PersonalInfo is the profile part of a user.
type PersonalInfo struct {
	Name        string    `json:"name" doc:"Given name"`
	Surname     string    `json:"surname" doc:"Family name"`
	DateOfBirth time.Time `json:"date_of_birth,omitzero" required:"false" doc:"Date of birth"`
}

// UserResponse is a user as returned by the API. It never carries the password.
type UserResponse struct {
	Username     string             `json:"username" doc:"Unique username"`
	Email        string             `json:"email" doc:"Unique email address"`
	PersonalInfo PersonalInfo       `json:"personal_info"`
	RecentBook   *domain.RecentBook `json:"recent_book,omitempty" doc:"Most recently viewed book"`
	LikedBooks   []domain.LikedBook `json:"liked_books" doc:"Liked books, oldest first"`
}

func toUserResponse(u *domain.User) *UserResponse {
	if u == nil {
		return nil
	}
	liked := u.LikedBooks
	if liked == nil {
		liked = []domain.LikedBook{}
	}
	return &UserResponse{
		Username: u.Username,
		Email:    u.Email,
		PersonalInfo: PersonalInfo{
			Name:        u.PersonalInfo.Name,
			Surname:     u.PersonalInfo.Surname,
			DateOfBirth: u.PersonalInfo.DateOfBirth,
		},
		RecentBook: u.RecentBook,
		LikedBooks: liked,
	}
}

// UserOutput wraps a user for Huma.
type UserOutput struct {
	Body *UserResponse
}

// SessionResponse describes the current session.
type SessionResponse struct {
	Authenticated bool          `json:"authenticated" doc:"Whether a user is logged in"`
	User          *UserResponse `json:"user,omitempty" doc:"The logged-in user"`
}

func toSessionResponse(st session.State) SessionResponse {
	return SessionResponse{Authenticated: st.Authenticated, User: toUserResponse(st.User)}
}

// BookRequest identifies a book by the fields of a search result.
type BookRequest struct {
	Title           string   `json:"title" minLength:"1" doc:"Book title"`
	AuthorName      []string `json:"author_name,omitempty" doc:"Authors, first is primary"`
	ISBN            []string `json:"isbn,omitempty" doc:"ISBNs"`
	Subject         []string `json:"subject,omitempty" doc:"Subjects, first is primary"`
	CoverI          int64    `json:"cover_i,omitempty" doc:"Cover id"`
	CoverEditionKey string   `json:"cover_edition_key,omitempty" doc:"Edition key of the cover"`
}

func (b BookRequest) toDoc() *domain.Doc {
	return &domain.Doc{
		Title:           b.Title,
		AuthorName:      b.AuthorName,
		ISBN:            b.ISBN,
		Subject:         b.Subject,
		CoverI:          b.CoverI,
		CoverEditionKey: b.CoverEditionKey,
	}
}

// BookInput wraps a book reference for Huma.
type BookInput struct {
	Body BookRequest
}

// SearchOutput wraps a search response for Huma.
type SearchOutput struct {
	Body *domain.SearchResponse
}
