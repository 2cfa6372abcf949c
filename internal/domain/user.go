package domain

import (
	"slices"
	"time"
)

// MaxLikedBooks is the most books a user can keep in their liked list.
const MaxLikedBooks = 50

// User is the record stored in the document store for every registered account.
// Field names match the stored JSON documents.
type User struct {
	Username     string       `json:"username" validate:"required,min=3,max=50"`
	Password     string       `json:"password" validate:"required,password"`
	Email        string       `json:"email" validate:"required,email,max=254"`
	PersonalInfo PersonalInfo `json:"personal_info"`
	RecentBook   *RecentBook  `json:"recent_book"`
	LikedBooks   []LikedBook  `json:"liked_books" validate:"max=50"`
}

// PersonalInfo holds the profile part of a user record.
type PersonalInfo struct {
	Name        string    `json:"name" validate:"required,max=100"`
	Surname     string    `json:"surname" validate:"required,max=100"`
	DateOfBirth time.Time `json:"date_of_birth"`
}

// RecentBook is the most recently viewed book.
type RecentBook struct {
	Title   string `json:"title"`
	Author  string `json:"author"`
	ISBN    string `json:"isbn"`
	Subject string `json:"subject"`
}

// LikedBook is a reference to a book the user liked.
type LikedBook struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	ISBN   string `json:"isbn"`
}

// Clone returns a deep copy so callers can mutate without touching session state.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.RecentBook != nil {
		rb := *u.RecentBook
		c.RecentBook = &rb
	}
	c.LikedBooks = slices.Clone(u.LikedBooks)
	return &c
}

// IsLiked reports whether a book with this title is in the liked list.
func (u *User) IsLiked(title string) bool {
	return slices.ContainsFunc(u.LikedBooks, func(b LikedBook) bool {
		return b.Title == title
	})
}

// CanLike reports whether another book fits in the liked list.
func (u *User) CanLike() bool {
	return len(u.LikedBooks) < MaxLikedBooks
}

// Like appends doc to the liked list.
// Returns false without changes if the book is already liked or the list is full.
func (u *User) Like(doc *Doc) bool {
	if u.IsLiked(doc.Title) || !u.CanLike() {
		return false
	}
	u.LikedBooks = append(u.LikedBooks, LikedBook{
		Title:  doc.Title,
		Author: doc.FirstAuthor(),
		ISBN:   doc.FirstISBN(),
	})
	return true
}

// Unlike removes every liked book with this title.
// Returns true if anything was removed.
func (u *User) Unlike(title string) bool {
	before := len(u.LikedBooks)
	u.LikedBooks = slices.DeleteFunc(u.LikedBooks, func(b LikedBook) bool {
		return b.Title == title
	})
	return len(u.LikedBooks) != before
}

// ViewBook records doc as the most recently viewed book.
// Returns false if it already is.
func (u *User) ViewBook(doc *Doc) bool {
	if u.RecentBook != nil && u.RecentBook.Title == doc.Title {
		return false
	}
	u.RecentBook = &RecentBook{
		Title:   doc.Title,
		Author:  doc.FirstAuthor(),
		ISBN:    doc.FirstISBN(),
		Subject: doc.FirstSubject(),
	}
	return true
}
