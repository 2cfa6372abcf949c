// Package domain contains the records exchanged with the bibliographic API
// and the document store.
package domain

import (
	"fmt"
	"strings"
)

// Doc is a bibliographic search result. It is owned by the search API and
// never modified here.
type Doc struct {
	Key                 string   `json:"key"`
	Type                string   `json:"type"`
	Title               string   `json:"title"`
	AuthorName          []string `json:"author_name,omitempty"`
	Publisher           []string `json:"publisher,omitempty"`
	Language            []string `json:"language,omitempty"`
	ISBN                []string `json:"isbn,omitempty"`
	CoverI              int64    `json:"cover_i,omitempty"`
	FirstPublishYear    int      `json:"first_publish_year,omitempty"`
	EditionCount        int      `json:"edition_count,omitempty"`
	NumberOfPagesMedian int      `json:"number_of_pages_median,omitempty"`
	Subject             []string `json:"subject,omitempty"`
	EditionKey          []string `json:"edition_key,omitempty"`
	CoverEditionKey     string   `json:"cover_edition_key,omitempty"`
	RatingsAverage      float64  `json:"ratings_average,omitempty"`
}

// SearchResponse is the body of a search API response.
type SearchResponse struct {
	Start    int   `json:"start"`
	NumFound int   `json:"numFound"`
	Docs     []Doc `json:"docs"`
}

// FirstAuthor returns the first listed author or "".
func (d *Doc) FirstAuthor() string {
	return first(d.AuthorName)
}

// FirstISBN returns the first listed ISBN or "".
func (d *Doc) FirstISBN() string {
	return first(d.ISBN)
}

// FirstSubject returns the first listed subject or "".
func (d *Doc) FirstSubject() string {
	return first(d.Subject)
}

// CoverURL returns the large cover image URL under base, preferring the
// cover edition key, then the cover id, then the first ISBN.
// Returns "" when the doc has no cover reference.
func (d *Doc) CoverURL(base string) string {
	base = strings.TrimRight(base, "/")
	switch {
	case d.CoverEditionKey != "":
		return fmt.Sprintf("%s/b/olid/%s-L.jpg", base, d.CoverEditionKey)
	case d.CoverI != 0:
		return fmt.Sprintf("%s/b/id/%d-L.jpg", base, d.CoverI)
	case len(d.ISBN) > 0:
		return fmt.Sprintf("%s/b/isbn/%s-L.jpg", base, d.ISBN[0])
	}
	return ""
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
