// Package domain contains the core business entities and domain logic for the
// Grimoire book catalog.
package domain

import (
	"github.com/grimoireapp/grimoire-server/internal/errors"
)

// Grade bounds for a rating, inclusive.
const (
	GradeMin = 1
	GradeMax = 5
)

// Rating is a single user's grade for a book.
// Ratings are final: once accepted they are never edited or removed.
type Rating struct {
	UserID string `json:"userId"`
	Grade  int    `json:"grade"`
}

// Book represents a cataloged book record.
type Book struct {
	Entity
	Title  string `json:"title"`
	Author string `json:"author"`
	Genre  string `json:"genre,omitempty"`
	Year   int    `json:"year,omitempty"`

	// OwnerID is the user who created the record. Immutable after creation.
	OwnerID string `json:"owner_id"`

	// CoverURL is the public URL of the book's current cover asset.
	// Only transiently empty while a record is being created.
	CoverURL string `json:"cover_url"`

	// CoverBlurHash is a compact placeholder hash of the cover, recomputed
	// whenever the cover asset is replaced.
	CoverBlurHash string `json:"cover_blurhash,omitempty"`

	Ratings []Rating `json:"ratings"`

	// AverageRating is the arithmetic mean of all rating grades,
	// 0 when there are no ratings.
	AverageRating float64 `json:"average_rating"`
}

// IsOwnedBy reports whether the record belongs to the given user.
func (b *Book) IsOwnedBy(userID string) bool {
	return b.OwnerID == userID
}

// RatingBy returns the rating submitted by the given user, or nil.
func (b *Book) RatingBy(userID string) *Rating {
	for i := range b.Ratings {
		if b.Ratings[i].UserID == userID {
			return &b.Ratings[i]
		}
	}
	return nil
}

// AddRating appends a rating for userID and recomputes the average.
// Each user gets exactly one vote per book; a second submission is rejected.
func (b *Book) AddRating(userID string, grade int) error {
	if userID == "" {
		return errors.Validation("user ID is required")
	}
	if grade < GradeMin || grade > GradeMax {
		return errors.OutOfRangef("grade must be between %d and %d, got %d", GradeMin, GradeMax, grade)
	}
	if b.RatingBy(userID) != nil {
		return errors.DuplicateVote("user has already rated this book")
	}

	b.Ratings = append(b.Ratings, Rating{UserID: userID, Grade: grade})
	b.recomputeAverage()
	return nil
}

// recomputeAverage derives AverageRating from the full rating list.
func (b *Book) recomputeAverage() {
	if len(b.Ratings) == 0 {
		b.AverageRating = 0
		return
	}

	total := 0
	for _, r := range b.Ratings {
		total += r.Grade
	}
	b.AverageRating = float64(total) / float64(len(b.Ratings))
}
