// Package service provides the business logic layer for books, ratings,
// cover assets, and authentication.
package service

import (
	"context"
	"errors"
	"log/slog"

	domainerrors "github.com/grimoireapp/grimoire-server/internal/errors"

	"github.com/grimoireapp/grimoire-server/internal/domain"
	"github.com/grimoireapp/grimoire-server/internal/store"
)

// RatingService manages the rating ledger: one rating per user per book,
// with the stored average kept consistent with the ledger at all times.
type RatingService struct {
	store         *store.Store
	locks         *RecordLocks
	logger        *slog.Logger
	topRatedLimit int
}

// NewRatingService creates a new rating service. topRatedLimit is the
// default result count for TopRated when the caller does not specify one.
func NewRatingService(store *store.Store, locks *RecordLocks, logger *slog.Logger, topRatedLimit int) *RatingService {
	return &RatingService{
		store:         store,
		locks:         locks,
		logger:        logger,
		topRatedLimit: topRatedLimit,
	}
}

// Submit records a rating for a book on behalf of a user. The grade is
// validated before any store access, so invalid input never touches the
// record. A user who has already rated the book gets a duplicate-vote
// error and the ledger stays unchanged.
//
// The append and the average recompute happen inside a single store
// transaction, so concurrent submissions for the same book serialize and
// every committed state has an average consistent with its ledger.
func (s *RatingService) Submit(ctx context.Context, bookID, userID string, grade int) (*domain.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if bookID == "" {
		return nil, domainerrors.Validation("book id is required")
	}
	if userID == "" {
		return nil, domainerrors.Validation("user id is required")
	}
	if grade < domain.GradeMin || grade > domain.GradeMax {
		return nil, domainerrors.OutOfRangef("grade must be between %d and %d", domain.GradeMin, domain.GradeMax)
	}

	unlock := s.locks.Lock(bookID)
	defer unlock()

	book, err := s.store.MutateBook(ctx, bookID, func(b *domain.Book) error {
		return b.AddRating(userID, grade)
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrBookNotFound):
			return nil, domainerrors.NotFound("book not found")
		case errors.Is(err, store.ErrTxnConflict):
			return nil, domainerrors.Conflict("book was modified concurrently, retry the rating")
		default:
			return nil, err
		}
	}

	s.logger.Info("rating recorded",
		"book_id", bookID,
		"user_id", userID,
		"grade", grade,
		"average", book.AverageRating,
		"count", len(book.Ratings),
	)

	return book, nil
}

// TopRated returns the highest-rated books in descending order of average.
// A non-positive limit falls back to the configured default.
func (s *RatingService) TopRated(ctx context.Context, limit int) ([]*domain.Book, error) {
	if limit <= 0 {
		limit = s.topRatedLimit
	}
	books, err := s.store.ListTopRated(ctx, limit)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "list top rated books")
	}
	return books, nil
}
