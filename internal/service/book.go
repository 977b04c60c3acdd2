package service

import (
	"context"
	"errors"
	"log/slog"

	domainerrors "github.com/grimoireapp/grimoire-server/internal/errors"

	"github.com/grimoireapp/grimoire-server/internal/domain"
	"github.com/grimoireapp/grimoire-server/internal/id"
	"github.com/grimoireapp/grimoire-server/internal/media/images"
	"github.com/grimoireapp/grimoire-server/internal/store"
)

// BookService orchestrates book records and their cover assets. Mutations
// that touch both the record and the asset store go through the per-record
// lock so a replace never races with another replace or a delete on the
// same book.
type BookService struct {
	store  *store.Store
	assets *images.Manager
	locks  *RecordLocks
	logger *slog.Logger
}

// NewBookService creates a new book service.
func NewBookService(store *store.Store, assets *images.Manager, locks *RecordLocks, logger *slog.Logger) *BookService {
	return &BookService{
		store:  store,
		assets: assets,
		locks:  locks,
		logger: logger,
	}
}

// BookInput carries the user-editable fields of a book.
type BookInput struct {
	Title  string
	Author string
	Genre  string
	Year   int
}

// Create optimizes and stores the uploaded cover, then creates the book
// record pointing at it. If the record write fails the stored asset is
// released so no orphan remains on disk.
func (s *BookService) Create(ctx context.Context, ownerID string, in BookInput, upload images.Upload) (*domain.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	asset, err := s.assets.StoreNew(ctx, upload)
	if err != nil {
		return nil, err
	}

	book := &domain.Book{
		Title:         in.Title,
		Author:        in.Author,
		Genre:         in.Genre,
		Year:          in.Year,
		OwnerID:       ownerID,
		CoverURL:      asset.URL,
		CoverBlurHash: asset.BlurHash,
		Ratings:       []domain.Rating{},
	}
	book.ID, err = id.Generate("book")
	if err != nil {
		s.releaseOrphan(asset.URL)
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "generate book id")
	}
	book.InitTimestamps()

	if err := s.store.CreateBook(ctx, book); err != nil {
		s.releaseOrphan(asset.URL)
		if errors.Is(err, store.ErrBookExists) {
			return nil, domainerrors.AlreadyExists("book already exists")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "create book")
	}

	s.logger.Info("book created",
		"book_id", book.ID,
		"owner_id", ownerID,
		"title", book.Title,
	)

	return book, nil
}

// Get returns a single book by id.
func (s *BookService) Get(ctx context.Context, bookID string) (*domain.Book, error) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		if errors.Is(err, store.ErrBookNotFound) {
			return nil, domainerrors.NotFound("book not found")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "get book")
	}
	return book, nil
}

// List returns all books in the catalog.
func (s *BookService) List(ctx context.Context) ([]*domain.Book, error) {
	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "list books")
	}
	return books, nil
}

// Update applies the given fields to a book owned by userID. When upload is
// non-nil the cover is replaced as well: the new asset is written first, the
// record commit switches the reference, and only then is the old asset
// deleted. A failed commit removes the new asset again, leaving the record
// and the old cover untouched.
func (s *BookService) Update(ctx context.Context, userID, bookID string, in BookInput, upload *images.Upload) (*domain.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(bookID)
	defer unlock()

	book, err := s.Get(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if !book.IsOwnedBy(userID) {
		return nil, domainerrors.Unauthorized("not the owner of this book")
	}

	if upload == nil {
		updated, err := s.store.MutateBook(ctx, bookID, func(b *domain.Book) error {
			applyInput(b, in)
			return nil
		})
		if err != nil {
			return nil, s.mapMutateErr(err, "update book")
		}
		s.logger.Info("book updated", "book_id", bookID)
		return updated, nil
	}

	var updated *domain.Book
	_, err = s.assets.Replace(ctx, book.CoverURL, *upload, func(asset *images.Asset) error {
		updated, err = s.store.MutateBook(ctx, bookID, func(b *domain.Book) error {
			applyInput(b, in)
			b.CoverURL = asset.URL
			b.CoverBlurHash = asset.BlurHash
			return nil
		})
		if err != nil {
			return s.mapMutateErr(err, "commit cover reference")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("book updated", "book_id", bookID, "cover_url", updated.CoverURL)
	return updated, nil
}

// Delete removes a book owned by userID and releases its cover asset. The
// record is always deleted first. A failed asset release does not resurrect
// the record; the error is returned so the caller can report the leftover
// file, and the release can be retried since it is idempotent.
func (s *BookService) Delete(ctx context.Context, userID, bookID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	unlock := s.locks.Lock(bookID)
	defer unlock()

	book, err := s.Get(ctx, bookID)
	if err != nil {
		return err
	}
	if !book.IsOwnedBy(userID) {
		return domainerrors.Unauthorized("not the owner of this book")
	}

	if err := s.store.DeleteBook(ctx, bookID); err != nil {
		if errors.Is(err, store.ErrBookNotFound) {
			return domainerrors.NotFound("book not found")
		}
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "delete book")
	}

	s.logger.Info("book deleted", "book_id", bookID, "owner_id", userID)

	if err := s.assets.Release(book.CoverURL); err != nil {
		s.logger.Error("cover release failed after delete",
			"book_id", bookID,
			"cover_url", book.CoverURL,
			"error", err,
		)
		return err
	}

	return nil
}

// releaseOrphan cleans up an asset whose record never materialized.
func (s *BookService) releaseOrphan(url string) {
	if err := s.assets.Release(url); err != nil {
		s.logger.Error("orphan cover cleanup failed", "cover_url", url, "error", err)
	}
}

func (s *BookService) mapMutateErr(err error, msg string) error {
	switch {
	case errors.Is(err, store.ErrBookNotFound):
		return domainerrors.NotFound("book not found")
	case errors.Is(err, store.ErrTxnConflict):
		return domainerrors.Conflict("book was modified concurrently")
	default:
		return domainerrors.Wrap(err, domainerrors.CodeInternal, msg)
	}
}

func applyInput(b *domain.Book, in BookInput) {
	b.Title = in.Title
	b.Author = in.Author
	b.Genre = in.Genre
	b.Year = in.Year
}
