package store

import (
	"context"
	"errors"
	"fmt"
	"github.com/go-json-experiment/json"
	"log/slog"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"github.com/grimoireapp/grimoire-server/internal/domain"
)

// maxMutateRetries bounds how often a read-modify-write is retried when it
// loses a commit race against a concurrent writer on the same record.
const maxMutateRetries = 10

// CreateBook creates a new book record.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	key := bookKey(book.ID)

	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return ErrBookExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		data, err := json.Marshal(book)
		if err != nil {
			return fmt.Errorf("marshal book: %w", err)
		}
		return txn.Set(key, data)
	})
	if err != nil {
		if errors.Is(err, ErrBookExists) {
			return ErrBookExists
		}
		return fmt.Errorf("create book: %w", err)
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "book created",
			slog.String("id", book.ID),
			slog.String("title", book.Title),
			slog.String("owner_id", book.OwnerID),
		)
	}
	return nil
}

// GetBook retrieves a book by ID.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	var book domain.Book
	if err := s.get(bookKey(id), &book); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	return &book, nil
}

// UpdateBook persists the full record as a single atomic write.
func (s *Store) UpdateBook(ctx context.Context, book *domain.Book) error {
	key := bookKey(book.ID)

	exists, err := s.exists(key)
	if err != nil {
		return fmt.Errorf("check book exists: %w", err)
	}
	if !exists {
		return ErrBookNotFound
	}

	book.Touch()
	if err := s.set(key, book); err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	return nil
}

// MutateBook runs fn against the current record inside a single serializable
// transaction and persists the result. When the commit loses against a
// concurrent writer on the same record, the read-modify-write is retried from
// a fresh snapshot, a bounded number of times, before surfacing ErrTxnConflict.
// Errors returned by fn abort the transaction without writing.
func (s *Store) MutateBook(ctx context.Context, id string, fn func(*domain.Book) error) (*domain.Book, error) {
	key := bookKey(id)

	for attempt := 0; attempt < maxMutateRetries; attempt++ {
		var book domain.Book

		err := s.db.Update(func(txn *badger.Txn) error {
			item, err := txn.Get(key)
			if err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					return ErrBookNotFound
				}
				return err
			}

			err = item.Value(func(val []byte) error {
				return json.Unmarshal(val, &book)
			})
			if err != nil {
				return fmt.Errorf("unmarshal book: %w", err)
			}

			if err := fn(&book); err != nil {
				return err
			}

			book.Touch()
			data, err := json.Marshal(&book)
			if err != nil {
				return fmt.Errorf("marshal book: %w", err)
			}
			return txn.Set(key, data)
		})

		if errors.Is(err, badger.ErrConflict) {
			if s.logger != nil {
				s.logger.LogAttrs(ctx, slog.LevelDebug, "book mutation conflict, retrying",
					slog.String("id", id),
					slog.Int("attempt", attempt+1),
				)
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		return &book, nil
	}

	return nil, ErrTxnConflict
}

// DeleteBook removes a book record.
func (s *Store) DeleteBook(ctx context.Context, id string) error {
	key := bookKey(id)

	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrBookNotFound
			}
			return err
		}
		return txn.Delete(key)
	})
	if err != nil {
		if errors.Is(err, ErrBookNotFound) {
			return ErrBookNotFound
		}
		return fmt.Errorf("delete book: %w", err)
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "book deleted", slog.String("id", id))
	}
	return nil
}

// ListBooks returns all book records in key order.
func (s *Store) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	books, err := listPrefix[domain.Book](s, []byte(bookPrefix))
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

// ListTopRated returns up to limit books ordered by descending average rating.
// The relative order of books with equal averages is unspecified.
func (s *Store) ListTopRated(ctx context.Context, limit int) ([]*domain.Book, error) {
	books, err := s.ListBooks(ctx)
	if err != nil {
		return nil, err
	}

	sort.Slice(books, func(i, j int) bool {
		return books[i].AverageRating > books[j].AverageRating
	})

	if limit > 0 && len(books) > limit {
		books = books[:limit]
	}
	return books, nil
}
