package store

import (
	"context"
	"errors"
	"fmt"
	"github.com/go-json-experiment/json"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/grimoireapp/grimoire-server/internal/domain"
)

// CreateUser creates a new user and its email index entry atomically.
// Emails are matched case-insensitively.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	key := userKey(user.ID)
	emailKey := userEmailKey(normalizeEmail(user.Email))

	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(emailKey); err == nil {
			return ErrEmailTaken
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		data, err := json.Marshal(user)
		if err != nil {
			return fmt.Errorf("marshal user: %w", err)
		}
		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set(emailKey, []byte(user.ID))
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "user created",
			slog.String("id", user.ID),
			slog.String("email", user.Email),
		)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	if err := s.get(userKey(id), &user); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user via the email index.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var userID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userEmailKey(normalizeEmail(email)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			userID = string(val)
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	return s.GetUser(ctx, userID)
}

// ListUsers returns all user accounts.
func (s *Store) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := listPrefix[domain.User](s, []byte(userPrefix))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
