// Package main provides a tool to seed the database with test catalog data.
//
// It creates a handful of users and books with randomized ratings so list,
// best-rating, and stats endpoints have something to show during development.
//
// Usage:
//
//	DB_PATH=~/Grimoire/data/grimoire.db go run ./cmd/seed
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"

	"github.com/grimoireapp/grimoire-server/internal/auth"
	"github.com/grimoireapp/grimoire-server/internal/domain"
	"github.com/grimoireapp/grimoire-server/internal/id"
	"github.com/grimoireapp/grimoire-server/internal/store"
)

var userCount = flag.Int("users", 5, "Number of test users to create")

var sampleBooks = []struct {
	title  string
	author string
	genre  string
	year   int
}{
	{"The Glass Orchard", "N. Akintola", "Literary Fiction", 2018},
	{"Salt and Circuitry", "J. Marchetti", "Science Fiction", 2021},
	{"A Winter of Maps", "H. Lindqvist", "Travel", 2015},
	{"The Last Bookbinder", "C. Duval", "Historical Fiction", 2019},
	{"Notes from the Deep Shelf", "P. Okonkwo", "Essays", 2022},
	{"Milk Teeth and Meteorites", "S. Haraldsen", "Memoir", 2020},
}

func main() {
	flag.Parse()

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/Grimoire/data/grimoire.db")
	}

	fmt.Printf("Opening database at: %s\n", dbPath)

	s, err := store.New(dbPath, nil)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	users := createTestUsers(ctx, s)
	books := createTestBooks(ctx, s, users)
	addRandomRatings(ctx, s, users, books)

	fmt.Printf("Seeded %d users and %d books\n", len(users), len(books))
}

func createTestUsers(ctx context.Context, s *store.Store) []*domain.User {
	users := make([]*domain.User, 0, *userCount)

	for i := 0; i < *userCount; i++ {
		email := fmt.Sprintf("reader%d@example.com", i+1)

		if existing, err := s.GetUserByEmail(ctx, email); err == nil {
			fmt.Printf("User %s already exists, skipping\n", email)
			users = append(users, existing)
			continue
		}

		hash, err := auth.HashPassword("password123")
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}

		user := &domain.User{
			Email:        email,
			PasswordHash: hash,
		}
		user.ID = id.MustGenerate("user")
		user.InitTimestamps()

		if err := s.CreateUser(ctx, user); err != nil {
			log.Fatalf("Failed to create user %s: %v", email, err)
		}

		fmt.Printf("Created user %s (password: password123)\n", email)
		users = append(users, user)
	}

	return users
}

func createTestBooks(ctx context.Context, s *store.Store, users []*domain.User) []*domain.Book {
	books := make([]*domain.Book, 0, len(sampleBooks))

	for i, sb := range sampleBooks {
		owner := users[i%len(users)]

		book := &domain.Book{
			Title:   sb.title,
			Author:  sb.author,
			Genre:   sb.genre,
			Year:    sb.year,
			OwnerID: owner.ID,
			Ratings: []domain.Rating{},
		}
		book.ID = id.MustGenerate("book")
		book.InitTimestamps()

		if err := s.CreateBook(ctx, book); err != nil {
			log.Fatalf("Failed to create book %q: %v", sb.title, err)
		}

		fmt.Printf("Created book %q by %s\n", sb.title, sb.author)
		books = append(books, book)
	}

	return books
}

func addRandomRatings(ctx context.Context, s *store.Store, users []*domain.User, books []*domain.Book) {
	for _, book := range books {
		for _, user := range users {
			// Not everyone rates everything.
			if rand.Intn(3) == 0 {
				continue
			}

			grade := rand.Intn(domain.GradeMax-domain.GradeMin+1) + domain.GradeMin
			_, err := s.MutateBook(ctx, book.ID, func(b *domain.Book) error {
				return b.AddRating(user.ID, grade)
			})
			if err != nil {
				log.Fatalf("Failed to rate book %q: %v", book.Title, err)
			}
		}
	}
}
