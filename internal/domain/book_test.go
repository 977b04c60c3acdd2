package domain

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grimoireapp/grimoire-server/internal/errors"
)

func TestAddRating(t *testing.T) {
	book := &Book{Title: "Test Book"}

	err := book.AddRating("user-1", 4)
	require.NoError(t, err)
	assert.Len(t, book.Ratings, 1)
	assert.Equal(t, 4.0, book.AverageRating)

	err = book.AddRating("user-2", 5)
	require.NoError(t, err)
	assert.Len(t, book.Ratings, 2)
	assert.Equal(t, 4.5, book.AverageRating)
}

func TestAddRating_Duplicate(t *testing.T) {
	book := &Book{Title: "Test Book"}
	require.NoError(t, book.AddRating("user-1", 3))

	err := book.AddRating("user-1", 5)
	assert.ErrorIs(t, err, errors.ErrDuplicateVote)

	// Rejected vote leaves count and average unchanged.
	assert.Len(t, book.Ratings, 1)
	assert.Equal(t, 3.0, book.AverageRating)
}

func TestAddRating_GradeBounds(t *testing.T) {
	tests := []struct {
		name    string
		grade   int
		wantErr error
	}{
		{"below minimum", 0, errors.ErrOutOfRange},
		{"above maximum", 6, errors.ErrOutOfRange},
		{"negative", -1, errors.ErrOutOfRange},
		{"minimum accepted", 1, nil},
		{"maximum accepted", 5, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			book := &Book{Title: "Test Book"}
			err := book.AddRating("user-1", tt.grade)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, book.Ratings)
			} else {
				assert.NoError(t, err)
				assert.Len(t, book.Ratings, 1)
			}
		})
	}
}

func TestAddRating_MissingUser(t *testing.T) {
	book := &Book{Title: "Test Book"}
	err := book.AddRating("", 3)
	assert.ErrorIs(t, err, errors.ErrValidation)
}

func TestAverageRating_OrderIndependent(t *testing.T) {
	grades := []int{1, 5, 3, 4, 2, 5, 1}

	mean := func(order []int) float64 {
		book := &Book{Title: "Test Book"}
		for i, g := range order {
			require.NoError(t, book.AddRating("user-"+string(rune('a'+i)), g))
		}
		return book.AverageRating
	}

	want := mean(grades)
	for n := 0; n < 10; n++ {
		shuffled := make([]int, len(grades))
		copy(shuffled, grades)
		rand.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		assert.InDelta(t, want, mean(shuffled), 1e-9)
	}
}

func TestRatingBy(t *testing.T) {
	book := &Book{Title: "Test Book"}
	require.NoError(t, book.AddRating("user-1", 2))

	r := book.RatingBy("user-1")
	require.NotNil(t, r)
	assert.Equal(t, 2, r.Grade)

	assert.Nil(t, book.RatingBy("user-2"))
}

func TestIsOwnedBy(t *testing.T) {
	book := &Book{OwnerID: "user-1"}
	assert.True(t, book.IsOwnedBy("user-1"))
	assert.False(t, book.IsOwnedBy("user-2"))
}
