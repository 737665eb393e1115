package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeRatings(t *testing.T) {
	t.Run("no reviews", func(t *testing.T) {
		s := SummarizeRatings(nil)

		assert.Equal(t, 0.0, s.Average)
		assert.Equal(t, 0, s.Count)
		assert.Equal(t, map[string]int{"1": 0, "2": 0, "3": 0, "4": 0, "5": 0}, s.Distribution)
	})

	t.Run("rounds to one decimal", func(t *testing.T) {
		s := SummarizeRatings([]int{5, 5, 4})

		assert.Equal(t, 4.7, s.Average)
		assert.Equal(t, 3, s.Count)
		assert.Equal(t, map[string]int{"1": 0, "2": 0, "3": 0, "4": 1, "5": 2}, s.Distribution)
	})

	t.Run("exact average", func(t *testing.T) {
		s := SummarizeRatings([]int{1, 2, 3, 4, 5})

		assert.Equal(t, 3.0, s.Average)
		for _, k := range []string{"1", "2", "3", "4", "5"} {
			assert.Equal(t, 1, s.Distribution[k])
		}
	})

	t.Run("half rounds up", func(t *testing.T) {
		s := SummarizeRatings([]int{5, 4, 4, 4})

		assert.Equal(t, 4.3, s.Average)
	})

	t.Run("rounds the stored float, not the exact fraction", func(t *testing.T) {
		ratings := make([]int, 0, 20)
		for i := 0; i < 17; i++ {
			ratings = append(ratings, 1)
		}
		ratings = append(ratings, 2, 2, 2)

		assert.Equal(t, 1.1, SummarizeRatings(ratings).Average)
	})

	t.Run("exact tie rounds away from zero", func(t *testing.T) {
		assert.Equal(t, 1.3, SummarizeRatings([]int{1, 1, 1, 2}).Average)
	})

	t.Run("out of range ratings skip the buckets", func(t *testing.T) {
		s := SummarizeRatings([]int{5, 7})

		assert.Equal(t, 6.0, s.Average)
		assert.Equal(t, 2, s.Count)
		assert.Equal(t, 1, s.Distribution["5"])
		assert.Len(t, s.Distribution, 5)
	})
}
