package models

import (
	"math/big"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review is a customer rating of a product
type Review struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ProductID primitive.ObjectID `json:"productId" bson:"product_id"`
	Author    string             `json:"author" bson:"author"`
	Rating    int                `json:"rating" bson:"rating"`
	Comment   string             `json:"comment,omitempty" bson:"comment,omitempty"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
}

// ReviewCreate is the body accepted by POST /api/products/:id/reviews
type ReviewCreate struct {
	Author  string `json:"author" binding:"required,min=1,max=100"`
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=2000"`
}

// ReviewSummary aggregates the ratings of a product
type ReviewSummary struct {
	Average      float64        `json:"average"`
	Count        int            `json:"count"`
	Distribution map[string]int `json:"distribution"`
}

// SummarizeRatings computes the average rounded to one decimal and the
// per-star distribution. Ratings outside 1..5 count toward the average but
// not toward any bucket.
func SummarizeRatings(ratings []int) ReviewSummary {
	summary := ReviewSummary{
		Count:        len(ratings),
		Distribution: make(map[string]int, MaxRating),
	}
	for star := MinRating; star <= MaxRating; star++ {
		summary.Distribution[strconv.Itoa(star)] = 0
	}
	if len(ratings) == 0 {
		return summary
	}

	var sum int64
	for _, r := range ratings {
		sum += int64(r)
		if r >= MinRating && r <= MaxRating {
			summary.Distribution[strconv.Itoa(r)]++
		}
	}

	// Rounding works on the exact value of the float64 mean, ties away from
	// zero: 23/20 is stored as 1.1499... and gives 1.1, 5/4 gives 1.3.
	mean := float64(sum) / float64(len(ratings))
	exact, err := decimal.NewFromString(new(big.Float).SetFloat64(mean).Text('f', 80))
	if err != nil {
		return summary
	}
	summary.Average = exact.Round(1).InexactFloat64()
	return summary
}

// ProductDetail is a product with its category and review summary
type ProductDetail struct {
	Product
	Category *Category     `json:"category"`
	Reviews  ReviewSummary `json:"reviews"`
}
