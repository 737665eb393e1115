package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestIndexes(t *testing.T) {
	idx := Indexes()

	assert.Len(t, idx, 4)
	for _, name := range []string{ProductsCollection, CategoriesCollection, ReviewsCollection, OrdersCollection} {
		assert.NotEmpty(t, idx[name], name)
	}

	reviews := idx[ReviewsCollection][0].Keys.(bson.D)
	assert.Equal(t, "product_id", reviews[0].Key)

	orders := idx[OrdersCollection][0]
	if assert.NotNil(t, orders.Options) && assert.NotNil(t, orders.Options.Unique) {
		assert.True(t, *orders.Options.Unique)
	}
}
