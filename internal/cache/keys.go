package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const ProductListPrefix = "products:list:"

// GenerationTTL bounds how long a product generation is remembered. It must
// outlive every detail entry, so product TTLs stay below it.
const GenerationTTL = 24 * time.Hour

func ProductKey(id, generation string) string {
	return fmt.Sprintf("product:%s:%s", id, generation)
}

func productGenerationKey(id string) string {
	return fmt.Sprintf("product-gen:%s", id)
}

// ProductDetailKey returns the detail key for the current generation of a
// product. Resolve it before reading storage: a detail written after a
// concurrent InvalidateProduct then lands under a generation nobody reads.
func ProductDetailKey(ctx context.Context, s Store, id string) (string, error) {
	var generation string
	if _, err := s.Get(ctx, productGenerationKey(id), &generation); err != nil {
		return "", err
	}
	return ProductKey(id, generation), nil
}

// InvalidateProduct starts a new generation for a product's cached detail
func InvalidateProduct(ctx context.Context, s Store, id string) error {
	return s.Set(ctx, productGenerationKey(id), uuid.NewString(), GenerationTTL)
}
