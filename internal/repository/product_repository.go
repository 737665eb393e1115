package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

var sortableFields = map[string]string{
	"created_at":  "created_at",
	"createdAt":   "created_at",
	"name":        "name",
	"price_cents": "price_cents",
	"priceCents":  "price_cents",
	"stock":       "stock",
}

type ProductRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(collection *mongo.Collection) *ProductRepository {
	return &ProductRepository{
		collection: collection,
	}
}

// Create inserts a new product
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	product.ID = primitive.NewObjectID()
	product.CreatedAt = now
	product.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, product); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// FindByID returns a product whatever its status
func (r *ProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var product models.Product
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find product: %w", err)
	}

	return &product, nil
}

// FindAll lists products with pagination and filters
func (r *ProductRepository) FindAll(ctx context.Context, f ProductFilter) ([]*models.Product, int64, error) {
	filter, findOptions, ok := listQuery(f)
	if !ok {
		return []*models.Product{}, 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// count in parallel
	totalCh := make(chan int64, 1)
	errCh := make(chan error, 1)

	go func() {
		total, err := r.collection.CountDocuments(ctx, filter)
		if err != nil {
			errCh <- err
			return
		}
		totalCh <- total
	}()

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, fmt.Errorf("find products: %w", err)
	}
	defer cursor.Close(ctx)

	products := make([]*models.Product, 0)
	if err = cursor.All(ctx, &products); err != nil {
		return nil, 0, fmt.Errorf("decode products: %w", err)
	}

	// wait for the count
	select {
	case total := <-totalCh:
		return products, total, nil
	case err := <-errCh:
		return nil, 0, fmt.Errorf("count products: %w", err)
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	}
}

// listQuery builds the filter and paging options of a list request. ok is
// false when the filter cannot match anything.
func listQuery(f ProductFilter) (bson.M, *options.FindOptions, bool) {
	filter := bson.M{}
	if f.Category != "" {
		id, ok := models.ParseObjectID(f.Category)
		if !ok {
			return nil, nil, false
		}
		filter["category_id"] = id
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Search != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(f.Search), "$options": "i"}
		filter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"description": pattern},
			bson.M{"sku": pattern},
		}
	}
	price := bson.M{}
	if f.MinPriceCents > 0 {
		price["$gte"] = f.MinPriceCents
	}
	if f.MaxPriceCents > 0 {
		price["$lte"] = f.MaxPriceCents
	}
	if len(price) > 0 {
		filter["price_cents"] = price
	}

	page, pageSize := f.Page, f.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}

	sortField, ok := sortableFields[f.SortBy]
	if !ok {
		sortField = "created_at"
	}
	sortOrder := -1
	if f.SortOrder == "asc" {
		sortOrder = 1
	}

	findOptions := options.Find().
		SetSkip(int64((page - 1) * pageSize)).
		SetLimit(int64(pageSize)).
		SetSort(bson.D{{Key: sortField, Value: sortOrder}, {Key: "_id", Value: sortOrder}})
	return filter, findOptions, true
}

// Update applies a partial update and returns the stored record
func (r *ProductRepository) Update(ctx context.Context, id primitive.ObjectID, update models.ProductUpdate) (*models.Product, error) {
	set := updateFields(update)
	set["updated_at"] = time.Now().UTC()

	return r.findOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set})
}

// Discontinue soft deletes a product; the document stays retrievable
func (r *ProductRepository) Discontinue(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"status":     models.StatusDiscontinued,
			"updated_at": time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("discontinue product: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStock sets the stock and derives the status from it
func (r *ProductRepository) SetStock(ctx context.Context, id primitive.ObjectID, stock int64) (*models.Product, error) {
	update := bson.M{
		"$set": bson.M{
			"stock":      stock,
			"status":     models.StockStatus(stock),
			"updated_at": time.Now().UTC(),
		},
	}
	return r.findOneAndUpdate(ctx, bson.M{"_id": id}, update)
}

// ReserveStock decrements the stock of an active product when enough is
// available. The status flips to OUT_OF_STOCK in the same write when the
// stock reaches zero.
func (r *ProductRepository) ReserveStock(ctx context.Context, id primitive.ObjectID, quantity int64) (*models.Product, error) {
	filter := bson.M{
		"_id":    id,
		"status": models.StatusActive,
		"stock":  bson.M{"$gte": quantity},
	}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"stock":      bson.M{"$subtract": bson.A{"$stock", quantity}},
			"updated_at": time.Now().UTC(),
		}}},
		{{Key: "$set", Value: bson.M{
			"status": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$stock", 0}},
				models.StatusOutOfStock,
				"$status",
			}},
		}}},
	}

	product, err := r.findOneAndUpdate(ctx, filter, pipeline)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInsufficientStock
	}
	return product, err
}

// ReleaseStock gives back a reservation, reactivating a product that ran out
func (r *ProductRepository) ReleaseStock(ctx context.Context, id primitive.ObjectID, quantity int64) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"stock":      bson.M{"$add": bson.A{"$stock", quantity}},
			"updated_at": time.Now().UTC(),
		}}},
		{{Key: "$set", Value: bson.M{
			"status": bson.M{"$cond": bson.A{
				bson.M{"$and": bson.A{
					bson.M{"$eq": bson.A{"$status", models.StatusOutOfStock}},
					bson.M{"$gt": bson.A{"$stock", 0}},
				}},
				models.StatusActive,
				"$status",
			}},
		}}},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, pipeline)
	if err != nil {
		return fmt.Errorf("release stock: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProductRepository) findOneAndUpdate(ctx context.Context, filter bson.M, update interface{}) (*models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var product models.Product
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}
	return &product, nil
}

// updateFields maps the set fields of an update onto document keys
func updateFields(u models.ProductUpdate) bson.M {
	set := bson.M{}
	if u.Name != nil {
		set["name"] = *u.Name
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.CategoryID != nil {
		if id, ok := models.ParseObjectID(*u.CategoryID); ok {
			set["category_id"] = id
		}
	}
	if u.PriceCents != nil {
		set["price_cents"] = *u.PriceCents
	}
	if u.Currency != nil {
		set["currency"] = *u.Currency
	}
	if u.Stock != nil {
		set["stock"] = *u.Stock
	}
	if u.Images != nil {
		set["images"] = u.Images
	}
	if u.Attributes != nil {
		set["attributes"] = u.Attributes
	}
	if u.Status != nil {
		set["status"] = *u.Status
	}
	return set
}
