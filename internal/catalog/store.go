package catalog

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
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/nomnoms/nomnoms/internal/log"
)

// Connection tuning.
const (
	connectTimeout   = 10 * time.Second
	operationTimeout = 10 * time.Second
)

// Connect opens a MongoDB client with Stable API v1 and verifies the
// connection with a ping. The caller owns the client and must Disconnect it.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1)).
		SetConnectTimeout(connectTimeout).
		SetTimeout(operationTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connecting to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging MongoDB: %w", err)
	}

	return client, nil
}

// Store provides typed access to the catalog collections.
// Safe for concurrent use; the mongo driver pools connections internally.
type Store struct {
	restaurants *mongo.Collection
	items       *mongo.Collection
	receipts    *mongo.Collection
	logger      log.Logger
}

// NewStore creates a Store over the given database.
func NewStore(db *mongo.Database, logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{
		restaurants: db.Collection(RestaurantsCollection),
		items:       db.Collection(ItemsCollection),
		receipts:    db.Collection(ReceiptsCollection),
		logger:      logger,
	}
}

// ListRestaurants returns up to limit restaurants, skipping the first skip.
func (s *Store) ListRestaurants(ctx context.Context, limit, skip int64) ([]Restaurant, error) {
	cur, err := s.restaurants.Find(ctx, bson.M{},
		options.Find().SetLimit(limit).SetSkip(skip))
	if err != nil {
		return nil, fmt.Errorf("listing restaurants: %w", err)
	}
	defer cur.Close(ctx)

	var out []Restaurant
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decoding restaurants: %w", err)
	}
	return out, nil
}

// CountRestaurants returns the total number of restaurant documents.
func (s *Store) CountRestaurants(ctx context.Context) (int64, error) {
	n, err := s.restaurants.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("counting restaurants: %w", err)
	}
	return n, nil
}

// RestaurantByID looks up a restaurant by its hex ObjectID.
// A malformed id is reported as ErrNotFound.
func (s *Store) RestaurantByID(ctx context.Context, id string) (*Restaurant, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("restaurant %q: %w", id, ErrNotFound)
	}

	var r Restaurant
	if err := s.restaurants.FindOne(ctx, bson.M{"_id": oid}).Decode(&r); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("restaurant %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("finding restaurant %q: %w", id, err)
	}
	return &r, nil
}

// RestaurantByStoreID looks up a restaurant by its store code.
func (s *Store) RestaurantByStoreID(ctx context.Context, storeID string) (*Restaurant, error) {
	var r Restaurant
	if err := s.restaurants.FindOne(ctx, bson.M{"store_id": storeID}).Decode(&r); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("restaurant with store %q: %w", storeID, ErrNotFound)
		}
		return nil, fmt.Errorf("finding restaurant by store %q: %w", storeID, err)
	}
	return &r, nil
}

// RestaurantByName finds a restaurant by name, case-insensitively.
// An exact match is preferred; a substring match is the fallback.
func (s *Store) RestaurantByName(ctx context.Context, name string) (*Restaurant, error) {
	var r Restaurant

	err := s.restaurants.FindOne(ctx, bson.M{
		"name": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(name) + "$", Options: "i"},
	}).Decode(&r)
	if err == nil {
		return &r, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("finding restaurant %q: %w", name, err)
	}

	err = s.restaurants.FindOne(ctx, bson.M{
		"name": primitive.Regex{Pattern: regexp.QuoteMeta(name), Options: "i"},
	}).Decode(&r)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("restaurant %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("finding restaurant %q: %w", name, err)
	}
	return &r, nil
}

// MenuItems returns the items owned by the restaurant. The restaurant's
// explicit item id list wins; the shared store code is the fallback when the
// list is empty.
func (s *Store) MenuItems(ctx context.Context, r *Restaurant) ([]Item, error) {
	var filter bson.M
	switch {
	case len(r.Items) > 0:
		filter = bson.M{"_id": bson.M{"$in": r.Items}}
	case r.StoreID != "":
		filter = bson.M{"store_id": r.StoreID}
	default:
		return []Item{}, nil
	}

	cur, err := s.items.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing menu items: %w", err)
	}
	defer cur.Close(ctx)

	var out []Item
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decoding menu items: %w", err)
	}
	return out, nil
}

// ItemByID looks up a menu item by its hex ObjectID.
func (s *Store) ItemByID(ctx context.Context, id string) (*Item, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("item %q: %w", id, ErrNotFound)
	}

	var item Item
	if err := s.items.FindOne(ctx, bson.M{"_id": oid}).Decode(&item); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("item %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("finding item %q: %w", id, err)
	}
	return &item, nil
}

// ItemsByIDs fetches the items whose hex ids appear in ids. Malformed or
// unknown ids are simply absent from the result; callers that need all ids
// present must compare counts.
func (s *Store) ItemsByIDs(ctx context.Context, ids []string) ([]Item, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return []Item{}, nil
	}

	cur, err := s.items.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, fmt.Errorf("fetching items: %w", err)
	}
	defer cur.Close(ctx)

	var out []Item
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decoding items: %w", err)
	}
	return out, nil
}

// ItemByName finds a menu item by name within the given restaurant's menu,
// case-insensitively, exact match before substring match. The search scope
// follows the same precedence as MenuItems.
func (s *Store) ItemByName(ctx context.Context, r *Restaurant, name string) (*Item, error) {
	var scope bson.M
	switch {
	case len(r.Items) > 0:
		scope = bson.M{"_id": bson.M{"$in": r.Items}}
	case r.StoreID != "":
		scope = bson.M{"store_id": r.StoreID}
	default:
		return nil, fmt.Errorf("item %q: %w", name, ErrNotFound)
	}

	patterns := []string{
		"^" + regexp.QuoteMeta(name) + "$",
		regexp.QuoteMeta(name),
	}
	for _, pattern := range patterns {
		filter := bson.M{"name": primitive.Regex{Pattern: pattern, Options: "i"}}
		for k, v := range scope {
			filter[k] = v
		}

		var item Item
		err := s.items.FindOne(ctx, filter).Decode(&item)
		if err == nil {
			return &item, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("finding item %q: %w", name, err)
		}
	}

	return nil, fmt.Errorf("item %q: %w", name, ErrNotFound)
}

// InsertReceipt persists a receipt document and returns its hex ObjectID.
func (s *Store) InsertReceipt(ctx context.Context, receipt *Receipt) (string, error) {
	res, err := s.receipts.InsertOne(ctx, receipt)
	if err != nil {
		return "", fmt.Errorf("inserting receipt: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("inserting receipt: unexpected inserted id type %T", res.InsertedID)
	}
	s.logger.Debug("receipt persisted", "receipt_id", receipt.ReceiptID, "id", oid.Hex())
	return oid.Hex(), nil
}

// CountReceiptsWithPrefix counts receipts whose receipt_id starts with the
// given prefix. Used for per-day sequence numbering.
func (s *Store) CountReceiptsWithPrefix(ctx context.Context, prefix string) (int64, error) {
	n, err := s.receipts.CountDocuments(ctx, bson.M{
		"receipt_id": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(prefix)},
	})
	if err != nil {
		return 0, fmt.Errorf("counting receipts: %w", err)
	}
	return n, nil
}

// ReceiptByCode looks up a receipt by its human-readable code
// (e.g. "RCP-20240101-001").
func (s *Store) ReceiptByCode(ctx context.Context, code string) (*Receipt, error) {
	var receipt Receipt
	if err := s.receipts.FindOne(ctx, bson.M{"receipt_id": code}).Decode(&receipt); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("receipt %q: %w", code, ErrNotFound)
		}
		return nil, fmt.Errorf("finding receipt %q: %w", code, err)
	}
	return &receipt, nil
}
