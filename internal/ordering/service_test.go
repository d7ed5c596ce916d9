package ordering

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nomnoms/nomnoms/internal/catalog"
	"github.com/nomnoms/nomnoms/internal/log"
)

// Fixture ids (valid 24-char hex).
var (
	restaurantID = "64f000000000000000000001"
	itemAID      = "64f000000000000000000011"
	itemBID      = "64f000000000000000000012"
)

// fakeCatalog is an in-memory Catalog implementation for tests.
type fakeCatalog struct {
	restaurants []*catalog.Restaurant
	items       map[string]*catalog.Item
	receipts    []*catalog.Receipt

	insertErr error
}

func (f *fakeCatalog) ListRestaurants(_ context.Context, limit, skip int64) ([]catalog.Restaurant, error) {
	var out []catalog.Restaurant
	for i, r := range f.restaurants {
		if int64(i) < skip {
			continue
		}
		if int64(len(out)) >= limit {
			break
		}
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeCatalog) CountRestaurants(context.Context) (int64, error) {
	return int64(len(f.restaurants)), nil
}

func (f *fakeCatalog) RestaurantByID(_ context.Context, id string) (*catalog.Restaurant, error) {
	for _, r := range f.restaurants {
		if r.ID.Hex() == id {
			return r, nil
		}
	}
	return nil, fmt.Errorf("restaurant %q: %w", id, catalog.ErrNotFound)
}

func (f *fakeCatalog) RestaurantByName(_ context.Context, name string) (*catalog.Restaurant, error) {
	lower := strings.ToLower(name)
	for _, r := range f.restaurants {
		if strings.ToLower(r.Name) == lower {
			return r, nil
		}
	}
	for _, r := range f.restaurants {
		if strings.Contains(strings.ToLower(r.Name), lower) {
			return r, nil
		}
	}
	return nil, fmt.Errorf("restaurant %q: %w", name, catalog.ErrNotFound)
}

func (f *fakeCatalog) MenuItems(_ context.Context, r *catalog.Restaurant) ([]catalog.Item, error) {
	var out []catalog.Item
	for _, oid := range r.Items {
		if item, ok := f.items[oid.Hex()]; ok {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (f *fakeCatalog) ItemByID(_ context.Context, id string) (*catalog.Item, error) {
	if item, ok := f.items[id]; ok {
		return item, nil
	}
	return nil, fmt.Errorf("item %q: %w", id, catalog.ErrNotFound)
}

func (f *fakeCatalog) ItemsByIDs(_ context.Context, ids []string) ([]catalog.Item, error) {
	var out []catalog.Item
	for _, id := range ids {
		if item, ok := f.items[id]; ok {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (f *fakeCatalog) ItemByName(_ context.Context, r *catalog.Restaurant, name string) (*catalog.Item, error) {
	lower := strings.ToLower(name)
	for _, oid := range r.Items {
		item, ok := f.items[oid.Hex()]
		if ok && strings.ToLower(item.Name) == lower {
			return item, nil
		}
	}
	for _, oid := range r.Items {
		item, ok := f.items[oid.Hex()]
		if ok && strings.Contains(strings.ToLower(item.Name), lower) {
			return item, nil
		}
	}
	return nil, fmt.Errorf("item %q: %w", name, catalog.ErrNotFound)
}

func (f *fakeCatalog) InsertReceipt(_ context.Context, receipt *catalog.Receipt) (string, error) {
	if f.insertErr != nil {
		return "", f.insertErr
	}
	stored := *receipt
	stored.ID = primitive.NewObjectID()
	f.receipts = append(f.receipts, &stored)
	return stored.ID.Hex(), nil
}

func (f *fakeCatalog) CountReceiptsWithPrefix(_ context.Context, prefix string) (int64, error) {
	var n int64
	for _, r := range f.receipts {
		if strings.HasPrefix(r.ReceiptID, prefix) {
			n++
		}
	}
	return n, nil
}

func (f *fakeCatalog) ReceiptByCode(_ context.Context, code string) (*catalog.Receipt, error) {
	for _, r := range f.receipts {
		if r.ReceiptID == code {
			return r, nil
		}
	}
	return nil, fmt.Errorf("receipt %q: %w", code, catalog.ErrNotFound)
}

func mustOID(t *testing.T, hex string) primitive.ObjectID {
	t.Helper()
	oid, err := primitive.ObjectIDFromHex(hex)
	require.NoError(t, err)
	return oid
}

// newFixture builds a catalog with one restaurant and two priced items.
func newFixture(t *testing.T) *fakeCatalog {
	t.Helper()
	itemA := &catalog.Item{
		ID:      mustOID(t, itemAID),
		StoreID: "store-1",
		Name:    "California Roll",
		Price:   catalog.NumberScalar(12.99),
	}
	itemB := &catalog.Item{
		ID:      mustOID(t, itemBID),
		StoreID: "store-1",
		Name:    "Miso Soup",
		Price:   catalog.RawScalar("$5.00"),
	}
	return &fakeCatalog{
		restaurants: []*catalog.Restaurant{{
			ID:          mustOID(t, restaurantID),
			StoreID:     "store-1",
			Name:        "U ME",
			Description: "$$ • Sushi, Salads",
			DeliveryFee: catalog.RawScalar("$2.99 flyer"),
			Items:       []primitive.ObjectID{itemA.ID, itemB.ID},
		}},
		items: map[string]*catalog.Item{
			itemAID: itemA,
			itemBID: itemB,
		},
	}
}

func newTestService(t *testing.T, cat Catalog) *Service {
	t.Helper()
	svc := NewService(cat, 0.085, log.NewNop())
	svc.now = func() time.Time {
		return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestBuildCartAndEstimateAgree(t *testing.T) {
	svc := newTestService(t, newFixture(t))
	req := CartRequest{
		RestaurantID: restaurantID,
		Items: []CartItemRef{
			{ItemID: itemAID, Quantity: 2},
			{ItemID: itemBID, Quantity: 1},
		},
	}

	cart, err := svc.BuildCart(t.Context(), req)
	require.NoError(t, err)
	est, err := svc.CostEstimate(t.Context(), req)
	require.NoError(t, err)

	assert.InDelta(t, 30.98, cart.Subtotal, 1e-9)
	assert.InDelta(t, 2.99, cart.DeliveryFee, 1e-9)
	assert.InDelta(t, 33.97, cart.Total, 1e-9)

	assert.InDelta(t, cart.Subtotal, est.Subtotal, 1e-9)
	assert.InDelta(t, cart.DeliveryFee, est.DeliveryFee, 1e-9)
	assert.InDelta(t, 2.63, est.EstimatedTax, 1e-9)
	assert.InDelta(t, 36.60, est.EstimatedTotal, 1e-9)
}

func TestCreateReceiptRoundTrip(t *testing.T) {
	cat := newFixture(t)
	svc := newTestService(t, cat)

	receipt, err := svc.CreateReceipt(t.Context(), ReceiptRequest{
		RestaurantID: restaurantID,
		Items: []CartItemRef{
			{ItemID: itemAID, Quantity: 2},
			{ItemID: itemBID, Quantity: 1},
		},
		CustomerName: "John Doe",
	})
	require.NoError(t, err)

	assert.Equal(t, "RCP-20240101-001", receipt.ReceiptID)
	assert.InDelta(t, 30.98, receipt.Subtotal, 1e-9)
	assert.InDelta(t, 2.99, receipt.DeliveryFee, 1e-9)
	assert.InDelta(t, 2.63, receipt.Tax, 1e-9)
	assert.InDelta(t, 36.60, receipt.Total, 1e-9)
	assert.Equal(t, "U ME", receipt.RestaurantName)
	assert.Len(t, receipt.Items, 2)

	// Persisted and retrievable by code.
	stored, err := svc.ReceiptByCode(t.Context(), "RCP-20240101-001")
	require.NoError(t, err)
	assert.Equal(t, receipt.Total, stored.Total)
}

func TestReceiptCodesAreSequentialWithinDay(t *testing.T) {
	cat := newFixture(t)
	svc := newTestService(t, cat)

	req := ReceiptRequest{
		RestaurantID: restaurantID,
		Items:        []CartItemRef{{ItemID: itemAID, Quantity: 1}},
	}
	for i := 1; i <= 3; i++ {
		receipt, err := svc.CreateReceipt(t.Context(), req)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("RCP-20240101-%03d", i), receipt.ReceiptID)
	}
}

func TestPriceValidation(t *testing.T) {
	svc := newTestService(t, newFixture(t))

	t.Run("missing item id fails and names it", func(t *testing.T) {
		missing := "64f0000000000000000000ff"
		_, err := svc.BuildCart(t.Context(), CartRequest{
			RestaurantID: restaurantID,
			Items: []CartItemRef{
				{ItemID: itemAID, Quantity: 1},
				{ItemID: missing, Quantity: 1},
			},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Contains(t, err.Error(), missing)
	})

	t.Run("zero quantity rejected", func(t *testing.T) {
		_, err := svc.BuildCart(t.Context(), CartRequest{
			RestaurantID: restaurantID,
			Items:        []CartItemRef{{ItemID: itemAID, Quantity: 0}},
		})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("empty cart rejected", func(t *testing.T) {
		_, err := svc.CostEstimate(t.Context(), CartRequest{RestaurantID: restaurantID})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unknown restaurant", func(t *testing.T) {
		_, err := svc.BuildCart(t.Context(), CartRequest{
			RestaurantID: "64f0000000000000000000aa",
			Items:        []CartItemRef{{ItemID: itemAID, Quantity: 1}},
		})
		assert.ErrorIs(t, err, catalog.ErrNotFound)
	})
}

func TestListRestaurantsClamping(t *testing.T) {
	svc := newTestService(t, newFixture(t))

	list, err := svc.ListRestaurants(t.Context(), 0, -5)
	require.NoError(t, err)
	assert.Equal(t, int64(DefaultListLimit), list.Limit)
	assert.Equal(t, int64(0), list.Skip)
	assert.Equal(t, int64(1), list.Total)
	require.Len(t, list.Restaurants, 1)

	// Loose fields normalized in the view.
	v := list.Restaurants[0]
	assert.InDelta(t, 2.99, v.DeliveryFee, 1e-9)
	assert.Equal(t, "U ME", v.Name)
}

func TestMenuByName(t *testing.T) {
	svc := newTestService(t, newFixture(t))

	menu, err := svc.MenuByName(t.Context(), "u me")
	require.NoError(t, err)
	assert.Equal(t, 2, menu.TotalItems)
	assert.Equal(t, "U ME", menu.RestaurantName)

	_, err = svc.MenuByName(t.Context(), "no such place")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}
