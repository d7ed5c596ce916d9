package agent

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nomnoms/nomnoms/internal/catalog"
	"github.com/nomnoms/nomnoms/internal/doordash"
	"github.com/nomnoms/nomnoms/internal/log"
	"github.com/nomnoms/nomnoms/internal/ordering"
)

var (
	testRestaurantID = "64f000000000000000000001"
	testItemID       = "64f000000000000000000011"
)

type fakeDirectory struct {
	restaurant *catalog.Restaurant
	items      map[string]*catalog.Item
}

func (f *fakeDirectory) RestaurantByName(_ context.Context, name string) (*catalog.Restaurant, error) {
	if f.restaurant != nil && strings.Contains(strings.ToLower(f.restaurant.Name), strings.ToLower(name)) {
		return f.restaurant, nil
	}
	return nil, fmt.Errorf("restaurant %q: %w", name, catalog.ErrNotFound)
}

func (f *fakeDirectory) ItemByName(_ context.Context, _ *catalog.Restaurant, name string) (*catalog.Item, error) {
	for itemName, item := range f.items {
		if strings.EqualFold(itemName, name) {
			return item, nil
		}
	}
	return nil, fmt.Errorf("item %q: %w", name, catalog.ErrNotFound)
}

type fakeOrdering struct {
	list     *ordering.RestaurantList
	menu     *ordering.Menu
	item     *ordering.ItemView
	cart     *ordering.Cart
	estimate *ordering.Estimate
	receipt  *catalog.Receipt
	err      error

	lastCart ordering.CartRequest
}

func (f *fakeOrdering) ListRestaurants(context.Context, int64, int64) (*ordering.RestaurantList, error) {
	return f.list, f.err
}

func (f *fakeOrdering) MenuByName(context.Context, string) (*ordering.Menu, error) {
	return f.menu, f.err
}

func (f *fakeOrdering) Item(context.Context, string) (*ordering.ItemView, error) {
	return f.item, f.err
}

func (f *fakeOrdering) BuildCart(_ context.Context, req ordering.CartRequest) (*ordering.Cart, error) {
	f.lastCart = req
	return f.cart, f.err
}

func (f *fakeOrdering) CostEstimate(_ context.Context, req ordering.CartRequest) (*ordering.Estimate, error) {
	f.lastCart = req
	return f.estimate, f.err
}

func (f *fakeOrdering) CreateReceipt(context.Context, ordering.ReceiptRequest) (*catalog.Receipt, error) {
	return f.receipt, f.err
}

type fakeDelivery struct {
	delivery *doordash.Delivery
	err      error
}

func (f *fakeDelivery) CreateDelivery(context.Context, *doordash.DeliveryRequest) (*doordash.Delivery, error) {
	return f.delivery, f.err
}

func (f *fakeDelivery) TrackDelivery(context.Context, string) (*doordash.Delivery, error) {
	return f.delivery, f.err
}

func newTestDispatcher(t *testing.T, ord *fakeOrdering, del *fakeDelivery) *Dispatcher {
	t.Helper()
	rid, err := primitive.ObjectIDFromHex(testRestaurantID)
	require.NoError(t, err)
	iid, err := primitive.ObjectIDFromHex(testItemID)
	require.NoError(t, err)

	dir := &fakeDirectory{
		restaurant: &catalog.Restaurant{ID: rid, Name: "U ME"},
		items: map[string]*catalog.Item{
			"California Roll": {ID: iid, Name: "California Roll"},
		},
	}
	return NewDispatcher(ord, del, NewResolver(dir), log.NewNop())
}

func TestExecuteUnknownTool(t *testing.T) {
	d := newTestDispatcher(t, &fakeOrdering{}, &fakeDelivery{})

	result := d.Execute(t.Context(), "teleport_food", nil)
	assert.Equal(t, "Unknown function: teleport_food", result["error"])
	assert.NotEmpty(t, result["error_type"])
}

func TestExecuteNeverPanics(t *testing.T) {
	// A failing backend plus garbage arguments for every declared
	// tool must still come back as a structured result.
	d := newTestDispatcher(t,
		&fakeOrdering{err: fmt.Errorf("backend down")},
		&fakeDelivery{err: fmt.Errorf("backend down")})

	malformed := []map[string]any{
		nil,
		{},
		{"restaurant_name": 42, "item_name": []any{"x"}, "items": "not a list"},
		{"items": []any{"not a map"}, "limit": "many", "external_delivery_id": 7},
		{"restaurant_name": "U ME", "items": []any{map[string]any{"item_name": "", "quantity": -3}}},
	}

	for _, tool := range Registry() {
		for _, args := range malformed {
			result := d.Execute(t.Context(), tool.Name, args)
			require.NotNil(t, result, "tool %s", tool.Name)
			if _, failed := result["error"]; failed {
				assert.NotEmpty(t, result["error_type"], "tool %s", tool.Name)
			}
		}
	}
}

func TestListRestaurantsMinimalProjection(t *testing.T) {
	views := make([]ordering.RestaurantView, 25)
	for i := range views {
		views[i] = ordering.RestaurantView{
			ID:            fmt.Sprintf("64f0000000000000000000%02x", i),
			StoreID:       fmt.Sprintf("store-%d", i),
			Name:          fmt.Sprintf("Restaurant %d", i),
			Description:   "$ • Japanese, Fast Casual",
			DeliveryFee:   1.99,
			AverageRating: 4.5,
		}
	}
	ord := &fakeOrdering{list: &ordering.RestaurantList{Restaurants: views, Total: 25, Limit: 100}}
	d := newTestDispatcher(t, ord, &fakeDelivery{})

	result := d.Execute(t.Context(), ToolListRestaurants, map[string]any{"limit": float64(100)})
	require.NotContains(t, result, "error")

	assert.Equal(t, true, result["truncated"])
	assert.Contains(t, result["note"], "25 restaurants")

	restaurants, ok := result["restaurants"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, restaurants, 25)
	// Minimal projection only.
	assert.Contains(t, restaurants[0], "_id")
	assert.Contains(t, restaurants[0], "description")
	assert.NotContains(t, restaurants[0], "delivery_fee")
	assert.NotContains(t, restaurants[0], "average_rating")
}

func TestListRestaurantsSmallListUntouched(t *testing.T) {
	ord := &fakeOrdering{list: &ordering.RestaurantList{
		Restaurants: []ordering.RestaurantView{{ID: testRestaurantID, Name: "U ME", DeliveryFee: 2.99}},
		Total:       1,
	}}
	d := newTestDispatcher(t, ord, &fakeDelivery{})

	result := d.Execute(t.Context(), ToolListRestaurants, nil)
	require.NotContains(t, result, "error")
	assert.NotContains(t, result, "truncated")
}

func TestRestaurantMenuTruncation(t *testing.T) {
	items := make([]ordering.ItemView, 30)
	for i := range items {
		items[i] = ordering.ItemView{ID: fmt.Sprintf("item-%d", i), Name: fmt.Sprintf("Dish %d", i)}
	}
	ord := &fakeOrdering{menu: &ordering.Menu{
		RestaurantID:   testRestaurantID,
		RestaurantName: "U ME",
		Items:          items,
		TotalItems:     30,
	}}
	d := newTestDispatcher(t, ord, &fakeDelivery{})

	result := d.Execute(t.Context(), ToolGetRestaurantMenu, map[string]any{"restaurant_name": "U ME"})
	require.NotContains(t, result, "error")

	returned, ok := result["items"].([]any)
	require.True(t, ok)
	assert.Len(t, returned, 20)
	assert.Equal(t, float64(20), result["total_items"])

	// The shared menu is not mutated.
	assert.Len(t, ord.menu.Items, 30)
	assert.Equal(t, 30, ord.menu.TotalItems)
}

func TestBuildCartResolvesNames(t *testing.T) {
	ord := &fakeOrdering{cart: &ordering.Cart{RestaurantID: testRestaurantID, Total: 12.99}}
	d := newTestDispatcher(t, ord, &fakeDelivery{})

	result := d.Execute(t.Context(), ToolBuildCart, map[string]any{
		"restaurant_name": "u me",
		"items": []any{
			map[string]any{"item_name": "california roll", "quantity": float64(2)},
		},
	})
	require.NotContains(t, result, "error")

	assert.Equal(t, testRestaurantID, ord.lastCart.RestaurantID)
	require.Len(t, ord.lastCart.Items, 1)
	assert.Equal(t, testItemID, ord.lastCart.Items[0].ItemID)
	assert.Equal(t, 2, ord.lastCart.Items[0].Quantity)
}

func TestBuildCartUnknownRestaurant(t *testing.T) {
	d := newTestDispatcher(t, &fakeOrdering{}, &fakeDelivery{})

	result := d.Execute(t.Context(), ToolBuildCart, map[string]any{
		"restaurant_name": "Nowhere Diner",
		"items": []any{
			map[string]any{"item_name": "California Roll", "quantity": float64(1)},
		},
	})
	assert.Equal(t, "not_found", result["error_type"])
	assert.Contains(t, result["error"], "Nowhere Diner")
}

func TestErrorResultClassification(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantType string
	}{
		{"not found", fmt.Errorf("x: %w", catalog.ErrNotFound), "not_found"},
		{"validation", fmt.Errorf("x: %w", ordering.ErrValidation), "validation_error"},
		{"missing creds", doordash.ErrMissingCredentials, "configuration_error"},
		{"upstream", &doordash.APIError{StatusCode: 502, Body: "bad gateway"}, "upstream_error"},
		{"unknown", fmt.Errorf("boom"), "unexpected_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := errorResult(tt.err)
			assert.Equal(t, tt.wantType, result["error_type"])
			assert.NotEmpty(t, result["error"])
		})
	}
}

func TestTrackDeliveryUpstreamError(t *testing.T) {
	d := newTestDispatcher(t, &fakeOrdering{}, &fakeDelivery{
		err: &doordash.APIError{StatusCode: 429, Body: "slow down"},
	})

	result := d.Execute(t.Context(), ToolTrackDelivery, map[string]any{"external_delivery_id": "D-1"})
	assert.Equal(t, "upstream_error", result["error_type"])
	assert.Equal(t, 429, result["status_code"])
}
