package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/nomnoms/nomnoms/internal/catalog"
)

// Directory is the name-lookup surface the resolver needs from the
// catalog.
type Directory interface {
	RestaurantByName(ctx context.Context, name string) (*catalog.Restaurant, error)
	ItemByName(ctx context.Context, r *catalog.Restaurant, name string) (*catalog.Item, error)
}

// Resolver maps the human-friendly names the model works with onto
// catalog ids. Lookups are case-insensitive, exact match first, then
// substring. Errors name the lookup that failed so the model can
// relay it to the user.
type Resolver struct {
	dir Directory
}

func NewResolver(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// Restaurant resolves a restaurant name to its id.
func (r *Resolver) Restaurant(ctx context.Context, name string) (string, error) {
	restaurant, err := r.dir.RestaurantByName(ctx, name)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return "", fmt.Errorf("restaurant '%s' %w", name, catalog.ErrNotFound)
		}
		return "", err
	}
	return restaurant.ID.Hex(), nil
}

// Item resolves (restaurant name, item name) to (restaurant id, item
// id). The item search is scoped to the restaurant's menu.
func (r *Resolver) Item(ctx context.Context, restaurantName, itemName string) (string, string, error) {
	restaurant, err := r.dir.RestaurantByName(ctx, restaurantName)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return "", "", fmt.Errorf("restaurant '%s' %w", restaurantName, catalog.ErrNotFound)
		}
		return "", "", err
	}

	item, err := r.dir.ItemByName(ctx, restaurant, itemName)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return "", "", fmt.Errorf("item '%s' in restaurant '%s' %w", itemName, restaurantName, catalog.ErrNotFound)
		}
		return "", "", err
	}
	return restaurant.ID.Hex(), item.ID.Hex(), nil
}
