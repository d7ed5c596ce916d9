package ordering

import "github.com/nomnoms/nomnoms/internal/catalog"

// CartItemRef references a menu item by id with a desired quantity.
// Quantity must be at least 1.
type CartItemRef struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// CartRequest asks for a cart (or estimate) to be priced against one
// restaurant's menu.
type CartRequest struct {
	RestaurantID string        `json:"restaurant_id"`
	Items        []CartItemRef `json:"items"`
}

// CartLine is one priced line of a cart.
type CartLine struct {
	ItemID      string  `json:"item_id"`
	Name        string  `json:"name,omitempty"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	Subtotal    float64 `json:"subtotal"`
}

// Cart is a freshly priced cart. Carts have no stored identity; every
// request recomputes from the catalog.
type Cart struct {
	RestaurantID   string     `json:"restaurant_id"`
	RestaurantName string     `json:"restaurant_name,omitempty"`
	Items          []CartLine `json:"items"`
	Subtotal       float64    `json:"subtotal"`
	DeliveryFee    float64    `json:"delivery_fee"`
	Total          float64    `json:"total"`
}

// Estimate is a cart totalled with estimated tax, without persisting anything.
type Estimate struct {
	RestaurantID   string  `json:"restaurant_id"`
	RestaurantName string  `json:"restaurant_name,omitempty"`
	Subtotal       float64 `json:"subtotal"`
	DeliveryFee    float64 `json:"delivery_fee"`
	EstimatedTax   float64 `json:"estimated_tax"`
	EstimatedTotal float64 `json:"estimated_total"`
}

// ReceiptRequest asks for an order to be priced and persisted as a receipt.
type ReceiptRequest struct {
	RestaurantID    string        `json:"restaurant_id"`
	Items           []CartItemRef `json:"items"`
	DeliveryID      string        `json:"delivery_id,omitempty"`
	CustomerName    string        `json:"customer_name,omitempty"`
	CustomerEmail   string        `json:"customer_email,omitempty"`
	CustomerPhone   string        `json:"customer_phone,omitempty"`
	DeliveryAddress string        `json:"delivery_address,omitempty"`
}

// RestaurantView is a restaurant shaped for API and agent consumption:
// loose scraped fields normalized to numbers, original text retained where it
// could not be parsed.
type RestaurantView struct {
	ID              string   `json:"_id"`
	StoreID         string   `json:"store_id,omitempty"`
	Name            string   `json:"name,omitempty"`
	Description     string   `json:"description,omitempty"`
	DeliveryFee     float64  `json:"delivery_fee"`
	DeliveryFeeText string   `json:"delivery_fee_text,omitempty"`
	ETAMinutes      int      `json:"eta,omitempty"`
	ETAText         string   `json:"eta_text,omitempty"`
	AverageRating   float64  `json:"average_rating,omitempty"`
	NumberOfRatings int      `json:"number_of_ratings,omitempty"`
	PriceRange      string   `json:"price_range,omitempty"`
	DistanceMiles   float64  `json:"distance_miles,omitempty"`
	Link            string   `json:"link,omitempty"`
	Address         string   `json:"address,omitempty"`
	OperatingHours  string   `json:"operating_hours,omitempty"`
	Items           []string `json:"items,omitempty"`
}

// ItemView is a menu item shaped for API and agent consumption.
type ItemView struct {
	ID            string  `json:"_id"`
	StoreID       string  `json:"store_id,omitempty"`
	Name          string  `json:"name,omitempty"`
	Description   string  `json:"description,omitempty"`
	Price         float64 `json:"price"`
	PriceText     string  `json:"price_text,omitempty"`
	RatingPercent float64 `json:"rating_percent,omitempty"`
	ReviewCount   int     `json:"review_count,omitempty"`
	ImageURL      string  `json:"image_url,omitempty"`
}

// RestaurantList is a paginated restaurant listing.
type RestaurantList struct {
	Restaurants []RestaurantView `json:"restaurants"`
	Total       int64            `json:"total"`
	Limit       int64            `json:"limit"`
	Skip        int64            `json:"skip"`
}

// Menu is a restaurant's item listing.
type Menu struct {
	RestaurantID   string     `json:"restaurant_id"`
	RestaurantName string     `json:"restaurant_name,omitempty"`
	Items          []ItemView `json:"items"`
	TotalItems     int        `json:"total_items"`
}

// viewRestaurant normalizes a catalog document into a RestaurantView.
// Unparseable text stays visible in the *_text field rather than being
// silently coerced to zero.
func viewRestaurant(r *catalog.Restaurant) RestaurantView {
	v := RestaurantView{
		ID:              r.ID.Hex(),
		StoreID:         r.StoreID,
		Name:            r.Name,
		Description:     r.Description,
		AverageRating:   r.AverageRating,
		PriceRange:      PriceRangeString(r.PriceRange),
		DistanceMiles:   r.DistanceMiles,
		Link:            r.Link,
		Address:         r.Address,
		OperatingHours:  r.OperatingHours,
	}
	if len(r.Items) > 0 {
		v.Items = r.ItemIDs()
	}

	if fee, ok := ParseMoney(r.DeliveryFee); ok {
		v.DeliveryFee = fee
	} else if r.DeliveryFee.Present {
		v.DeliveryFeeText = r.DeliveryFee.Raw
	}
	if eta, ok := ParseETA(r.ETA); ok {
		v.ETAMinutes = eta
	} else if r.ETA.Present {
		v.ETAText = r.ETA.Raw
	}
	if n, ok := ParseRatingCount(r.NumberOfRatings); ok {
		v.NumberOfRatings = n
	}
	return v
}

// viewItem normalizes a catalog item into an ItemView.
func viewItem(item *catalog.Item) ItemView {
	v := ItemView{
		ID:            item.ID.Hex(),
		StoreID:       item.StoreID,
		Name:          item.Name,
		Description:   item.Description,
		RatingPercent: item.RatingPercent,
		ReviewCount:   item.ReviewCount,
		ImageURL:      item.ImageURL,
	}
	if price, ok := ParseMoney(item.Price); ok {
		v.Price = price
	} else if item.Price.Present {
		v.PriceText = item.Price.Raw
	}
	return v
}
