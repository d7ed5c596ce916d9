// Package catalog provides access to the restaurant, menu-item, and receipt
// collections in MongoDB.
//
// Restaurants own their items two redundant ways in the scraped data: an
// explicit `items` ObjectID list and a shared `store_id`. The id list is the
// source of truth; the store code is the fallback when the list is empty.
package catalog

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection names, fixed by the upstream data import.
const (
	RestaurantsCollection = "Restaurants"
	ItemsCollection       = "Items"
	ReceiptsCollection    = "Receipts"
)

// Restaurant is a restaurant document. Read-only from this service's
// perspective; the collection is populated by an external import.
type Restaurant struct {
	ID              primitive.ObjectID   `bson:"_id" json:"_id"`
	StoreID         string               `bson:"store_id,omitempty" json:"store_id,omitempty"`
	Name            string               `bson:"name,omitempty" json:"name,omitempty"`
	Description     string               `bson:"description,omitempty" json:"description,omitempty"`
	DeliveryFee     Scalar               `bson:"delivery_fee,omitempty" json:"delivery_fee,omitempty"`
	ETA             Scalar               `bson:"eta,omitempty" json:"eta,omitempty"`
	AverageRating   float64              `bson:"average_rating,omitempty" json:"average_rating,omitempty"`
	NumberOfRatings Scalar               `bson:"number_of_ratings,omitempty" json:"number_of_ratings,omitempty"`
	PriceRange      Scalar               `bson:"price_range,omitempty" json:"price_range,omitempty"`
	DistanceMiles   float64              `bson:"distance_miles,omitempty" json:"distance_miles,omitempty"`
	Link            string               `bson:"link,omitempty" json:"link,omitempty"`
	Address         string               `bson:"address,omitempty" json:"address,omitempty"`
	OperatingHours  string               `bson:"operating_hours,omitempty" json:"operating_hours,omitempty"`
	Items           []primitive.ObjectID `bson:"items,omitempty" json:"-"`
}

// ItemIDs returns the restaurant's owned item ids as hex strings.
func (r *Restaurant) ItemIDs() []string {
	ids := make([]string, len(r.Items))
	for i, id := range r.Items {
		ids[i] = id.Hex()
	}
	return ids
}

// Item is a menu-item document.
type Item struct {
	ID            primitive.ObjectID `bson:"_id" json:"_id"`
	StoreID       string             `bson:"store_id,omitempty" json:"store_id,omitempty"`
	Name          string             `bson:"name,omitempty" json:"name,omitempty"`
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`
	Price         Scalar             `bson:"price,omitempty" json:"price,omitempty"`
	RatingPercent float64            `bson:"rating_percent,omitempty" json:"rating_percent,omitempty"`
	ReviewCount   int                `bson:"review_count,omitempty" json:"review_count,omitempty"`
	ImageURL      string             `bson:"image_url,omitempty" json:"image_url,omitempty"`
}

// ReceiptItem is one priced line of a receipt.
type ReceiptItem struct {
	ItemID      string  `bson:"item_id" json:"item_id"`
	Name        string  `bson:"name,omitempty" json:"name,omitempty"`
	Description string  `bson:"description,omitempty" json:"description,omitempty"`
	Price       float64 `bson:"price" json:"price"`
	Quantity    int     `bson:"quantity" json:"quantity"`
	Subtotal    float64 `bson:"subtotal" json:"subtotal"`
}

// Receipt is a persisted, immutable record of a priced order.
// Created once and never mutated or deleted by this service.
type Receipt struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	ReceiptID       string             `bson:"receipt_id" json:"receipt_id"`
	RestaurantID    string             `bson:"restaurant_id" json:"restaurant_id"`
	RestaurantName  string             `bson:"restaurant_name,omitempty" json:"restaurant_name,omitempty"`
	Items           []ReceiptItem      `bson:"items" json:"items"`
	Subtotal        float64            `bson:"subtotal" json:"subtotal"`
	DeliveryFee     float64            `bson:"delivery_fee" json:"delivery_fee"`
	Tax             float64            `bson:"tax" json:"tax"`
	Total           float64            `bson:"total" json:"total"`
	DeliveryID      string             `bson:"delivery_id,omitempty" json:"delivery_id,omitempty"`
	CustomerName    string             `bson:"customer_name,omitempty" json:"customer_name,omitempty"`
	CustomerEmail   string             `bson:"customer_email,omitempty" json:"customer_email,omitempty"`
	CustomerPhone   string             `bson:"customer_phone,omitempty" json:"customer_phone,omitempty"`
	DeliveryAddress string             `bson:"delivery_address,omitempty" json:"delivery_address,omitempty"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
}
