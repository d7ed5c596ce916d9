package ordering

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nomnoms/nomnoms/internal/catalog"
	"github.com/nomnoms/nomnoms/internal/log"
)

// ErrValidation indicates a malformed or incomplete request: an empty item
// list, a quantity below 1, or an item id the catalog does not know.
// Surfaced as HTTP 400 at the API boundary.
var ErrValidation = errors.New("validation failed")

// Listing bounds for the REST surface.
const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// receiptCodePrefix starts every human-readable receipt code.
const receiptCodePrefix = "RCP"

// Catalog is the document-store surface the service consumes.
// Implemented by *catalog.Store; tests substitute a fake.
type Catalog interface {
	ListRestaurants(ctx context.Context, limit, skip int64) ([]catalog.Restaurant, error)
	CountRestaurants(ctx context.Context) (int64, error)
	RestaurantByID(ctx context.Context, id string) (*catalog.Restaurant, error)
	RestaurantByName(ctx context.Context, name string) (*catalog.Restaurant, error)
	MenuItems(ctx context.Context, r *catalog.Restaurant) ([]catalog.Item, error)
	ItemByID(ctx context.Context, id string) (*catalog.Item, error)
	ItemsByIDs(ctx context.Context, ids []string) ([]catalog.Item, error)
	ItemByName(ctx context.Context, r *catalog.Restaurant, name string) (*catalog.Item, error)
	InsertReceipt(ctx context.Context, receipt *catalog.Receipt) (string, error)
	CountReceiptsWithPrefix(ctx context.Context, prefix string) (int64, error)
	ReceiptByCode(ctx context.Context, code string) (*catalog.Receipt, error)
}

// Service implements cart pricing, cost estimation, and receipt creation.
// Stateless; safe for concurrent use.
type Service struct {
	catalog Catalog
	logger  log.Logger
	taxRate float64
	now     func() time.Time
}

// NewService creates a Service. taxRate is the estimated sales-tax rate
// applied by estimates and receipts (e.g. 0.085).
func NewService(cat Catalog, taxRate float64, logger log.Logger) *Service {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Service{
		catalog: cat,
		logger:  logger,
		taxRate: taxRate,
		now:     time.Now,
	}
}

// ListRestaurants returns a page of restaurants. limit is clamped to
// [1, MaxListLimit] with DefaultListLimit for zero; negative skip becomes 0.
func (s *Service) ListRestaurants(ctx context.Context, limit, skip int64) (*RestaurantList, error) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	if skip < 0 {
		skip = 0
	}

	docs, err := s.catalog.ListRestaurants(ctx, limit, skip)
	if err != nil {
		return nil, err
	}
	total, err := s.catalog.CountRestaurants(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]RestaurantView, 0, len(docs))
	for i := range docs {
		views = append(views, viewRestaurant(&docs[i]))
	}

	return &RestaurantList{
		Restaurants: views,
		Total:       total,
		Limit:       limit,
		Skip:        skip,
	}, nil
}

// Menu returns the menu of the restaurant with the given id.
func (s *Service) Menu(ctx context.Context, restaurantID string) (*Menu, error) {
	r, err := s.catalog.RestaurantByID(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	return s.menuFor(ctx, r)
}

// MenuByName returns the menu of the restaurant matching name
// (case-insensitive, exact before substring).
func (s *Service) MenuByName(ctx context.Context, name string) (*Menu, error) {
	r, err := s.catalog.RestaurantByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.menuFor(ctx, r)
}

func (s *Service) menuFor(ctx context.Context, r *catalog.Restaurant) (*Menu, error) {
	items, err := s.catalog.MenuItems(ctx, r)
	if err != nil {
		return nil, err
	}

	views := make([]ItemView, 0, len(items))
	for i := range items {
		views = append(views, viewItem(&items[i]))
	}

	return &Menu{
		RestaurantID:   r.ID.Hex(),
		RestaurantName: r.Name,
		Items:          views,
		TotalItems:     len(views),
	}, nil
}

// Item returns a single menu item by id.
func (s *Service) Item(ctx context.Context, itemID string) (*ItemView, error) {
	item, err := s.catalog.ItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	v := viewItem(item)
	return &v, nil
}

// BuildCart prices a cart against the restaurant's current menu.
// Fails with ErrValidation if any referenced item is missing; a partially
// priced cart is never returned.
func (s *Service) BuildCart(ctx context.Context, req CartRequest) (*Cart, error) {
	r, lines, subtotal, err := s.price(ctx, req.RestaurantID, req.Items)
	if err != nil {
		return nil, err
	}

	fee := s.deliveryFee(r)
	return &Cart{
		RestaurantID:   req.RestaurantID,
		RestaurantName: r.Name,
		Items:          lines,
		Subtotal:       round2(subtotal),
		DeliveryFee:    round2(fee),
		Total:          round2(subtotal + fee),
	}, nil
}

// CostEstimate prices a cart and adds estimated tax without persisting
// anything. Subtotal and delivery fee are computed identically to BuildCart.
func (s *Service) CostEstimate(ctx context.Context, req CartRequest) (*Estimate, error) {
	r, _, subtotal, err := s.price(ctx, req.RestaurantID, req.Items)
	if err != nil {
		return nil, err
	}

	fee := s.deliveryFee(r)
	tax := subtotal * s.taxRate
	return &Estimate{
		RestaurantID:   req.RestaurantID,
		RestaurantName: r.Name,
		Subtotal:       round2(subtotal),
		DeliveryFee:    round2(fee),
		EstimatedTax:   round2(tax),
		EstimatedTotal: round2(subtotal + fee + tax),
	}, nil
}

// CreateReceipt prices the order, assigns the next receipt code for the
// current UTC day, and persists the receipt. The write is immediate and is
// never rolled back by later failures in the same conversation.
func (s *Service) CreateReceipt(ctx context.Context, req ReceiptRequest) (*catalog.Receipt, error) {
	r, lines, subtotal, err := s.price(ctx, req.RestaurantID, req.Items)
	if err != nil {
		return nil, err
	}

	fee := s.deliveryFee(r)
	tax := subtotal * s.taxRate

	code, err := s.nextReceiptCode(ctx)
	if err != nil {
		return nil, err
	}

	receiptItems := make([]catalog.ReceiptItem, len(lines))
	for i, line := range lines {
		receiptItems[i] = catalog.ReceiptItem{
			ItemID:      line.ItemID,
			Name:        line.Name,
			Description: line.Description,
			Price:       line.Price,
			Quantity:    line.Quantity,
			Subtotal:    line.Subtotal,
		}
	}

	receipt := &catalog.Receipt{
		ReceiptID:       code,
		RestaurantID:    req.RestaurantID,
		RestaurantName:  r.Name,
		Items:           receiptItems,
		Subtotal:        round2(subtotal),
		DeliveryFee:     round2(fee),
		Tax:             round2(tax),
		Total:           round2(subtotal + fee + tax),
		DeliveryID:      req.DeliveryID,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		DeliveryAddress: req.DeliveryAddress,
		CreatedAt:       s.now().UTC(),
	}

	id, err := s.catalog.InsertReceipt(ctx, receipt)
	if err != nil {
		return nil, err
	}
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		receipt.ID = oid
	}

	s.logger.Info("receipt created",
		"receipt_id", code,
		"restaurant", r.Name,
		"total", receipt.Total,
	)
	return receipt, nil
}

// ReceiptByCode returns a persisted receipt by its human-readable code.
func (s *Service) ReceiptByCode(ctx context.Context, code string) (*catalog.Receipt, error) {
	return s.catalog.ReceiptByCode(ctx, code)
}

// price validates the request, loads the restaurant and every referenced
// item, and returns priced lines plus the unrounded subtotal.
func (s *Service) price(ctx context.Context, restaurantID string, refs []CartItemRef) (*catalog.Restaurant, []CartLine, float64, error) {
	if len(refs) == 0 {
		return nil, nil, 0, fmt.Errorf("%w: at least one item is required", ErrValidation)
	}
	for _, ref := range refs {
		if ref.Quantity < 1 {
			return nil, nil, 0, fmt.Errorf("%w: quantity for item %s must be at least 1", ErrValidation, ref.ItemID)
		}
	}

	r, err := s.catalog.RestaurantByID(ctx, restaurantID)
	if err != nil {
		return nil, nil, 0, err
	}

	ids := make([]string, len(refs))
	for i, ref := range refs {
		ids[i] = ref.ItemID
	}
	items, err := s.catalog.ItemsByIDs(ctx, ids)
	if err != nil {
		return nil, nil, 0, err
	}

	byID := make(map[string]*catalog.Item, len(items))
	for i := range items {
		byID[items[i].ID.Hex()] = &items[i]
	}

	lines := make([]CartLine, 0, len(refs))
	var subtotal float64
	for _, ref := range refs {
		item, ok := byID[ref.ItemID]
		if !ok {
			return nil, nil, 0, fmt.Errorf("%w: item %s not found", ErrValidation, ref.ItemID)
		}

		price, parsed := ParseMoney(item.Price)
		if !parsed && item.Price.Present {
			s.logger.Warn("unparseable item price treated as zero",
				"item", item.Name, "raw", item.Price.Raw)
		}
		lineSubtotal := price * float64(ref.Quantity)
		subtotal += lineSubtotal

		lines = append(lines, CartLine{
			ItemID:      ref.ItemID,
			Name:        item.Name,
			Description: item.Description,
			Price:       price,
			Quantity:    ref.Quantity,
			Subtotal:    round2(lineSubtotal),
		})
	}

	return r, lines, subtotal, nil
}

// deliveryFee normalizes the restaurant's delivery fee, logging when free
// text could not be parsed rather than pricing it silently.
func (s *Service) deliveryFee(r *catalog.Restaurant) float64 {
	fee, ok := ParseMoney(r.DeliveryFee)
	if !ok && r.DeliveryFee.Present {
		s.logger.Warn("unparseable delivery fee treated as zero",
			"restaurant", r.Name, "raw", r.DeliveryFee.Raw)
	}
	return fee
}

// nextReceiptCode builds RCP-YYYYMMDD-NNN where NNN is the 1-based,
// zero-padded sequence number within the current UTC day.
func (s *Service) nextReceiptCode(ctx context.Context) (string, error) {
	prefix := fmt.Sprintf("%s-%s-", receiptCodePrefix, s.now().UTC().Format("20060102"))
	n, err := s.catalog.CountReceiptsWithPrefix(ctx, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%03d", prefix, n+1), nil
}

// round2 rounds to two decimal places, half away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
