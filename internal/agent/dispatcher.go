package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nomnoms/nomnoms/internal/catalog"
	"github.com/nomnoms/nomnoms/internal/doordash"
	"github.com/nomnoms/nomnoms/internal/log"
	"github.com/nomnoms/nomnoms/internal/ordering"
)

// Menus returned to the model are capped to keep tool results inside
// the context budget.
const maxMenuItems = 20

// Minimal projection kicks in above this many restaurants.
const minimalListThreshold = 20

// Error type labels attached to failed tool results.
const (
	errTypeValidation    = "validation_error"
	errTypeNotFound      = "not_found"
	errTypeUpstream      = "upstream_error"
	errTypeConfiguration = "configuration_error"
	errTypeUnexpected    = "unexpected_error"
)

// Ordering is the slice of the ordering service the dispatcher uses.
type Ordering interface {
	ListRestaurants(ctx context.Context, limit, skip int64) (*ordering.RestaurantList, error)
	MenuByName(ctx context.Context, name string) (*ordering.Menu, error)
	Item(ctx context.Context, itemID string) (*ordering.ItemView, error)
	BuildCart(ctx context.Context, req ordering.CartRequest) (*ordering.Cart, error)
	CostEstimate(ctx context.Context, req ordering.CartRequest) (*ordering.Estimate, error)
	CreateReceipt(ctx context.Context, req ordering.ReceiptRequest) (*catalog.Receipt, error)
}

// DeliveryAPI is the slice of the delivery client the dispatcher uses.
type DeliveryAPI interface {
	CreateDelivery(ctx context.Context, req *doordash.DeliveryRequest) (*doordash.Delivery, error)
	TrackDelivery(ctx context.Context, externalDeliveryID string) (*doordash.Delivery, error)
}

// Dispatcher executes tool calls against the backing services. Execute
// never panics and never returns a Go error to the loop: every failure
// becomes a structured result the model can read and relay.
type Dispatcher struct {
	ordering Ordering
	delivery DeliveryAPI
	resolver *Resolver
	logger   log.Logger
}

func NewDispatcher(ord Ordering, delivery DeliveryAPI, resolver *Resolver, logger log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Dispatcher{
		ordering: ord,
		delivery: delivery,
		resolver: resolver,
		logger:   logger,
	}
}

// Execute runs the named tool with the model-supplied arguments.
func (d *Dispatcher) Execute(ctx context.Context, name string, args map[string]any) (result map[string]any) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("tool call panicked", "tool", name, "panic", r)
			result = map[string]any{
				"error":      fmt.Sprintf("Unexpected error: %v", r),
				"error_type": errTypeUnexpected,
			}
		}
	}()

	d.logger.Debug("executing tool call", "tool", name)

	switch name {
	case ToolListRestaurants:
		return d.listRestaurants(ctx, args)
	case ToolGetRestaurantMenu:
		return d.restaurantMenu(ctx, args)
	case ToolGetMenuItem:
		return d.menuItem(ctx, args)
	case ToolBuildCart:
		return d.buildCart(ctx, args)
	case ToolComputeCostEstimate:
		return d.costEstimate(ctx, args)
	case ToolCreateReceipt:
		return d.createReceipt(ctx, args)
	case ToolCreateDelivery:
		return d.createDelivery(ctx, args)
	case ToolTrackDelivery:
		return d.trackDelivery(ctx, args)
	default:
		return map[string]any{
			"error":      fmt.Sprintf("Unknown function: %s", name),
			"error_type": errTypeValidation,
		}
	}
}

func (d *Dispatcher) listRestaurants(ctx context.Context, args map[string]any) map[string]any {
	limit := int64(argInt(args, "limit", 100))
	if limit > 100 {
		limit = 100
	}
	skip := int64(argInt(args, "skip", 0))

	list, err := d.ordering.ListRestaurants(ctx, limit, skip)
	if err != nil {
		return errorResult(err)
	}

	result := toMap(list)
	if len(list.Restaurants) > minimalListThreshold {
		minimal := make([]map[string]any, 0, len(list.Restaurants))
		for _, r := range list.Restaurants {
			minimal = append(minimal, map[string]any{
				"_id":         r.ID,
				"name":        r.Name,
				"description": r.Description,
				"store_id":    r.StoreID,
			})
		}
		result["restaurants"] = minimal
		result["truncated"] = true
		result["note"] = fmt.Sprintf(
			"Showing minimal data (id, name, description) for %d restaurants. Use get_restaurant_menu for full details.",
			len(minimal))
	}
	return result
}

func (d *Dispatcher) restaurantMenu(ctx context.Context, args map[string]any) map[string]any {
	name := argString(args, "restaurant_name")
	if name == "" {
		return validationError("restaurant_name is required")
	}

	menu, err := d.ordering.MenuByName(ctx, name)
	if err != nil {
		return errorResult(err)
	}
	if len(menu.Items) > maxMenuItems {
		trimmed := *menu
		trimmed.Items = menu.Items[:maxMenuItems]
		trimmed.TotalItems = maxMenuItems
		menu = &trimmed
	}
	return toMap(menu)
}

func (d *Dispatcher) menuItem(ctx context.Context, args map[string]any) map[string]any {
	restaurantName := argString(args, "restaurant_name")
	itemName := argString(args, "item_name")
	if restaurantName == "" || itemName == "" {
		return validationError("restaurant_name and item_name are required")
	}

	_, itemID, err := d.resolver.Item(ctx, restaurantName, itemName)
	if err != nil {
		return errorResult(err)
	}
	item, err := d.ordering.Item(ctx, itemID)
	if err != nil {
		return errorResult(err)
	}
	return toMap(item)
}

func (d *Dispatcher) buildCart(ctx context.Context, args map[string]any) map[string]any {
	req, errResult := d.resolveCart(ctx, args)
	if errResult != nil {
		return errResult
	}
	cart, err := d.ordering.BuildCart(ctx, req)
	if err != nil {
		return errorResult(err)
	}
	return toMap(cart)
}

func (d *Dispatcher) costEstimate(ctx context.Context, args map[string]any) map[string]any {
	req, errResult := d.resolveCart(ctx, args)
	if errResult != nil {
		return errResult
	}
	estimate, err := d.ordering.CostEstimate(ctx, req)
	if err != nil {
		return errorResult(err)
	}
	return toMap(estimate)
}

func (d *Dispatcher) createReceipt(ctx context.Context, args map[string]any) map[string]any {
	cart, errResult := d.resolveCart(ctx, args)
	if errResult != nil {
		return errResult
	}

	req := ordering.ReceiptRequest{
		RestaurantID:    cart.RestaurantID,
		Items:           cart.Items,
		DeliveryID:      argString(args, "delivery_id"),
		CustomerName:    argString(args, "customer_name"),
		CustomerEmail:   argString(args, "customer_email"),
		CustomerPhone:   argString(args, "customer_phone"),
		DeliveryAddress: argString(args, "delivery_address"),
	}
	receipt, err := d.ordering.CreateReceipt(ctx, req)
	if err != nil {
		return errorResult(err)
	}
	return toMap(receipt)
}

func (d *Dispatcher) createDelivery(ctx context.Context, args map[string]any) map[string]any {
	var req doordash.DeliveryRequest
	if err := decodeArgs(args, &req); err != nil {
		return validationError(fmt.Sprintf("Invalid request parameters: %v", err))
	}
	if req.ExternalDeliveryID == "" || req.PickupAddress == "" || req.PickupBusinessName == "" ||
		req.PickupPhoneNumber == "" || req.DropoffAddress == "" || req.DropoffPhoneNumber == "" {
		return validationError("external_delivery_id, pickup_address, pickup_business_name, " +
			"pickup_phone_number, dropoff_address and dropoff_phone_number are required")
	}

	delivery, err := d.delivery.CreateDelivery(ctx, &req)
	if err != nil {
		return errorResult(err)
	}
	return toMap(delivery)
}

func (d *Dispatcher) trackDelivery(ctx context.Context, args map[string]any) map[string]any {
	id := argString(args, "external_delivery_id")
	if id == "" {
		return validationError("external_delivery_id is required")
	}

	delivery, err := d.delivery.TrackDelivery(ctx, id)
	if err != nil {
		return errorResult(err)
	}
	return toMap(delivery)
}

// resolveCart pulls restaurant_name and items out of the arguments and
// resolves every name to an id. A nil second return means success; a
// non-nil map is a ready error result.
func (d *Dispatcher) resolveCart(ctx context.Context, args map[string]any) (ordering.CartRequest, map[string]any) {
	restaurantName := argString(args, "restaurant_name")
	rawItems, _ := args["items"].([]any)
	if restaurantName == "" || len(rawItems) == 0 {
		return ordering.CartRequest{}, validationError("restaurant_name and items are required")
	}

	restaurantID, err := d.resolver.Restaurant(ctx, restaurantName)
	if err != nil {
		return ordering.CartRequest{}, errorResult(err)
	}

	refs := make([]ordering.CartItemRef, 0, len(rawItems))
	for _, raw := range rawItems {
		entry, ok := raw.(map[string]any)
		if !ok {
			return ordering.CartRequest{}, validationError("Each item must have item_name and quantity")
		}
		itemName := argString(entry, "item_name")
		quantity := argInt(entry, "quantity", 0)
		if itemName == "" || quantity < 1 {
			return ordering.CartRequest{}, validationError("Each item must have item_name and quantity")
		}

		_, itemID, err := d.resolver.Item(ctx, restaurantName, itemName)
		if err != nil {
			return ordering.CartRequest{}, errorResult(err)
		}
		refs = append(refs, ordering.CartItemRef{ItemID: itemID, Quantity: quantity})
	}

	return ordering.CartRequest{RestaurantID: restaurantID, Items: refs}, nil
}

func validationError(msg string) map[string]any {
	return map[string]any{"error": msg, "error_type": errTypeValidation}
}

// errorResult converts a service error into the structured form the
// model sees.
func errorResult(err error) map[string]any {
	result := map[string]any{"error": err.Error()}

	var apiErr *doordash.APIError
	switch {
	case errors.Is(err, ordering.ErrValidation):
		result["error_type"] = errTypeValidation
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, doordash.ErrNotFound):
		result["error_type"] = errTypeNotFound
	case errors.Is(err, doordash.ErrMissingCredentials):
		result["error_type"] = errTypeConfiguration
	case errors.As(err, &apiErr):
		result["error_type"] = errTypeUpstream
		result["status_code"] = apiErr.StatusCode
	default:
		result["error_type"] = errTypeUnexpected
	}
	return result
}

// toMap serializes a value through JSON so tool results share the REST
// API's field names.
func toMap(v any) map[string]any {
	data, err := json.Marshal(v)
	if err != nil {
		return map[string]any{
			"error":      fmt.Sprintf("Unexpected error: %v", err),
			"error_type": errTypeUnexpected,
		}
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]any{
			"error":      fmt.Sprintf("Unexpected error: %v", err),
			"error_type": errTypeUnexpected,
		}
	}
	return out
}

func decodeArgs(args map[string]any, out any) error {
	data, err := json.Marshal(args)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func argString(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func argInt(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	default:
		return def
	}
}
