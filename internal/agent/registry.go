package agent

import "google.golang.org/genai"

// Tool names dispatched by the agent.
const (
	ToolListRestaurants     = "list_restaurants"
	ToolGetRestaurantMenu   = "get_restaurant_menu"
	ToolGetMenuItem         = "get_menu_item"
	ToolBuildCart           = "build_cart"
	ToolComputeCostEstimate = "compute_cost_estimate"
	ToolCreateReceipt       = "create_receipt"
	ToolCreateDelivery      = "create_delivery"
	ToolTrackDelivery       = "track_delivery"
)

// Tool declares a callable function to the model.
type Tool struct {
	Name        string
	Description string
	Parameters  *genai.Schema
}

func cartItemsSchema(description string) *genai.Schema {
	return &genai.Schema{
		Type:        genai.TypeArray,
		Description: description,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"item_name": {
					Type:        genai.TypeString,
					Description: "Name of the menu item (e.g., 'California Roll', 'Burger', 'Pad Thai')",
				},
				"quantity": {
					Type:        genai.TypeInteger,
					Description: "Quantity of the item (minimum 1)",
					Minimum:     genai.Ptr[float64](1),
				},
			},
			Required: []string{"item_name", "quantity"},
		},
	}
}

var restaurantNameSchema = &genai.Schema{
	Type:        genai.TypeString,
	Description: "Name of the restaurant (e.g., 'U ME', 'Denny's', 'Wasabi Saratoga')",
}

// Registry returns the static tool declarations exposed to the model.
func Registry() []Tool {
	return []Tool{
		{
			Name: ToolListRestaurants,
			Description: "List all restaurants with pagination. CRITICAL: When searching for specific cuisines " +
				"(e.g., Japanese, sushi, pizza), you MUST use limit=100 to get ALL restaurants. Restaurant cuisine " +
				"information is in the 'description' field (e.g., '$ • Japanese, Fast Casual' or '$$ • Sushi, Salads'). " +
				"You must search through all restaurants by calling with limit=100, then filter the results by " +
				"searching the description field for the cuisine type.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"limit": {
						Type: genai.TypeInteger,
						Description: "Maximum number of restaurants to return (1-100, default: 100). MANDATORY: " +
							"When searching for specific cuisines, you MUST use limit=100 to get ALL restaurants. " +
							"Using a smaller limit will cause you to miss restaurants.",
						Minimum: genai.Ptr[float64](1),
						Maximum: genai.Ptr[float64](100),
					},
					"skip": {
						Type:        genai.TypeInteger,
						Description: "Number of restaurants to skip for pagination (default: 0)",
						Minimum:     genai.Ptr[float64](0),
					},
				},
			},
		},
		{
			Name: ToolGetRestaurantMenu,
			Description: "Get menu items for a specific restaurant by restaurant name. Use the restaurant name " +
				"directly (e.g., 'U ME', 'Denny's', 'Wasabi Saratoga'). The search is case-insensitive and will " +
				"find exact or partial matches.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"restaurant_name": restaurantNameSchema,
				},
				Required: []string{"restaurant_name"},
			},
		},
		{
			Name: ToolGetMenuItem,
			Description: "Get details of a specific menu item by restaurant name and item name. Use human-friendly " +
				"names (e.g., restaurant_name: 'U ME', item_name: 'California Roll').",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"restaurant_name": restaurantNameSchema,
					"item_name": {
						Type:        genai.TypeString,
						Description: "Name of the menu item (e.g., 'California Roll', 'Burger', 'Pad Thai')",
					},
				},
				Required: []string{"restaurant_name", "item_name"},
			},
		},
		{
			Name: ToolBuildCart,
			Description: "Build a shopping cart with items from a restaurant using restaurant and item names. " +
				"Use human-friendly names (e.g., restaurant_name: 'U ME', items with item_name: 'California Roll').",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"restaurant_name": restaurantNameSchema,
					"items":           cartItemsSchema("List of items to add to cart using item names"),
				},
				Required: []string{"restaurant_name", "items"},
			},
		},
		{
			Name: ToolComputeCostEstimate,
			Description: "Compute cost estimate for a cart using restaurant and item names. Use human-friendly " +
				"names (e.g., restaurant_name: 'U ME', items with item_name: 'California Roll').",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"restaurant_name": restaurantNameSchema,
					"items":           cartItemsSchema("List of items in cart using item names"),
				},
				Required: []string{"restaurant_name", "items"},
			},
		},
		{
			Name: ToolCreateReceipt,
			Description: "Create a receipt for a completed order using restaurant and item names. Use " +
				"human-friendly names (e.g., restaurant_name: 'U ME', items with item_name: 'California Roll').",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"restaurant_name": restaurantNameSchema,
					"items":           cartItemsSchema("List of items in the order using item names"),
					"delivery_id": {
						Type:        genai.TypeString,
						Description: "Optional DoorDash delivery external_delivery_id if linked to a delivery",
					},
					"customer_name": {
						Type:        genai.TypeString,
						Description: "Customer name",
					},
					"customer_email": {
						Type:        genai.TypeString,
						Description: "Customer email",
					},
					"customer_phone": {
						Type:        genai.TypeString,
						Description: "Customer phone number",
					},
					"delivery_address": {
						Type:        genai.TypeString,
						Description: "Delivery address",
					},
				},
				Required: []string{"restaurant_name", "items"},
			},
		},
		{
			Name:        ToolCreateDelivery,
			Description: "Create a new DoorDash delivery. Use this to set up delivery for an order.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"external_delivery_id": {
						Type:        genai.TypeString,
						Description: "Unique identifier for the delivery",
					},
					"pickup_address": {
						Type:        genai.TypeString,
						Description: "Pickup address",
					},
					"pickup_business_name": {
						Type:        genai.TypeString,
						Description: "Business name for pickup location",
					},
					"pickup_phone_number": {
						Type:        genai.TypeString,
						Description: "Phone number for pickup location",
					},
					"dropoff_address": {
						Type:        genai.TypeString,
						Description: "Dropoff address",
					},
					"dropoff_phone_number": {
						Type:        genai.TypeString,
						Description: "Phone number for dropoff location",
					},
					"pickup_instructions": {
						Type:        genai.TypeString,
						Description: "Special instructions for pickup",
					},
					"pickup_reference_tag": {
						Type:        genai.TypeString,
						Description: "Reference tag for pickup",
					},
					"dropoff_business_name": {
						Type:        genai.TypeString,
						Description: "Business name for dropoff location",
					},
					"dropoff_instructions": {
						Type:        genai.TypeString,
						Description: "Special instructions for dropoff",
					},
					"dropoff_contact_given_name": {
						Type:        genai.TypeString,
						Description: "Contact first name",
					},
					"dropoff_contact_family_name": {
						Type:        genai.TypeString,
						Description: "Contact last name",
					},
					"order_value": {
						Type:        genai.TypeInteger,
						Description: "Order value in cents",
					},
				},
				Required: []string{
					"external_delivery_id",
					"pickup_address",
					"pickup_business_name",
					"pickup_phone_number",
					"dropoff_address",
					"dropoff_phone_number",
				},
			},
		},
		{
			Name: ToolTrackDelivery,
			Description: "Get the status of a DoorDash delivery by external delivery ID. Use this to check " +
				"delivery status after creating a delivery.",
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"external_delivery_id": {
						Type:        genai.TypeString,
						Description: "The external delivery ID used when creating the delivery",
					},
				},
				Required: []string{"external_delivery_id"},
			},
		},
	}
}
