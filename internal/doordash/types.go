package doordash

import "encoding/json"

// DeliveryRequest is the create-delivery payload. Optional fields are
// omitted from the JSON body when empty.
type DeliveryRequest struct {
	ExternalDeliveryID       string `json:"external_delivery_id"`
	PickupAddress            string `json:"pickup_address"`
	PickupBusinessName       string `json:"pickup_business_name"`
	PickupPhoneNumber        string `json:"pickup_phone_number"`
	PickupInstructions       string `json:"pickup_instructions,omitempty"`
	PickupReferenceTag       string `json:"pickup_reference_tag,omitempty"`
	DropoffAddress           string `json:"dropoff_address"`
	DropoffBusinessName      string `json:"dropoff_business_name,omitempty"`
	DropoffPhoneNumber       string `json:"dropoff_phone_number"`
	DropoffInstructions      string `json:"dropoff_instructions,omitempty"`
	DropoffContactGivenName  string `json:"dropoff_contact_given_name,omitempty"`
	DropoffContactFamilyName string `json:"dropoff_contact_family_name,omitempty"`
	OrderValue               int    `json:"order_value,omitempty"`
}

// Delivery is the provider's view of a delivery. The API returns more
// fields than we model; anything unrecognized is kept verbatim in
// Extra and round-trips through MarshalJSON so callers see the full
// provider response.
type Delivery struct {
	ID                   string `json:"id,omitempty"`
	ExternalDeliveryID   string `json:"external_delivery_id,omitempty"`
	DeliveryStatus       string `json:"delivery_status,omitempty"`
	TrackingURL          string `json:"tracking_url,omitempty"`
	Currency             string `json:"currency,omitempty"`
	PickupAddress        string `json:"pickup_address,omitempty"`
	DropoffAddress       string `json:"dropoff_address,omitempty"`
	PickupDeadline       string `json:"pickup_deadline,omitempty"`
	DropoffDeadline      string `json:"dropoff_deadline,omitempty"`
	ActualPickupTime     string `json:"actual_pickup_time,omitempty"`
	ActualDropoffTime    string `json:"actual_dropoff_time,omitempty"`
	EstimatedPickupTime  string `json:"estimated_pickup_time,omitempty"`
	EstimatedDropoffTime string `json:"estimated_dropoff_time,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// knownDeliveryFields mirrors the json tags above.
var knownDeliveryFields = []string{
	"id", "external_delivery_id", "delivery_status", "tracking_url",
	"currency", "pickup_address", "dropoff_address", "pickup_deadline",
	"dropoff_deadline", "actual_pickup_time", "actual_dropoff_time",
	"estimated_pickup_time", "estimated_dropoff_time",
}

func (d *Delivery) UnmarshalJSON(data []byte) error {
	type alias Delivery
	var known alias
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, field := range knownDeliveryFields {
		delete(all, field)
	}
	if len(all) == 0 {
		all = nil
	}

	*d = Delivery(known)
	d.Extra = all
	return nil
}

func (d Delivery) MarshalJSON() ([]byte, error) {
	type alias Delivery
	data, err := json.Marshal(alias(d))
	if err != nil {
		return nil, err
	}
	if len(d.Extra) == 0 {
		return data, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for k, v := range d.Extra {
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}
