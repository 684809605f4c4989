package domain

// Step is the conversation state a customer is currently in. It tracks only
// which kind of input the bot expects next, not the order history.
type Step string

const (
	StepIdle                 Step = "idle"
	StepRegistering          Step = "registering"
	StepSelectingServiceType Step = "selecting_service_type"
	StepAwaitingAddress      Step = "awaiting_address"
	StepReady                Step = "ready"
)

type OrderType string

const (
	OrderTypeUnset    OrderType = ""
	OrderTypeDelivery OrderType = "delivery"
	OrderTypePickup   OrderType = "pickup"
)

// DisplayName returns the customer-facing name of the service type.
func (t OrderType) DisplayName() string {
	switch t {
	case OrderTypeDelivery:
		return "Yetkazib berish"
	case OrderTypePickup:
		return "Olib ketish"
	default:
		return "Tanlanmagan"
	}
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Session is the per-customer conversation state. One instance per customer
// id, owned exclusively by the session store; all mutation goes through the
// store so concurrent events for the same customer cannot race.
type Session struct {
	CustomerID  int64
	Phone       string
	OrderType   OrderType
	Location    *Location // set only for delivery with shared coordinates
	AddressText string
	Cart        []CartItem // legacy inline-catalog path only
	Step        Step
}

// Reset re-initializes the session in place, keeping only the customer id.
// Running it twice yields the same state.
func (s *Session) Reset() {
	s.Phone = ""
	s.OrderType = OrderTypeUnset
	s.Location = nil
	s.AddressText = ""
	s.Cart = nil
	s.Step = StepRegistering
}

// SetDeliveryLocation records shared coordinates as the delivery address.
// Coordinates and a typed address are mutually exclusive per delivery flow:
// whichever arrives wins and clears the other.
func (s *Session) SetDeliveryLocation(loc Location, label string) {
	s.Location = &loc
	s.AddressText = label
	s.Step = StepReady
}

// SetDeliveryAddressText records a typed address, dropping any coordinates.
func (s *Session) SetDeliveryAddressText(text string) {
	s.Location = nil
	s.AddressText = text
	s.Step = StepReady
}

// SetPickup selects pickup: no coordinates, fixed branch address.
func (s *Session) SetPickup(branchAddress string) {
	s.OrderType = OrderTypePickup
	s.Location = nil
	s.AddressText = branchAddress
	s.Step = StepReady
}

// HasAddress reports whether any address-capture method has completed.
func (s *Session) HasAddress() bool {
	return s.Location != nil || s.AddressText != ""
}
