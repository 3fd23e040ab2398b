package model

import "time"

// Service identifiers written into every RBX5 checkout item.
const (
	ServiceTypeRobux = "robux"
	ServiceIDRBX5    = "rbx5"
	ServiceNameRBX5  = "Robux via Gamepass (RBX5)"
)

// CheckoutItem is the payload handed to the checkout page.
// Field names follow the storefront's camelCase contract.
type CheckoutItem struct {
	ServiceType    string      `json:"serviceType"`
	ServiceID      string      `json:"serviceId"`
	ServiceName    string      `json:"serviceName"`
	Quantity       int64       `json:"quantity"`
	UnitPrice      int64       `json:"unitPrice"`
	RobloxUsername string      `json:"robloxUsername"`
	Rbx5Details    Rbx5Details `json:"rbx5Details"`
}

// Rbx5Details carries everything the fulfilment side needs to buy the gamepass.
type Rbx5Details struct {
	RobuxAmount     int64   `json:"robuxAmount"`
	PackageName     string  `json:"packageName,omitempty"`
	GamepassAmount  int64   `json:"gamepassAmount"`
	GamepassID      int64   `json:"gamepassId"`
	GamepassName    string  `json:"gamepassName"`
	PlaceID         int64   `json:"placeId"`
	PlaceName       string  `json:"placeName"`
	UniverseID      int64   `json:"universeId"`
	UserID          int64   `json:"userId"`
	DisplayName     string  `json:"displayName"`
	AvatarURL       *string `json:"avatarUrl,omitempty"`
	PricePerHundred string  `json:"pricePerHundred"`
}

// Order statuses.
const (
	OrderStatusPendingPayment = "pending_payment"
	OrderStatusExpired        = "expired"
)

// Order is a claimed checkout handoff persisted for payment.
type Order struct {
	ID             string      `json:"id" bson:"_id"`
	HandoffToken   string      `json:"handoff_token" bson:"handoff_token"`
	ServiceType    string      `json:"service_type" bson:"service_type"`
	ServiceID      string      `json:"service_id" bson:"service_id"`
	Quantity       int64       `json:"quantity" bson:"quantity"`
	UnitPrice      int64       `json:"unit_price" bson:"unit_price"`
	RobloxUsername string      `json:"roblox_username" bson:"roblox_username"`
	RobloxUserID   int64       `json:"roblox_user_id" bson:"roblox_user_id"`
	PlaceID        int64       `json:"place_id" bson:"place_id"`
	UniverseID     int64       `json:"universe_id" bson:"universe_id"`
	GamepassID     int64       `json:"gamepass_id" bson:"gamepass_id"`
	GamepassAmount int64       `json:"gamepass_amount" bson:"gamepass_amount"`
	Details        Rbx5Details `json:"details" bson:"details"`
	Status         string      `json:"status" bson:"status"`
	CreatedAt      time.Time   `json:"created_at" bson:"created_at"`
}

// NewOrder builds a pending order from a claimed checkout item.
func NewOrder(id, handoffToken string, item CheckoutItem, now time.Time) *Order {
	return &Order{
		ID:             id,
		HandoffToken:   handoffToken,
		ServiceType:    item.ServiceType,
		ServiceID:      item.ServiceID,
		Quantity:       item.Quantity,
		UnitPrice:      item.UnitPrice,
		RobloxUsername: item.RobloxUsername,
		RobloxUserID:   item.Rbx5Details.UserID,
		PlaceID:        item.Rbx5Details.PlaceID,
		UniverseID:     item.Rbx5Details.UniverseID,
		GamepassID:     item.Rbx5Details.GamepassID,
		GamepassAmount: item.Rbx5Details.GamepassAmount,
		Details:        item.Rbx5Details,
		Status:         OrderStatusPendingPayment,
		CreatedAt:      now,
	}
}
