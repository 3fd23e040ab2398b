package workflow

import "rbxstore-api/internal/model"

// Msg is an input to Update.
type Msg interface{ isMsg() }

// UsernameChanged is a keystroke in the username field.
type UsernameChanged struct{ Username string }

// LookupDispatched is sent when the debounce timer fires for Username.
type LookupDispatched struct {
	RequestID uint64
	Username  string
}

// LookupSucceeded carries a resolved identity for RequestID.
type LookupSucceeded struct {
	RequestID uint64
	Identity  model.UserIdentity
}

// LookupFailed carries the failure for RequestID.
type LookupFailed struct {
	RequestID uint64
	Err       *Error
}

// PlacesLoaded carries the places owned by UserID.
type PlacesLoaded struct {
	UserID int64
	Places []model.Place
}

// PlacesFailed carries a place fetch failure for UserID.
type PlacesFailed struct {
	UserID int64
	Err    *Error
}

// PlaceSelected picks one of the loaded places.
type PlaceSelected struct{ PlaceID int64 }

// QuantityChanged sets the Robux quantity, optionally from a preset package.
type QuantityChanged struct {
	Robux       int64
	PackageName string
}

// RateLoaded carries the storefront pricing rate.
type RateLoaded struct{ Rate *model.PricingRate }

// RateFailed carries a pricing rate fetch failure.
type RateFailed struct{ Err *Error }

// VerifyRequested is the user clicking "verify gamepass".
type VerifyRequested struct{}

// VerifySucceeded reports a gamepass matching the amount expected for Quantity.
type VerifySucceeded struct {
	PlaceID  int64
	Quantity int64
	Gamepass model.Gamepass
}

// VerifyFailed reports that no matching gamepass was found, or the check failed.
type VerifyFailed struct {
	PlaceID  int64
	Quantity int64
	Reason   FailureReason
	Err      *Error
	Existing []model.Gamepass
}

func (UsernameChanged) isMsg()  {}
func (LookupDispatched) isMsg() {}
func (LookupSucceeded) isMsg()  {}
func (LookupFailed) isMsg()     {}
func (PlacesLoaded) isMsg()     {}
func (PlacesFailed) isMsg()     {}
func (PlaceSelected) isMsg()    {}
func (QuantityChanged) isMsg()  {}
func (RateLoaded) isMsg()       {}
func (RateFailed) isMsg()       {}
func (VerifyRequested) isMsg()  {}
func (VerifySucceeded) isMsg()  {}
func (VerifyFailed) isMsg()     {}

// Cmd is an effect requested by Update. The session runtime executes it.
type Cmd interface{ isCmd() }

// ScheduleLookup restarts the debounce timer for Username.
type ScheduleLookup struct{ Username string }

// CancelLookup stops any pending debounce timer.
type CancelLookup struct{}

// LookupUser resolves Username upstream.
type LookupUser struct {
	RequestID uint64
	Username  string
}

// FetchPlaces loads the places owned by UserID.
type FetchPlaces struct{ UserID int64 }

// FetchRate loads the pricing rate.
type FetchRate struct{}

// CheckGamepass asks whether a gamepass priced ExpectedAmount exists on UniverseID.
type CheckGamepass struct {
	PlaceID        int64
	UniverseID     int64
	Quantity       int64
	ExpectedAmount int64
}

func (ScheduleLookup) isCmd() {}
func (CancelLookup) isCmd()   {}
func (LookupUser) isCmd()     {}
func (FetchPlaces) isCmd()    {}
func (FetchRate) isCmd()      {}
func (CheckGamepass) isCmd()  {}

// FailureReason explains a failed gamepass verification.
type FailureReason string

const (
	ReasonNoGamepasses  FailureReason = "no_gamepasses"
	ReasonPriceMismatch FailureReason = "price_mismatch"
	ReasonTransient     FailureReason = "transient"
)
