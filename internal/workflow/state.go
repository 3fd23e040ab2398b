// Package workflow holds the RBX5 checkout state machine.
//
// State is a value. Update applies one message and returns the next state plus
// the effects to run; nothing in this package performs I/O.
package workflow

import (
	"rbxstore-api/internal/model"
	"rbxstore-api/internal/pricing"
)

// MinUsernameLength is the shortest trimmed username that triggers a lookup.
const MinUsernameLength = 2

// InvalidatedMessage is raised when the quantity moves away from a verified one.
const InvalidatedMessage = "Robux quantity changed, please re-verify the gamepass"

// State is the complete RBX5 form state of one buyer.
type State struct {
	Username        string
	LookupRequestID uint64
	Searching       bool
	Identity        *model.UserIdentity
	UserError       *Error

	Places        []model.Place
	PlacesLoading bool
	PlacesError   *Error
	SelectedPlace *model.Place

	Robux       int64
	MaxRobux    int64
	PackageName string
	Rate        *model.PricingRate
	RateError   *Error

	Verifying          bool
	Verification       *model.VerificationResult
	VerifyError        *Error
	VerifyReason       FailureReason
	ExistingGamepasses []model.Gamepass
	Warning            *Error
}

// GamepassAmount is the price the buyer's gamepass must have.
func (s State) GamepassAmount() int64 {
	return pricing.GamepassAmount(s.Robux)
}

// Price is the storefront price of the current quantity.
func (s State) Price() int64 {
	return pricing.Price(s.Robux, s.Rate)
}

// Verified reports whether the last verification still holds for the current quantity.
func (s State) Verified() bool {
	v := s.Verification
	return v != nil && v.Success && v.VerifiedForQuantity == s.Robux
}

// View is the JSON snapshot of a State.
type View struct {
	Username           string                    `json:"username"`
	IsSearching        bool                      `json:"is_searching"`
	Identity           *model.UserIdentity       `json:"identity"`
	UserError          *Error                    `json:"user_error,omitempty"`
	Places             []model.Place             `json:"places"`
	PlacesLoading      bool                      `json:"places_loading"`
	PlacesError        *Error                    `json:"places_error,omitempty"`
	SelectedPlace      *model.Place              `json:"selected_place"`
	Robux              int64                     `json:"robux"`
	MaxRobux           int64                     `json:"max_robux"`
	PackageName        string                    `json:"package_name,omitempty"`
	GamepassAmount     int64                     `json:"gamepass_amount"`
	Price              int64                     `json:"price"`
	PricePerHundred    string                    `json:"price_per_hundred,omitempty"`
	RateError          *Error                    `json:"rate_error,omitempty"`
	Verifying          bool                      `json:"verifying"`
	Verification       *model.VerificationResult `json:"verification"`
	VerifyError        *Error                    `json:"verify_error,omitempty"`
	VerifyReason       FailureReason             `json:"verify_reason,omitempty"`
	ExistingGamepasses []model.Gamepass          `json:"existing_gamepasses,omitempty"`
	Warning            *Error                    `json:"warning,omitempty"`
	IsFormValid        bool                      `json:"is_form_valid"`
	Blockers           []string                  `json:"blockers"`
}

// View renders s for clients.
func (s State) View() View {
	v := View{
		Username:           s.Username,
		IsSearching:        s.Searching,
		Identity:           s.Identity,
		UserError:          s.UserError,
		Places:             s.Places,
		PlacesLoading:      s.PlacesLoading,
		PlacesError:        s.PlacesError,
		SelectedPlace:      s.SelectedPlace,
		Robux:              s.Robux,
		MaxRobux:           pricing.Limit(s.MaxRobux),
		PackageName:        s.PackageName,
		GamepassAmount:     s.GamepassAmount(),
		Price:              s.Price(),
		RateError:          s.RateError,
		Verifying:          s.Verifying,
		Verification:       s.Verification,
		VerifyError:        s.VerifyError,
		VerifyReason:       s.VerifyReason,
		ExistingGamepasses: s.ExistingGamepasses,
		Warning:            s.Warning,
		IsFormValid:        s.IsFormValid(),
		Blockers:           s.Blockers(),
	}
	if v.Places == nil {
		v.Places = []model.Place{}
	}
	if v.Blockers == nil {
		v.Blockers = []string{}
	}
	if s.Rate != nil {
		v.PricePerHundred = s.Rate.PricePerHundred.String()
	}
	return v
}

func findPlace(places []model.Place, placeID int64) *model.Place {
	for i := range places {
		if places[i].PlaceID == placeID {
			p := places[i]
			return &p
		}
	}
	return nil
}
