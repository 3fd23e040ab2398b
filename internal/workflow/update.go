package workflow

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"rbxstore-api/internal/model"
	"rbxstore-api/internal/pricing"
)

// Update applies m to s. On error s is returned unchanged and no effects are requested.
// Stale responses (superseded request ids, users, places) are dropped silently.
func Update(s State, m Msg) (State, []Cmd, error) {
	var (
		next State
		cmds []Cmd
		err  error
	)
	switch m := m.(type) {
	case UsernameChanged:
		next, cmds = s.usernameChanged(m)
	case LookupDispatched:
		next, cmds = s.lookupDispatched(m)
	case LookupSucceeded:
		next, cmds = s.lookupSucceeded(m)
	case LookupFailed:
		next = s.lookupFailed(m)
	case PlacesLoaded:
		next = s.placesLoaded(m)
	case PlacesFailed:
		next = s.placesFailed(m)
	case PlaceSelected:
		next, err = s.placeSelected(m)
	case QuantityChanged:
		next, err = s.quantityChanged(m)
	case RateLoaded:
		next = s
		next.Rate = m.Rate
		next.RateError = nil
	case RateFailed:
		next = s
		next.RateError = m.Err
	case VerifyRequested:
		next, cmds, err = s.verifyRequested()
	case VerifySucceeded:
		next = s.verifySucceeded(m)
	case VerifyFailed:
		next = s.verifyFailed(m)
	default:
		return s, nil, fmt.Errorf("workflow: unknown message %T", m)
	}
	if err != nil {
		return s, nil, err
	}
	return reconcile(next), cmds, nil
}

// reconcile is the single place where a verification is invalidated. A
// successful verification for a quantity other than the current one is forced
// unsuccessful; the gamepass stays cached so the UI can still show it.
func reconcile(s State) State {
	v := s.Verification
	if v != nil && v.Success && v.VerifiedForQuantity != s.Robux {
		invalid := *v
		invalid.Success = false
		s.Verification = &invalid
		s.Warning = NewError(KindStateInvalidated, InvalidatedMessage)
	}
	return s
}

func (s State) usernameChanged(m UsernameChanged) (State, []Cmd) {
	s.Username = m.Username
	s.LookupRequestID = 0
	s.Searching = false

	name := strings.TrimSpace(m.Username)
	if utf8.RuneCountInString(name) < MinUsernameLength {
		s = s.clearIdentity()
		s.UserError = nil
		return s, []Cmd{CancelLookup{}}
	}
	return s, []Cmd{ScheduleLookup{Username: name}}
}

func (s State) lookupDispatched(m LookupDispatched) (State, []Cmd) {
	if m.RequestID == 0 || strings.TrimSpace(s.Username) != m.Username {
		return s, nil
	}
	s.LookupRequestID = m.RequestID
	s.Searching = true
	return s, []Cmd{LookupUser{RequestID: m.RequestID, Username: m.Username}}
}

func (s State) lookupSucceeded(m LookupSucceeded) (State, []Cmd) {
	if m.RequestID == 0 || m.RequestID != s.LookupRequestID {
		return s, nil
	}
	s.LookupRequestID = 0
	s.Searching = false
	s.UserError = nil

	if s.Identity == nil || s.Identity.ID != m.Identity.ID {
		s = s.clearIdentity()
	}
	identity := m.Identity
	s.Identity = &identity
	s.PlacesLoading = true
	s.PlacesError = nil
	return s, []Cmd{FetchPlaces{UserID: identity.ID}}
}

func (s State) lookupFailed(m LookupFailed) State {
	if m.RequestID == 0 || m.RequestID != s.LookupRequestID {
		return s
	}
	s.LookupRequestID = 0
	s.Searching = false
	s = s.clearIdentity()
	s.UserError = m.Err
	return s
}

func (s State) placesLoaded(m PlacesLoaded) State {
	if s.Identity == nil || s.Identity.ID != m.UserID {
		return s
	}
	s.Places = m.Places
	s.PlacesLoading = false
	s.PlacesError = nil
	if s.SelectedPlace != nil && findPlace(s.Places, s.SelectedPlace.PlaceID) == nil {
		s = s.clearPlaceScope()
	}
	return s
}

func (s State) placesFailed(m PlacesFailed) State {
	if s.Identity == nil || s.Identity.ID != m.UserID {
		return s
	}
	s.Places = nil
	s.PlacesLoading = false
	s.PlacesError = m.Err
	return s.clearPlaceScope()
}

func (s State) placeSelected(m PlaceSelected) (State, error) {
	if s.Identity == nil {
		return s, validation("look up a Roblox username first")
	}
	p := findPlace(s.Places, m.PlaceID)
	if p == nil {
		return s, validation(fmt.Sprintf("place %d is not owned by %s", m.PlaceID, s.Identity.Username))
	}
	if s.SelectedPlace != nil && s.SelectedPlace.PlaceID == p.PlaceID {
		return s, nil
	}
	s = s.clearPlaceScope()
	s.SelectedPlace = p
	return s, nil
}

func (s State) quantityChanged(m QuantityChanged) (State, error) {
	if m.Robux < 0 {
		return s, validation("robux quantity cannot be negative")
	}
	if limit := pricing.Limit(s.MaxRobux); m.Robux > limit {
		return s, validation(fmt.Sprintf("robux quantity cannot exceed %d", limit))
	}
	if m.Robux != s.Robux {
		s.VerifyError = nil
		s.VerifyReason = ""
		s.ExistingGamepasses = nil
	}
	s.Robux = m.Robux
	s.PackageName = m.PackageName
	return s, nil
}

func (s State) verifyRequested() (State, []Cmd, error) {
	var reasons []string
	if s.Identity == nil {
		reasons = append(reasons, "roblox user not resolved")
	}
	if s.SelectedPlace == nil {
		reasons = append(reasons, "no place selected")
	}
	if s.Robux <= 0 {
		reasons = append(reasons, "robux quantity must be greater than zero")
	}
	if len(reasons) > 0 {
		return s, nil, validation("cannot verify gamepass", reasons...)
	}

	s.Verifying = true
	s.VerifyError = nil
	s.VerifyReason = ""
	cmds := []Cmd{CheckGamepass{
		PlaceID:        s.SelectedPlace.PlaceID,
		UniverseID:     s.SelectedPlace.UniverseID,
		Quantity:       s.Robux,
		ExpectedAmount: pricing.GamepassAmount(s.Robux),
	}}
	if s.Rate == nil {
		cmds = append(cmds, FetchRate{})
	}
	return s, cmds, nil
}

func (s State) verifySucceeded(m VerifySucceeded) State {
	s.Verifying = false
	if s.SelectedPlace == nil || s.SelectedPlace.PlaceID != m.PlaceID {
		return s
	}
	gp := m.Gamepass
	s.Verification = &model.VerificationResult{
		VerifiedForQuantity: m.Quantity,
		PlaceID:             m.PlaceID,
		Gamepass:            &gp,
		Success:             true,
	}
	s.VerifyError = nil
	s.VerifyReason = ""
	s.ExistingGamepasses = nil
	s.Warning = nil
	return s
}

func (s State) verifyFailed(m VerifyFailed) State {
	s.Verifying = false
	if s.SelectedPlace == nil || s.SelectedPlace.PlaceID != m.PlaceID {
		return s
	}
	s.VerifyError = m.Err
	s.VerifyReason = m.Reason
	s.ExistingGamepasses = m.Existing
	return s
}

// clearIdentity drops the identity and everything scoped to it.
func (s State) clearIdentity() State {
	s.Identity = nil
	s.Places = nil
	s.PlacesLoading = false
	s.PlacesError = nil
	return s.clearPlaceScope()
}

// clearPlaceScope drops the selected place and its verification.
func (s State) clearPlaceScope() State {
	s.SelectedPlace = nil
	s.Verifying = false
	s.Verification = nil
	s.VerifyError = nil
	s.VerifyReason = ""
	s.ExistingGamepasses = nil
	s.Warning = nil
	return s
}
