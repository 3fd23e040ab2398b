package workflow

import "rbxstore-api/internal/model"

// IsFormValid reports whether checkout may proceed: a positive quantity, a
// resolved user, a selected place, a loaded rate and a successful verification
// made for exactly the current quantity.
func (s State) IsFormValid() bool {
	return s.Robux > 0 &&
		s.Identity != nil &&
		s.SelectedPlace != nil &&
		s.Verified() &&
		s.Rate != nil
}

// Blockers lists every unmet checkout condition.
func (s State) Blockers() []string {
	var out []string
	if s.Robux <= 0 {
		out = append(out, "robux quantity must be greater than zero")
	}
	if s.Identity == nil {
		out = append(out, "roblox user not resolved")
	}
	if s.SelectedPlace == nil {
		out = append(out, "no place selected")
	}
	switch v := s.Verification; {
	case v == nil:
		out = append(out, "gamepass not verified")
	case v.VerifiedForQuantity != s.Robux:
		out = append(out, "gamepass verified for a different quantity")
	case !v.Success:
		out = append(out, "gamepass not verified")
	}
	if s.Rate == nil {
		out = append(out, "pricing rate unavailable")
	}
	return out
}

// BuildCheckoutPayload returns the checkout item, or a validation error naming
// the blockers when the form is not valid.
func (s State) BuildCheckoutPayload() (model.CheckoutItem, error) {
	if !s.IsFormValid() {
		return model.CheckoutItem{}, validation("checkout is not ready", s.Blockers()...)
	}

	gp := s.Verification.Gamepass
	details := model.Rbx5Details{
		RobuxAmount:     s.Robux,
		PackageName:     s.PackageName,
		GamepassAmount:  s.GamepassAmount(),
		PlaceID:         s.SelectedPlace.PlaceID,
		PlaceName:       s.SelectedPlace.Name,
		UniverseID:      s.SelectedPlace.UniverseID,
		UserID:          s.Identity.ID,
		DisplayName:     s.Identity.DisplayName,
		AvatarURL:       s.Identity.AvatarURL,
		PricePerHundred: s.Rate.PricePerHundred.String(),
	}
	if gp != nil {
		details.GamepassID = gp.ID
		details.GamepassName = gp.Name
	}

	return model.CheckoutItem{
		ServiceType:    model.ServiceTypeRobux,
		ServiceID:      model.ServiceIDRBX5,
		ServiceName:    model.ServiceNameRBX5,
		Quantity:       1,
		UnitPrice:      s.Price(),
		RobloxUsername: s.Identity.Username,
		Rbx5Details:    details,
	}, nil
}
