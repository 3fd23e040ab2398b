package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rbxstore-api/internal/model"
)

func TestBuildCheckoutPayload_HappyPath(t *testing.T) {
	s := verified(t)

	assert.True(t, s.IsFormValid())
	assert.Empty(t, s.Blockers())
	assert.Equal(t, int64(65000), s.Price())
	assert.Equal(t, int64(715), s.GamepassAmount())

	item, err := s.BuildCheckoutPayload()
	require.NoError(t, err)

	assert.Equal(t, model.ServiceTypeRobux, item.ServiceType)
	assert.Equal(t, model.ServiceIDRBX5, item.ServiceID)
	assert.Equal(t, int64(1), item.Quantity)
	assert.Equal(t, int64(65000), item.UnitPrice)
	assert.Equal(t, "builderman", item.RobloxUsername)
	assert.Equal(t, model.Rbx5Details{
		RobuxAmount:     500,
		GamepassAmount:  715,
		GamepassID:      77,
		GamepassName:    "Donate",
		PlaceID:         1001,
		PlaceName:       "Obby",
		UniverseID:      9001,
		UserID:          42,
		DisplayName:     "Builder",
		PricePerHundred: "13000",
	}, item.Rbx5Details)
}

func TestBuildCheckoutPayload_Invalid(t *testing.T) {
	_, err := State{}.BuildCheckoutPayload()

	require.ErrorIs(t, err, ErrValidation)
	werr := err.(*Error)
	assert.Equal(t, []string{
		"robux quantity must be greater than zero",
		"roblox user not resolved",
		"no place selected",
		"gamepass not verified",
		"pricing rate unavailable",
	}, werr.Reasons)
}

func TestIsFormValid_EachConditionRequired(t *testing.T) {
	breakers := map[string]func(State) State{
		"zero robux": func(s State) State {
			s.Robux = 0
			return s
		},
		"no identity": func(s State) State {
			s.Identity = nil
			return s
		},
		"no place": func(s State) State {
			s.SelectedPlace = nil
			return s
		},
		"not successful": func(s State) State {
			v := *s.Verification
			v.Success = false
			s.Verification = &v
			return s
		},
		"other quantity": func(s State) State {
			v := *s.Verification
			v.VerifiedForQuantity = 400
			s.Verification = &v
			return s
		},
		"no rate": func(s State) State {
			s.Rate = nil
			return s
		},
	}
	for name, breakIt := range breakers {
		t.Run(name, func(t *testing.T) {
			s := breakIt(verified(t))
			assert.False(t, s.IsFormValid())
			assert.NotEmpty(t, s.Blockers())
			_, err := s.BuildCheckoutPayload()
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestView(t *testing.T) {
	v := State{}.View()
	assert.NotNil(t, v.Places)
	assert.False(t, v.IsFormValid)
	assert.Len(t, v.Blockers, 5)

	v = verified(t).View()
	assert.True(t, v.IsFormValid)
	assert.Empty(t, v.Blockers)
	assert.Equal(t, "13000", v.PricePerHundred)
	assert.Equal(t, int64(65000), v.Price)
}
