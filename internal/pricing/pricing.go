// Package pricing computes RBX5 prices and the gamepass amount a buyer must configure.
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"

	"rbxstore-api/internal/model"
)

// Roblox keeps 30% of a gamepass sale, so the pass is priced at quantity * 1.43.
var gamepassMarkup = decimal.RequireFromString("1.43")

var hundred = decimal.NewFromInt(100)

// MaxRobux is the largest quantity whose gamepass amount stays within the
// Roblox gamepass price ceiling of 1,000,000,000 Robux.
const MaxRobux int64 = 699_300_699

// ErrOutOfRange is returned for quantities outside 1..MaxRobux.
var ErrOutOfRange = errors.New("robux quantity out of range")

// Limit returns the effective quantity cap: configured when it is positive
// and below MaxRobux, MaxRobux otherwise.
func Limit(configured int64) int64 {
	if configured <= 0 || configured > MaxRobux {
		return MaxRobux
	}
	return configured
}

// GamepassAmount returns the Robux price the buyer's gamepass must have so
// that robux arrive after the marketplace fee. Zero for robux <= 0.
func GamepassAmount(robux int64) int64 {
	if robux <= 0 {
		return 0
	}
	return decimal.NewFromInt(robux).Mul(gamepassMarkup).Ceil().IntPart()
}

// Price returns the storefront price for robux at rate, rounded up.
// Zero for robux <= 0 or a nil rate.
func Price(robux int64, rate *model.PricingRate) int64 {
	if robux <= 0 || rate == nil {
		return 0
	}
	return decimal.NewFromInt(robux).Mul(rate.PricePerHundred).Div(hundred).Ceil().IntPart()
}

// Quote bundles the derived numbers for a quantity.
type Quote struct {
	Robux           int64  `json:"robux"`
	GamepassAmount  int64  `json:"gamepass_amount"`
	Price           int64  `json:"price"`
	PricePerHundred string `json:"price_per_hundred,omitempty"`
}

// NewQuote prices robux at rate.
func NewQuote(robux int64, rate *model.PricingRate) Quote {
	q := Quote{
		Robux:          robux,
		GamepassAmount: GamepassAmount(robux),
		Price:          Price(robux, rate),
	}
	if rate != nil {
		q.PricePerHundred = rate.PricePerHundred.String()
	}
	return q
}
