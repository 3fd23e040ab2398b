package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"rbxstore-api/internal/model"
)

func TestGamepassAmount(t *testing.T) {
	cases := []struct {
		robux int64
		want  int64
	}{
		{-50, 0},
		{0, 0},
		{1, 2},
		{100, 143},
		{350, 501},
		{500, 715},
		{1000, 1430},
		{999, 1429},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, GamepassAmount(tc.robux), "robux=%d", tc.robux)
	}
}

func TestPrice(t *testing.T) {
	rate := model.NewPricingRate(13000)

	assert.Equal(t, int64(65000), Price(500, rate))
	assert.Equal(t, int64(13000), Price(100, rate))
	assert.Equal(t, int64(130), Price(1, rate))
	assert.Equal(t, int64(0), Price(0, rate))
	assert.Equal(t, int64(0), Price(-10, rate))
	assert.Equal(t, int64(0), Price(500, nil))
}

func TestMaxRobux_StaysWithinGamepassCeiling(t *testing.T) {
	assert.Equal(t, int64(1_000_000_000), GamepassAmount(MaxRobux))
	assert.Equal(t, int64(90_909_090_870), Price(MaxRobux, model.NewPricingRate(13000)))
	assert.Greater(t, GamepassAmount(MaxRobux+1), int64(1_000_000_000))
}

func TestLimit(t *testing.T) {
	assert.Equal(t, MaxRobux, Limit(0))
	assert.Equal(t, MaxRobux, Limit(-1))
	assert.Equal(t, MaxRobux, Limit(MaxRobux+1))
	assert.Equal(t, int64(50000), Limit(50000))
}

func TestPrice_RoundsUp(t *testing.T) {
	rate := &model.PricingRate{PricePerHundred: decimal.RequireFromString("12500.5")}

	// 3 * 12500.5 / 100 = 375.015
	assert.Equal(t, int64(376), Price(3, rate))
}

func TestNewQuote(t *testing.T) {
	q := NewQuote(500, model.NewPricingRate(13000))

	assert.Equal(t, Quote{Robux: 500, GamepassAmount: 715, Price: 65000, PricePerHundred: "13000"}, q)

	q = NewQuote(500, nil)
	assert.Equal(t, int64(0), q.Price)
	assert.Equal(t, int64(715), q.GamepassAmount)
	assert.Empty(t, q.PricePerHundred)
}
