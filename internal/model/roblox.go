package model

import "github.com/shopspring/decimal"

// UserIdentity is a resolved Roblox account.
type UserIdentity struct {
	ID          int64   `json:"id"`
	Username    string  `json:"username"`
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
}

// Place is a game owned by a Roblox user.
type Place struct {
	PlaceID      int64   `json:"placeId"`
	UniverseID   int64   `json:"universeId"`
	Name         string  `json:"name"`
	Visits       int64   `json:"visits"`
	ThumbnailURL *string `json:"thumbnailUrl"`
}

// Gamepass is a purchasable pass configured on a universe.
type Gamepass struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// PricingRate is the storefront price of 100 Robux.
type PricingRate struct {
	PricePerHundred decimal.Decimal `json:"pricePerHundred"`
}

// NewPricingRate builds a rate from an integer price per 100 Robux.
func NewPricingRate(pricePerHundred int64) *PricingRate {
	return &PricingRate{PricePerHundred: decimal.NewFromInt(pricePerHundred)}
}

// VerificationResult records a successful gamepass check and the quantity it was made for.
type VerificationResult struct {
	VerifiedForQuantity int64     `json:"verified_for_quantity"`
	PlaceID             int64     `json:"place_id"`
	Gamepass            *Gamepass `json:"gamepass"`
	Success             bool      `json:"success"`
}

// Package is a preset Robux quantity offered on the RBX5 page.
type Package struct {
	Name  string `json:"name"`
	Robux int64  `json:"robux"`
}
