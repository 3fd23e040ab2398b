package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rbxstore-api/internal/model"
	"rbxstore-api/internal/pricing"
)

var (
	quoteRate        int64
	expectedOverride int64
)

var quoteCmd = &cobra.Command{
	Use:   "quote <robux>",
	Short: "Price a Robux quantity",
	Long: `Print the storefront price and the gamepass amount for a Robux quantity.

The rate is fetched from /api/robux-pricing unless --rate is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuote,
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <username>",
	Short: "Resolve a Roblox username",
	Args:  cobra.ExactArgs(1),
	RunE:  runLookup,
}

var placesCmd = &cobra.Command{
	Use:   "places <user-id>",
	Short: "List the places a Roblox user owns",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlaces,
}

var checkGamepassCmd = &cobra.Command{
	Use:   "check-gamepass <universe-id> <robux>",
	Short: "Check a universe for a gamepass at the expected price",
	Long: `Check whether the universe has a gamepass priced at the amount a buyer
of <robux> Robux must configure. Use --expected to check a raw price instead.`,
	Args: cobra.ExactArgs(2),
	RunE: runCheckGamepass,
}

func init() {
	quoteCmd.Flags().Int64Var(&quoteRate, "rate", 0, "price per 100 Robux; skips the upstream rate fetch")
	checkGamepassCmd.Flags().Int64Var(&expectedOverride, "expected", 0, "expected gamepass price, overrides the computed amount")
}

func runQuote(cmd *cobra.Command, args []string) error {
	robux, err := parsePositive("robux", args[0])
	if err != nil {
		return err
	}
	if robux > pricing.MaxRobux {
		return fmt.Errorf("robux must not exceed %d", pricing.MaxRobux)
	}

	var rate *model.PricingRate
	if quoteRate > 0 {
		rate = model.NewPricingRate(quoteRate)
	} else {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		rate, err = newClient().RobuxPricing(ctx)
		if err != nil {
			return fmt.Errorf("fetch pricing rate: %w", err)
		}
	}

	return printJSON(cmd, pricing.NewQuote(robux, rate))
}

func runLookup(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	user, err := newClient().LookupUser(ctx, args[0])
	if err != nil {
		return err
	}
	logger.Debug("user resolved", zap.Int64("user_id", user.ID))
	return printJSON(cmd, user)
}

func runPlaces(cmd *cobra.Command, args []string) error {
	userID, err := parsePositive("user-id", args[0])
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	places, err := newClient().UserPlaces(ctx, userID)
	if err != nil {
		return err
	}
	return printJSON(cmd, places)
}

func runCheckGamepass(cmd *cobra.Command, args []string) error {
	universeID, err := parsePositive("universe-id", args[0])
	if err != nil {
		return err
	}
	robux, err := parsePositive("robux", args[1])
	if err != nil {
		return err
	}

	expected := pricing.GamepassAmount(robux)
	if expectedOverride > 0 {
		expected = expectedOverride
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	res, err := newClient().CheckGamepass(ctx, universeID, expected)
	if err != nil {
		return err
	}
	return printJSON(cmd, struct {
		Expected int64 `json:"expected_robux"`
		Matched  bool  `json:"matched"`
		Result   any   `json:"result"`
	}{
		Expected: expected,
		Matched:  res.Success && res.Gamepass != nil && res.Gamepass.Price == expected,
		Result:   res,
	})
}

func parsePositive(name, raw string) (int64, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", name, raw)
	}
	return n, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
