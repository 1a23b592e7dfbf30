package lifecycle

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// PriceTolerance is the largest difference between a final price and the
// estimate that does not require customer confirmation.
var PriceTolerance = decimal.RequireFromString("0.01")

// Keys written into an item's pricing factors by reconciliation.
const (
	FactorEstimatedPrice  = "estimatedPrice"
	FactorPriceDifference = "priceDifference"
	FactorPriceChangeNote = "priceChangeNote"
)

var repairBasePrices = map[string]int64{
	"minor":    300,
	"moderate": 500,
	"major":    800,
	"severe":   1500,
}

type garmentMultiplier struct {
	keyword string
	factor  decimal.Decimal
}

// Checked in order; the first keyword contained in the garment type wins.
var garmentMultipliers = []garmentMultiplier{
	{"suit", decimal.RequireFromString("1.3")},
	{"coat", decimal.RequireFromString("1.3")},
	{"dress", decimal.RequireFromString("1.2")},
}

type dryCleaningTier struct {
	name    string
	base    int64
	perItem int64
}

var dryCleaningTiers = []dryCleaningTier{
	{"basic", 200, 150},
	{"premium", 350, 250},
	{"delicate", 450, 300},
	{"express", 500, 350},
}

var defaultDryCleaningTier = dryCleaningTier{"basic", 200, 150}

// Estimate computes the system price for an item from its attributes. The
// second result is false for service types priced only by staff and for
// attributes that do not identify a price.
func Estimate(t ServiceType, data map[string]any) (decimal.Decimal, bool) {
	switch t {
	case Repair:
		return estimateRepair(data)
	case DryCleaning:
		return estimateDryCleaning(data), true
	default:
		return decimal.Zero, false
	}
}

func estimateRepair(data map[string]any) (decimal.Decimal, bool) {
	base, ok := repairBasePrices[strings.ToLower(strings.TrimSpace(attrString(data, "damageLevel")))]
	if !ok {
		return decimal.Zero, false
	}
	price := decimal.NewFromInt(base)
	garment := strings.ToLower(attrString(data, "garmentType"))
	for _, m := range garmentMultipliers {
		if garment != "" && strings.Contains(garment, m.keyword) {
			price = price.Mul(m.factor)
			break
		}
	}
	return price.Round(0), true
}

func estimateDryCleaning(data map[string]any) decimal.Decimal {
	tier := defaultDryCleaningTier
	name := strings.ToLower(attrString(data, "serviceName"))
	for _, candidate := range dryCleaningTiers {
		if strings.Contains(name, candidate.name) {
			tier = candidate
			break
		}
	}
	qty, ok := attrInt(data, "quantity")
	if !ok || qty < 1 {
		qty = 1
	}
	return decimal.NewFromInt(tier.base + tier.perItem*qty)
}

// ReconcileInput describes a staff edit that writes a final price.
type ReconcileInput struct {
	ServiceType     ServiceType
	SpecificData    map[string]any
	CurrentStatus   Status
	RequestedStatus Status
	FinalPrice      decimal.Decimal
}

// ReconcileResult is the outcome of comparing a final price with the
// estimate. When Forced is set, Status is the price confirmation step and
// Factors holds the entries to merge into the item's pricing factors.
type ReconcileResult struct {
	Status      Status
	Forced      bool
	Estimate    decimal.Decimal
	HasEstimate bool
	Difference  decimal.Decimal
	Factors     map[string]any
}

// Reconcile decides whether a final price diverging from the estimate must
// send the item to customer price confirmation. It only applies while the
// item is pending or accepted; later edits keep the requested status.
func Reconcile(in ReconcileInput) ReconcileResult {
	cur := Normalize(string(in.CurrentStatus))
	if cur == "" {
		cur = StatusPending
	}
	res := ReconcileResult{Status: cur}
	if req := Normalize(string(in.RequestedStatus)); req != "" {
		res.Status = req
	}

	f, ok := flows[in.ServiceType]
	if !ok || !f.HasPriceConfirmation() {
		return res
	}
	if cur != StatusPending && cur != StatusAccepted {
		return res
	}

	estimate, ok := Estimate(in.ServiceType, in.SpecificData)
	if !ok {
		return res
	}
	res.Estimate = estimate
	res.HasEstimate = true
	res.Difference = in.FinalPrice.Sub(estimate)
	if res.Difference.Abs().LessThanOrEqual(PriceTolerance) {
		return res
	}

	res.Status = f.Conditional
	res.Forced = true
	res.Factors = map[string]any{
		FactorEstimatedPrice:  estimate.StringFixed(2),
		FactorPriceDifference: res.Difference.StringFixed(2),
		FactorPriceChangeNote: priceChangeNote(estimate, in.FinalPrice, res.Difference),
	}
	return res
}

func priceChangeNote(estimate, final, diff decimal.Decimal) string {
	sign := ""
	if diff.IsPositive() {
		sign = "+"
	}
	return fmt.Sprintf("Price changed from estimated %s to %s (%s%s)",
		estimate.StringFixed(2), final.StringFixed(2), sign, diff.StringFixed(2))
}

func attrString(data map[string]any, key string) string {
	switch v := data[key].(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// attrInt reads a whole number that may have been decoded from JSON as a
// float, a json.Number or a string.
func attrInt(data map[string]any, key string) (int64, bool) {
	switch v := data[key].(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			f, ferr := v.Float64()
			if ferr != nil {
				return 0, false
			}
			return int64(f), true
		}
		return n, true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}
