package lifecycle

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestEstimate(t *testing.T) {
	tests := []struct {
		name    string
		service ServiceType
		data    map[string]any
		want    string
		wantOK  bool
	}{
		{"minor repair", Repair, map[string]any{"damageLevel": "minor"}, "300", true},
		{"major suit repair", Repair, map[string]any{"damageLevel": "major", "garmentType": "Suit"}, "1040", true},
		{"moderate dress repair", Repair, map[string]any{"damageLevel": "Moderate", "garmentType": "evening dress"}, "600", true},
		{"severe coat repair", Repair, map[string]any{"damageLevel": "severe", "garmentType": "overcoat"}, "1950", true},
		{"shirt has no multiplier", Repair, map[string]any{"damageLevel": "minor", "garmentType": "shirt"}, "300", true},
		{"unknown damage level", Repair, map[string]any{"damageLevel": "catastrophic"}, "0", false},
		{"basic dry cleaning", DryCleaning, map[string]any{"serviceName": "Basic", "quantity": 2.0}, "500", true},
		{"premium dry cleaning", DryCleaning, map[string]any{"serviceName": "Premium Dry Cleaning", "quantity": 3}, "1100", true},
		{"express with string quantity", DryCleaning, map[string]any{"serviceName": "express", "quantity": "1"}, "850", true},
		{"unknown tier defaults", DryCleaning, map[string]any{"serviceName": "Leather Care", "quantity": json.Number("2")}, "500", true},
		{"missing quantity counts one", DryCleaning, map[string]any{"serviceName": "Delicate"}, "750", true},
		{"customization is staff priced", Customization, map[string]any{"garmentType": "suit"}, "0", false},
		{"rental is staff priced", Rental, map[string]any{}, "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Estimate(tt.service, tt.data)
			if ok != tt.wantOK || !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Fatalf("Estimate() = %s, %v; want %s, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestReconcile(t *testing.T) {
	suit := map[string]any{"damageLevel": "major", "garmentType": "suit"}

	t.Run("divergent price forces confirmation", func(t *testing.T) {
		res := Reconcile(ReconcileInput{
			ServiceType:     Repair,
			SpecificData:    suit,
			CurrentStatus:   StatusAccepted,
			RequestedStatus: StatusConfirmed,
			FinalPrice:      decimal.NewFromInt(1200),
		})
		if !res.Forced || res.Status != StatusPriceConfirmation {
			t.Fatalf("Reconcile() = %+v; want forced price confirmation", res)
		}
		if res.Factors[FactorEstimatedPrice] != "1040.00" || res.Factors[FactorPriceDifference] != "160.00" {
			t.Fatalf("factors = %v", res.Factors)
		}
		if res.Factors[FactorPriceChangeNote] != "Price changed from estimated 1040.00 to 1200.00 (+160.00)" {
			t.Fatalf("note = %v", res.Factors[FactorPriceChangeNote])
		}
	})

	t.Run("lower price also forces confirmation", func(t *testing.T) {
		res := Reconcile(ReconcileInput{
			ServiceType:   Repair,
			SpecificData:  suit,
			CurrentStatus: StatusPending,
			FinalPrice:    decimal.NewFromInt(1000),
		})
		if !res.Forced || res.Difference.String() != "-40" {
			t.Fatalf("Reconcile() = %+v", res)
		}
	})

	t.Run("within tolerance keeps requested status", func(t *testing.T) {
		res := Reconcile(ReconcileInput{
			ServiceType:     Repair,
			SpecificData:    suit,
			CurrentStatus:   StatusAccepted,
			RequestedStatus: StatusConfirmed,
			FinalPrice:      decimal.RequireFromString("1040.01"),
		})
		if res.Forced || res.Status != StatusConfirmed || res.Factors != nil {
			t.Fatalf("Reconcile() = %+v", res)
		}
	})

	t.Run("no requested status keeps current", func(t *testing.T) {
		res := Reconcile(ReconcileInput{
			ServiceType:   Repair,
			SpecificData:  suit,
			CurrentStatus: StatusAccepted,
			FinalPrice:    decimal.NewFromInt(1040),
		})
		if res.Forced || res.Status != StatusAccepted {
			t.Fatalf("Reconcile() = %+v", res)
		}
	})

	t.Run("later statuses are not reconciled", func(t *testing.T) {
		res := Reconcile(ReconcileInput{
			ServiceType:   Repair,
			SpecificData:  suit,
			CurrentStatus: StatusConfirmed,
			FinalPrice:    decimal.NewFromInt(5000),
		})
		if res.Forced || res.Status != StatusConfirmed {
			t.Fatalf("Reconcile() = %+v", res)
		}
	})

	t.Run("pass-through service types never detour", func(t *testing.T) {
		for _, st := range []ServiceType{Customization, Rental} {
			res := Reconcile(ReconcileInput{
				ServiceType:   st,
				SpecificData:  map[string]any{},
				CurrentStatus: StatusPending,
				FinalPrice:    decimal.NewFromInt(9999),
			})
			if res.Forced {
				t.Errorf("%s: Reconcile() forced a detour", st)
			}
		}
	})
}
