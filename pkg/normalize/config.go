package normalize

import (
	"math"
	"strings"

	"github.com/hvacbridge/estimator/pkg/types"
)

// Rate ceilings. Exceeding one is a validation error.
const (
	MaxLaborBurdenRate = 2.0
	MaxOverheadRate    = 2.0
	MaxContingencyRate = 1.0
	MaxGrossMargin     = 0.95
	MaxTaxRate         = 1.0
	MaxDiscountPercent = 1.0
)

// DefaultConfig returns the pricing policy used before a business patches it
func DefaultConfig() types.EstimatorConfig {
	return types.EstimatorConfig{
		BusinessName:              "HVAC Business",
		Currency:                  "USD",
		LaborRatePerHour:          125,
		LaborBurdenRate:           0,
		OverheadRate:              0,
		ContingencyRate:           0,
		TargetGrossMargin:         0.4,
		MinimumGrossMargin:        0.3,
		EnforceMinimumGrossMargin: true,
		DefaultTaxRate:            0.09,
		DefaultPermitFee:          0,
		DefaultTripCharge:         0,
		EstimateExpirationDays:    30,
		PaymentTerms:              "50% deposit due at scheduling, balance due at completion.",
	}
}

// Config merges a partial patch over base. Only keys present in the patch
// change; each present value is validated.
func Config(patch map[string]any, base types.EstimatorConfig) (types.EstimatorConfig, error) {
	next := base
	var err error

	if value, ok := patch["businessName"]; ok {
		if next.BusinessName, err = String(value, "businessName", StringOptions{MaxLength: 200, Default: base.BusinessName}); err != nil {
			return base, err
		}
	}
	if value, ok := patch["currency"]; ok {
		currency, err := String(value, "currency", StringOptions{MaxLength: 3, Default: base.Currency})
		if err != nil {
			return base, err
		}
		next.Currency = strings.ToUpper(currency)
	}
	if value, ok := patch["laborRatePerHour"]; ok {
		if next.LaborRatePerHour, err = NonNegative(value, "laborRatePerHour", 0); err != nil {
			return base, err
		}
	}

	rates := []struct {
		key    string
		target *float64
		max    float64
	}{
		{"laborBurdenRate", &next.LaborBurdenRate, MaxLaborBurdenRate},
		{"overheadRate", &next.OverheadRate, MaxOverheadRate},
		{"contingencyRate", &next.ContingencyRate, MaxContingencyRate},
		{"targetGrossMargin", &next.TargetGrossMargin, MaxGrossMargin},
		{"minimumGrossMargin", &next.MinimumGrossMargin, MaxGrossMargin},
		{"defaultTaxRate", &next.DefaultTaxRate, MaxTaxRate},
	}
	for _, rate := range rates {
		value, ok := patch[rate.key]
		if !ok {
			continue
		}
		if *rate.target, err = Rate(value, rate.key, 0, rate.max); err != nil {
			return base, err
		}
	}

	if value, ok := patch["enforceMinimumGrossMargin"]; ok {
		next.EnforceMinimumGrossMargin = Bool(value)
	}
	if value, ok := patch["defaultPermitFee"]; ok {
		if next.DefaultPermitFee, err = NonNegative(value, "defaultPermitFee", 0); err != nil {
			return base, err
		}
	}
	if value, ok := patch["defaultTripCharge"]; ok {
		if next.DefaultTripCharge, err = NonNegative(value, "defaultTripCharge", 0); err != nil {
			return base, err
		}
	}
	if value, ok := patch["estimateExpirationDays"]; ok {
		days, err := Positive(value, "estimateExpirationDays", 1)
		if err != nil {
			return base, err
		}
		next.EstimateExpirationDays = int(math.Max(1, math.Floor(days)))
	}
	if value, ok := patch["paymentTerms"]; ok {
		if next.PaymentTerms, err = String(value, "paymentTerms", StringOptions{MaxLength: 500, Default: base.PaymentTerms}); err != nil {
			return base, err
		}
	}

	return next, nil
}
