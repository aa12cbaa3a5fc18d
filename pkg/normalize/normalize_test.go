package normalize

import (
	"strings"
	"testing"

	"github.com/hvacbridge/estimator/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRate(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		max     float64
		want    float64
		wantErr string
	}{
		{name: "absent uses default", value: nil, max: 1, want: 0.25},
		{name: "blank string uses default", value: "  ", max: 1, want: 0.25},
		{name: "fraction kept", value: 0.4, max: 0.95, want: 0.4},
		{name: "percentage converted", value: 40.0, max: 0.95, want: 0.4},
		{name: "numeric string", value: "7", max: 1, want: 0.07},
		{name: "exactly one stays one", value: 1.0, max: 1, want: 1},
		{name: "above ceiling", value: 96.0, max: 0.95, wantErr: "targetGrossMargin must be <= 0.95"},
		{name: "above hundred is not a percentage", value: 150.0, max: 2, wantErr: "targetGrossMargin must be <= 2"},
		{name: "negative", value: -0.1, max: 1, wantErr: "targetGrossMargin must be a non-negative number"},
		{name: "garbage", value: "abc", max: 1, wantErr: "targetGrossMargin must be a non-negative number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Rate(tt.value, "targetGrossMargin", 0.25, tt.max)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, err.Error())
				_, ok := AsValidation(err)
				assert.True(t, ok)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestBool(t *testing.T) {
	for _, truthy := range []any{true, "true", "YES", " y ", "1", 1.0} {
		assert.True(t, Bool(truthy), "%v", truthy)
	}
	for _, falsy := range []any{false, nil, "", "no", "false", "0", 2.0, map[string]any{}} {
		assert.False(t, Bool(falsy), "%v", falsy)
	}
	assert.True(t, BoolDefault(nil, true))
	assert.False(t, BoolDefault("nope", true))
}

func TestNumbers(t *testing.T) {
	v, err := Positive(nil, "quantity", 1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)

	v, err = Positive("2.5", "quantity", 1)
	require.NoError(t, err)
	assert.Equal(t, 2.5, v)

	_, err = Positive(0.0, "quantity", 1)
	assert.EqualError(t, err, "quantity must be greater than zero")

	_, err = NonNegative(-1.0, "unitCost", 0)
	assert.EqualError(t, err, "unitCost must be a non-negative number")

	_, err = NonNegative("Inf", "unitCost", 0)
	assert.Error(t, err)

	n, ok := Number("4")
	assert.True(t, ok)
	assert.Equal(t, 4.0, n)
	_, ok = Number("four")
	assert.False(t, ok)
}

func TestString(t *testing.T) {
	s, err := String("  hello  ", "name", StringOptions{})
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	s, err = String(nil, "name", StringOptions{Default: "fallback"})
	require.NoError(t, err)
	assert.Equal(t, "fallback", s)

	_, err = String("   ", "name", StringOptions{})
	assert.EqualError(t, err, "name cannot be empty")

	_, err = String(12.0, "name", StringOptions{})
	assert.EqualError(t, err, "name must be a string")

	s, err = String(strings.Repeat("x", 10), "name", StringOptions{MaxLength: 4})
	require.NoError(t, err)
	assert.Equal(t, "xxxx", s)
}

func TestAttributesKeepsOnlyScalars(t *testing.T) {
	attrs, err := Attributes(map[string]any{
		"Manufacturer":   "  AC Pro ",
		"tonnage":        "4",
		"seer2":          16.2,
		"quote_required": "yes",
		"nested":         map[string]any{"a": 1},
		"list":           []any{"a"},
		"empty":          "   ",
		"  ":             "no key",
		"warranty":       strings.Repeat("w", 250),
		"inStock":        true,
	})
	require.NoError(t, err)

	assert.Equal(t, "AC Pro", attrs.Brand)
	require.NotNil(t, attrs.Tonnage)
	assert.Equal(t, 4.0, *attrs.Tonnage)
	require.NotNil(t, attrs.SEER2)
	assert.Equal(t, 16.2, *attrs.SEER2)
	assert.True(t, attrs.QuoteRequired())

	assert.NotContains(t, attrs.Extra, "nested")
	assert.NotContains(t, attrs.Extra, "list")
	assert.NotContains(t, attrs.Extra, "empty")
	assert.Len(t, attrs.Extra["warranty"], 200)
	assert.Equal(t, true, attrs.Extra["inStock"])

	_, err = Attributes([]any{"x"})
	assert.EqualError(t, err, "catalog item attributes must be an object")
}

func TestConfigPatchMerge(t *testing.T) {
	base := DefaultConfig()

	next, err := Config(map[string]any{
		"currency":          "usd",
		"targetGrossMargin": 45.0,
		"laborRatePerHour":  "110",
	}, base)
	require.NoError(t, err)

	assert.Equal(t, "USD", next.Currency)
	assert.InDelta(t, 0.45, next.TargetGrossMargin, 1e-9)
	assert.Equal(t, 110.0, next.LaborRatePerHour)
	assert.Equal(t, base.MinimumGrossMargin, next.MinimumGrossMargin)
	assert.Equal(t, base.PaymentTerms, next.PaymentTerms)

	again, err := Config(map[string]any{"estimateExpirationDays": 14.7, "enforceMinimumGrossMargin": "no"}, next)
	require.NoError(t, err)
	assert.Equal(t, 14, again.EstimateExpirationDays)
	assert.False(t, again.EnforceMinimumGrossMargin)
	assert.InDelta(t, 0.45, again.TargetGrossMargin, 1e-9)

	_, err = Config(map[string]any{"overheadRate": 250.0}, base)
	assert.EqualError(t, err, "overheadRate must be <= 2")

	_, err = Config(map[string]any{"businessName": ""}, base)
	assert.EqualError(t, err, "businessName cannot be empty")
}

func TestCatalogItem(t *testing.T) {
	item, err := CatalogItem(map[string]any{
		"sku":               " ACPRO-HP-4T ",
		"name":              "AC Pro 4 Ton Heat Pump",
		"itemType":          "Equipment",
		"unitCost":          "4200",
		"defaultLaborHours": 7.0,
		"features":          []any{" 18 SEER2 ", "", 42.0},
		"attributes":        map[string]any{"brand": "AC Pro"},
	})
	require.NoError(t, err)

	assert.Equal(t, "ACPRO-HP-4T", item.SKU)
	assert.Equal(t, types.ItemEquipment, item.ItemType)
	assert.Equal(t, 4200.0, item.UnitCost)
	assert.True(t, item.Taxable)
	assert.Equal(t, []string{"18 SEER2"}, item.Features)
	assert.Equal(t, "AC Pro", item.Attributes.Brand)

	defaulted, err := CatalogItem(map[string]any{"sku": "P-1", "name": "Filter"})
	require.NoError(t, err)
	assert.Equal(t, types.ItemPart, defaulted.ItemType)

	_, err = CatalogItem(map[string]any{"sku": "X", "name": "Y", "itemType": "gadget"})
	assert.EqualError(t, err, "catalog item itemType must be one of: equipment, part, service, labor, consumable")

	_, err = CatalogItem(map[string]any{"name": "no sku"})
	assert.EqualError(t, err, "catalog item sku cannot be empty")
}

func TestCatalogDedupesBySKU(t *testing.T) {
	catalog, err := Catalog([]map[string]any{
		{"sku": "A", "name": "first", "unitCost": 1.0},
		{"sku": "B", "name": "other"},
		{"sku": "A", "name": "second", "unitCost": 2.0},
	})
	require.NoError(t, err)
	require.Len(t, catalog, 2)
	assert.Equal(t, "A", catalog[0].SKU)
	assert.Equal(t, "second", catalog[0].Name)
	assert.Equal(t, 2.0, catalog[0].UnitCost)
	assert.Equal(t, "B", catalog[1].SKU)

	_, err = Catalog([]map[string]any{{"sku": "A", "name": "ok"}, {"sku": "B", "unitCost": -1.0}})
	assert.EqualError(t, err, "items[1]: catalog item unitCost must be a non-negative number")
}
