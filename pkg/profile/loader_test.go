package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hvacbridge/estimator/pkg/policy"
	"github.com/hvacbridge/estimator/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleProfile = `
config {
  business_name                = "Coastal Comfort"
  labor_rate_per_hour          = 95
  labor_burden_rate            = 30
  target_gross_margin          = 50
  minimum_gross_margin         = 0.4
  enforce_minimum_gross_margin = false
  default_tax_rate             = 7
}

item "ACPRO-HP-4T-18" {
  name                = "AC Pro 4 Ton Heat Pump 18 SEER2"
  item_type           = "equipment"
  unit_cost           = 4200
  default_labor_hours = 10
  features            = ["18 SEER2", "Variable speed"]
  attributes = {
    brand          = "AC Pro"
    tonnage        = 4
    system_type    = "heat_pump"
    vendor_contact = "Coastal Supply 555-0100"
  }
}

item "PERMIT-CITY" {
  name      = "City permit"
  item_type = "service"
  unit_cost = 150
  taxable   = false
}

policy "Max discount" {
  type      = "max_discount"
  max_ratio = 0.15
}

policy "Equipment lines" {
  type      = "LINE_COUNT"
  item_type = "Equipment"
  max_count = 2
}
`

func TestParseProfile(t *testing.T) {
	p, err := NewLoader().Parse([]byte(sampleProfile), "profile.hcl")
	require.NoError(t, err)

	assert.Equal(t, "Coastal Comfort", p.Config.BusinessName)
	assert.Equal(t, 95.0, p.Config.LaborRatePerHour)
	assert.Equal(t, 0.3, p.Config.LaborBurdenRate)
	assert.Equal(t, 0.5, p.Config.TargetGrossMargin)
	assert.Equal(t, 0.4, p.Config.MinimumGrossMargin)
	assert.False(t, p.Config.EnforceMinimumGrossMargin)
	assert.Equal(t, 0.07, p.Config.DefaultTaxRate)
	assert.Equal(t, "USD", p.Config.Currency)
	assert.Equal(t, 95.0, p.ConfigPatch["laborRatePerHour"])

	require.Len(t, p.Catalog, 2)
	heatPump := p.Catalog[0]
	assert.Equal(t, "ACPRO-HP-4T-18", heatPump.SKU)
	assert.Equal(t, types.ItemEquipment, heatPump.ItemType)
	assert.Equal(t, 4200.0, heatPump.UnitCost)
	assert.Equal(t, 10.0, heatPump.DefaultLaborHours)
	assert.True(t, heatPump.Taxable)
	assert.Equal(t, []string{"18 SEER2", "Variable speed"}, heatPump.Features)
	assert.Equal(t, "AC Pro", heatPump.Attributes.Brand)
	require.NotNil(t, heatPump.Attributes.Tonnage)
	assert.Equal(t, 4.0, *heatPump.Attributes.Tonnage)
	assert.Equal(t, "Coastal Supply 555-0100", heatPump.Attributes.VendorContact)
	assert.False(t, p.Catalog[1].Taxable)

	require.Len(t, p.Policies, 2)
	assert.Equal(t, policy.NewMaxDiscountPolicy("Max discount", 0.15), p.Policies[0])
	assert.Equal(t, policy.NewLineCountPolicy("Equipment lines", types.ItemEquipment, 2), p.Policies[1])
	assert.Len(t, p.Hash, 64)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.hcl")
	require.NoError(t, os.WriteFile(path, []byte(sampleProfile), 0o644))

	p, err := NewLoader().LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, p.Catalog, 2)

	_, err = NewLoader().LoadFile(filepath.Join(t.TempDir(), "missing.hcl"))
	assert.ErrorContains(t, err, "failed to read profile")
}

func TestParseProfileErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"syntax", `config {`, "parse errors"},
		{"unknown block", `pricing {}`, `unsupported block type "pricing"`},
		{"item without label", `item { name = "x" }`, "item block needs exactly one sku label"},
		{"bad margin", `config { target_gross_margin = 99 }`, "invalid config block: targetGrossMargin must be <= 0.95"},
		{"bad item type", `item "X" { item_type = "gadget" }`, "invalid catalog: items[0]: catalog item itemType must be one of"},
		{"unknown policy", `policy "p" { type = "VIBES" }`, `policy "p": unknown type "VIBES"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader().Parse([]byte(tt.src), "bad.hcl")
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestCamelCase(t *testing.T) {
	assert.Equal(t, "laborRatePerHour", camelCase("labor_rate_per_hour"))
	assert.Equal(t, "unitCost", camelCase("unitCost"))
	assert.Equal(t, "sku", camelCase("sku"))
}
