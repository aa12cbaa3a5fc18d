// Package profile loads business profiles (pricing config, catalog seed and
// review policies) from HCL files.
package profile

import (
	"crypto/sha256"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hvacbridge/estimator/pkg/normalize"
	"github.com/hvacbridge/estimator/pkg/policy"
	"github.com/hvacbridge/estimator/pkg/types"
	log "github.com/sirupsen/logrus"
	"github.com/zclconf/go-cty/cty"
)

// Profile is a parsed profile file. ConfigPatch and Items keep the raw
// camelCase values so stores can apply them through the normalizer.
type Profile struct {
	Config      types.EstimatorConfig
	Catalog     types.Catalog
	Policies    []policy.Policy
	ConfigPatch map[string]any
	Items       []map[string]any
	Hash        string
}

// Loader parses profile files
type Loader struct {
	parser *hclparse.Parser
}

func NewLoader() *Loader {
	return &Loader{
		parser: hclparse.NewParser(),
	}
}

// LoadFile reads and parses one profile file
func (l *Loader) LoadFile(path string) (*Profile, error) {
	log.WithField("file", path).Info("Loading profile")

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	p, err := l.Parse(src, path)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"items":    len(p.Catalog),
		"policies": len(p.Policies),
	}).Info("Loaded profile")
	return p, nil
}

// Parse parses profile source. Unknown block types are rejected so typos
// do not silently drop pricing settings.
func (l *Loader) Parse(src []byte, filename string) (*Profile, error) {
	file, diags := l.parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse errors: %s", diags.Error())
	}

	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, fmt.Errorf("unexpected body type")
	}

	p := &Profile{
		ConfigPatch: map[string]any{},
		Items:       []map[string]any{},
		Hash:        fmt.Sprintf("%x", sha256.Sum256(src)),
	}

	for _, block := range body.Blocks {
		switch block.Type {
		case "config":
			values, err := blockValues(block)
			if err != nil {
				return nil, err
			}
			for key, value := range values {
				p.ConfigPatch[key] = value
			}
		case "item":
			if len(block.Labels) != 1 {
				return nil, fmt.Errorf("%s: item block needs exactly one sku label", block.DefRange())
			}
			values, err := blockValues(block)
			if err != nil {
				return nil, err
			}
			values["sku"] = block.Labels[0]
			p.Items = append(p.Items, values)
		case "policy":
			pol, err := parsePolicy(block)
			if err != nil {
				return nil, err
			}
			p.Policies = append(p.Policies, pol)
		default:
			return nil, fmt.Errorf("%s: unsupported block type %q", block.DefRange(), block.Type)
		}
	}

	var err error
	if p.Config, err = normalize.Config(p.ConfigPatch, normalize.DefaultConfig()); err != nil {
		return nil, fmt.Errorf("invalid config block: %w", err)
	}
	if p.Catalog, err = normalize.Catalog(p.Items); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	return p, nil
}

// blockValues evaluates every attribute of a block, keyed by camelCase name
func blockValues(block *hclsyntax.Block) (map[string]any, error) {
	values := make(map[string]any, len(block.Body.Attributes))
	for name, attr := range block.Body.Attributes {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("%s: %s", attr.SrcRange, diags.Error())
		}
		values[camelCase(name)] = ctyToGo(val)
	}
	return values, nil
}

type policyBlock struct {
	Type          string   `hcl:"type"`
	MaxAmount     *float64 `hcl:"max_amount,optional"`
	WarnThreshold *float64 `hcl:"warn_threshold,optional"`
	MinRatio      *float64 `hcl:"min_ratio,optional"`
	WarnRatio     *float64 `hcl:"warn_ratio,optional"`
	MaxRatio      *float64 `hcl:"max_ratio,optional"`
	ItemType      *string  `hcl:"item_type,optional"`
	MaxCount      *int     `hcl:"max_count,optional"`
}

func parsePolicy(block *hclsyntax.Block) (policy.Policy, error) {
	if len(block.Labels) != 1 {
		return policy.Policy{}, fmt.Errorf("%s: policy block needs exactly one name label", block.DefRange())
	}

	var pb policyBlock
	if diags := gohcl.DecodeBody(block.Body, nil, &pb); diags.HasErrors() {
		return policy.Policy{}, fmt.Errorf("policy %q: %s", block.Labels[0], diags.Error())
	}

	pol := policy.Policy{
		Name: block.Labels[0],
		Type: policy.PolicyType(strings.ToUpper(pb.Type)),
	}
	deref := func(v *float64) float64 {
		if v == nil {
			return 0
		}
		return *v
	}
	pol.MaxAmount = deref(pb.MaxAmount)
	pol.WarnThreshold = deref(pb.WarnThreshold)
	pol.MinRatio = deref(pb.MinRatio)
	pol.WarnRatio = deref(pb.WarnRatio)
	pol.MaxRatio = deref(pb.MaxRatio)
	if pb.ItemType != nil {
		itemType, err := normalize.ParseItemType(*pb.ItemType)
		if err != nil {
			return policy.Policy{}, fmt.Errorf("policy %q: %w", block.Labels[0], err)
		}
		pol.ItemType = itemType
	}
	if pb.MaxCount != nil {
		pol.MaxCount = *pb.MaxCount
	}

	switch pol.Type {
	case policy.PolicyTypeTotalBudget, policy.PolicyTypeMinimumMargin, policy.PolicyTypeMaxDiscount, policy.PolicyTypeLineCount:
	default:
		return policy.Policy{}, fmt.Errorf("policy %q: unknown type %q", block.Labels[0], pb.Type)
	}
	return pol, nil
}

// camelCase maps labor_rate_per_hour to laborRatePerHour. Names without
// underscores pass through.
func camelCase(name string) string {
	parts := strings.Split(name, "_")
	var out strings.Builder
	out.WriteString(parts[0])
	for _, part := range parts[1:] {
		if part == "" {
			continue
		}
		runes := []rune(part)
		runes[0] = unicode.ToUpper(runes[0])
		out.WriteString(string(runes))
	}
	return out.String()
}

// ctyToGo converts a cty.Value into the plain values the normalizer takes.
// Numbers always become float64.
func ctyToGo(val cty.Value) any {
	if val.IsNull() || !val.IsKnown() {
		return nil
	}

	ty := val.Type()
	switch {
	case ty == cty.String:
		return val.AsString()
	case ty == cty.Number:
		f, _ := val.AsBigFloat().Float64()
		return f
	case ty == cty.Bool:
		return val.True()
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		arr := []any{}
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			arr = append(arr, ctyToGo(v))
		}
		return arr
	case ty.IsMapType() || ty.IsObjectType():
		m := make(map[string]any)
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			m[k.AsString()] = ctyToGo(v)
		}
		return m
	default:
		return nil
	}
}
