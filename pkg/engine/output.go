package engine

import (
	"fmt"
	"io"

	"github.com/hvacbridge/estimator/pkg/output"
	"github.com/hvacbridge/estimator/pkg/render"
	"github.com/hvacbridge/estimator/pkg/types"
)

// Output formats accepted by WriteEstimate
const (
	FormatJSON = "json"
	FormatCLI  = "cli"
	FormatHTML = "html"
	FormatCI   = "ci"
)

// WriteEstimate writes estimate to w in the requested format
func WriteEstimate(w io.Writer, estimate *types.Estimate, format, businessName string) error {
	switch format {
	case FormatJSON, "":
		return render.WriteJSON(w, estimate)
	case FormatCLI:
		return render.WriteEstimateReport(w, estimate)
	case FormatHTML:
		html, err := render.RenderEstimateHTML(estimate, businessName)
		if err != nil {
			return fmt.Errorf("render html: %w", err)
		}
		_, err = io.WriteString(w, html)
		return err
	case FormatCI:
		_, err := io.WriteString(w, output.NewCIAnnotator("github").AnnotateEstimate(estimate, estimate.PolicyResults))
		return err
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// WritePlan writes a changeout plan as JSON or as a CLI report
func WritePlan(w io.Writer, plan *types.ChangeoutPlan, format string) error {
	switch format {
	case FormatJSON, "":
		return render.WriteJSON(w, plan)
	case FormatCLI:
		return render.WritePlanReport(w, plan)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}
