package render

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/rotisserie/eris"

	"github.com/sells-group/underwrite/internal/model"
	"github.com/sells-group/underwrite/internal/reconcile"
)

var approachLabels = map[model.Approach]string{
	model.ApproachSalesComparison: "Sales comparison",
	model.ApproachCost:            "Cost",
	model.ApproachIncome:          "Income",
}

// Reconciliation writes a reconciliation outcome in the given format.
func Reconciliation(w io.Writer, out *reconcile.Outcome, format Format) error {
	if out == nil {
		return eris.New("render: nil reconciliation")
	}
	switch format {
	case FormatJSON:
		return writeJSON(w, out)
	case FormatYAML:
		return writeYAML(w, out)
	case FormatTable, FormatMarkdown:
		return reconciliationTable(w, out, format)
	}
	return eris.Errorf("render: unsupported format %q", format)
}

func reconciliationTable(w io.Writer, out *reconcile.Outcome, format Format) error {
	rec := out.Record
	values := map[model.Approach]*float64{
		model.ApproachSalesComparison: rec.Indications.Sales,
		model.ApproachCost:            rec.Indications.Cost,
		model.ApproachIncome:          rec.Indications.Income,
	}
	weights := map[model.Approach]float64{
		model.ApproachSalesComparison: rec.Weights.Sales,
		model.ApproachCost:            rec.Weights.Cost,
		model.ApproachIncome:          rec.Weights.Income,
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Approach", "Indication", "Weight", "Contribution"})
	for _, a := range model.Approaches {
		indication, contribution := "n/a", money(0)
		if v := values[a]; v != nil {
			indication = money(*v)
			contribution = money(*v * weights[a])
		}
		t.AppendRow(table.Row{approachLabels[a], indication, percent(weights[a]), contribution})
	}
	t.AppendFooter(table.Row{"Weight sum", "", percent(out.Result.WeightSum), money(out.Result.ComputedValue)})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight, AlignFooter: text.AlignRight},
		{Number: 4, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})

	if format == FormatMarkdown {
		_, _ = fmt.Fprintf(w, "## Reconciliation (project %d)\n\n", rec.ProjectID)
		t.RenderMarkdown()
	} else {
		t.SetTitle("Reconciliation (project %d)", rec.ProjectID)
		t.Render()
	}

	_, _ = fmt.Fprintf(w, "\nComputed value: %s\n", money(out.Result.ComputedValue))
	if out.Result.OverrideValue != nil {
		_, _ = fmt.Fprintf(w, "Override:       %s\n", money(*out.Result.OverrideValue))
	}
	_, _ = fmt.Fprintf(w, "Final value:    %s\n", money(out.Result.FinalValue))
	if rec.EffectiveDate != nil {
		_, _ = fmt.Fprintf(w, "Effective date: %s\n", rec.EffectiveDate.Format("2006-01-02"))
	}
	if !out.Saved {
		_, _ = fmt.Fprintln(w, "Not saved yet.")
	} else if !rec.UpdatedAt.IsZero() {
		_, _ = fmt.Fprintf(w, "Updated at:     %s\n", rec.UpdatedAt.UTC().Format("2006-01-02 15:04:05 MST"))
	}
	if rec.Narrative != "" {
		_, _ = fmt.Fprintf(w, "\n%s\n", rec.Narrative)
	}

	if len(out.Result.Flags) > 0 {
		_, _ = fmt.Fprintln(w, "\nData quality:")
		for _, f := range out.Result.Flags {
			if _, err := fmt.Fprintf(w, "  - [%s] %s\n", f.Code, f.Message); err != nil {
				return eris.Wrap(err, "render: write flags")
			}
		}
	}
	return nil
}
