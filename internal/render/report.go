package render

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/rotisserie/eris"

	"github.com/sells-group/underwrite/internal/model"
)

type lineItem struct {
	label string
	value func(model.PhaseStatement) string
}

func moneyOf(f func(model.PhaseStatement) float64) func(model.PhaseStatement) string {
	return func(ps model.PhaseStatement) string { return money(f(ps)) }
}

func monthsOf(f func(model.PhaseStatement) int) func(model.PhaseStatement) string {
	return func(ps model.PhaseStatement) string {
		if v := f(ps); v > 0 {
			return count(v)
		}
		return "-"
	}
}

// sections groups the statement lines the way they print.
var sections = [][]lineItem{
	{
		{"Gross acres", func(ps model.PhaseStatement) string { return acres(ps.GrossAcres) }},
		{"Lots", func(ps model.PhaseStatement) string { return count(ps.Lots) }},
		{"Front feet", func(ps model.PhaseStatement) string { return acres(ps.FrontFeet) }},
		{"Other land acres", func(ps model.PhaseStatement) string { return acres(ps.OtherLandAcres) }},
		{"Other land units", func(ps model.PhaseStatement) string { return count(ps.OtherLandUnits) }},
	},
	{
		{"Months to first sale", monthsOf(func(ps model.PhaseStatement) int { return ps.MonthsToFirstSale })},
		{"Months to sell", monthsOf(func(ps model.PhaseStatement) int { return ps.TotalMonthsToSell })},
	},
	{
		{"Gross revenue", moneyOf(func(ps model.PhaseStatement) float64 { return ps.GrossRevenue })},
		{"Net revenue", moneyOf(func(ps model.PhaseStatement) float64 { return ps.NetRevenue })},
		{"Other land revenue", moneyOf(func(ps model.PhaseStatement) float64 { return ps.OtherLandGrossRevenue })},
		{"Total gross revenue", moneyOf(func(ps model.PhaseStatement) float64 { return ps.TotalGrossRevenue })},
		{"Commissions", moneyOf(func(ps model.PhaseStatement) float64 { return ps.Commissions })},
		{"Closing costs", moneyOf(func(ps model.PhaseStatement) float64 { return ps.ClosingCosts })},
		{"Gross sale proceeds", moneyOf(func(ps model.PhaseStatement) float64 { return ps.GrossSaleProceeds })},
	},
	{
		{"Acquisition", moneyOf(func(ps model.PhaseStatement) float64 { return ps.Acquisition })},
		{"Planning & engineering", moneyOf(func(ps model.PhaseStatement) float64 { return ps.PlanningEngineering })},
		{"Development", moneyOf(func(ps model.PhaseStatement) float64 { return ps.Development })},
		{"Operations", moneyOf(func(ps model.PhaseStatement) float64 { return ps.Operations })},
		{"Contingency", moneyOf(func(ps model.PhaseStatement) float64 { return ps.Contingency })},
		{"Financing", moneyOf(func(ps model.PhaseStatement) float64 { return ps.Financing })},
		{"Subdivision", moneyOf(func(ps model.PhaseStatement) float64 { return ps.SubdivisionCost })},
		{"Total costs", moneyOf(func(ps model.PhaseStatement) float64 { return ps.TotalCosts })},
	},
	{
		{"Price per front foot", moneyOf(func(ps model.PhaseStatement) float64 { return ps.PricePerFrontFoot })},
		{"Revenue per lot", moneyOf(func(ps model.PhaseStatement) float64 { return ps.GrossRevenuePerLot })},
		{"Cost per lot", moneyOf(func(ps model.PhaseStatement) float64 { return ps.CostPerLot })},
		{"Gross profit", moneyOf(func(ps model.PhaseStatement) float64 { return ps.GrossProfit })},
		{"Profit margin", func(ps model.PhaseStatement) string { return percent(ps.ProfitMargin) }},
	},
}

// Report writes r in the given format.
func Report(w io.Writer, r *model.Report, format Format) error {
	if r == nil {
		return eris.New("render: nil report")
	}
	switch format {
	case FormatJSON:
		return writeJSON(w, r)
	case FormatYAML:
		return writeYAML(w, r)
	case FormatTable, FormatMarkdown:
		return reportTable(w, r, format)
	}
	return eris.Errorf("render: unsupported format %q", format)
}

func reportTable(w io.Writer, r *model.Report, format Format) error {
	columns := append(append([]model.PhaseStatement{}, r.Phases...), r.Total)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle("%s (project %d)", r.Project.Name, r.Project.ID)

	header := table.Row{""}
	configs := make([]table.ColumnConfig, 0, len(columns))
	for i, ps := range columns {
		header = append(header, ps.Label)
		configs = append(configs, table.ColumnConfig{Number: i + 2, Align: text.AlignRight, AlignHeader: text.AlignRight})
	}
	t.AppendHeader(header)
	t.SetColumnConfigs(configs)

	for i, section := range sections {
		if i > 0 && format == FormatTable {
			t.AppendSeparator()
		}
		for _, item := range section {
			row := table.Row{item.label}
			for _, ps := range columns {
				row = append(row, item.value(ps))
			}
			t.AppendRow(row)
		}
	}

	if format == FormatMarkdown {
		_, _ = fmt.Fprintf(w, "## %s\n\n", r.Project.Name)
		t.SetTitle("")
		t.RenderMarkdown()
	} else {
		t.Render()
	}

	if err := otherLandTable(w, r.Total, format); err != nil {
		return err
	}
	return reportFooter(w, r.Metadata)
}

func otherLandTable(w io.Writer, total model.PhaseStatement, format Format) error {
	if len(total.OtherLand) == 0 {
		return nil
	}
	types := append([]model.OtherLandType{}, total.OtherLand...)
	sort.Slice(types, func(i, j int) bool { return types[i].TypeCode < types[j].TypeCode })

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Type", "Acres", "Units", "Gross revenue", "Price per unit"})
	for _, ol := range types {
		t.AppendRow(table.Row{ol.TypeCode, acres(ol.Acres), count(ol.Units), money(ol.GrossRevenue), money(ol.PricePerUnit)})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})

	_, _ = fmt.Fprintln(w)
	if format == FormatMarkdown {
		_, _ = fmt.Fprint(w, "### Other land\n\n")
		t.RenderMarkdown()
	} else {
		t.SetTitle("Other land")
		t.Render()
	}
	return nil
}

func reportFooter(w io.Writer, m model.ReportMetadata) error {
	_, err := fmt.Fprintf(w, "\n%s phases, %s lots, %s acres; inflation %s; unallocated budget %s\n",
		count(m.PhaseCount), count(m.TotalLots), acres(m.TotalAcres), percent(m.InflationRate), money(m.UnallocatedBudget))
	return eris.Wrap(err, "render: write footer")
}
