package rollup

import (
	"strings"

	"github.com/sells-group/underwrite/internal/model"
)

// Category is the cost family a budget activity rolls into.
type Category string

const (
	CategoryAcquisition         Category = "acquisition"
	CategoryPlanningEngineering Category = "planning_engineering"
	CategoryDevelopment         Category = "development"
	CategoryOperations          Category = "operations"
	CategoryContingency         Category = "contingency"
	CategoryFinancing           Category = "financing"
)

type categoryRule struct {
	keywords []string
	category Category
}

// categoryRules are evaluated in order; the first rule with a keyword found
// in the activity wins.
var categoryRules = []categoryRule{
	{[]string{"acquisition"}, CategoryAcquisition},
	{[]string{"planning", "engineering"}, CategoryPlanningEngineering},
	{[]string{"development"}, CategoryDevelopment},
	{[]string{"operations", "operating"}, CategoryOperations},
	{[]string{"contingency"}, CategoryContingency},
	{[]string{"financing"}, CategoryFinancing},
}

// Categorize maps a free-text activity label to a cost category by
// case-insensitive substring match. Unmatched labels are operations.
func Categorize(activity string) Category {
	a := strings.ToLower(activity)
	for _, r := range categoryRules {
		for _, kw := range r.keywords {
			if strings.Contains(a, kw) {
				return r.category
			}
		}
	}
	return CategoryOperations
}

// addCost adds amount to the statement field for category c.
func addCost(ps *model.PhaseStatement, c Category, amount float64) {
	switch c {
	case CategoryAcquisition:
		ps.Acquisition += amount
	case CategoryPlanningEngineering:
		ps.PlanningEngineering += amount
	case CategoryDevelopment:
		ps.Development += amount
	case CategoryContingency:
		ps.Contingency += amount
	case CategoryFinancing:
		ps.Financing += amount
	default:
		ps.Operations += amount
	}
}
