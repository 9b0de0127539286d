package signals

// EscalationRule flags an entity whose recent activity crosses a threshold.
// A rule with RequiredCategories is a cross-category rule and ignores
// Category, Polarity and Count.
type EscalationRule struct {
	Name               string            `json:"name"`
	Category           string            `json:"category,omitempty"`
	Polarity           string            `json:"polarity,omitempty"`
	Count              int               `json:"count,omitempty"`
	RequiredCategories []CategoryMinimum `json:"required_categories,omitempty"`
	WithinDays         int               `json:"within_days"`
	Severity           string            `json:"severity"` // "watch" or "at_risk"
	Description        string            `json:"description"`
}

// CategoryMinimum is one requirement of a cross-category rule.
type CategoryMinimum struct {
	Category string `json:"category"`
	Polarity string `json:"polarity,omitempty"`
	MinCount int    `json:"min_count"`
}

// Rules is the escalation rule set applied by Summarize.
var Rules = []EscalationRule{
	{
		Name:        "repeated_payment_failures",
		Category:    "payment",
		Polarity:    "negative",
		Count:       2,
		WithinDays:  30,
		Severity:    "watch",
		Description: "Two or more failed or reversed payments in 30 days",
	},
	{
		Name:        "chronic_water_arrears",
		Category:    "billing",
		Polarity:    "negative",
		Count:       3,
		WithinDays:  90,
		Severity:    "watch",
		Description: "Three or more overdue water bills in 90 days",
	},
	{
		Name: "payment_and_billing_distress",
		RequiredCategories: []CategoryMinimum{
			{Category: "payment", Polarity: "negative", MinCount: 2},
			{Category: "billing", Polarity: "negative", MinCount: 1},
		},
		WithinDays:  60,
		Severity:    "at_risk",
		Description: "Failed payments alongside overdue water bills in 60 days",
	},
}
