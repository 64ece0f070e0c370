package asset

import "fmt"

// Period is a selectable staking period.
type Period struct {
	Days  int    `json:"days"`
	Label string `json:"label"`
}

// Periods are the staking periods offered by the form.
var Periods = []Period{
	{Days: 30, Label: "30 days"},
	{Days: 60, Label: "60 days"},
	{Days: 90, Label: "90 days"},
	{Days: 180, Label: "180 days"},
	{Days: 365, Label: "1 year"},
	{Days: 730, Label: "2 years"},
}

// PeriodLabel returns the option label for days, or a generic one when days
// is not a predefined option.
func PeriodLabel(days int) string {
	for _, p := range Periods {
		if p.Days == days {
			return p.Label
		}
	}
	return fmt.Sprintf("%d days", days)
}
