package tiers

import "strings"

// Tier is the subscription level of a profile
type Tier string

const (
	Free       Tier = "free"
	Pro        Tier = "pro"
	Enterprise Tier = "enterprise"
)

// Unlimited marks a tier without a monthly project cap
const Unlimited = -1

// Limits are the entitlements attached to a tier
type Limits struct {
	Label             string `json:"label"`
	ProjectsPerMonth  int    `json:"projects_per_month"`
	PDFExport         bool   `json:"pdf_export"`
	DetailedCitations bool   `json:"detailed_citations"`
	PrioritySupport   bool   `json:"priority_support"`
}

var table = map[Tier]Limits{
	Free: {
		Label:            "Free Tier",
		ProjectsPerMonth: 1,
	},
	Pro: {
		Label:             "Pro",
		ProjectsPerMonth:  Unlimited,
		PDFExport:         true,
		DetailedCitations: true,
		PrioritySupport:   true,
	},
	Enterprise: {
		Label:             "Enterprise",
		ProjectsPerMonth:  Unlimited,
		PDFExport:         true,
		DetailedCitations: true,
		PrioritySupport:   true,
	},
}

// Parse maps a stored tier value to a Tier; anything unknown is Free.
func Parse(s string) Tier {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := table[t]; ok {
		return t
	}
	return Free
}

// LimitsFor returns the entitlements for t. Unknown tiers get the free limits.
func LimitsFor(t Tier) Limits {
	if l, ok := table[t]; ok {
		return l
	}
	return table[Free]
}

// IsPaid reports whether t is a paid plan
func IsPaid(t Tier) bool {
	return t == Pro || t == Enterprise
}

// CanCreateProject reports whether another project may be created this month
// given the number already created.
func CanCreateProject(t Tier, used int) bool {
	limit := LimitsFor(t).ProjectsPerMonth
	if limit == Unlimited {
		return true
	}
	return used < limit
}

// ProjectsRemaining returns how many projects are left this month. limited is
// false for tiers without a cap, in which case remaining is meaningless.
func ProjectsRemaining(t Tier, used int) (remaining int, limited bool) {
	limit := LimitsFor(t).ProjectsPerMonth
	if limit == Unlimited {
		return 0, false
	}
	if used < 0 {
		used = 0
	}
	return max(0, limit-used), true
}
