package models

import "time"

type Registration struct {
	ID         string
	Name       string
	RollNumber string
	Email      string
	Phone      string
	Branch     string
	CreatedAt  time.Time
}

type Branch struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Branches is the catalog of planets on the landing page, in display order.
var Branches = []Branch{
	{ID: "cse", Name: "CSE"},
	{ID: "cse-ai", Name: "CSE AI"},
	{ID: "cse-ai-ds", Name: "CSE AI-DS"},
	{ID: "cse-cs", Name: "CSE CS"},
	{ID: "it", Name: "IT"},
	{ID: "ecm", Name: "ECM"},
	{ID: "cse-ds", Name: "CSE DS"},
}

// LookupBranch accepts either a branch id or its display name.
func LookupBranch(value string) (Branch, bool) {
	for _, b := range Branches {
		if b.ID == value || b.Name == value {
			return b, true
		}
	}
	return Branch{}, false
}

type BranchCount struct {
	Branch string
	Count  int
}
