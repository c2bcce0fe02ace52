package domain

import (
	"fmt"
	"strings"
)

// Persona is one editorial perspective driving an interview. Two personas
// are considered duplicates when their role and focus match after case
// folding.
type Persona struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	Affiliation string `json:"affiliation,omitempty"`
	Focus       string `json:"focus"`
}

// Key returns the identity used for distinctness checks.
func (p Persona) Key() string {
	fold := func(s string) string {
		return strings.ToLower(strings.Join(strings.Fields(s), " "))
	}
	return fold(p.Role) + "|" + fold(p.Focus)
}

// Description renders the persona block injected into interview prompts.
func (p Persona) Description() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", p.Name)
	fmt.Fprintf(&b, "Role: %s\n", p.Role)
	if p.Affiliation != "" {
		fmt.Fprintf(&b, "Affiliation: %s\n", p.Affiliation)
	}
	fmt.Fprintf(&b, "Focus: %s", p.Focus)
	return b.String()
}

// Valid reports whether the persona carries enough identity to run an
// interview.
func (p Persona) Valid() bool {
	return strings.TrimSpace(p.Role) != "" && strings.TrimSpace(p.Focus) != ""
}
