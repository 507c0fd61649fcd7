// Package narrative turns a ranked model into a buyer-oriented summary
// produced by a completion runtime.
package narrative

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/carscout/internal/dataset"
	"github.com/KaramelBytes/carscout/internal/filter"
)

// DefaultReferenceYear is the "is it a good choice in {year}" year.
const DefaultReferenceYear = 2025

// Subject is what a narrative is about.
type Subject struct {
	Model   string
	Years   dataset.YearSpan
	Filters filter.Narrowed
}

// Prompt builds the single user message sent to the runtime.
func Prompt(s Subject, year int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Explain whether %s (production years: %d–%d) is a good used car choice in %d. ", s.Model, s.Years.From, s.Years.To, year)
	b.WriteString("Write for a buyer: describe its known features, strengths, weaknesses, and who it suits. ")
	b.WriteString("Avoid stating obvious facts (e.g., electric cars are not diesel).")

	var clauses []string
	if len(s.Filters.Fuel) > 0 {
		clauses = append(clauses, "selected fuel: "+strings.Join(s.Filters.Fuel, ", "))
	}
	if len(s.Filters.Gear) > 0 {
		clauses = append(clauses, "gearbox type: "+strings.Join(s.Filters.Gear, ", "))
	}
	if len(s.Filters.Drive) > 0 {
		clauses = append(clauses, "drivetrain: "+strings.Join(s.Filters.Drive, ", "))
	}
	if len(clauses) > 0 {
		b.WriteString(" Filters applied: ")
		b.WriteString(strings.Join(clauses, "; "))
		b.WriteString(".")
	}
	return b.String()
}
