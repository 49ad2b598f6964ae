package importer

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/morehouse/mhouse/internal/model"
)

// OpexFile is the YAML layout of an opex budget:
//
//	recurring:
//	  from: 2025-09
//	  to: 2026-08
//	  lines:
//	    Utilities: 4200
//	    Staff: 9000
//	months:
//	  "2025-12":
//	    Maintenance: 1500
//
// Recurring lines apply to every month in [from, to]. Month entries add
// to, or override, the recurring lines of the same category.
type OpexFile struct {
	Recurring *RecurringOpex                `yaml:"recurring"`
	Months    map[string]map[string]float64 `yaml:"months"`
}

// RecurringOpex is a set of lines repeated over a month range.
type RecurringOpex struct {
	From  string             `yaml:"from"`
	To    string             `yaml:"to"`
	Lines map[string]float64 `yaml:"lines"`
}

// ReadOpex parses a YAML opex budget into monthly lines sorted by month
// and category.
func ReadOpex(r io.Reader) ([]model.OpexBudget, error) {
	var file OpexFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("parsing opex budget: %w", err)
	}

	type key struct {
		month    time.Time
		category string
	}
	lines := make(map[key]float64)

	if rec := file.Recurring; rec != nil {
		from, err := time.Parse(model.MonthLayout, rec.From)
		if err != nil {
			return nil, fmt.Errorf("recurring.from: %w", err)
		}
		to, err := time.Parse(model.MonthLayout, rec.To)
		if err != nil {
			return nil, fmt.Errorf("recurring.to: %w", err)
		}
		if to.Before(from) {
			return nil, fmt.Errorf("recurring range %s..%s is reversed", rec.From, rec.To)
		}
		for m := from; !m.After(to); m = m.AddDate(0, 1, 0) {
			for cat, amount := range rec.Lines {
				lines[key{m, cat}] = amount
			}
		}
	}

	for month, cats := range file.Months {
		m, err := time.Parse(model.MonthLayout, month)
		if err != nil {
			return nil, fmt.Errorf("months: %w", err)
		}
		for cat, amount := range cats {
			lines[key{m, cat}] = amount
		}
	}

	out := make([]model.OpexBudget, 0, len(lines))
	for k, amount := range lines {
		out = append(out, model.OpexBudget{Month: k.month, Category: k.category, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Month.Equal(out[j].Month) {
			return out[i].Month.Before(out[j].Month)
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}
