package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/shopspring/decimal"
)

var ErrInvalidReason = errors.New("extra expense reason must not be empty")

// maxSuggestDistance bounds how different a reason may be and still be suggested
const maxSuggestDistance = 3

// Extras maps an expense reason to its accumulated amount.
// Add and Delete are the only mutation paths.
type Extras map[string]float64

// NewExtras returns an empty extras ledger
func NewExtras() Extras {
	return make(Extras)
}

// Add creates the reason or increments its amount, returning the new amount
func (e Extras) Add(reason string, amount float64) (float64, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return 0, ErrInvalidReason
	}
	if err := ValidateAmount(amount); err != nil {
		return 0, err
	}
	e[reason] = addAmounts(e[reason], amount)
	return e[reason], nil
}

// Delete removes reason and reports whether it was present
func (e Extras) Delete(reason string) bool {
	reason = strings.TrimSpace(reason)
	if _, ok := e[reason]; !ok {
		return false
	}
	delete(e, reason)
	return true
}

// Total sums every extra expense
func (e Extras) Total() float64 {
	sum := decimal.Zero
	for _, amount := range e {
		sum = sum.Add(decimal.NewFromFloat(amount))
	}
	return sum.InexactFloat64()
}

// Reasons returns the reasons in sorted order
func (e Extras) Reasons() []string {
	reasons := make([]string, 0, len(e))
	for r := range e {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	return reasons
}

// Suggest returns the existing reason closest to reason, if one is close enough.
// Comparison is case-insensitive.
func (e Extras) Suggest(reason string) (string, bool) {
	target := strings.ToLower(strings.TrimSpace(reason))
	if target == "" {
		return "", false
	}
	best, bestDist := "", maxSuggestDistance+1
	for _, r := range e.Reasons() {
		d := levenshtein.ComputeDistance(target, strings.ToLower(r))
		if d < bestDist {
			best, bestDist = r, d
		}
	}
	if best == "" || best == reason {
		return "", false
	}
	return best, true
}

// Clone returns an independent copy
func (e Extras) Clone() Extras {
	c := make(Extras, len(e))
	for k, v := range e {
		c[k] = v
	}
	return c
}

// Normalize returns a copy keyed by trimmed reasons. Reasons that collide
// after trimming are merged.
func (e Extras) Normalize() Extras {
	n := make(Extras, len(e))
	for reason, amount := range e {
		key := strings.TrimSpace(reason)
		n[key] = addAmounts(n[key], amount)
	}
	return n
}

// Validate checks reasons and amounts of a decoded extras document
func (e Extras) Validate() error {
	for reason, amount := range e {
		if strings.TrimSpace(reason) == "" {
			return ErrInvalidReason
		}
		if amount != 0 {
			if err := ValidateAmount(amount); err != nil {
				return fmt.Errorf("extra %q: %w", reason, err)
			}
		}
	}
	return nil
}
