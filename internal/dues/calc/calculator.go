// Package calc computes annual membership dues prorated by the quarter
// a member joined in.
package calc

import (
	"fmt"
	"time"

	memberdomain "github.com/c3s/memberadmin/internal/member/domain"
	"github.com/shopspring/decimal"
)

var (
	factorQ2 = decimal.RequireFromString("0.75")
	factorQ3 = decimal.RequireFromString("0.5")
	factorQ4 = decimal.RequireFromString("0.25")
)

// Calculator derives a member's dues for one fiscal year.
//
// This type is PURE:
// - No side effects
// - No DB access
// - Fully deterministic
type Calculator struct {
	year  int
	total decimal.Decimal
}

// NewCalculator validates its inputs up front. A non-positive annual
// amount or an implausible year is a programming defect, not a business
// condition, and fails loudly before any calculation runs.
func NewCalculator(year int, totalAnnualAmount decimal.Decimal) (*Calculator, error) {
	if year < 1900 || year > 9999 {
		return nil, fmt.Errorf("implausible fiscal year: %d", year)
	}
	if !totalAnnualAmount.IsPositive() {
		return nil, fmt.Errorf("annual dues amount must be positive, got %s", totalAnnualAmount)
	}
	return &Calculator{year: year, total: totalAnnualAmount}, nil
}

// Calculate returns the prorated amount, a quarter code such as
// "q2_2016", and a localized description. Investing members owe
// nothing and yield empty code and description, as does a membership
// that only starts after the fiscal year.
func (c *Calculator) Calculate(m memberdomain.Member) (decimal.Decimal, string, string) {
	if m.MembershipType == memberdomain.MembershipTypeInvesting {
		return decimal.Zero, "", ""
	}
	if m.MembershipDate == nil {
		return decimal.Zero, "", ""
	}

	quarter, factor := c.quarterFor(*m.MembershipDate)
	if quarter == 0 {
		return decimal.Zero, "", ""
	}

	code := fmt.Sprintf("q%d_%d", quarter, c.year)
	return c.total.Mul(factor), code, describeQuarter(quarter, c.year, m.Locale)
}

// quarterFor partitions the fiscal year into four contiguous ranges.
// Members who joined in a prior year are always in the first quarter;
// a join date after the year yields no applicable quarter.
func (c *Calculator) quarterFor(joined time.Time) (int, decimal.Decimal) {
	joined = joined.UTC()
	switch {
	case joined.Before(boundary(c.year, time.April)):
		return 1, decimal.NewFromInt(1)
	case joined.Before(boundary(c.year, time.July)):
		return 2, factorQ2
	case joined.Before(boundary(c.year, time.October)):
		return 3, factorQ3
	case joined.Before(boundary(c.year+1, time.January)):
		return 4, factorQ4
	default:
		return 0, decimal.Zero
	}
}

func boundary(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

// IsApplicable reports whether dues for the fiscal year may be invoiced
// at all. The reason is a human-readable message surfaced to staff;
// callers must not create an invoice when it returns false.
func IsApplicable(year int, m memberdomain.Member) (bool, string) {
	if !m.MembershipAccepted {
		return false, "the membership application has not been accepted by the board"
	}
	if m.MembershipDate == nil || !m.MembershipDate.Before(boundary(year+1, time.January)) {
		return false, fmt.Sprintf("not a member in %d: membership started later", year)
	}
	if m.MembershipLossDate != nil && m.MembershipLossDate.Before(boundary(year, time.January)) {
		return false, fmt.Sprintf("lost membership before %d", year)
	}
	return true, ""
}
