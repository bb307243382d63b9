package calc

import (
	"testing"
	"time"

	memberdomain "github.com/c3s/memberadmin/internal/member/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}

func normalMember(joined *time.Time) memberdomain.Member {
	return memberdomain.Member{
		MembershipAccepted: true,
		MembershipType:     memberdomain.MembershipTypeNormal,
		MembershipDate:     joined,
		Locale:             "en",
	}
}

func TestNewCalculatorValidation(t *testing.T) {
	_, err := NewCalculator(2016, decimal.Zero)
	assert.Error(t, err)

	_, err = NewCalculator(2016, decimal.NewFromInt(-5))
	assert.Error(t, err)

	_, err = NewCalculator(123, decimal.NewFromInt(50))
	assert.Error(t, err)

	_, err = NewCalculator(2016, decimal.NewFromInt(50))
	assert.NoError(t, err)
}

func TestCalculateQuarterBuckets(t *testing.T) {
	c, err := NewCalculator(2016, decimal.NewFromInt(50))
	require.NoError(t, err)

	cases := []struct {
		name   string
		joined *time.Time
		amount string
		code   string
	}{
		{"prior year is first quarter", date(2013, time.June, 15), "50", "q1_2016"},
		{"january", date(2016, time.January, 1), "50", "q1_2016"},
		{"march 31", date(2016, time.March, 31), "50", "q1_2016"},
		{"april 1", date(2016, time.April, 1), "37.5", "q2_2016"},
		{"june 30", date(2016, time.June, 30), "37.5", "q2_2016"},
		{"july 1", date(2016, time.July, 1), "25", "q3_2016"},
		{"september 30", date(2016, time.September, 30), "25", "q3_2016"},
		{"october 1", date(2016, time.October, 1), "12.5", "q4_2016"},
		{"december 31", date(2016, time.December, 31), "12.5", "q4_2016"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			amount, code, description := c.Calculate(normalMember(tc.joined))
			assert.True(t, amount.Equal(decimal.RequireFromString(tc.amount)),
				"want %s, got %s", tc.amount, amount)
			assert.Equal(t, tc.code, code)
			assert.NotEmpty(t, description)
		})
	}
}

func TestCalculateAfterFiscalYear(t *testing.T) {
	c, err := NewCalculator(2016, decimal.NewFromInt(50))
	require.NoError(t, err)

	amount, code, description := c.Calculate(normalMember(date(2017, time.January, 1)))
	assert.True(t, amount.IsZero())
	assert.Empty(t, code)
	assert.Empty(t, description)
}

func TestCalculateInvestingMember(t *testing.T) {
	c, err := NewCalculator(2016, decimal.NewFromInt(50))
	require.NoError(t, err)

	m := normalMember(date(2016, time.January, 1))
	m.MembershipType = memberdomain.MembershipTypeInvesting

	amount, code, description := c.Calculate(m)
	assert.True(t, amount.IsZero())
	assert.Empty(t, code)
	assert.Empty(t, description)
}

func TestCalculateDescriptions(t *testing.T) {
	c, err := NewCalculator(2016, decimal.NewFromInt(50))
	require.NoError(t, err)

	m := normalMember(date(2016, time.May, 1))

	m.Locale = "de"
	_, _, description := c.Calculate(m)
	assert.Equal(t, "ab zweitem Quartal 2016", description)

	m.Locale = "en"
	_, _, description = c.Calculate(m)
	assert.Equal(t, "from second quarter 2016", description)

	// unknown locales fall back to English
	m.Locale = "fr"
	_, _, description = c.Calculate(m)
	assert.Equal(t, "from second quarter 2016", description)
}

func TestIsApplicable(t *testing.T) {
	m := normalMember(date(2016, time.February, 1))

	ok, reason := IsApplicable(2016, m)
	assert.True(t, ok)
	assert.Empty(t, reason)

	notAccepted := m
	notAccepted.MembershipAccepted = false
	ok, reason = IsApplicable(2016, notAccepted)
	assert.False(t, ok)
	assert.Contains(t, reason, "not been accepted")

	joinedLater := normalMember(date(2017, time.January, 1))
	ok, reason = IsApplicable(2016, joinedLater)
	assert.False(t, ok)
	assert.Contains(t, reason, "not a member in 2016")

	lost := normalMember(date(2014, time.March, 1))
	lost.MembershipLossDate = date(2015, time.June, 30)
	ok, reason = IsApplicable(2016, lost)
	assert.False(t, ok)
	assert.Contains(t, reason, "lost membership before 2016")

	// loss during the fiscal year still owes that year's dues
	lostLater := normalMember(date(2014, time.March, 1))
	lostLater.MembershipLossDate = date(2016, time.June, 30)
	ok, _ = IsApplicable(2016, lostLater)
	assert.True(t, ok)
}
