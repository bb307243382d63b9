package domain

import (
	"context"
	"errors"
	"fmt"

	memberdomain "github.com/c3s/memberadmin/internal/member/domain"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidMemberID  = errors.New("invalid_member_id")
	ErrMemberNotFound   = errors.New("member_not_found")
	ErrInvoiceNotFound  = errors.New("invoice_not_found")
	ErrNoInvoiceForYear = errors.New("no_invoice_for_year")

	// Reduction rule violations, each carrying the message staff see.
	ErrReductionNotConfirmed  = errors.New("reduction requires explicit confirmation")
	ErrReductionNegative      = errors.New("reduction amount must not be negative")
	ErrAlreadyDefaultAmount   = errors.New("this is already the default amount")
	ErrAlreadyReducedToAmount = errors.New("dues were already reduced to this amount")
	ErrReductionUpward        = errors.New("reductions may only move the amount downward")
)

// NotApplicableError signals that dues may not be invoiced for a member
// and year. The web layer surfaces the reason as a user-visible message;
// the workflow never emails on an inapplicable member.
type NotApplicableError struct {
	Year   int
	Reason string
}

func (e *NotApplicableError) Error() string {
	return fmt.Sprintf("dues %d not applicable: %s", e.Year, e.Reason)
}

// IsNotApplicable reports whether err is a NotApplicableError.
func IsNotApplicable(err error) bool {
	var target *NotApplicableError
	return errors.As(err, &target)
}

type ReductionRequest struct {
	MemberID  string          `json:"-"`
	Year      int             `json:"-"`
	Amount    decimal.Decimal `json:"amount"`
	Confirmed bool            `json:"confirmed"`
}

// ReductionResult describes the correction chain written by a reduction.
// Replacement is nil for exemptions (reduction to exactly zero).
type ReductionResult struct {
	Reversal    Invoice  `json:"reversal"`
	Replacement *Invoice `json:"replacement,omitempty"`
}

type Service interface {
	// CreateDuesInvoice calculates dues once per member and year and
	// creates the invoice; repeated calls return the existing invoice.
	// Investing members owe nothing and yield a nil invoice.
	CreateDuesInvoice(ctx context.Context, year int, memberID string) (*Invoice, error)

	// SendDuesEmail emails the invoice (or the reduction/exemption
	// notice) for an already-invoiced member. Safe to repeat.
	SendDuesEmail(ctx context.Context, year int, memberID string) error

	// SendDuesBatch invoices and emails up to limit members that have
	// no invoice for the year yet, returning how many were processed.
	SendDuesBatch(ctx context.Context, year int, limit int) (int, error)

	Reduce(ctx context.Context, req ReductionRequest) (ReductionResult, error)

	ListInvoices(ctx context.Context, year int) ([]Invoice, error)

	// LookupInvoiceForDownload authorizes an unauthenticated PDF
	// download: the token must match, the invoice must be younger than
	// one year, and the dues must still be unpaid.
	LookupInvoiceForDownload(ctx context.Context, year int, email, token string, invoiceNo int64) (Invoice, memberdomain.Member, error)
}
