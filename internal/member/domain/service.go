package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("member_not_found")
	ErrInvalidMemberID   = errors.New("invalid_member_id")
	ErrInvalidEmail      = errors.New("invalid_email")
	ErrAlreadyAccepted   = errors.New("member_already_accepted")
	ErrDeleteAccepted    = errors.New("cannot_delete_accepted_member")
	ErrInvalidPayment    = errors.New("invalid_payment_amount")
	ErrNoInvoiceForYear  = errors.New("no_invoice_for_year")
	ErrMissingMembership = errors.New("missing_membership_date")
)

type CreateApplicationRequest struct {
	Firstname      string         `json:"firstname"`
	Lastname       string         `json:"lastname"`
	Email          string         `json:"email"`
	Address1       string         `json:"address1"`
	Address2       string         `json:"address2"`
	Postcode       string         `json:"postcode"`
	City           string         `json:"city"`
	Country        string         `json:"country"`
	Locale         string         `json:"locale"`
	IsLegalEntity  bool           `json:"is_legal_entity"`
	MembershipType MembershipType `json:"membership_type"`
}

type AcceptRequest struct {
	MemberID       string    `json:"-"`
	MembershipDate time.Time `json:"membership_date"`
}

type PaymentNoticeRequest struct {
	MemberID string          `json:"-"`
	Year     int             `json:"-"`
	Amount   decimal.Decimal `json:"amount"`
	PaidDate time.Time       `json:"paid_date"`
}

type Service interface {
	CreateApplication(ctx context.Context, req CreateApplicationRequest) (Member, error)
	GetByID(ctx context.Context, id string) (Member, error)
	Accept(ctx context.Context, req AcceptRequest) (Member, error)
	DeleteApplicant(ctx context.Context, id string) error
	RecordPaymentNotice(ctx context.Context, req PaymentNoticeRequest) (DuesRecord, error)
}
