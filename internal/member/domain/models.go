// Package domain contains persistence models for cooperative members.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// MembershipType distinguishes fee-paying members from investing ones.
type MembershipType string

const (
	MembershipTypeNormal    MembershipType = "normal"
	MembershipTypeInvesting MembershipType = "investing"
)

// Member represents a person or legal entity that applied for membership.
// Rows are created at application time and mutated by staff actions for
// the member's lifetime; only unaccepted applicants may be deleted.
type Member struct {
	ID               snowflake.ID   `gorm:"primaryKey" json:"id"`
	MembershipNumber *int64         `gorm:"uniqueIndex" json:"membership_number"`
	Firstname        string         `gorm:"not null;default:''" json:"firstname"`
	Lastname         string         `gorm:"not null;default:''" json:"lastname"`
	Email            string         `gorm:"not null;index" json:"email"`
	Address1         string         `gorm:"not null;default:''" json:"address1"`
	Address2         string         `gorm:"not null;default:''" json:"address2"`
	Postcode         string         `gorm:"not null;default:''" json:"postcode"`
	City             string         `gorm:"not null;default:''" json:"city"`
	Country          string         `gorm:"not null;default:''" json:"country"`
	Locale           string         `gorm:"not null;default:'de'" json:"locale"`
	IsLegalEntity    bool           `gorm:"not null;default:false" json:"is_legal_entity"`
	MembershipType   MembershipType `gorm:"type:text;not null;default:'normal'" json:"membership_type"`

	MembershipAccepted bool       `gorm:"not null;default:false" json:"membership_accepted"`
	MembershipDate     *time.Time `json:"membership_date"`
	MembershipLossDate *time.Time `json:"membership_loss_date"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Member) TableName() string { return "members" }

// DuesRecord carries the per-year dues state of one member. The
// invoice_generated flag is the idempotence guard for the dues workflow:
// once set, re-invoking the workflow only resends the email.
type DuesRecord struct {
	ID       snowflake.ID `gorm:"primaryKey" json:"id"`
	MemberID snowflake.ID `gorm:"not null;uniqueIndex:ux_dues_records_member_year" json:"member_id"`
	Year     int          `gorm:"not null;uniqueIndex:ux_dues_records_member_year" json:"year"`

	InvoiceGenerated   bool       `gorm:"not null;default:false" json:"invoice_generated"`
	InvoiceGeneratedAt *time.Time `json:"invoice_generated_at"`
	InvoiceNo          *int64     `json:"invoice_no"`
	InvoiceNoString    string     `gorm:"not null;default:''" json:"invoice_no_string"`

	Amount        decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"amount"`
	Reduced       bool            `gorm:"not null;default:false" json:"reduced"`
	AmountReduced decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"amount_reduced"`

	Paid       bool            `gorm:"not null;default:false" json:"paid"`
	AmountPaid decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"amount_paid"`
	PaidDate   *time.Time      `json:"paid_date"`
	Balance    decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"balance"`

	EmailSent   bool       `gorm:"not null;default:false" json:"email_sent"`
	EmailSentAt *time.Time `json:"email_sent_at"`

	// Token authorizes unauthenticated invoice downloads for this
	// member and year.
	Token string `gorm:"not null;default:''" json:"-"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (DuesRecord) TableName() string { return "dues_records" }
