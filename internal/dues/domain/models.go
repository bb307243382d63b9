// Package domain contains persistence models for dues invoicing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Invoice represents a single billable or reversal document. Rows are
// never deleted; corrections mark the original cancelled and chain a
// reversal (and, below an exemption, a replacement) after it via the
// preceding/succeeding links. The signed amounts of a chain sum to the
// final charged amount.
type Invoice struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	Year            int          `gorm:"not null;uniqueIndex:ux_dues_invoices_year_no" json:"year"`
	InvoiceNo       int64        `gorm:"not null;uniqueIndex:ux_dues_invoices_year_no" json:"invoice_no"`
	InvoiceNoString string       `gorm:"not null;uniqueIndex" json:"invoice_no_string"`
	InvoiceDate     time.Time    `gorm:"not null" json:"invoice_date"`

	Amount decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"amount"`

	IsCancelled bool `gorm:"not null;default:false" json:"is_cancelled"`
	IsReversal  bool `gorm:"not null;default:false" json:"is_reversal"`
	IsAltered   bool `gorm:"not null;default:false" json:"is_altered"`

	MemberID         snowflake.ID `gorm:"not null;index" json:"member_id"`
	MembershipNumber *int64       `json:"membership_number"`
	Email            string       `gorm:"not null;default:''" json:"email"`
	Token            string       `gorm:"not null;default:''" json:"-"`

	PrecedingInvoiceNo  *int64 `json:"preceding_invoice_no"`
	SucceedingInvoiceNo *int64 `json:"succeeding_invoice_no"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "dues_invoices" }
