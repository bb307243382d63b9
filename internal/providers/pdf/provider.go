// Package pdf renders dues invoices and reversal notices.
package pdf

import (
	"context"
	"io"
)

// InvoiceData carries everything a dues invoice template needs. All
// strings are preformatted; the provider only typesets.
type InvoiceData struct {
	CoopName    string
	CoopAddress string
	CoopEmail   string

	InvoiceNumber string
	InvoiceDate   string

	MemberName    string
	MemberAddress string
	MemberEmail   string

	Description string
	Amount      string

	BankDetails string
}

// ReversalData describes a reversal notice: the reversal itself plus
// the cancelled invoice it corrects.
type ReversalData struct {
	InvoiceData
	CancelledNumber string
}

type Provider interface {
	GenerateInvoice(ctx context.Context, data InvoiceData) (io.Reader, error)
	GenerateReversal(ctx context.Context, data ReversalData) (io.Reader, error)
}
