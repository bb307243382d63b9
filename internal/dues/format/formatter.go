package format

import "fmt"

const reversalSuffix = "-S"

// FormatInvoiceNumber formats the human-readable invoice number for one
// dues invoice, e.g. "C3S-dues2016-0001" or "C3S-dues2016-0002-S" for a
// reversal.
//
// This function is PURE:
// - No side effects
// - No DB access
// - Fully deterministic
func FormatInvoiceNumber(year int, invoiceNo int64, reversal bool) (string, error) {
	if year <= 0 {
		return "", fmt.Errorf("invalid invoice year: %d", year)
	}
	if invoiceNo <= 0 {
		return "", fmt.Errorf("invalid invoice sequence: %d", invoiceNo)
	}

	out := fmt.Sprintf("C3S-dues%d-%04d", year, invoiceNo)
	if reversal {
		out += reversalSuffix
	}
	return out, nil
}
