package service

import (
	"context"

	duesdomain "github.com/c3s/memberadmin/internal/dues/domain"
	"github.com/c3s/memberadmin/internal/dues/format"
	memberdomain "github.com/c3s/memberadmin/internal/member/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Reduce lowers the dues for an already-invoiced member, writing a
// correction chain instead of mutating the original invoice: the
// current invoice is cancelled, a reversal with the negated amount is
// appended, and unless the new amount is zero a replacement invoice
// follows. A reduction to exactly zero is an exemption and ends the
// chain on the reversal.
func (s *Service) Reduce(ctx context.Context, req duesdomain.ReductionRequest) (duesdomain.ReductionResult, error) {
	var result duesdomain.ReductionResult

	member, err := s.loadMember(ctx, req.MemberID)
	if err != nil {
		return result, err
	}

	record, err := s.duesrepo.FindOne(ctx, &memberdomain.DuesRecord{MemberID: member.ID, Year: req.Year})
	if err != nil {
		return result, err
	}
	if record == nil || !record.InvoiceGenerated || record.InvoiceNo == nil {
		return result, duesdomain.ErrNoInvoiceForYear
	}

	if req.Amount.IsNegative() {
		return result, duesdomain.ErrReductionNegative
	}
	if !req.Confirmed {
		return result, duesdomain.ErrReductionNotConfirmed
	}
	if !record.Reduced && req.Amount.Equal(record.Amount) {
		return result, duesdomain.ErrAlreadyDefaultAmount
	}
	if record.Reduced && req.Amount.Equal(record.AmountReduced) {
		return result, duesdomain.ErrAlreadyReducedToAmount
	}
	owed := record.Amount
	if record.Reduced {
		owed = record.AmountReduced
	}
	if req.Amount.GreaterThan(owed) {
		return result, duesdomain.ErrReductionUpward
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.invoicerepo.WithTrx(tx).FindOne(ctx, &duesdomain.Invoice{Year: req.Year, InvoiceNo: *record.InvoiceNo})
		if err != nil {
			return err
		}
		if current == nil {
			return duesdomain.ErrInvoiceNotFound
		}

		now := s.clock.Now()

		reversalNo, err := s.nextInvoiceNumber(ctx, tx, req.Year)
		if err != nil {
			return err
		}
		reversalString, err := format.FormatInvoiceNumber(req.Year, reversalNo, true)
		if err != nil {
			return err
		}
		reversal := duesdomain.Invoice{
			ID:                 s.genID.Generate(),
			Year:               req.Year,
			InvoiceNo:          reversalNo,
			InvoiceNoString:    reversalString,
			InvoiceDate:        now,
			Amount:             current.Amount.Neg(),
			IsReversal:         true,
			MemberID:           member.ID,
			MembershipNumber:   member.MembershipNumber,
			Email:              member.Email,
			Token:              record.Token,
			PrecedingInvoiceNo: &current.InvoiceNo,
			CreatedAt:          now,
		}
		if err := s.invoicerepo.WithTrx(tx).Create(ctx, &reversal); err != nil {
			return err
		}

		err = tx.WithContext(ctx).Model(&duesdomain.Invoice{}).
			Where("id = ?", current.ID).
			Updates(map[string]any{
				"is_cancelled":          true,
				"succeeding_invoice_no": reversalNo,
			}).Error
		if err != nil {
			return err
		}

		currentNo := reversalNo
		currentString := reversalString

		if req.Amount.IsPositive() {
			replacementNo, err := s.nextInvoiceNumber(ctx, tx, req.Year)
			if err != nil {
				return err
			}
			replacementString, err := format.FormatInvoiceNumber(req.Year, replacementNo, false)
			if err != nil {
				return err
			}
			replacement := duesdomain.Invoice{
				ID:                 s.genID.Generate(),
				Year:               req.Year,
				InvoiceNo:          replacementNo,
				InvoiceNoString:    replacementString,
				InvoiceDate:        now,
				Amount:             req.Amount,
				IsAltered:          true,
				MemberID:           member.ID,
				MembershipNumber:   member.MembershipNumber,
				Email:              member.Email,
				Token:              record.Token,
				PrecedingInvoiceNo: &reversalNo,
				CreatedAt:          now,
			}
			if err := s.invoicerepo.WithTrx(tx).Create(ctx, &replacement); err != nil {
				return err
			}

			err = tx.WithContext(ctx).Model(&duesdomain.Invoice{}).
				Where("id = ?", reversal.ID).
				Updates(map[string]any{"succeeding_invoice_no": replacementNo}).Error
			if err != nil {
				return err
			}
			reversal.SucceedingInvoiceNo = &replacementNo
			result.Replacement = &replacement

			currentNo = replacementNo
			currentString = replacementString
		}
		result.Reversal = reversal

		return tx.WithContext(ctx).Model(&memberdomain.DuesRecord{}).
			Where("id = ?", record.ID).
			Updates(map[string]any{
				"reduced":           true,
				"amount_reduced":    req.Amount,
				"balance":           req.Amount.Sub(record.AmountPaid),
				"invoice_no":        currentNo,
				"invoice_no_string": currentString,
				"updated_at":        now,
			}).Error
	})
	if err != nil {
		return duesdomain.ReductionResult{}, err
	}

	s.log.Info("dues reduced",
		zap.Int("year", req.Year),
		zap.String("member_id", member.ID.String()),
		zap.String("new_amount", req.Amount.String()),
		zap.Bool("exemption", req.Amount.IsZero()),
	)
	return result, nil
}
