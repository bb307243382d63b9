package service

import (
	"context"

	duescalc "github.com/c3s/memberadmin/internal/dues/calc"
	duesdomain "github.com/c3s/memberadmin/internal/dues/domain"
	"github.com/c3s/memberadmin/internal/dues/format"
	memberdomain "github.com/c3s/memberadmin/internal/member/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateDuesInvoice runs the dues workflow for one member and year:
// applicability check, quarter calculation, invoice numbering, and the
// idempotence flag on the dues record. Dues are computed at most once
// per member and year; a second call returns the stored invoice.
func (s *Service) CreateDuesInvoice(ctx context.Context, year int, memberID string) (*duesdomain.Invoice, error) {
	member, err := s.loadMember(ctx, memberID)
	if err != nil {
		return nil, err
	}

	if applicable, reason := duescalc.IsApplicable(year, member); !applicable {
		return nil, &duesdomain.NotApplicableError{Year: year, Reason: reason}
	}

	calculator, err := duescalc.NewCalculator(year, s.annualAmount)
	if err != nil {
		return nil, err
	}

	var created *duesdomain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err := s.duesrepo.WithTrx(tx).FindOne(ctx, &memberdomain.DuesRecord{MemberID: member.ID, Year: year})
		if err != nil {
			return err
		}

		if record != nil && record.InvoiceGenerated {
			if record.InvoiceNo == nil {
				// Investing member invoiced before: nothing to return.
				return nil
			}
			existing, err := s.invoicerepo.WithTrx(tx).FindOne(ctx, &duesdomain.Invoice{Year: year, InvoiceNo: *record.InvoiceNo})
			if err != nil {
				return err
			}
			if existing == nil {
				return duesdomain.ErrInvoiceNotFound
			}
			created = existing
			return nil
		}

		amount, code, _ := calculator.Calculate(member)
		now := s.clock.Now()

		if record == nil {
			record = &memberdomain.DuesRecord{
				ID:        s.genID.Generate(),
				MemberID:  member.ID,
				Year:      year,
				CreatedAt: now,
			}
			if err := s.duesrepo.WithTrx(tx).Create(ctx, record); err != nil {
				return err
			}
		}

		token := record.Token
		if token == "" {
			token, err = s.newToken(ctx, tx, year)
			if err != nil {
				return err
			}
		}

		updates := map[string]any{
			"invoice_generated":    true,
			"invoice_generated_at": now,
			"amount":               amount,
			"balance":              amount,
			"token":                token,
			"updated_at":           now,
		}

		if member.MembershipType == memberdomain.MembershipTypeNormal {
			next, err := s.nextInvoiceNumber(ctx, tx, year)
			if err != nil {
				return err
			}
			noString, err := format.FormatInvoiceNumber(year, next, false)
			if err != nil {
				return err
			}

			invoice := duesdomain.Invoice{
				ID:               s.genID.Generate(),
				Year:             year,
				InvoiceNo:        next,
				InvoiceNoString:  noString,
				InvoiceDate:      now,
				Amount:           amount,
				MemberID:         member.ID,
				MembershipNumber: member.MembershipNumber,
				Email:            member.Email,
				Token:            token,
				CreatedAt:        now,
			}
			// The unique index on (year, invoice_no) is the safety net
			// against two workers drawing the same number; the losing
			// transaction fails and the request is retried.
			if err := s.invoicerepo.WithTrx(tx).Create(ctx, &invoice); err != nil {
				return err
			}
			created = &invoice

			updates["invoice_no"] = next
			updates["invoice_no_string"] = noString

			s.log.Info("dues invoice created",
				zap.Int("year", year),
				zap.String("invoice_no_string", noString),
				zap.String("member_id", member.ID.String()),
				zap.String("amount", amount.String()),
				zap.String("quarter", code),
			)
		}

		return tx.WithContext(ctx).Model(&memberdomain.DuesRecord{}).
			Where("id = ?", record.ID).
			Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// SendDuesBatch invoices and emails up to limit members without an
// invoice for the year. Inapplicable members are skipped, not failed.
func (s *Service) SendDuesBatch(ctx context.Context, year int, limit int) (int, error) {
	if limit <= 0 {
		return 0, nil
	}

	var candidates []memberdomain.Member
	err := s.db.WithContext(ctx).
		Where("membership_accepted = ?", true).
		Where(`id NOT IN (
			SELECT member_id FROM dues_records
			WHERE year = ? AND invoice_generated = ?
		)`, year, true).
		Order("membership_number ASC").
		Limit(limit).
		Find(&candidates).Error
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, member := range candidates {
		if _, err := s.CreateDuesInvoice(ctx, year, member.ID.String()); err != nil {
			if duesdomain.IsNotApplicable(err) {
				continue
			}
			return sent, err
		}
		if err := s.SendDuesEmail(ctx, year, member.ID.String()); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}
