package service

import (
	"context"
	"fmt"
	"net/url"

	duesdomain "github.com/c3s/memberadmin/internal/dues/domain"
	memberdomain "github.com/c3s/memberadmin/internal/member/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SendDuesEmail emails the dues notice for an already-invoiced member.
// Normal members get the invoice with a download link; investing members
// get a voluntary-contribution request, with a separate wording for
// legal entities. Safe to call repeatedly; each successful send updates
// the email-sent timestamp.
func (s *Service) SendDuesEmail(ctx context.Context, year int, memberID string) error {
	member, err := s.loadMember(ctx, memberID)
	if err != nil {
		return err
	}

	record, err := s.duesrepo.FindOne(ctx, &memberdomain.DuesRecord{MemberID: member.ID, Year: year})
	if err != nil {
		return err
	}
	if record == nil || !record.InvoiceGenerated {
		return duesdomain.ErrNoInvoiceForYear
	}

	locale := member.Locale
	if locale != "de" {
		locale = "en"
	}

	var subject, body string
	if member.MembershipType == memberdomain.MembershipTypeInvesting {
		subject, body = s.investingMail(locale, year, member)
	} else {
		owed := record.Amount
		if record.Reduced {
			owed = record.AmountReduced
		}
		link := s.downloadURL(year, member.Email, record.Token, record.InvoiceNo)
		subject, body = s.duesMail(locale, year, member, record.InvoiceNoString, owed, link)
	}

	if err := s.mailer.Send(ctx, []string{member.Email}, subject, body); err != nil {
		return err
	}

	now := s.clock.Now()
	err = s.db.WithContext(ctx).Model(&memberdomain.DuesRecord{}).
		Where("id = ?", record.ID).
		Updates(map[string]any{
			"email_sent":    true,
			"email_sent_at": now,
			"updated_at":    now,
		}).Error
	if err != nil {
		return err
	}

	s.log.Info("dues email sent",
		zap.Int("year", year),
		zap.String("member_id", member.ID.String()),
		zap.String("locale", locale),
		zap.String("membership_type", string(member.MembershipType)),
	)
	return nil
}

func (s *Service) downloadURL(year int, emailAddr, token string, invoiceNo *int64) string {
	var no int64
	if invoiceNo != nil {
		no = *invoiceNo
	}
	return fmt.Sprintf("%s/dues/%d/invoices/%s/%s/%d",
		s.cfg.BaseURL, year, url.PathEscape(emailAddr), token, no)
}

func (s *Service) duesMail(locale string, year int, member memberdomain.Member, invoiceNoString string, owed decimal.Decimal, link string) (string, string) {
	if locale == "de" {
		subject := fmt.Sprintf("C3S-Mitgliedsbeitrag %d", year)
		body := fmt.Sprintf(
			"Hallo %s %s,\n\n"+
				"der Mitgliedsbeitrag für das Jahr %d beträgt %s Euro.\n"+
				"Die Rechnung %s kannst Du hier herunterladen:\n\n"+
				"    %s\n\n"+
				"Bitte überweise den Betrag unter Angabe der Rechnungsnummer.\n\n"+
				"Viele Grüße\nDas Team der C3S",
			member.Firstname, member.Lastname, year, owed.StringFixed(2), invoiceNoString, link)
		return subject, body
	}

	subject := fmt.Sprintf("C3S membership dues %d", year)
	body := fmt.Sprintf(
		"Hello %s %s,\n\n"+
			"your membership dues for %d amount to %s Euro.\n"+
			"You can download invoice %s here:\n\n"+
			"    %s\n\n"+
			"Please transfer the amount and state the invoice number.\n\n"+
			"Best wishes\nYour C3S team",
		member.Firstname, member.Lastname, year, owed.StringFixed(2), invoiceNoString, link)
	return subject, body
}

func (s *Service) investingMail(locale string, year int, member memberdomain.Member) (string, string) {
	if locale == "de" {
		subject := fmt.Sprintf("C3S-Beitrag %d für investierende Mitglieder", year)
		if member.IsLegalEntity {
			body := fmt.Sprintf(
				"Sehr geehrte Damen und Herren,\n\n"+
					"als investierendes Mitglied ist %s nicht beitragspflichtig.\n"+
					"Wir freuen uns dennoch über einen freiwilligen Beitrag für das\n"+
					"Jahr %d, für juristische Personen gerne ab 100 Euro.\n\n"+
					"Viele Grüße\nDas Team der C3S",
				member.Lastname, year)
			return subject, body
		}
		body := fmt.Sprintf(
			"Hallo %s %s,\n\n"+
				"als investierendes Mitglied bist Du nicht beitragspflichtig.\n"+
				"Wir freuen uns dennoch über einen freiwilligen Beitrag für das\n"+
				"Jahr %d.\n\n"+
				"Viele Grüße\nDas Team der C3S",
			member.Firstname, member.Lastname, year)
		return subject, body
	}

	subject := fmt.Sprintf("C3S contribution %d for investing members", year)
	if member.IsLegalEntity {
		body := fmt.Sprintf(
			"Dear Sir or Madam,\n\n"+
				"as an investing member, %s is not obliged to pay membership dues.\n"+
				"Nevertheless we would appreciate a voluntary contribution for %d;\n"+
				"for legal entities we suggest 100 Euro or more.\n\n"+
				"Best wishes\nYour C3S team",
			member.Lastname, year)
		return subject, body
	}
	body := fmt.Sprintf(
		"Hello %s %s,\n\n"+
			"as an investing member you are not obliged to pay membership dues.\n"+
			"Nevertheless we would appreciate a voluntary contribution for %d.\n\n"+
			"Best wishes\nYour C3S team",
		member.Firstname, member.Lastname, year)
	return subject, body
}
