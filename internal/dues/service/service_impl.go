package service

import (
	"context"
	"crypto/rand"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/c3s/memberadmin/internal/clock"
	"github.com/c3s/memberadmin/internal/config"
	duesdomain "github.com/c3s/memberadmin/internal/dues/domain"
	memberdomain "github.com/c3s/memberadmin/internal/member/domain"
	"github.com/c3s/memberadmin/internal/providers/email"
	"github.com/c3s/memberadmin/pkg/db/option"
	"github.com/c3s/memberadmin/pkg/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const downloadValidity = 365 * 24 * time.Hour

type ServiceParam struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Cfg    config.Config
	Mailer email.Provider
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	clock  clock.Clock
	cfg    config.Config
	mailer email.Provider

	annualAmount decimal.Decimal

	memberrepo  repository.Repository[memberdomain.Member]
	duesrepo    repository.Repository[memberdomain.DuesRecord]
	invoicerepo repository.Repository[duesdomain.Invoice]
}

func NewService(p ServiceParam) (duesdomain.Service, error) {
	annual, err := decimal.NewFromString(p.Cfg.DuesAnnualAmount)
	if err != nil {
		return nil, err
	}

	return &Service{
		db:     p.DB,
		log:    p.Log.Named("dues.service"),
		genID:  p.GenID,
		clock:  p.Clock,
		cfg:    p.Cfg,
		mailer: p.Mailer,

		annualAmount: annual,

		memberrepo:  repository.ProvideStore[memberdomain.Member](p.DB),
		duesrepo:    repository.ProvideStore[memberdomain.DuesRecord](p.DB),
		invoicerepo: repository.ProvideStore[duesdomain.Invoice](p.DB),
	}, nil
}

func (s *Service) ListInvoices(ctx context.Context, year int) ([]duesdomain.Invoice, error) {
	items, err := s.invoicerepo.Find(ctx, &duesdomain.Invoice{Year: year},
		option.WithSortBy(option.QuerySortBy{
			Allow:   map[string]bool{"invoice_no": true},
			Column:  "invoice_no",
			Default: "invoice_no",
		}),
	)
	if err != nil {
		return nil, err
	}

	invoices := make([]duesdomain.Invoice, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		invoices = append(invoices, *item)
	}
	return invoices, nil
}

// LookupInvoiceForDownload authorizes a tokenized download link. Every
// failure mode maps to the same not-found outcome because stale and
// tampered links are routine, not exceptional.
func (s *Service) LookupInvoiceForDownload(ctx context.Context, year int, emailAddr, token string, invoiceNo int64) (duesdomain.Invoice, memberdomain.Member, error) {
	invoice, err := s.invoicerepo.FindOne(ctx, &duesdomain.Invoice{Year: year, InvoiceNo: invoiceNo})
	if err != nil {
		return duesdomain.Invoice{}, memberdomain.Member{}, err
	}
	if invoice == nil {
		return duesdomain.Invoice{}, memberdomain.Member{}, duesdomain.ErrInvoiceNotFound
	}
	if !strings.EqualFold(invoice.Email, strings.TrimSpace(emailAddr)) || invoice.Token != strings.TrimSpace(token) {
		return duesdomain.Invoice{}, memberdomain.Member{}, duesdomain.ErrInvoiceNotFound
	}
	if s.clock.Now().Sub(invoice.InvoiceDate) > downloadValidity {
		return duesdomain.Invoice{}, memberdomain.Member{}, duesdomain.ErrInvoiceNotFound
	}

	record, err := s.duesrepo.FindOne(ctx, &memberdomain.DuesRecord{MemberID: invoice.MemberID, Year: year})
	if err != nil {
		return duesdomain.Invoice{}, memberdomain.Member{}, err
	}
	if record == nil || record.Paid {
		return duesdomain.Invoice{}, memberdomain.Member{}, duesdomain.ErrInvoiceNotFound
	}

	member, err := s.memberrepo.FindOne(ctx, &memberdomain.Member{ID: invoice.MemberID})
	if err != nil {
		return duesdomain.Invoice{}, memberdomain.Member{}, err
	}
	if member == nil {
		return duesdomain.Invoice{}, memberdomain.Member{}, duesdomain.ErrInvoiceNotFound
	}

	return *invoice, *member, nil
}

func (s *Service) loadMember(ctx context.Context, rawID string) (memberdomain.Member, error) {
	memberID, err := snowflake.ParseString(strings.TrimSpace(rawID))
	if err != nil {
		return memberdomain.Member{}, duesdomain.ErrInvalidMemberID
	}
	member, err := s.memberrepo.FindOne(ctx, &memberdomain.Member{ID: memberID})
	if err != nil {
		return memberdomain.Member{}, err
	}
	if member == nil {
		return memberdomain.Member{}, duesdomain.ErrMemberNotFound
	}
	return *member, nil
}

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const tokenLength = 10

// newToken returns a random 10-character uppercase alphanumeric token,
// regenerated silently until it is unique among the year's invoices.
func (s *Service) newToken(ctx context.Context, tx *gorm.DB, year int) (string, error) {
	for {
		buf := make([]byte, tokenLength)
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		token := make([]byte, tokenLength)
		for i, b := range buf {
			token[i] = tokenAlphabet[int(b)%len(tokenAlphabet)]
		}

		var count int64
		err := tx.WithContext(ctx).Model(&duesdomain.Invoice{}).
			Where("year = ? AND token = ?", year, string(token)).
			Count(&count).Error
		if err != nil {
			return "", err
		}
		if count == 0 {
			return string(token), nil
		}
	}
}

func (s *Service) nextInvoiceNumber(ctx context.Context, tx *gorm.DB, year int) (int64, error) {
	var next int64
	err := tx.WithContext(ctx).Raw(
		`SELECT COALESCE(MAX(invoice_no), 0) + 1
		 FROM dues_invoices
		 WHERE year = ?`,
		year,
	).Scan(&next).Error
	if err != nil {
		return 0, err
	}
	return next, nil
}
