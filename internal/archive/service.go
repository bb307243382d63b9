// Package archive copies generated invoice PDFs into a long-term
// archive directory. A dues invoice counts as archived exactly when the
// file {invoice_no_string}.pdf exists under the archive root; the
// filesystem, not a database flag, is the source of truth.
package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/c3s/memberadmin/internal/cache"
	"github.com/c3s/memberadmin/internal/config"
	duesdomain "github.com/c3s/memberadmin/internal/dues/domain"
	memberdomain "github.com/c3s/memberadmin/internal/member/domain"
	"github.com/c3s/memberadmin/internal/providers/pdf"
	"github.com/c3s/memberadmin/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	coopName    = "Cultural Commons Collecting Society SCE"
	coopAddress = "Rochusstr. 44, 40479 Duesseldorf, Germany"
	bankDetails = "Bank transfer to: C3S SCE, IBAN DE79 8309 4495 0003 2643 78, GLS Bank"

	statsTTL = 5 * time.Minute
)

// YearStats summarizes archive coverage for one fiscal year.
type YearStats struct {
	Year        int   `json:"year"`
	Total       int64 `json:"total"`
	Archived    int64 `json:"archived"`
	NotArchived int64 `json:"not_archived"`
}

type Service interface {
	// MissingInvoices lists the year's invoices without an archived
	// PDF, in ledger insertion order.
	MissingInvoices(ctx context.Context, year int) ([]duesdomain.Invoice, error)

	// GenerateMissingPDFs archives up to limit missing invoices and
	// returns the invoice number strings written. A PDF generation
	// failure stops the run without archiving the failed invoice.
	GenerateMissingPDFs(ctx context.Context, year int, limit int) ([]string, error)

	// Render produces the PDF for one invoice without archiving it.
	Render(ctx context.Context, invoice duesdomain.Invoice, member memberdomain.Member) (io.Reader, error)

	Stats(ctx context.Context) ([]YearStats, error)
}

type ServiceParam struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
	Cfg config.Config
	PDF pdf.Provider
}

type service struct {
	db  *gorm.DB
	log *zap.Logger
	cfg config.Config
	pdf pdf.Provider

	memberrepo repository.Repository[memberdomain.Member]

	rootOnce sync.Once
	rootErr  error

	stats *cache.Memo[[]YearStats]
}

func NewService(p ServiceParam) Service {
	s := &service{
		db:         p.DB,
		log:        p.Log.Named("archive.service"),
		cfg:        p.Cfg,
		pdf:        p.PDF,
		memberrepo: repository.ProvideStore[memberdomain.Member](p.DB),
	}
	s.stats = cache.NewMemo(statsTTL, func(ctx context.Context, _ ...any) ([]YearStats, error) {
		return s.computeStats(ctx)
	})
	return s
}

func (s *service) ensureRoot() error {
	s.rootOnce.Do(func() {
		s.rootErr = os.MkdirAll(s.cfg.ArchiveRoot, 0o755)
	})
	return s.rootErr
}

func (s *service) archivePath(invoiceNoString string) string {
	return filepath.Join(s.cfg.ArchiveRoot, invoiceNoString+".pdf")
}

func (s *service) isArchived(invoiceNoString string) bool {
	_, err := os.Stat(s.archivePath(invoiceNoString))
	return err == nil
}

func (s *service) MissingInvoices(ctx context.Context, year int) ([]duesdomain.Invoice, error) {
	if err := s.ensureRoot(); err != nil {
		return nil, err
	}

	var invoices []duesdomain.Invoice
	err := s.db.WithContext(ctx).
		Where("year = ?", year).
		Order("invoice_no ASC").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}

	missing := invoices[:0]
	for _, invoice := range invoices {
		if !s.isArchived(invoice.InvoiceNoString) {
			missing = append(missing, invoice)
		}
	}
	return missing, nil
}

func (s *service) GenerateMissingPDFs(ctx context.Context, year int, limit int) ([]string, error) {
	missing, err := s.MissingInvoices(ctx, year)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(missing) > limit {
		missing = missing[:limit]
	}

	archived := make([]string, 0, len(missing))
	for _, invoice := range missing {
		if err := s.archiveOne(ctx, invoice); err != nil {
			return archived, fmt.Errorf("archive %s: %w", invoice.InvoiceNoString, err)
		}
		archived = append(archived, invoice.InvoiceNoString)
	}

	if len(archived) > 0 {
		s.stats.InvalidateAll()
		s.log.Info("invoices archived",
			zap.Int("year", year),
			zap.Int("count", len(archived)),
		)
	}
	return archived, nil
}

// archiveOne renders the PDF to a temp file first and moves it into the
// archive only after a complete generation, so a failure never leaves a
// partial file that would count as archived.
func (s *service) archiveOne(ctx context.Context, invoice duesdomain.Invoice) error {
	member, err := s.memberrepo.FindOne(ctx, &memberdomain.Member{ID: invoice.MemberID})
	if err != nil {
		return err
	}
	if member == nil {
		return duesdomain.ErrMemberNotFound
	}

	reader, err := s.Render(ctx, invoice, *member)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.cfg.ArchiveRoot, ".pending-*.pdf")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, s.archivePath(invoice.InvoiceNoString))
}

func (s *service) Render(ctx context.Context, invoice duesdomain.Invoice, member memberdomain.Member) (io.Reader, error) {
	data := pdf.InvoiceData{
		CoopName:      coopName,
		CoopAddress:   coopAddress,
		CoopEmail:     s.cfg.Email.From,
		InvoiceNumber: invoice.InvoiceNoString,
		InvoiceDate:   invoice.InvoiceDate.Format("2006-01-02"),
		MemberName:    memberName(member),
		MemberAddress: memberAddress(member),
		MemberEmail:   member.Email,
		Description:   fmt.Sprintf("Membership dues %d", invoice.Year),
		Amount:        invoice.Amount.StringFixed(2) + " EUR",
		BankDetails:   bankDetails,
	}

	if invoice.IsReversal {
		cancelled := ""
		if invoice.PrecedingInvoiceNo != nil {
			cancelled = fmt.Sprintf("C3S-dues%d-%04d", invoice.Year, *invoice.PrecedingInvoiceNo)
		}
		return s.pdf.GenerateReversal(ctx, pdf.ReversalData{
			InvoiceData:     data,
			CancelledNumber: cancelled,
		})
	}
	return s.pdf.GenerateInvoice(ctx, data)
}

func (s *service) Stats(ctx context.Context) ([]YearStats, error) {
	return s.stats.Get(ctx)
}

func (s *service) computeStats(ctx context.Context) ([]YearStats, error) {
	if err := s.ensureRoot(); err != nil {
		return nil, err
	}

	var invoices []duesdomain.Invoice
	err := s.db.WithContext(ctx).
		Select("year", "invoice_no_string").
		Order("year ASC, invoice_no ASC").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}

	byYear := make(map[int]*YearStats)
	years := make([]int, 0)
	for _, invoice := range invoices {
		stats, ok := byYear[invoice.Year]
		if !ok {
			stats = &YearStats{Year: invoice.Year}
			byYear[invoice.Year] = stats
			years = append(years, invoice.Year)
		}
		stats.Total++
		if s.isArchived(invoice.InvoiceNoString) {
			stats.Archived++
		} else {
			stats.NotArchived++
		}
	}

	out := make([]YearStats, 0, len(years))
	for _, year := range years {
		out = append(out, *byYear[year])
	}
	return out, nil
}

func memberName(m memberdomain.Member) string {
	if m.IsLegalEntity {
		return m.Lastname
	}
	return strings.TrimSpace(m.Firstname + " " + m.Lastname)
}

func memberAddress(m memberdomain.Member) string {
	parts := []string{m.Address1}
	if m.Address2 != "" {
		parts = append(parts, m.Address2)
	}
	parts = append(parts, strings.TrimSpace(m.Postcode+" "+m.City), m.Country)
	return strings.Join(parts, ", ")
}
