package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/c3s/memberadmin/internal/clock"
	memberdomain "github.com/c3s/memberadmin/internal/member/domain"
	"github.com/c3s/memberadmin/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock

	memberrepo repository.Repository[memberdomain.Member]
	duesrepo   repository.Repository[memberdomain.DuesRecord]
}

func NewService(p ServiceParam) memberdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("member.service"),
		genID: p.GenID,
		clock: p.Clock,

		memberrepo: repository.ProvideStore[memberdomain.Member](p.DB),
		duesrepo:   repository.ProvideStore[memberdomain.DuesRecord](p.DB),
	}
}

func (s *Service) CreateApplication(ctx context.Context, req memberdomain.CreateApplicationRequest) (memberdomain.Member, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return memberdomain.Member{}, memberdomain.ErrInvalidEmail
	}

	membershipType := req.MembershipType
	if membershipType != memberdomain.MembershipTypeInvesting {
		membershipType = memberdomain.MembershipTypeNormal
	}

	now := s.clock.Now()
	member := memberdomain.Member{
		ID:             s.genID.Generate(),
		Firstname:      strings.TrimSpace(req.Firstname),
		Lastname:       strings.TrimSpace(req.Lastname),
		Email:          email,
		Address1:       strings.TrimSpace(req.Address1),
		Address2:       strings.TrimSpace(req.Address2),
		Postcode:       strings.TrimSpace(req.Postcode),
		City:           strings.TrimSpace(req.City),
		Country:        strings.TrimSpace(req.Country),
		Locale:         normalizeLocale(req.Locale),
		IsLegalEntity:  req.IsLegalEntity,
		MembershipType: membershipType,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.memberrepo.Create(ctx, &member); err != nil {
		return memberdomain.Member{}, err
	}
	return member, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (memberdomain.Member, error) {
	memberID, err := parseID(id)
	if err != nil {
		return memberdomain.Member{}, memberdomain.ErrInvalidMemberID
	}

	item, err := s.memberrepo.FindOne(ctx, &memberdomain.Member{ID: memberID})
	if err != nil {
		return memberdomain.Member{}, err
	}
	if item == nil {
		return memberdomain.Member{}, memberdomain.ErrNotFound
	}
	return *item, nil
}

// Accept marks an applicant as a member of the cooperative and assigns
// the next free membership number. Numbering is computed inside the
// transaction; the unique index on membership_number is the safety net
// against concurrent acceptance.
func (s *Service) Accept(ctx context.Context, req memberdomain.AcceptRequest) (memberdomain.Member, error) {
	memberID, err := parseID(req.MemberID)
	if err != nil {
		return memberdomain.Member{}, memberdomain.ErrInvalidMemberID
	}
	if req.MembershipDate.IsZero() {
		return memberdomain.Member{}, memberdomain.ErrMissingMembership
	}

	var accepted memberdomain.Member
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		member, err := s.memberrepo.WithTrx(tx).FindOne(ctx, &memberdomain.Member{ID: memberID})
		if err != nil {
			return err
		}
		if member == nil {
			return memberdomain.ErrNotFound
		}
		if member.MembershipAccepted {
			return memberdomain.ErrAlreadyAccepted
		}

		var next int64
		if err := tx.WithContext(ctx).Raw(
			`SELECT COALESCE(MAX(membership_number), 0) + 1 FROM members`,
		).Scan(&next).Error; err != nil {
			return err
		}

		date := req.MembershipDate.UTC()
		now := s.clock.Now()
		if err := tx.WithContext(ctx).Model(&memberdomain.Member{}).
			Where("id = ?", memberID).
			Updates(map[string]any{
				"membership_accepted": true,
				"membership_number":   next,
				"membership_date":     date,
				"updated_at":          now,
			}).Error; err != nil {
			return err
		}

		member.MembershipAccepted = true
		member.MembershipNumber = &next
		member.MembershipDate = &date
		member.UpdatedAt = now
		accepted = *member
		return nil
	})
	if err != nil {
		return memberdomain.Member{}, err
	}

	s.log.Info("member accepted",
		zap.String("member_id", accepted.ID.String()),
		zap.Int64p("membership_number", accepted.MembershipNumber),
	)
	return accepted, nil
}

// DeleteApplicant removes an application that was never accepted.
// Accepted members are kept for their lifetime.
func (s *Service) DeleteApplicant(ctx context.Context, id string) error {
	memberID, err := parseID(id)
	if err != nil {
		return memberdomain.ErrInvalidMemberID
	}

	member, err := s.memberrepo.FindOne(ctx, &memberdomain.Member{ID: memberID})
	if err != nil {
		return err
	}
	if member == nil {
		return memberdomain.ErrNotFound
	}
	if member.MembershipAccepted {
		return memberdomain.ErrDeleteAccepted
	}
	return s.memberrepo.Delete(ctx, memberID.String())
}

// RecordPaymentNotice stores a staff-entered payment against the
// member's dues record for the year and recomputes the balance.
func (s *Service) RecordPaymentNotice(ctx context.Context, req memberdomain.PaymentNoticeRequest) (memberdomain.DuesRecord, error) {
	memberID, err := parseID(req.MemberID)
	if err != nil {
		return memberdomain.DuesRecord{}, memberdomain.ErrInvalidMemberID
	}
	if req.Amount.IsNegative() {
		return memberdomain.DuesRecord{}, memberdomain.ErrInvalidPayment
	}

	var updated memberdomain.DuesRecord
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err := s.duesrepo.WithTrx(tx).FindOne(ctx, &memberdomain.DuesRecord{MemberID: memberID, Year: req.Year})
		if err != nil {
			return err
		}
		if record == nil || !record.InvoiceGenerated {
			return memberdomain.ErrNoInvoiceForYear
		}

		owed := record.Amount
		if record.Reduced {
			owed = record.AmountReduced
		}

		paidDate := req.PaidDate.UTC()
		if req.PaidDate.IsZero() {
			paidDate = s.clock.Now()
		}
		record.Paid = true
		record.AmountPaid = req.Amount
		record.PaidDate = &paidDate
		record.Balance = owed.Sub(req.Amount)
		record.UpdatedAt = s.clock.Now()

		if err := tx.WithContext(ctx).Model(&memberdomain.DuesRecord{}).
			Where("id = ?", record.ID).
			Updates(map[string]any{
				"paid":        true,
				"amount_paid": record.AmountPaid,
				"paid_date":   record.PaidDate,
				"balance":     record.Balance,
				"updated_at":  record.UpdatedAt,
			}).Error; err != nil {
			return err
		}
		updated = *record
		return nil
	})
	if err != nil {
		return memberdomain.DuesRecord{}, err
	}
	return updated, nil
}

func normalizeLocale(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "de":
		return "de"
	case "en":
		return "en"
	default:
		return "de"
	}
}

func parseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}
