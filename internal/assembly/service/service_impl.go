package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	assemblydomain "github.com/c3s/memberadmin/internal/assembly/domain"
	"github.com/c3s/memberadmin/internal/clock"
	memberdomain "github.com/c3s/memberadmin/internal/member/domain"
	"github.com/c3s/memberadmin/internal/providers/email"
	"github.com/c3s/memberadmin/pkg/db/option"
	"github.com/c3s/memberadmin/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Mailer email.Provider
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	clock  clock.Clock
	mailer email.Provider

	assemblyrepo   repository.Repository[assemblydomain.GeneralAssembly]
	invitationrepo repository.Repository[assemblydomain.Invitation]
	memberrepo     repository.Repository[memberdomain.Member]
}

func NewService(p ServiceParam) assemblydomain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("assembly.service"),
		genID:  p.GenID,
		clock:  p.Clock,
		mailer: p.Mailer,

		assemblyrepo:   repository.ProvideStore[assemblydomain.GeneralAssembly](p.DB),
		invitationrepo: repository.ProvideStore[assemblydomain.Invitation](p.DB),
		memberrepo:     repository.ProvideStore[memberdomain.Member](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req assemblydomain.CreateAssemblyRequest) (assemblydomain.GeneralAssembly, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return assemblydomain.GeneralAssembly{}, assemblydomain.ErrNameRequired
	}

	now := s.clock.Now()
	if dateOnly(req.AssemblyDate).Before(dateOnly(now)) {
		return assemblydomain.GeneralAssembly{}, assemblydomain.ErrAssemblyInPast
	}

	var assembly assemblydomain.GeneralAssembly
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var next int64
		err := tx.WithContext(ctx).Raw(
			`SELECT COALESCE(MAX(assembly_number), 0) + 1 FROM general_assemblies`,
		).Scan(&next).Error
		if err != nil {
			return err
		}

		assembly = assemblydomain.GeneralAssembly{
			ID:             s.genID.Generate(),
			AssemblyNumber: next,
			Name:           name,
			AssemblyDate:   req.AssemblyDate,
			SubjectEN:      req.SubjectEN,
			SubjectDE:      req.SubjectDE,
			BodyEN:         req.BodyEN,
			BodyDE:         req.BodyDE,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		return s.assemblyrepo.WithTrx(tx).Create(ctx, &assembly)
	})
	if err != nil {
		return assemblydomain.GeneralAssembly{}, err
	}

	s.log.Info("assembly created",
		zap.Int64("assembly_number", assembly.AssemblyNumber),
		zap.Time("assembly_date", assembly.AssemblyDate),
	)
	return assembly, nil
}

func (s *Service) Update(ctx context.Context, assemblyID string, req assemblydomain.UpdateAssemblyRequest) (assemblydomain.GeneralAssembly, error) {
	assembly, err := s.loadAssembly(ctx, assemblyID)
	if err != nil {
		return assemblydomain.GeneralAssembly{}, err
	}
	if dateOnly(assembly.AssemblyDate).Before(dateOnly(s.clock.Now())) {
		return assemblydomain.GeneralAssembly{}, assemblydomain.ErrAssemblyInPast
	}

	updates := map[string]any{"updated_at": s.clock.Now()}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return assemblydomain.GeneralAssembly{}, assemblydomain.ErrNameRequired
		}
		updates["name"] = name
	}
	if req.AssemblyDate != nil {
		if dateOnly(*req.AssemblyDate).Before(dateOnly(s.clock.Now())) {
			return assemblydomain.GeneralAssembly{}, assemblydomain.ErrAssemblyInPast
		}
		updates["assembly_date"] = *req.AssemblyDate
	}
	if req.SubjectEN != nil {
		updates["subject_en"] = *req.SubjectEN
	}
	if req.SubjectDE != nil {
		updates["subject_de"] = *req.SubjectDE
	}
	if req.BodyEN != nil {
		updates["body_en"] = *req.BodyEN
	}
	if req.BodyDE != nil {
		updates["body_de"] = *req.BodyDE
	}

	err = s.db.WithContext(ctx).Model(&assemblydomain.GeneralAssembly{}).
		Where("id = ?", assembly.ID).
		Updates(updates).Error
	if err != nil {
		return assemblydomain.GeneralAssembly{}, err
	}
	return s.loadAssembly(ctx, assemblyID)
}

func (s *Service) Get(ctx context.Context, assemblyID string) (assemblydomain.GeneralAssembly, error) {
	return s.loadAssembly(ctx, assemblyID)
}

func (s *Service) List(ctx context.Context) ([]assemblydomain.GeneralAssembly, error) {
	items, err := s.assemblyrepo.Find(ctx, &assemblydomain.GeneralAssembly{},
		option.WithSortBy(option.QuerySortBy{
			Allow:   map[string]bool{"assembly_number": true},
			Column:  "assembly_number",
			Default: "assembly_number",
		}),
	)
	if err != nil {
		return nil, err
	}
	assemblies := make([]assemblydomain.GeneralAssembly, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		assemblies = append(assemblies, *item)
	}
	return assemblies, nil
}

// Invite sends the invitation email in the member's locale and records
// it. A member can be invited to an assembly once.
func (s *Service) Invite(ctx context.Context, assemblyID, memberID string) (assemblydomain.Invitation, error) {
	assembly, err := s.loadAssembly(ctx, assemblyID)
	if err != nil {
		return assemblydomain.Invitation{}, err
	}

	now := s.clock.Now()
	if dateOnly(assembly.AssemblyDate).Before(dateOnly(now)) {
		return assemblydomain.Invitation{}, assemblydomain.ErrAssemblyInPast
	}
	if assembly.SubjectEN == "" || assembly.SubjectDE == "" || assembly.BodyEN == "" || assembly.BodyDE == "" {
		return assemblydomain.Invitation{}, assemblydomain.ErrContentIncomplete
	}

	parsedMemberID, err := snowflake.ParseString(strings.TrimSpace(memberID))
	if err != nil {
		return assemblydomain.Invitation{}, memberdomain.ErrInvalidMemberID
	}
	member, err := s.memberrepo.FindOne(ctx, &memberdomain.Member{ID: parsedMemberID})
	if err != nil {
		return assemblydomain.Invitation{}, err
	}
	if member == nil {
		return assemblydomain.Invitation{}, memberdomain.ErrNotFound
	}
	if !membershipCovers(*member, assembly.AssemblyDate) {
		return assemblydomain.Invitation{}, assemblydomain.ErrMembershipNotCovered
	}

	existing, err := s.invitationrepo.FindOne(ctx, &assemblydomain.Invitation{
		MemberID:   member.ID,
		AssemblyID: assembly.ID,
	})
	if err != nil {
		return assemblydomain.Invitation{}, err
	}
	if existing != nil {
		return assemblydomain.Invitation{}, assemblydomain.ErrAlreadyInvited
	}

	token, err := newInvitationToken()
	if err != nil {
		return assemblydomain.Invitation{}, err
	}

	subject, body := invitationMail(assembly, *member)
	if err := s.mailer.Send(ctx, []string{member.Email}, subject, body); err != nil {
		return assemblydomain.Invitation{}, err
	}

	invitation := assemblydomain.Invitation{
		ID:         s.genID.Generate(),
		MemberID:   member.ID,
		AssemblyID: assembly.ID,
		SentAt:     now,
		Token:      token,
		CreatedAt:  now,
	}
	if err := s.invitationrepo.Create(ctx, &invitation); err != nil {
		return assemblydomain.Invitation{}, err
	}

	s.log.Info("assembly invitation sent",
		zap.Int64("assembly_number", assembly.AssemblyNumber),
		zap.String("member_id", member.ID.String()),
		zap.String("locale", member.Locale),
	)
	return invitation, nil
}

func (s *Service) loadAssembly(ctx context.Context, rawID string) (assemblydomain.GeneralAssembly, error) {
	assemblyID, err := snowflake.ParseString(strings.TrimSpace(rawID))
	if err != nil {
		return assemblydomain.GeneralAssembly{}, assemblydomain.ErrInvalidAssemblyID
	}
	assembly, err := s.assemblyrepo.FindOne(ctx, &assemblydomain.GeneralAssembly{ID: assemblyID})
	if err != nil {
		return assemblydomain.GeneralAssembly{}, err
	}
	if assembly == nil {
		return assemblydomain.GeneralAssembly{}, assemblydomain.ErrAssemblyNotFound
	}
	return *assembly, nil
}

// membershipCovers reports whether the member was a member on the given
// date: accepted, membership started on or before it, and not lost
// before it.
func membershipCovers(m memberdomain.Member, date time.Time) bool {
	if !m.MembershipAccepted || m.MembershipDate == nil {
		return false
	}
	if dateOnly(*m.MembershipDate).After(dateOnly(date)) {
		return false
	}
	if m.MembershipLossDate != nil && dateOnly(*m.MembershipLossDate).Before(dateOnly(date)) {
		return false
	}
	return true
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func invitationMail(assembly assemblydomain.GeneralAssembly, member memberdomain.Member) (string, string) {
	greeting := fmt.Sprintf("Hello %s %s,", member.Firstname, member.Lastname)
	subject := assembly.SubjectEN
	body := assembly.BodyEN
	if member.Locale == "de" {
		greeting = fmt.Sprintf("Hallo %s %s,", member.Firstname, member.Lastname)
		subject = assembly.SubjectDE
		body = assembly.BodyDE
	}
	return subject, greeting + "\n\n" + body
}

const invitationTokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func newInvitationToken() (string, error) {
	buf := make([]byte, 10)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := make([]byte, len(buf))
	for i, b := range buf {
		token[i] = invitationTokenAlphabet[int(b)%len(invitationTokenAlphabet)]
	}
	return string(token), nil
}
