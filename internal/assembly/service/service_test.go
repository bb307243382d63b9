package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	assemblydomain "github.com/c3s/memberadmin/internal/assembly/domain"
	"github.com/c3s/memberadmin/internal/clock"
	memberdomain "github.com/c3s/memberadmin/internal/member/domain"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stubMailer struct {
	mu       sync.Mutex
	subjects []string
	bodies   []string
}

func (m *stubMailer) Send(ctx context.Context, to []string, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subjects = append(m.subjects, subject)
	m.bodies = append(m.bodies, body)
	return nil
}

type testEnv struct {
	svc    assemblydomain.Service
	db     *gorm.DB
	node   *snowflake.Node
	clock  *clock.FakeClock
	mailer *stubMailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&memberdomain.Member{},
		&assemblydomain.GeneralAssembly{},
		&assemblydomain.Invitation{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2016, time.April, 1, 9, 0, 0, 0, time.UTC))
	mailer := &stubMailer{}

	svc := NewService(ServiceParam{
		DB:     db,
		Log:    zap.NewNop(),
		GenID:  node,
		Clock:  fake,
		Mailer: mailer,
	})
	return &testEnv{svc: svc, db: db, node: node, clock: fake, mailer: mailer}
}

var memberSeq int64

func (e *testEnv) createMember(t *testing.T, locale string, joined time.Time) memberdomain.Member {
	t.Helper()

	memberSeq++
	number := memberSeq
	member := memberdomain.Member{
		ID:                 e.node.Generate(),
		MembershipNumber:   &number,
		Firstname:          "Anna",
		Lastname:           fmt.Sprintf("Tester-%d", number),
		Email:              fmt.Sprintf("member%d@example.com", number),
		Locale:             locale,
		MembershipType:     memberdomain.MembershipTypeNormal,
		MembershipAccepted: true,
		MembershipDate:     &joined,
	}
	require.NoError(t, e.db.Create(&member).Error)
	return member
}

func completeAssembly(date time.Time) assemblydomain.CreateAssemblyRequest {
	return assemblydomain.CreateAssemblyRequest{
		Name:         "General Assembly",
		AssemblyDate: date,
		SubjectEN:    "Invitation to the general assembly",
		SubjectDE:    "Einladung zur Generalversammlung",
		BodyEN:       "Please join us on June 12.",
		BodyDE:       "Bitte kommt am 12. Juni.",
	}
}

func TestCreateAssemblyNumbersSequentially(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	date := time.Date(2016, time.June, 12, 14, 0, 0, 0, time.UTC)

	first, err := e.svc.Create(ctx, completeAssembly(date))
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.AssemblyNumber)

	second, err := e.svc.Create(ctx, completeAssembly(date.AddDate(1, 0, 0)))
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.AssemblyNumber)
}

func TestAssemblyNameRequired(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	date := time.Date(2016, time.June, 12, 14, 0, 0, 0, time.UTC)

	// a whitespace-only name fails even though binding accepts it
	nameless := completeAssembly(date)
	nameless.Name = "   "
	_, err := e.svc.Create(ctx, nameless)
	assert.ErrorIs(t, err, assemblydomain.ErrNameRequired)

	assembly, err := e.svc.Create(ctx, completeAssembly(date))
	require.NoError(t, err)

	blank := " "
	_, err = e.svc.Update(ctx, assembly.ID.String(), assemblydomain.UpdateAssemblyRequest{Name: &blank})
	assert.ErrorIs(t, err, assemblydomain.ErrNameRequired)
}

func TestCreateAssemblyAllowsSameDay(t *testing.T) {
	e := newTestEnv(t)

	// same calendar day as "now" is allowed, yesterday is not
	today := time.Date(2016, time.April, 1, 20, 0, 0, 0, time.UTC)
	_, err := e.svc.Create(context.Background(), completeAssembly(today))
	assert.NoError(t, err)

	_, err = e.svc.Create(context.Background(),
		completeAssembly(time.Date(2016, time.March, 31, 10, 0, 0, 0, time.UTC)))
	assert.ErrorIs(t, err, assemblydomain.ErrAssemblyInPast)
}

func TestUpdateAssemblyBlockedAfterDate(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	assembly, err := e.svc.Create(ctx,
		completeAssembly(time.Date(2016, time.June, 12, 14, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	name := "Renamed Assembly"
	updated, err := e.svc.Update(ctx, assembly.ID.String(), assemblydomain.UpdateAssemblyRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed Assembly", updated.Name)

	e.clock.Advance(90 * 24 * time.Hour)
	_, err = e.svc.Update(ctx, assembly.ID.String(), assemblydomain.UpdateAssemblyRequest{Name: &name})
	assert.ErrorIs(t, err, assemblydomain.ErrAssemblyInPast)
}

func TestInviteSendsLocalizedMail(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	assembly, err := e.svc.Create(ctx,
		completeAssembly(time.Date(2016, time.June, 12, 14, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	german := e.createMember(t, "de", time.Date(2016, time.January, 15, 0, 0, 0, 0, time.UTC))
	english := e.createMember(t, "en", time.Date(2016, time.January, 15, 0, 0, 0, 0, time.UTC))

	invitation, err := e.svc.Invite(ctx, assembly.ID.String(), german.ID.String())
	require.NoError(t, err)
	assert.Equal(t, german.ID, invitation.MemberID)
	assert.NotEmpty(t, invitation.Token)

	_, err = e.svc.Invite(ctx, assembly.ID.String(), english.ID.String())
	require.NoError(t, err)

	require.Len(t, e.mailer.subjects, 2)
	assert.Equal(t, "Einladung zur Generalversammlung", e.mailer.subjects[0])
	assert.Equal(t, "Invitation to the general assembly", e.mailer.subjects[1])
	assert.Contains(t, e.mailer.bodies[0], "Hallo")
	assert.Contains(t, e.mailer.bodies[1], "Hello")
}

func TestInviteOnlyOncePerMember(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	assembly, err := e.svc.Create(ctx,
		completeAssembly(time.Date(2016, time.June, 12, 14, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	member := e.createMember(t, "en", time.Date(2016, time.January, 15, 0, 0, 0, 0, time.UTC))

	_, err = e.svc.Invite(ctx, assembly.ID.String(), member.ID.String())
	require.NoError(t, err)

	_, err = e.svc.Invite(ctx, assembly.ID.String(), member.ID.String())
	assert.ErrorIs(t, err, assemblydomain.ErrAlreadyInvited)
	assert.Len(t, e.mailer.subjects, 1)
}

func TestInviteRequiresCompleteContent(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	incomplete := completeAssembly(time.Date(2016, time.June, 12, 14, 0, 0, 0, time.UTC))
	incomplete.BodyDE = ""
	assembly, err := e.svc.Create(ctx, incomplete)
	require.NoError(t, err)
	member := e.createMember(t, "en", time.Date(2016, time.January, 15, 0, 0, 0, 0, time.UTC))

	_, err = e.svc.Invite(ctx, assembly.ID.String(), member.ID.String())
	assert.ErrorIs(t, err, assemblydomain.ErrContentIncomplete)
}

func TestInviteRequiresMembershipCoveringDate(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	assembly, err := e.svc.Create(ctx,
		completeAssembly(time.Date(2016, time.June, 12, 14, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	// joins after the assembly
	late := e.createMember(t, "en", time.Date(2016, time.August, 1, 0, 0, 0, 0, time.UTC))
	_, err = e.svc.Invite(ctx, assembly.ID.String(), late.ID.String())
	assert.ErrorIs(t, err, assemblydomain.ErrMembershipNotCovered)

	// lost membership before the assembly
	lost := e.createMember(t, "en", time.Date(2015, time.January, 15, 0, 0, 0, 0, time.UTC))
	lossDate := time.Date(2016, time.February, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, e.db.Model(&memberdomain.Member{}).
		Where("id = ?", lost.ID).
		Update("membership_loss_date", lossDate).Error)
	_, err = e.svc.Invite(ctx, assembly.ID.String(), lost.ID.String())
	assert.ErrorIs(t, err, assemblydomain.ErrMembershipNotCovered)
}

func TestInviteBlockedForPastAssembly(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	assembly, err := e.svc.Create(ctx,
		completeAssembly(time.Date(2016, time.June, 12, 14, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	member := e.createMember(t, "en", time.Date(2016, time.January, 15, 0, 0, 0, 0, time.UTC))

	e.clock.Advance(120 * 24 * time.Hour)
	_, err = e.svc.Invite(ctx, assembly.ID.String(), member.ID.String())
	assert.ErrorIs(t, err, assemblydomain.ErrAssemblyInPast)
}
