package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/c3s/memberadmin/internal/archive"
	assemblydomain "github.com/c3s/memberadmin/internal/assembly/domain"
	assemblyservice "github.com/c3s/memberadmin/internal/assembly/service"
	"github.com/c3s/memberadmin/internal/clock"
	"github.com/c3s/memberadmin/internal/config"
	duesdomain "github.com/c3s/memberadmin/internal/dues/domain"
	duesservice "github.com/c3s/memberadmin/internal/dues/service"
	memberdomain "github.com/c3s/memberadmin/internal/member/domain"
	memberservice "github.com/c3s/memberadmin/internal/member/service"
	"github.com/c3s/memberadmin/internal/providers/email"
	"github.com/c3s/memberadmin/internal/providers/pdf"
)

func newTestServer(t *testing.T) (*Server, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&memberdomain.Member{},
		&memberdomain.DuesRecord{},
		&duesdomain.Invoice{},
		&assemblydomain.GeneralAssembly{},
		&assemblydomain.Invitation{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	log := zap.NewNop()
	fake := clock.NewFakeClock(time.Date(2016, time.February, 1, 12, 0, 0, 0, time.UTC))
	cfg := config.Config{
		HTTPAddr:         ":0",
		BaseURL:          "http://dues.test",
		DuesAnnualAmount: "50",
		ArchiveRoot:      filepath.Join(t.TempDir(), "archive"),
		Email:            config.EmailConfig{Mode: config.EmailModeConsole, From: "office@dues.test"},
	}
	mailer := email.NewConsoleProvider(log)

	memberSvc := memberservice.NewService(memberservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: fake,
	})
	duesSvc, err := duesservice.NewService(duesservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: fake, Cfg: cfg, Mailer: mailer,
	})
	require.NoError(t, err)
	assemblySvc := assemblyservice.NewService(assemblyservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: fake, Mailer: mailer,
	})
	archiveSvc := archive.NewService(archive.ServiceParam{
		DB: db, Log: log, Cfg: cfg, PDF: pdf.New(),
	})

	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())
	engine.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	srv := NewServer(ServerParams{
		Gin:         engine,
		Cfg:         cfg,
		MemberSvc:   memberSvc,
		DuesSvc:     duesSvc,
		AssemblySvc: assemblySvc,
		ArchiveSvc:  archiveSvc,
	})
	return srv, db
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)
	return w
}

func createAcceptedMember(t *testing.T, srv *Server) string {
	t.Helper()

	w := doJSON(t, srv, http.MethodPost, "/api/members", gin.H{
		"firstname": "Anna",
		"lastname":  "Tester",
		"email":     "anna@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var member struct {
		ID snowflake.ID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &member))

	w = doJSON(t, srv, http.MethodPost, "/api/members/"+member.ID.String()+"/accept", gin.H{
		"membership_date": "2016-01-15T00:00:00Z",
	})
	require.Equal(t, http.StatusOK, w.Code)
	return member.ID.String()
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	w := doJSON(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMemberLifecycleOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t)
	memberID := createAcceptedMember(t, srv)

	w := doJSON(t, srv, http.MethodGet, "/api/members/"+memberID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// accepted members cannot be deleted
	w = doJSON(t, srv, http.MethodDelete, "/api/members/"+memberID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGetUnknownMemberReturnsNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doJSON(t, srv, http.MethodGet, "/api/members/123456789", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp struct {
		Error struct {
			Type string `json:"type"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "not_found", resp.Error.Type)
}

func TestCreateDuesInvoiceOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t)
	memberID := createAcceptedMember(t, srv)

	w := doJSON(t, srv, http.MethodPost, "/api/dues/2016/members/"+memberID+"/invoice", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Invoice struct {
			InvoiceNoString string `json:"invoice_no_string"`
		} `json:"invoice"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "C3S-dues2016-0001", resp.Invoice.InvoiceNoString)
}

func TestDuesNotApplicableMapsTo422(t *testing.T) {
	srv, _ := newTestServer(t)

	// applicant that was never accepted
	w := doJSON(t, srv, http.MethodPost, "/api/members", gin.H{
		"firstname": "Benno",
		"lastname":  "Applicant",
		"email":     "benno@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var member struct {
		ID snowflake.ID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &member))

	w = doJSON(t, srv, http.MethodPost, "/api/dues/2016/members/"+member.ID.String()+"/invoice", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "dues_not_applicable", resp.Error.Type)
	assert.Contains(t, resp.Error.Message, "not been accepted")
}

func TestReductionValidationMapsTo400(t *testing.T) {
	srv, _ := newTestServer(t)
	memberID := createAcceptedMember(t, srv)

	w := doJSON(t, srv, http.MethodPost, "/api/dues/2016/members/"+memberID+"/invoice", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodPost, "/api/dues/2016/members/"+memberID+"/reduction", gin.H{
		"amount":    "20",
		"confirmed": false,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "confirmation")
}

func TestDownloadWithBadTokenReturns404(t *testing.T) {
	srv, db := newTestServer(t)
	memberID := createAcceptedMember(t, srv)

	w := doJSON(t, srv, http.MethodPost, "/api/dues/2016/members/"+memberID+"/invoice", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/dues/2016/invoices/anna@example.com/WRONGTOKEN/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// the right token serves the PDF
	var record memberdomain.DuesRecord
	require.NoError(t, db.First(&record, "year = ?", 2016).Error)

	req := httptest.NewRequest(http.MethodGet,
		"/dues/2016/invoices/anna@example.com/"+record.Token+"/1", nil)
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Body.Bytes())
}

func TestAssemblyInviteOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t)
	memberID := createAcceptedMember(t, srv)

	w := doJSON(t, srv, http.MethodPost, "/api/assemblies", gin.H{
		"name":          "General Assembly 2016",
		"assembly_date": "2016-06-12T14:00:00Z",
		"subject_en":    "Invitation",
		"subject_de":    "Einladung",
		"body_en":       "Please come.",
		"body_de":       "Bitte kommt.",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var assembly struct {
		ID snowflake.ID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &assembly))

	path := "/api/assemblies/" + assembly.ID.String() + "/members/" + memberID + "/invite"
	w = doJSON(t, srv, http.MethodPost, path, nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, srv, http.MethodPost, path, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestArchiveStatsOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t)
	memberID := createAcceptedMember(t, srv)

	w := doJSON(t, srv, http.MethodPost, "/api/dues/2016/members/"+memberID+"/invoice", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodPost, "/api/archive/2016", gin.H{"limit": 5})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "C3S-dues2016-0001")
}
