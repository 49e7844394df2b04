package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/loan-simulator/config"
	"github.com/oksasatya/loan-simulator/internal/container"
	"github.com/oksasatya/loan-simulator/internal/domain/entity"
	"github.com/oksasatya/loan-simulator/internal/domain/simulator"
	"github.com/oksasatya/loan-simulator/internal/infrastructure/redisstore"
	"github.com/oksasatya/loan-simulator/internal/interface/middleware"
	"github.com/oksasatya/loan-simulator/pkg/helpers"
	"github.com/oksasatya/loan-simulator/pkg/validation"
)

type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    map[string]any  `json:"meta"`
	Error   json.RawMessage `json:"error"`
}

type apiServer struct {
	t   *testing.T
	srv *httptest.Server
	rdb *redis.Client
	mr  *miniredis.Miniredis
}

func newAPIServer(t *testing.T) *apiServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()
	helpers.PasswordCost = bcrypt.MinCost

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		AppName:             "loan-simulator",
		StoreBackend:        "redis",
		SessionTTL:          time.Hour,
		DraftTTL:            time.Hour,
		LoanMonthlyRate:     0.025,
		MetricsEnabled:      true,
		DebugMetricsEnabled: true,
		ContactInbox:        "contato@example.com",
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	container.Reset()
	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetRedis(rdb)
	container.SetJWT(helpers.NewJWTManager("test-access", "test-refresh", 15*time.Minute, time.Hour))

	engine := gin.New()
	engine.Use(middleware.RequestIDMiddleware(), middleware.RealIP())
	reg := NewRegistry(engine)
	InitModules(reg)
	reg.RegisterAll()

	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	return &apiServer{t: t, srv: srv, rdb: rdb, mr: mr}
}

// client keeps its own cookie jar, like a browser tab.
type client struct {
	s    *apiServer
	http *http.Client
}

func (s *apiServer) client() *client {
	jar, err := cookiejar.New(nil)
	require.NoError(s.t, err)
	return &client{s: s, http: &http.Client{Jar: jar}}
}

func (c *client) send(req *http.Request) (int, envelope) {
	c.s.t.Helper()
	res, err := c.http.Do(req)
	require.NoError(c.s.t, err)
	defer res.Body.Close()
	var env envelope
	raw, err := io.ReadAll(res.Body)
	require.NoError(c.s.t, err)
	if len(raw) > 0 && res.Header.Get("Content-Type") != "" && strings.HasPrefix(res.Header.Get("Content-Type"), "application/json") {
		require.NoError(c.s.t, json.Unmarshal(raw, &env), string(raw))
	}
	return res.StatusCode, env
}

func (c *client) do(method, path string, body any) (int, envelope) {
	c.s.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.s.t, err)
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.s.srv.URL+path, r)
	require.NoError(c.s.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req)
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func (c *client) register(name, email string) {
	c.s.t.Helper()
	code, env := c.do(http.MethodPost, "/api/register", map[string]string{
		"name": name, "email": email, "password": "Senha1234", "confirm_password": "Senha1234",
	})
	require.Equal(c.s.t, http.StatusCreated, code, string(env.Error))
}

func (s *apiServer) analyst() *client {
	s.t.Helper()
	hash, err := helpers.HashPassword("Analista123")
	require.NoError(s.t, err)
	require.NoError(s.t, redisstore.NewUserStore(s.rdb).Create(context.Background(), &entity.User{
		Email: "analista@example.com", Password: hash, Name: "Bruno Lima", Role: entity.RoleAnalyst,
	}))
	c := s.client()
	code, _ := c.do(http.MethodPost, "/api/login", map[string]string{"email": "analista@example.com", "password": "Analista123"})
	require.Equal(s.t, http.StatusOK, code)
	return c
}

type draftView struct {
	ID     string            `json:"id"`
	State  string            `json:"state"`
	Step   int               `json:"step"`
	Errors map[string]string `json:"errors"`
	Quote  *simulator.Quote  `json:"quote"`
}

func (c *client) submitApplication(income, expenses string, amount float64) entity.LoanApplication {
	t := c.s.t
	t.Helper()
	code, env := c.do(http.MethodPost, "/api/simulator", nil)
	require.Equal(t, http.StatusCreated, code)
	id := decode[draftView](t, env.Data).ID

	code, env = c.do(http.MethodPatch, "/api/simulator/"+id, map[string]any{
		"amount":            amount,
		"installment_count": 12,
		"full_name":         "Ana Souza",
		"tax_id":            "529.982.247-25",
		"email":             "ana@example.com",
		"phone":             "(11) 98765-4321",
		"birth_date":        "1990-05-01",
		"profession":        "Engenheira",
		"monthly_income":    income,
		"monthly_expenses":  expenses,
		"owns_property":     true,
		"owns_vehicle":      false,
		"agreed_to_terms":   true,
	})
	require.Equal(t, http.StatusOK, code, string(env.Error))
	for i := 0; i < 3; i++ {
		code, env = c.do(http.MethodPost, "/api/simulator/"+id+"/advance", nil)
		require.Equal(t, http.StatusOK, code, string(env.Error))
	}
	code, env = c.do(http.MethodPost, "/api/simulator/"+id+"/submit", nil)
	require.Equal(t, http.StatusCreated, code, string(env.Error))
	assert.Equal(t, "/dashboard", env.Meta["redirect"])
	return decode[entity.LoanApplication](t, env.Data)
}

func TestQuoteIsPublic(t *testing.T) {
	s := newAPIServer(t)
	c := s.client()

	code, env := c.do(http.MethodGet, "/api/simulator/quote?amount=10000&installments=12", nil)
	require.Equal(t, http.StatusOK, code)
	q := decode[simulator.Quote](t, env.Data)
	assert.Equal(t, 974.87, q.MonthlyPayment)

	code, env = c.do(http.MethodGet, "/api/simulator/quote?amount=500&installments=72", nil)
	require.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, map[string]string{
		"amount":            simulator.MsgAmountMin,
		"installment_count": simulator.MsgInstallmentsMax,
	}, decode[map[string]string](t, env.Error))

	code, env = c.do(http.MethodGet, "/api/simulator/quote?amount=0&installments=0", nil)
	require.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, map[string]string{
		"amount":            simulator.MsgAmountMin,
		"installment_count": simulator.MsgInstallmentsMin,
	}, decode[map[string]string](t, env.Error))

	code, env = c.do(http.MethodGet, "/api/simulator/quote", nil)
	require.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, simulator.MsgAmountMin, decode[map[string]string](t, env.Error)["amount"])

	code, _ = c.do(http.MethodGet, "/api/simulator/quote?amount=abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestWizardRequiresLogin(t *testing.T) {
	s := newAPIServer(t)
	code, _ := s.client().do(http.MethodPost, "/api/simulator", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRegisterValidation(t *testing.T) {
	s := newAPIServer(t)
	c := s.client()

	code, env := c.do(http.MethodPost, "/api/register", map[string]string{
		"name": "A1", "email": "nope", "password": "short", "confirm_password": "other",
	})
	require.Equal(t, http.StatusBadRequest, code)
	details := decode[map[string]string](t, env.Error)
	assert.Contains(t, details, "name")
	assert.Contains(t, details, "email")
	assert.Contains(t, details, "password")
	assert.Contains(t, details, "confirm_password")

	c.register("Ana Souza", "ana@example.com")
	code, _ = s.client().do(http.MethodPost, "/api/register", map[string]string{
		"name": "Ana Outra", "email": "ANA@example.com", "password": "Senha1234", "confirm_password": "Senha1234",
	})
	assert.Equal(t, http.StatusConflict, code)
}

func TestWizardFlow(t *testing.T) {
	s := newAPIServer(t)
	c := s.client()
	c.register("Ana Souza", "ana@example.com")

	code, env := c.do(http.MethodPost, "/api/simulator", nil)
	require.Equal(t, http.StatusCreated, code)
	view := decode[draftView](t, env.Data)
	assert.Equal(t, 1, view.Step)
	require.NotNil(t, view.Quote)
	assert.Equal(t, 974.87, view.Quote.MonthlyPayment)

	// step 2 blocks on its own fields only
	code, _ = c.do(http.MethodPost, "/api/simulator/"+view.ID+"/advance", nil)
	require.Equal(t, http.StatusOK, code)
	code, env = c.do(http.MethodPost, "/api/simulator/"+view.ID+"/advance", nil)
	require.Equal(t, http.StatusUnprocessableEntity, code)
	fe := decode[map[string]string](t, env.Error)
	assert.Equal(t, simulator.MsgNameRequired, fe["full_name"])
	assert.NotContains(t, fe, "profession")

	code, env = c.do(http.MethodGet, "/api/simulator/"+view.ID, nil)
	require.Equal(t, http.StatusOK, code)
	view = decode[draftView](t, env.Data)
	assert.Equal(t, 2, view.Step)
	assert.Equal(t, simulator.MsgNameRequired, view.Errors["full_name"])

	code, env = c.do(http.MethodPost, "/api/simulator/"+view.ID+"/validate", map[string]string{"field": "email"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, simulator.MsgEmailRequired, decode[draftView](t, env.Data).Errors["email"])

	code, _ = c.do(http.MethodPatch, "/api/simulator/"+view.ID, map[string]any{"nickname": "x"})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = c.do(http.MethodPost, "/api/simulator/"+view.ID+"/submit", nil)
	assert.Equal(t, http.StatusConflict, code, "submit before review")

	code, env = c.do(http.MethodPost, "/api/simulator/"+view.ID+"/retreat", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, decode[draftView](t, env.Data).Step)

	code, _ = c.do(http.MethodDelete, "/api/simulator/"+view.ID, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = c.do(http.MethodGet, "/api/simulator/"+view.ID, nil)
	assert.Equal(t, http.StatusNotFound, code)

	app := c.submitApplication("5000", "3000", 10000)
	assert.Equal(t, entity.StatusApproved, app.Status)
	assert.Equal(t, "52998224725", app.TaxID)

	code, env = c.do(http.MethodGet, "/api/loans", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[[]entity.LoanApplication](t, env.Data), 1)

	code, env = c.do(http.MethodGet, fmt.Sprintf("/api/loans/%d/analysis", app.ID), nil)
	require.Equal(t, http.StatusOK, code)
	analysis := decode[struct {
		Advice []string `json:"advice"`
	}](t, env.Data)
	assert.Equal(t, simulator.Advice(entity.StatusApproved), analysis.Advice)

	code, _ = c.do(http.MethodGet, "/api/loans/abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	// another customer cannot see it
	other := s.client()
	other.register("Carlos Dias", "carlos@example.com")
	code, _ = other.do(http.MethodGet, fmt.Sprintf("/api/loans/%d", app.ID), nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = c.do(http.MethodGet, "/api/analyst/stats", nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestAdvanceStopsAtInvalidStep(t *testing.T) {
	s := newAPIServer(t)
	c := s.client()
	c.register("Ana Souza", "ana@example.com")

	code, env := c.do(http.MethodPost, "/api/simulator", nil)
	require.Equal(t, http.StatusCreated, code)
	id := decode[draftView](t, env.Data).ID
	for i := 0; i < 3; i++ {
		code, _ = c.do(http.MethodPost, "/api/simulator/"+id+"/advance", nil)
		if code != http.StatusOK {
			break
		}
	}
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, env = c.do(http.MethodGet, "/api/simulator/"+id, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "personal_data", decode[draftView](t, env.Data).State)
}

func TestDocumentUploadWithoutStorage(t *testing.T) {
	s := newAPIServer(t)
	c := s.client()
	c.register("Ana Souza", "ana@example.com")
	app := c.submitApplication("5000", "3000", 10000)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "holerite.pdf")
	require.NoError(t, err)
	_, _ = part.Write([]byte("%PDF-1.4"))
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/api/loans/%d/documents", s.srv.URL, app.ID), &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	code, _ := c.send(req)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestAnalystDashboard(t *testing.T) {
	s := newAPIServer(t)
	customer := s.client()
	customer.register("Ana Souza", "ana@example.com")
	approved := customer.submitApplication("5000", "3000", 10000)
	denied := customer.submitApplication("3000", "2500", 10000)

	a := s.analyst()

	code, env := a.do(http.MethodGet, "/api/analyst/stats", nil)
	require.Equal(t, http.StatusOK, code)
	stats := decode[map[string]float64](t, env.Data)
	assert.Equal(t, 2.0, stats["total"])
	assert.Equal(t, 1.0, stats["approved"])
	assert.Equal(t, 1.0, stats["denied"])

	code, env = a.do(http.MethodGet, "/api/analyst/loans?q=ana", nil)
	require.Equal(t, http.StatusOK, code)
	listed := decode[[]entity.LoanApplication](t, env.Data)
	require.Len(t, listed, 2)
	assert.Equal(t, []int64{denied.ID, approved.ID}, []int64{listed[0].ID, listed[1].ID}, "newest first")
	code, env = a.do(http.MethodGet, "/api/analyst/loans?q=999", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, decode[[]entity.LoanApplication](t, env.Data))

	path := fmt.Sprintf("/api/analyst/loans/%d/review", denied.ID)
	code, env = a.do(http.MethodPost, path, map[string]string{"decision": "deny"})
	require.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, decode[map[string]string](t, env.Error), "justification")

	code, _ = a.do(http.MethodPost, path, map[string]string{"decision": "maybe"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = a.do(http.MethodPost, path, map[string]string{"decision": "deny", "justification": "Renda insuficiente"})
	require.Equal(t, http.StatusCreated, code)

	code, env = a.do(http.MethodGet, fmt.Sprintf("/api/analyst/loans/%d", denied.ID), nil)
	require.Equal(t, http.StatusOK, code)
	got := decode[struct {
		Application entity.LoanApplication `json:"application"`
		Reviews     []entity.LoanReview    `json:"reviews"`
	}](t, env.Data)
	assert.Equal(t, entity.StatusDenied, got.Application.Status, "reviews never rewrite the status")
	require.Len(t, got.Reviews, 1)
	assert.Equal(t, "Renda insuficiente", got.Reviews[0].Justification)

	code, _ = a.do(http.MethodGet, "/api/analyst/loans/1", nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = a.do(http.MethodPost, "/api/simulator", nil)
	assert.Equal(t, http.StatusForbidden, code, "analysts do not run the wizard")
}

func TestSessionLifecycle(t *testing.T) {
	s := newAPIServer(t)
	c := s.client()
	c.register("Ana Souza", "ana@example.com")

	code, env := c.do(http.MethodGet, "/api/profile", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Ana Souza", decode[map[string]any](t, env.Data)["name"])

	code, env = c.do(http.MethodPut, "/api/profile", map[string]any{
		"new_password": "NovaSenha1", "confirm_password": "NovaSenha1", "current_password": "errada123",
	})
	require.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, decode[map[string]string](t, env.Error), "current_password")

	code, _ = c.do(http.MethodPut, "/api/profile", map[string]any{
		"new_password": "NovaSenha1", "confirm_password": "Diferente1", "current_password": "Senha1234",
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = c.do(http.MethodPut, "/api/profile", map[string]any{"name": "Ana Maria Souza", "notifications_enabled": false})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, decode[map[string]any](t, env.Data)["notifications_enabled"])

	code, _ = c.do(http.MethodPost, "/api/refresh", nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = c.do(http.MethodGet, "/api/profile", nil)
	require.Equal(t, http.StatusOK, code, "rotated cookies authenticate")

	code, _ = c.do(http.MethodPost, "/api/logout", nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = c.do(http.MethodGet, "/api/profile", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = c.do(http.MethodPost, "/api/refresh", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s := newAPIServer(t)
	s.client().register("Ana Souza", "ana@example.com")

	code, _ := s.client().do(http.MethodPost, "/api/login", map[string]string{"email": "ana@example.com", "password": "Errada1234"})
	assert.Equal(t, http.StatusUnauthorized, code)

	c := s.client()
	code, env := c.do(http.MethodPost, "/api/login", map[string]string{"email": "ana@example.com", "password": "Senha1234"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "/dashboard", env.Meta["redirect"])
	assert.Equal(t, "customer", decode[map[string]any](t, env.Data)["role"])
}

func TestContactForm(t *testing.T) {
	s := newAPIServer(t)
	c := s.client()

	code, env := c.do(http.MethodPost, "/api/contact", map[string]string{
		"name": "Ana", "email": "ana@", "phone": "123", "subject": "Oi", "message": "curta",
	})
	require.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, map[string]string{
		"email":   simulator.MsgEmailInvalid,
		"phone":   simulator.MsgPhoneInvalid,
		"subject": simulator.MsgSubjectTooShort,
		"message": simulator.MsgMessageTooShort,
	}, decode[map[string]string](t, env.Error))

	code, _ = c.do(http.MethodPost, "/api/contact", map[string]string{
		"name": "Ana Souza", "email": "ana@example.com", "phone": "(11) 98765-4321",
		"subject": "Dúvida sobre parcelas", "message": "Posso antecipar parcelas do meu empréstimo?",
	})
	assert.Equal(t, http.StatusAccepted, code)
}

func TestMetricsEndpoints(t *testing.T) {
	s := newAPIServer(t)
	c := s.client()
	code, _ := c.do(http.MethodGet, "/api/simulator/quote?amount=10000&installments=12", nil)
	require.Equal(t, http.StatusOK, code)

	res, err := http.Get(s.srv.URL + "/api/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(res.Body)
	_ = res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(body), "loan_quote_requests_total")

	res, err = http.Get(s.srv.URL + "/api/debug/vars")
	require.NoError(t, err)
	body, _ = io.ReadAll(res.Body)
	_ = res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(body), "loan_simulator")
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	s := newAPIServer(t)
	c := s.client()

	code, env := c.do(http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)

	code, env = c.do(http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "route not found", env.Message)

	code, _ = c.do(http.MethodPut, "/api/simulator/quote", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, code)

	s.mr.Close()
	code, env = c.do(http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.False(t, env.Success)
}
