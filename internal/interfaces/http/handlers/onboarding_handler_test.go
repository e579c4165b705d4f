package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"html/template"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/onboard/internal/application/dto"
	appservice "github.com/turtacn/onboard/internal/application/service"
	"github.com/turtacn/onboard/internal/domain/models"
	"github.com/turtacn/onboard/internal/infrastructure/monitoring"
	apperrors "github.com/turtacn/onboard/pkg/errors"
	"github.com/turtacn/onboard/pkg/logger"
)

type fakeProvisioning struct {
	prepareResult *appservice.PrepareResult
	prepareErr    error
	createResult  *appservice.CreateResult
	createErr     error
	lastCreation  models.CreationRequest
	lastNonce     string
}

func (f *fakeProvisioning) Prepare(ctx context.Context, rawName string, edition models.Edition) (*appservice.PrepareResult, error) {
	if f.prepareErr != nil {
		return nil, f.prepareErr
	}
	if f.prepareResult != nil {
		return f.prepareResult, nil
	}
	name, err := models.NewTenantName(rawName)
	if err != nil {
		return nil, err
	}
	return &appservice.PrepareResult{TenantName: name, Nonce: "test-nonce"}, nil
}

func (f *fakeProvisioning) Create(ctx context.Context, creation models.CreationRequest, nonce string) (*appservice.CreateResult, error) {
	f.lastCreation = creation
	f.lastNonce = nonce
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createResult, nil
}

func (f *fakeProvisioning) Target(edition models.Edition) models.EditionTarget {
	return models.EditionTarget{Internal: "http://internal:8069", External: "http://external:8069"}
}

type fakeIntakes struct {
	saved  []*models.ClientIntake
	latest *models.ClientIntake
}

func (f *fakeIntakes) Save(ctx context.Context, intake *models.ClientIntake) error {
	f.saved = append(f.saved, intake)
	return nil
}

func (f *fakeIntakes) FindAll(ctx context.Context) ([]*models.ClientIntake, error) {
	return f.saved, nil
}

func (f *fakeIntakes) FindLatestByDBName(ctx context.Context, dbName string) (*models.ClientIntake, error) {
	return f.latest, nil
}

type fakeQueue struct {
	tasks []models.ProvisionTask
}

func (f *fakeQueue) Enqueue(ctx context.Context, task models.ProvisionTask) error {
	f.tasks = append(f.tasks, task)
	return nil
}

const testTemplates = `
{{ define "form.html" }}form{{ end }}
{{ define "database.html" }}database {{ .DBName }} flow={{ .Flow }}{{ end }}
{{ define "creating_db.html" }}creating {{ .DBName }} nonce={{ .Payload.Nonce }} login={{ .Payload.AdminLogin }}{{ end }}
{{ define "error.html" }}error: {{ .Message }}{{ end }}
{{ define "admin_clients.html" }}clients: {{ len .Clients }}{{ end }}
`

type handlerFixture struct {
	engine  *gin.Engine
	svc     *fakeProvisioning
	intakes *fakeIntakes
	queue   *fakeQueue
	signer  *appservice.FlowSigner
}

func newFixture(t *testing.T) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := &fakeProvisioning{}
	intakes := &fakeIntakes{}
	queue := &fakeQueue{}
	signer := appservice.NewFlowSigner("test-secret", 15*time.Minute)
	metrics := monitoring.NewMetricsWithRegistry(prometheus.NewRegistry())

	h := NewOnboardingHandler(svc, signer, intakes, queue,
		[]string{"crm", "sale_management"}, metrics, logger.NewNoopLogger())

	engine := gin.New()
	engine.SetHTMLTemplate(template.Must(template.New("t").Parse(testTemplates)))
	engine.GET("/", h.ShowForm)
	engine.POST("/submit", h.Submit)
	engine.GET("/database/:edition", h.ShowDatabasePage)
	engine.POST("/create-db", h.CreateDBPage)
	engine.POST("/api/create-db", h.CreateDatabaseAPI)
	engine.GET("/admin/clients", h.ListClients)

	return &handlerFixture{engine: engine, svc: svc, intakes: intakes, queue: queue, signer: signer}
}

func (f *handlerFixture) flowToken(t *testing.T, state appservice.FlowState) string {
	t.Helper()
	token, err := f.signer.Sign(state)
	require.NoError(t, err)
	return token
}

func postJSON(t *testing.T, engine *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func postForm(t *testing.T, engine *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeCreateResponse(t *testing.T, w *httptest.ResponseRecorder) dto.CreateDatabaseResponse {
	t.Helper()
	var resp dto.CreateDatabaseResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestSubmitRedirectsWithFlowToken(t *testing.T) {
	f := newFixture(t)

	w := postForm(t, f.engine, "/submit", url.Values{
		"company_name": {"Acme Ltd"},
		"db_name":      {"ACME_1"},
		"admin_email":  {"admin@acme.example"},
		"odoo_edition": {"Community"},
	})

	require.Equal(t, http.StatusSeeOther, w.Code)
	location := w.Header().Get("Location")
	require.True(t, strings.HasPrefix(location, "/database/community?flow="), location)

	require.Len(t, f.intakes.saved, 1)
	assert.Equal(t, "acme_1", f.intakes.saved[0].DBName)
	assert.Equal(t, "Community", f.intakes.saved[0].Edition)

	state, err := f.signer.Verify(strings.TrimPrefix(location, "/database/community?flow="))
	require.NoError(t, err)
	assert.Equal(t, "acme_1", state.DBName)
	assert.Equal(t, "admin@acme.example", state.AdminEmail)
}

func TestSubmitRejectsInvalidName(t *testing.T) {
	f := newFixture(t)

	w := postForm(t, f.engine, "/submit", url.Values{
		"company_name": {"Acme Ltd"},
		"db_name":      {"Acme-1"},
		"admin_email":  {"admin@acme.example"},
		"odoo_edition": {"Community"},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "error:")
	assert.Empty(t, f.intakes.saved)
}

func TestSubmitRejectsMissingFields(t *testing.T) {
	f := newFixture(t)

	w := postForm(t, f.engine, "/submit", url.Values{"company_name": {"Acme Ltd"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestShowDatabasePageRendersForm(t *testing.T) {
	f := newFixture(t)
	token := f.flowToken(t, appservice.FlowState{
		DBName: "acme_1", AdminEmail: "admin@acme.example", Edition: models.EditionCommunity,
	})

	req := httptest.NewRequest(http.MethodGet, "/database/community?flow="+token, nil)
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "acme_1")
}

func TestShowDatabasePageRedirectsWhenExisting(t *testing.T) {
	f := newFixture(t)
	name, _ := models.NewTenantName("acme_1")
	f.svc.prepareResult = &appservice.PrepareResult{
		TenantName:    name,
		AlreadyExists: true,
		Redirect:      "http://external:8069/web/login?db=acme_1",
	}
	token := f.flowToken(t, appservice.FlowState{DBName: "acme_1", Edition: models.EditionCommunity})

	req := httptest.NewRequest(http.MethodGet, "/database/community?flow="+token, nil)
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "http://external:8069/web/login?db=acme_1", w.Header().Get("Location"))
}

func TestShowDatabasePageRejectsMissingFlow(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/database/community", nil)
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestShowDatabasePageRejectsEditionMismatch(t *testing.T) {
	f := newFixture(t)
	token := f.flowToken(t, appservice.FlowState{DBName: "acme_1", Edition: models.EditionCommunity})

	req := httptest.NewRequest(http.MethodGet, "/database/enterprise?flow="+token, nil)
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateDBPageEmbedsNonceAndAdminFallback(t *testing.T) {
	f := newFixture(t)
	token := f.flowToken(t, appservice.FlowState{
		DBName: "acme_1", AdminEmail: "admin@acme.example", Edition: models.EditionCommunity,
	})

	w := postForm(t, f.engine, "/create-db", url.Values{
		"db_password": {"hunter2"},
		"flow":        {token},
	})

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "nonce=test-nonce")
	assert.Contains(t, body, "login=admin@acme.example", "admin login falls back to the intake email")
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")
}

func TestCreateDatabaseAPISuccess(t *testing.T) {
	f := newFixture(t)
	f.svc.createResult = &appservice.CreateResult{Redirect: "http://external:8069/web/login?db=acme_1"}
	f.intakes.latest = &models.ClientIntake{CompanyName: "Acme Ltd", DBName: "acme_1"}

	w := postJSON(t, f.engine, "/api/create-db", dto.CreateDatabaseRequest{
		DBName:     "acme_1",
		DBPassword: "hunter2",
		Edition:    "Community",
		AdminLogin: "admin@acme.example",
		Nonce:      "test-nonce",
	})

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeCreateResponse(t, w)
	assert.True(t, resp.OK)
	assert.Equal(t, "http://external:8069/web/login?db=acme_1", resp.Redirect)

	assert.Equal(t, "test-nonce", f.svc.lastNonce)
	assert.Equal(t, "en_US", f.svc.lastCreation.Language, "language defaults when omitted")
	assert.Equal(t, "ZM", f.svc.lastCreation.CountryCode, "country defaults when omitted")

	require.Len(t, f.queue.tasks, 1)
	assert.Equal(t, "Acme Ltd", f.queue.tasks[0].CompanyName)
	assert.Equal(t, []string{"crm", "sale_management"}, f.queue.tasks[0].Modules)
}

func TestCreateDatabaseAPIInvalidName(t *testing.T) {
	f := newFixture(t)

	w := postJSON(t, f.engine, "/api/create-db", dto.CreateDatabaseRequest{
		DBName: "Acme-1", DBPassword: "hunter2", Nonce: "test-nonce",
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeCreateResponse(t, w)
	assert.False(t, resp.OK)
	assert.Equal(t, "Invalid database name.", resp.Error)
}

func TestCreateDatabaseAPINonceConflict(t *testing.T) {
	f := newFixture(t)
	f.svc.createErr = apperrors.ErrNonceExpiredOrReplayed

	w := postJSON(t, f.engine, "/api/create-db", dto.CreateDatabaseRequest{
		DBName: "acme_1", DBPassword: "hunter2", Nonce: "stale",
	})

	require.Equal(t, http.StatusConflict, w.Code)
	resp := decodeCreateResponse(t, w)
	assert.False(t, resp.OK)
	assert.Contains(t, resp.Error, "nonce")
	assert.Empty(t, f.queue.tasks)
}

func TestCreateDatabaseAPINetworkError(t *testing.T) {
	f := newFixture(t)
	f.svc.createErr = apperrors.ErrOdooNetwork(context.DeadlineExceeded)

	w := postJSON(t, f.engine, "/api/create-db", dto.CreateDatabaseRequest{
		DBName: "acme_1", DBPassword: "hunter2", Nonce: "test-nonce",
	})

	require.Equal(t, http.StatusBadGateway, w.Code)
	resp := decodeCreateResponse(t, w)
	assert.False(t, resp.OK)
	assert.Contains(t, resp.Error, "Network error to Odoo")
}

func TestCreateDatabaseAPICreationFailed(t *testing.T) {
	f := newFixture(t)
	f.svc.createErr = apperrors.ErrOdooCreationFailed(500)

	w := postJSON(t, f.engine, "/api/create-db", dto.CreateDatabaseRequest{
		DBName: "acme_1", DBPassword: "hunter2", Nonce: "test-nonce",
	})

	require.Equal(t, http.StatusBadGateway, w.Code)
	resp := decodeCreateResponse(t, w)
	assert.Equal(t, "Odoo error HTTP 500", resp.Error)
}

func TestCreateDatabaseAPIMalformedBody(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/create-db", strings.NewReader("not-json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListClients(t *testing.T) {
	f := newFixture(t)
	f.intakes.saved = []*models.ClientIntake{
		{CompanyName: "Acme Ltd", DBName: "acme_1"},
		{CompanyName: "Beta Corp", DBName: "beta"},
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/clients", nil)
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "clients: 2")
}