// Package handlers implements the gin handlers of the onboarding gateway.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/onboard/internal/application/dto"
	appservice "github.com/turtacn/onboard/internal/application/service"
	"github.com/turtacn/onboard/internal/domain/models"
	"github.com/turtacn/onboard/internal/domain/repository"
	domainservice "github.com/turtacn/onboard/internal/domain/service"
	"github.com/turtacn/onboard/internal/infrastructure/monitoring"
	"github.com/turtacn/onboard/pkg/errors"
	"github.com/turtacn/onboard/pkg/logger"
)

const (
	defaultLanguage = "en_US"
	defaultCountry  = "ZM"
)

// OnboardingHandler serves the intake flow pages and the creation endpoints.
type OnboardingHandler struct {
	provisioning appservice.ProvisioningService
	flowSigner   *appservice.FlowSigner
	intakes      repository.IntakeRepository
	queue        domainservice.ProvisionQueue
	modules      []string
	metrics      *monitoring.Metrics
	logger       logger.Logger
}

// NewOnboardingHandler creates an OnboardingHandler. queue may be nil when the
// background provisioner is not deployed.
func NewOnboardingHandler(
	provisioning appservice.ProvisioningService,
	flowSigner *appservice.FlowSigner,
	intakes repository.IntakeRepository,
	queue domainservice.ProvisionQueue,
	defaultModules []string,
	metrics *monitoring.Metrics,
	log logger.Logger,
) *OnboardingHandler {
	return &OnboardingHandler{
		provisioning: provisioning,
		flowSigner:   flowSigner,
		intakes:      intakes,
		queue:        queue,
		modules:      defaultModules,
		metrics:      metrics,
		logger:       log.WithComponent("OnboardingHandler"),
	}
}

// ShowForm renders the intake form.
func (h *OnboardingHandler) ShowForm(c *gin.Context) {
	c.HTML(http.StatusOK, "form.html", gin.H{})
}

// Submit accepts the intake form, persists the record and redirects to the
// edition's database-details page with a signed flow token.
func (h *OnboardingHandler) Submit(c *gin.Context) {
	ctx := c.Request.Context()

	var form dto.SubmitForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderError(c, http.StatusBadRequest, "All fields are required.")
		return
	}

	edition := models.ParseEdition(form.Edition)
	name, err := models.NewTenantName(form.DBName)
	if err != nil {
		h.metrics.RecordIntake(edition.String(), "invalid_name")
		h.renderError(c, http.StatusBadRequest, errors.AsAppError(err).Description)
		return
	}

	intake := &models.ClientIntake{
		CompanyName: form.CompanyName,
		AdminEmail:  form.AdminEmail,
		Edition:     edition.String(),
		DBName:      name.String(),
	}
	if err := h.intakes.Save(ctx, intake); err != nil {
		h.logger.Error(ctx, "Failed to persist intake record", err, logger.Fields{
			"db_name": name.String(),
		})
		h.metrics.RecordIntake(edition.String(), "store_error")
		h.renderError(c, http.StatusInternalServerError, "Could not record your submission. Please try again.")
		return
	}

	token, err := h.flowSigner.Sign(appservice.FlowState{
		DBName:     name.String(),
		AdminEmail: form.AdminEmail,
		Edition:    edition,
	})
	if err != nil {
		h.logger.Error(ctx, "Failed to sign flow token", err, nil)
		h.renderError(c, http.StatusInternalServerError, "Internal error. Please try again.")
		return
	}

	h.metrics.RecordIntake(edition.String(), "accepted")
	c.Redirect(http.StatusSeeOther, "/database/"+strings.ToLower(edition.String())+"?flow="+token)
}

// ShowDatabasePage renders the database-details form, or redirects straight to
// the tenant's login page when the database already exists.
func (h *OnboardingHandler) ShowDatabasePage(c *gin.Context) {
	ctx := c.Request.Context()

	state, err := h.flowSigner.Verify(c.Query("flow"))
	if err != nil {
		h.renderError(c, http.StatusBadRequest, errors.AsAppError(err).Description)
		return
	}
	edition := models.ParseEdition(c.Param("edition"))
	if edition != state.Edition {
		h.renderError(c, http.StatusBadRequest, "Onboarding session does not match this page. Start again from the company form.")
		return
	}

	res, err := h.provisioning.Prepare(ctx, state.DBName, edition)
	if err != nil {
		h.renderAppError(c, err)
		return
	}
	if res.AlreadyExists {
		c.Redirect(http.StatusSeeOther, res.Redirect)
		return
	}

	c.HTML(http.StatusOK, "database.html", gin.H{
		"DBName":     res.TenantName.String(),
		"AdminEmail": state.AdminEmail,
		"Edition":    edition.String(),
		"Flow":       c.Query("flow"),
	})
}

// CreateDBPage accepts the database-details form and renders the creating page
// with the one-time creation payload embedded for the page script.
func (h *OnboardingHandler) CreateDBPage(c *gin.Context) {
	ctx := c.Request.Context()

	var form dto.CreateDBForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderError(c, http.StatusBadRequest, "Database password is required.")
		return
	}

	state, err := h.flowSigner.Verify(form.Flow)
	if err != nil {
		h.renderError(c, http.StatusBadRequest, errors.AsAppError(err).Description)
		return
	}

	// The flow token is authoritative for the name; the read-only form field
	// is only a display copy.
	rawName := state.DBName
	if rawName == "" {
		rawName = form.DBName
	}
	edition := state.Edition

	res, err := h.provisioning.Prepare(ctx, rawName, edition)
	if err != nil {
		h.renderAppError(c, err)
		return
	}
	if res.AlreadyExists {
		c.Redirect(http.StatusSeeOther, res.Redirect)
		return
	}

	payload := dto.CreationPagePayload{
		DBName:     res.TenantName.String(),
		DBPassword: form.DBPassword,
		Phone:      form.Phone,
		Lang:       valueOr(form.Lang, defaultLanguage),
		Country:    valueOr(form.Country, defaultCountry),
		Demo:       form.Demo,
		Edition:    edition.String(),
		AdminLogin: valueOr(form.AdminLogin, state.AdminEmail),
		Nonce:      res.Nonce,
	}

	// The embedded nonce is single use; the page must never come from cache.
	c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	c.Header("Pragma", "no-cache")
	c.HTML(http.StatusOK, "creating_db.html", gin.H{
		"DBName":  payload.DBName,
		"Payload": payload,
	})
}

// CreateDatabaseAPI is the JSON creation endpoint called by the creating page.
func (h *OnboardingHandler) CreateDatabaseAPI(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateDatabaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.SendCreateError(c, errors.ErrInvalidRequest)
		return
	}

	name, err := models.NewTenantName(req.DBName)
	if err != nil {
		dto.SendCreateError(c, err)
		return
	}
	edition := models.ParseEdition(req.Edition)

	creation := models.CreationRequest{
		TenantName:    name,
		AdminLogin:    valueOr(req.AdminLogin, "admin"),
		AdminPassword: req.DBPassword,
		Phone:         req.Phone,
		Language:      valueOr(req.Lang, defaultLanguage),
		CountryCode:   valueOr(req.Country, defaultCountry),
		Demo:          req.Demo,
		Edition:       edition,
	}

	res, err := h.provisioning.Create(ctx, creation, req.Nonce)
	if err != nil {
		dto.SendCreateError(c, err)
		return
	}

	h.enqueueCompanyProvisioning(c, name)
	dto.SendCreateSuccess(c, res.Redirect)
}

// ListClients renders the persisted intake records.
func (h *OnboardingHandler) ListClients(c *gin.Context) {
	ctx := c.Request.Context()

	clients, err := h.intakes.FindAll(ctx)
	if err != nil {
		h.logger.Error(ctx, "Failed to list intake records", err, nil)
		h.renderError(c, http.StatusInternalServerError, "Could not load client records.")
		return
	}
	c.HTML(http.StatusOK, "admin_clients.html", gin.H{"Clients": clients})
}

// enqueueCompanyProvisioning hands the company setup to the background worker.
// Failures are logged, never surfaced: the tenant database already exists and
// the redirect must go out.
func (h *OnboardingHandler) enqueueCompanyProvisioning(c *gin.Context, name models.TenantName) {
	if h.queue == nil {
		return
	}
	ctx := c.Request.Context()

	intake, err := h.intakes.FindLatestByDBName(ctx, name.String())
	if err != nil || intake == nil {
		h.logger.Warn(ctx, "No intake record for provisioned database, skipping company setup", logger.Fields{
			"db_name": name.String(),
		})
		return
	}

	task := models.ProvisionTask{
		CompanyName: intake.CompanyName,
		Modules:     h.modules,
	}
	if err := h.queue.Enqueue(ctx, task); err != nil {
		h.logger.Error(ctx, "Failed to enqueue company provisioning task", err, logger.Fields{
			"company_name": task.CompanyName,
		})
	}
}

func (h *OnboardingHandler) renderError(c *gin.Context, status int, message string) {
	c.HTML(status, "error.html", gin.H{"Message": message})
}

func (h *OnboardingHandler) renderAppError(c *gin.Context, err error) {
	appErr := errors.AsAppError(err)
	message := appErr.Description
	if message == "" {
		message = appErr.Message
	}
	h.renderError(c, appErr.HTTPStatus, message)
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
