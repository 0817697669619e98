package rest

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/mailfold/mailroom/internal/domain"
	"github.com/mailfold/mailroom/internal/present/rest/middleware"
	"github.com/mailfold/mailroom/internal/present/rest/presenter"
	"github.com/mailfold/mailroom/internal/service"
	"github.com/mailfold/mailroom/internal/usecase"
)

type Handler struct {
	tokens   *service.TokenService
	geofence *usecase.GeofenceUsecase
	aliases  *usecase.AliasUsecase
	staging  *usecase.StagingUsecase
	upload   *usecase.UploadUsecase
	signal   *service.SignalService
}

func NewHandler(
	tokens *service.TokenService,
	geofence *usecase.GeofenceUsecase,
	aliases *usecase.AliasUsecase,
	staging *usecase.StagingUsecase,
	upload *usecase.UploadUsecase,
	signal *service.SignalService,
) *Handler {
	return &Handler{
		tokens:   tokens,
		geofence: geofence,
		aliases:  aliases,
		staging:  staging,
		upload:   upload,
		signal:   signal,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo, auth *middleware.AuthMiddleware) {
	e.GET("/health", h.handleHealth)
	e.POST("/api/v1/auth/token", h.handleIssueToken)

	protected := e.Group("/api/v1", auth.RequireCredential)
	protected.POST("/geofence/detect", h.handleGeofenceDetect)
	protected.GET("/aliases/sync", h.handleAliasSync)
	protected.GET("/aliases/search", h.handleAliasSearch)
	protected.POST("/images/upload-url", h.handleUploadURL)
	protected.POST("/images/upload-slots/redeem", h.handleSlotRedeem)
	protected.POST("/mail/intake", h.handleIntake)
	protected.POST("/mail/intake/batch", h.handleIntakeBatch)
	protected.GET("/mail/intake/:staging_id", h.handleIntakeStatus)

	e.GET("/realtime", h.handleRealtime, auth.RequireCredential)
}

func (h *Handler) handleHealth(c echo.Context) error {
	return presenter.OK(c, echo.Map{"status": "ok"})
}

// --- auth ---

type issueTokenRequest struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
}

type issueTokenResponse struct {
	Token        string   `json:"token"`
	TenantID     string   `json:"tenant_id"`
	TenantName   string   `json:"tenant_name"`
	GrantedSites []string `json:"granted_sites"`
	ExpiresAt    int64    `json:"expires_at"`
}

func (h *Handler) handleIssueToken(c echo.Context) error {
	ctx := c.Request().Context()

	var req issueTokenRequest
	if err := c.Bind(&req); err != nil {
		return presenter.Fail(c, domain.ErrInvalidCredentials)
	}
	if req.Identifier == "" || req.Secret == "" {
		return presenter.Fail(c, domain.ErrInvalidCredentials)
	}

	result, err := h.tokens.Issue(ctx, req.Identifier, req.Secret)
	if err != nil {
		return presenter.Fail(c, err)
	}

	return presenter.OK(c, issueTokenResponse{
		Token:        result.Token,
		TenantID:     result.Credential.TenantID,
		TenantName:   result.TenantName,
		GrantedSites: result.Credential.SiteIDs,
		ExpiresAt:    result.Credential.ExpiresAt.Unix(),
	})
}

// --- geofence ---

type geofenceDetectRequest struct {
	TenantID  string   `json:"tenant_id,omitempty"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Radius    *float64 `json:"radius,omitempty"`
}

type geofenceDetectResponse struct {
	Candidates []domain.SiteCandidate `json:"candidates"`
	Closest    *domain.SiteCandidate  `json:"closest"`
}

func (h *Handler) handleGeofenceDetect(c echo.Context) error {
	ctx := c.Request().Context()

	cred, ok := middleware.CredentialFrom(ctx)
	if !ok {
		return presenter.Fail(c, domain.ErrMalformedToken)
	}

	var req geofenceDetectRequest
	if err := c.Bind(&req); err != nil {
		return presenter.Fail(c, domain.ErrInvalidCoordinates)
	}

	tenantID, err := service.AuthoritativeTenant(ctx, cred, req.TenantID)
	if err != nil {
		return presenter.Fail(c, err)
	}

	radius := 0.0
	if req.Radius != nil {
		radius = *req.Radius
	}

	candidates, closest, err := h.geofence.Detect(ctx, tenantID, req.Latitude, req.Longitude, radius)
	if err != nil {
		return presenter.Fail(c, err)
	}

	return presenter.OK(c, geofenceDetectResponse{
		Candidates: candidates,
		Closest:    closest,
	})
}

// --- aliases ---

type aliasSyncResponse struct {
	Aliases   []domain.AliasRecord `json:"aliases"`
	FetchedAt int64                `json:"fetched_at"`
}

func (h *Handler) handleAliasSync(c echo.Context) error {
	ctx := c.Request().Context()

	cred, ok := middleware.CredentialFrom(ctx)
	if !ok {
		return presenter.Fail(c, domain.ErrMalformedToken)
	}

	tenantID, err := service.AuthoritativeTenant(ctx, cred, c.QueryParam("tenant_id"))
	if err != nil {
		return presenter.Fail(c, err)
	}

	var since *time.Time
	if sinceStr := c.QueryParam("since"); sinceStr != "" {
		epoch, err := strconv.ParseInt(sinceStr, 10, 64)
		if err != nil {
			return presenter.Fail(c, domain.Error{
				Code:    "invalid_since",
				Message: "since must be epoch seconds",
			})
		}
		parsed := time.Unix(epoch, 0).UTC()
		since = &parsed
	}

	aliases, err := h.aliases.Sync(ctx, tenantID, since)
	if err != nil {
		return presenter.Fail(c, err)
	}

	return presenter.OK(c, aliasSyncResponse{
		Aliases:   aliases,
		FetchedAt: time.Now().Unix(),
	})
}

type aliasSearchResponse struct {
	Results       []domain.AliasRecord `json:"results"`
	PromptRefresh bool                 `json:"prompt_refresh"`
}

func (h *Handler) handleAliasSearch(c echo.Context) error {
	ctx := c.Request().Context()

	cred, ok := middleware.CredentialFrom(ctx)
	if !ok {
		return presenter.Fail(c, domain.ErrMalformedToken)
	}

	tenantID, err := service.AuthoritativeTenant(ctx, cred, c.QueryParam("tenant_id"))
	if err != nil {
		return presenter.Fail(c, err)
	}

	limit := 0
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			return presenter.Fail(c, domain.Error{
				Code:    "invalid_limit",
				Message: "limit must be an integer",
			})
		}
		limit = parsed
	}

	results, promptRefresh, err := h.aliases.Search(ctx, tenantID, c.QueryParam("q"), limit)
	if err != nil {
		return presenter.Fail(c, err)
	}

	return presenter.OK(c, aliasSearchResponse{
		Results:       results,
		PromptRefresh: promptRefresh,
	})
}

// --- images ---

type uploadURLRequest struct {
	TenantID               string `json:"tenant_id,omitempty"`
	ContentType            string `json:"content_type"`
	RequestedExpirySeconds int    `json:"requested_expiry_seconds,omitempty"`
}

func (h *Handler) handleUploadURL(c echo.Context) error {
	ctx := c.Request().Context()

	cred, ok := middleware.CredentialFrom(ctx)
	if !ok {
		return presenter.Fail(c, domain.ErrMalformedToken)
	}

	var req uploadURLRequest
	if err := c.Bind(&req); err != nil {
		return presenter.Fail(c, domain.ErrUnsupportedContentType)
	}

	tenantID, err := service.AuthoritativeTenant(ctx, cred, req.TenantID)
	if err != nil {
		return presenter.Fail(c, err)
	}

	slot, err := h.upload.IssueSlot(ctx, tenantID, req.ContentType, req.RequestedExpirySeconds)
	if err != nil {
		return presenter.Fail(c, err)
	}

	return presenter.OK(c, slot)
}

type slotRedeemRequest struct {
	Token string `json:"token"`
}

type slotRedeemResponse struct {
	StorageRef  string `json:"storage_ref"`
	ContentType string `json:"content_type"`
}

// handleSlotRedeem consumes an upload slot on behalf of the storage front,
// which calls here once before accepting image bytes. Only credentials
// carrying the storage capability may redeem.
func (h *Handler) handleSlotRedeem(c echo.Context) error {
	ctx := c.Request().Context()

	cred, ok := middleware.CredentialFrom(ctx)
	if !ok {
		return presenter.Fail(c, domain.ErrMalformedToken)
	}

	if err := service.AuthorizeCapability(ctx, cred, domain.CapabilityStorage); err != nil {
		return presenter.Fail(c, err)
	}

	var req slotRedeemRequest
	if err := c.Bind(&req); err != nil || req.Token == "" {
		return presenter.Fail(c, domain.MissingField("token"))
	}

	storageRef, contentType, err := h.upload.RedeemSlot(ctx, req.Token)
	if err != nil {
		return presenter.Fail(c, err)
	}

	return presenter.OK(c, slotRedeemResponse{
		StorageRef:  storageRef,
		ContentType: contentType,
	})
}

// --- intake ---

type intakeResponse struct {
	StagingID string `json:"staging_id"`
	Status    string `json:"status"`
}

func (h *Handler) handleIntake(c echo.Context) error {
	ctx := c.Request().Context()

	cred, ok := middleware.CredentialFrom(ctx)
	if !ok {
		return presenter.Fail(c, domain.ErrMalformedToken)
	}

	var input domain.ScanEventInput
	if err := c.Bind(&input); err != nil {
		return presenter.Fail(c, domain.MissingField("captured_image_ref"))
	}

	stagingID, err := h.staging.StageOne(ctx, cred, input)
	if err != nil {
		return presenter.Fail(c, err)
	}

	return presenter.Accepted(c, intakeResponse{
		StagingID: stagingID,
		Status:    "accepted",
	})
}

type intakeStatusResponse struct {
	StagingID        string  `json:"staging_id"`
	SiteID           *string `json:"site_id,omitempty"`
	ValidationStatus string  `json:"validation_status"`
	CapturedAt       int64   `json:"captured_at"`
}

// handleIntakeStatus lets a device re-check a staged event it submitted,
// e.g. after a retry where the first acknowledgment was lost in transit.
func (h *Handler) handleIntakeStatus(c echo.Context) error {
	ctx := c.Request().Context()

	cred, ok := middleware.CredentialFrom(ctx)
	if !ok {
		return presenter.Fail(c, domain.ErrMalformedToken)
	}

	event, err := h.staging.GetStaged(ctx, cred, c.Param("staging_id"))
	if err != nil {
		return presenter.Fail(c, err)
	}

	return presenter.OK(c, intakeStatusResponse{
		StagingID:        event.StagingID,
		SiteID:           event.SiteID,
		ValidationStatus: event.ValidationStatus,
		CapturedAt:       event.CapturedAt.Unix(),
	})
}

type batchItemRequest struct {
	ClientID string `json:"client_id"`
	domain.ScanEventInput
}

type intakeBatchRequest struct {
	TenantID string             `json:"tenant_id,omitempty"`
	Items    []batchItemRequest `json:"items"`
}

type intakeBatchResponse struct {
	Summary domain.BatchSummary      `json:"summary"`
	Results []domain.BatchItemResult `json:"results"`
}

func (h *Handler) handleIntakeBatch(c echo.Context) error {
	ctx := c.Request().Context()

	cred, ok := middleware.CredentialFrom(ctx)
	if !ok {
		return presenter.Fail(c, domain.ErrMalformedToken)
	}

	var req intakeBatchRequest
	if err := c.Bind(&req); err != nil {
		return presenter.Fail(c, domain.ErrEmptyBatch)
	}

	if _, err := service.AuthoritativeTenant(ctx, cred, req.TenantID); err != nil {
		return presenter.Fail(c, err)
	}

	items := make([]domain.BatchItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, domain.BatchItem{
			ClientID: item.ClientID,
			Event:    item.ScanEventInput,
		})
	}

	summary, results, err := h.staging.StageBatch(ctx, cred, items)
	if err != nil {
		return presenter.Fail(c, err)
	}

	return presenter.MultiStatus(c, intakeBatchResponse{
		Summary: summary,
		Results: results,
	})
}

// --- realtime ---

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleRealtime streams intake acknowledgments for the authenticated
// tenant. The subscription is implicit: the credential decides the channel,
// so a client can never watch another tenant's intake.
func (h *Handler) handleRealtime(c echo.Context) error {
	ctx := c.Request().Context()

	cred, ok := middleware.CredentialFrom(ctx)
	if !ok {
		return presenter.Fail(c, domain.ErrMalformedToken)
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.ErrorContext(
			ctx, "Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer ws.Close()

	output := make(chan domain.IntakeEvent)
	go h.signal.Realtime(ctx, cred.TenantID, output)

	quit := make(chan struct{})

	go func() {
		defer close(quit)
		for {
			// Clients send nothing meaningful; the read pump exists to
			// notice disconnects and heartbeats.
			if _, _, err := ws.ReadMessage(); err != nil {
				wsErr, ok := err.(*websocket.CloseError)
				if ok {
					if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
						slog.DebugContext(
							ctx, "WebSocket closed",
							slog.String("error", wsErr.Error()),
							slog.String("module", "socket"),
						)
					}
				} else {
					slog.DebugContext(
						ctx, "Error reading message",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}
				return
			}
		}
	}()

	for {
		select {
		case <-quit:
			return nil
		case event := <-output:
			if err := ws.WriteJSON(event); err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		}
	}
}
