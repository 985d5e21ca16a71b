package handlers

import (
	"context"
	"net/http"

	"smartfarm/internal/models"
	"smartfarm/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastGenUsername    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(ctx context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(ctx context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockDispatcher struct {
	submitResp  models.Command
	submitErr   error
	resolveResp models.Command
	resolveErr  error
	historyResp []models.Command
	historyErr  error
	devicesResp []models.Device
	devicesErr  error

	lastSubmit    service.SubmitParams
	lastResolveID string
	lastOutcome   models.CommandOutcome
	lastSector    string
	lastDevice    string
	lastLimit     int
	lastBefore    int64
	submitCalls   int
}

func (m *mockDispatcher) Submit(ctx context.Context, p service.SubmitParams) (models.Command, error) {
	m.submitCalls++
	m.lastSubmit = p
	return m.submitResp, m.submitErr
}
func (m *mockDispatcher) Resolve(ctx context.Context, commandID string, outcome models.CommandOutcome) (models.Command, error) {
	m.lastResolveID = commandID
	m.lastOutcome = outcome
	return m.resolveResp, m.resolveErr
}
func (m *mockDispatcher) History(ctx context.Context, sector, device string, limit int, before int64) ([]models.Command, error) {
	m.lastSector, m.lastDevice, m.lastLimit, m.lastBefore = sector, device, limit, before
	return m.historyResp, m.historyErr
}
func (m *mockDispatcher) Devices(ctx context.Context) ([]models.Device, error) {
	return m.devicesResp, m.devicesErr
}

type mockThresholds struct {
	setResp  models.Threshold
	setErr   error
	getResp  models.Threshold
	getErr   error
	listResp []models.Threshold
	listErr  error

	lastSet    service.SetThresholdParams
	lastSector string
}

func (m *mockThresholds) Set(ctx context.Context, p service.SetThresholdParams) (models.Threshold, error) {
	m.lastSet = p
	return m.setResp, m.setErr
}
func (m *mockThresholds) Get(ctx context.Context, sector, attribute string) (models.Threshold, error) {
	return m.getResp, m.getErr
}
func (m *mockThresholds) List(ctx context.Context, sector string) ([]models.Threshold, error) {
	m.lastSector = sector
	return m.listResp, m.listErr
}

type mockAlerts struct {
	ingestErr error
	ackResp   models.Alert
	ackErr    error
	listResp  []models.Alert
	listErr   error

	lastReading models.TelemetryReading
	lastAckID   string
	lastFilter  string
	ingestCalls int
}

func (m *mockAlerts) Ingest(ctx context.Context, r models.TelemetryReading) error {
	m.ingestCalls++
	m.lastReading = r
	return m.ingestErr
}
func (m *mockAlerts) Acknowledge(ctx context.Context, alertID string) (models.Alert, error) {
	m.lastAckID = alertID
	return m.ackResp, m.ackErr
}
func (m *mockAlerts) List(ctx context.Context, filter string) ([]models.Alert, error) {
	m.lastFilter = filter
	return m.listResp, m.listErr
}

type mockNotifications struct {
	listResp []models.Notification
	listErr  error

	lastStatus string
	lastLimit  int
}

func (m *mockNotifications) List(ctx context.Context, statusFilter string, limit int) ([]models.Notification, error) {
	m.lastStatus = statusFilter
	m.lastLimit = limit
	return m.listResp, m.listErr
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
