package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"smartfarm/internal/models"
	"smartfarm/internal/service"
)

func TestReadingAndAlertHandlers(t *testing.T) {
	auth := &mockAuth{parseID: 7}
	alerts := &mockAlerts{}
	s := &service.Service{Authorization: auth, Alerts: alerts}
	r := newTestRouter(s)

	// Ingest with an explicit timestamp.
	body := []byte(`{"sector":"A","attribute":"temperature","value":28.5,"unit":"°C","timestamp":"2026-08-27T15:04:05Z"}`)
	w := doRequest(r, http.MethodPost, "/api/v1/readings", body, authHeader("valid"))
	if w.Code != http.StatusOK {
		t.Fatalf("ingest status=%d, body=%s", w.Code, w.Body.String())
	}
	if alerts.ingestCalls != 1 {
		t.Fatalf("expected Ingest to be called once, got %d", alerts.ingestCalls)
	}
	got := alerts.lastReading
	if got.Sector != "A" || got.Attribute != "temperature" || got.Value != 28.5 {
		t.Fatalf("wrong reading: %+v", got)
	}
	if got.Timestamp.IsZero() {
		t.Fatalf("timestamp not parsed")
	}

	// Malformed timestamp → 400.
	w = doRequest(r, http.MethodPost, "/api/v1/readings",
		[]byte(`{"sector":"A","attribute":"temperature","value":1,"timestamp":"yesterday"}`), authHeader("valid"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad timestamp, got %d", w.Code)
	}

	// List with filter passthrough.
	alerts.listResp = []models.Alert{{ID: "a1", Sector: "A", Severity: models.SeverityWarning}}
	w = doRequest(r, http.MethodGet, "/api/v1/alerts?status=active", nil, authHeader("valid"))
	if w.Code != http.StatusOK {
		t.Fatalf("alerts status=%d, body=%s", w.Code, w.Body.String())
	}
	if alerts.lastFilter != "active" {
		t.Fatalf("filter not forwarded, got %q", alerts.lastFilter)
	}
	var listResp struct {
		Count  int            `json:"count"`
		Alerts []models.Alert `json:"alerts"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("unmarshal alerts: %v", err)
	}
	if listResp.Count != 1 || listResp.Alerts[0].ID != "a1" {
		t.Fatalf("unexpected alerts body: %+v", listResp)
	}

	// Acknowledge.
	alerts.ackResp = models.Alert{ID: "a1", Severity: models.SeverityWarning}
	w = doRequest(r, http.MethodPost, "/api/v1/alerts/a1/ack", nil, authHeader("valid"))
	if w.Code != http.StatusOK {
		t.Fatalf("ack status=%d, body=%s", w.Code, w.Body.String())
	}
	if alerts.lastAckID != "a1" {
		t.Fatalf("ack id not forwarded, got %q", alerts.lastAckID)
	}

	// Unknown alert → 404.
	alerts.ackErr = models.ErrAlertNotFound
	w = doRequest(r, http.MethodPost, "/api/v1/alerts/nope/ack", nil, authHeader("valid"))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown alert, got %d", w.Code)
	}
}

func TestThresholdHandlers(t *testing.T) {
	auth := &mockAuth{parseID: 7}
	thresholds := &mockThresholds{
		setResp: models.Threshold{Sector: "A", Attribute: "temperature", Center: 25, Min: 22.5, Max: 27.5, Enabled: true},
	}
	s := &service.Service{Authorization: auth, Thresholds: thresholds}
	r := newTestRouter(s)

	body := []byte(`{"sector":"A","attribute":"temperature","center":25,"tolerance_percent":10,"unit":"°C"}`)
	w := doRequest(r, http.MethodPut, "/api/v1/thresholds", body, authHeader("valid"))
	if w.Code != http.StatusOK {
		t.Fatalf("set threshold status=%d, body=%s", w.Code, w.Body.String())
	}
	if thresholds.lastSet.Center != 25 || thresholds.lastSet.TolerancePercent != 10 {
		t.Fatalf("wrong set params: %+v", thresholds.lastSet)
	}
	var th models.Threshold
	if err := json.Unmarshal(w.Body.Bytes(), &th); err != nil {
		t.Fatalf("unmarshal threshold: %v", err)
	}
	if th.Min != 22.5 || th.Max != 27.5 {
		t.Fatalf("unexpected threshold body: %+v", th)
	}

	// Invalid tolerance maps to 400.
	thresholds.setErr = models.ErrInvalidTolerance
	w = doRequest(r, http.MethodPut, "/api/v1/thresholds", body, authHeader("valid"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid tolerance, got %d", w.Code)
	}

	// Sector list passthrough.
	thresholds.listResp = []models.Threshold{{Sector: "A", Attribute: "humidity"}}
	w = doRequest(r, http.MethodGet, "/api/v1/thresholds?sector=A", nil, authHeader("valid"))
	if w.Code != http.StatusOK {
		t.Fatalf("list thresholds status=%d", w.Code)
	}
	if thresholds.lastSector != "A" {
		t.Fatalf("sector not forwarded, got %q", thresholds.lastSector)
	}
}

func TestNotificationsHandler(t *testing.T) {
	auth := &mockAuth{parseID: 7}
	notifs := &mockNotifications{listResp: []models.Notification{{Seq: 9, Content: "Command #1 for A/Pump APPLIED", Status: models.NotificationCompleted}}}
	s := &service.Service{Authorization: auth, Notifications: notifs}
	r := newTestRouter(s)

	w := doRequest(r, http.MethodGet, "/api/v1/notifications?status=completed&limit=5", nil, authHeader("valid"))
	if w.Code != http.StatusOK {
		t.Fatalf("notifications status=%d, body=%s", w.Code, w.Body.String())
	}
	if notifs.lastStatus != "completed" || notifs.lastLimit != 5 {
		t.Fatalf("params not forwarded: %q %d", notifs.lastStatus, notifs.lastLimit)
	}
	var resp struct {
		Count         int                   `json:"count"`
		Notifications []models.Notification `json:"notifications"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal notifications: %v", err)
	}
	if resp.Count != 1 || resp.Notifications[0].Seq != 9 {
		t.Fatalf("unexpected notifications body: %+v", resp)
	}
}
