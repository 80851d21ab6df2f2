package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bidtrack/api/internal/search"
	"bidtrack/api/internal/store"
)

func newTestServer(t *testing.T, fp *fakePersister) (*HTTPServer, *Service) {
	t.Helper()
	svc := newTestService(t, fp)
	return NewHTTPServer(svc, nil, "*"), svc
}

func doRequest(server *HTTPServer, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to parse response %q: %v", rr.Body.String(), err)
	}
	return payload
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t, &fakePersister{})

	rr := doRequest(server, http.MethodGet, "/api/health", "")
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
	if payload := decodeResponse(t, rr); payload["ok"] != true {
		t.Errorf("ok = %v", payload["ok"])
	}
}

func TestReadyEndpointReportsPersistenceFailure(t *testing.T) {
	fp := &fakePersister{
		pingFn: func(context.Context) error { return errors.New("connection refused") },
	}
	server, _ := newTestServer(t, fp)

	rr := doRequest(server, http.MethodGet, "/api/ready", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rr.Code)
	}
	if payload := decodeResponse(t, rr); payload["status"] != "not_ready" {
		t.Errorf("status field = %v", payload["status"])
	}
}

func TestProposalLifecycleOverHTTP(t *testing.T) {
	server, _ := newTestServer(t, &fakePersister{})

	rr := doRequest(server, http.MethodPost, "/api/proposals",
		`{"title":"Cloud migration BPA","agency":"GSA","dueDate":"2025-02-15","type":"gsa"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rr.Code, rr.Body.String())
	}
	created := decodeResponse(t, rr)
	id := created["id"].(string)
	if created["status"] != "intake" {
		t.Errorf("initial status = %v", created["status"])
	}
	if _, ok := created["urgency"]; !ok {
		t.Error("created view is missing the urgency field")
	}

	rr = doRequest(server, http.MethodPut, "/api/proposals/"+id,
		`{"notes":"CO prefers incremental delivery"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update status = %d", rr.Code)
	}
	if updated := decodeResponse(t, rr); updated["notes"] != "CO prefers incremental delivery" {
		t.Errorf("notes = %v", updated["notes"])
	}

	rr = doRequest(server, http.MethodPut, "/api/proposals/"+id+"/status", `{"status":"outline"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("transition status = %d, body %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(server, http.MethodGet, "/api/proposals", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("list status = %d", rr.Code)
	}
	list := decodeResponse(t, rr)["proposals"].([]any)
	if len(list) != 1 {
		t.Fatalf("list length = %d", len(list))
	}

	rr = doRequest(server, http.MethodDelete, "/api/proposals/"+id, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rr.Code)
	}
	rr = doRequest(server, http.MethodDelete, "/api/proposals/"+id, "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rr.Code)
	}
}

func TestErrorCodeMapping(t *testing.T) {
	fp := &fakePersister{}
	server, svc := newTestServer(t, fp)

	// 422: missing required fields
	rr := doRequest(server, http.MethodPost, "/api/proposals", `{"title":"No agency"}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("validation status = %d, want 422", rr.Code)
	}
	if payload := decodeResponse(t, rr); payload["code"] != "VALIDATION_ERROR" {
		t.Errorf("code = %v", payload["code"])
	}

	// 404: unknown id
	rr = doRequest(server, http.MethodGet, "/api/proposals/prop_missing", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("not-found status = %d, want 404", rr.Code)
	}

	// 409: skipping a workflow step
	created, err := svc.CreateProposal(context.Background(), store.ProposalDraft{
		Title: "Skipper", Agency: "VA", DueDate: "2025-03-01",
	})
	if err != nil {
		t.Fatalf("CreateProposal failed: %v", err)
	}
	id := created["id"].(string)
	rr = doRequest(server, http.MethodPut, "/api/proposals/"+id+"/status", `{"status":"submitted"}`)
	if rr.Code != http.StatusConflict {
		t.Errorf("transition status = %d, want 409", rr.Code)
	}
	if payload := decodeResponse(t, rr); payload["code"] != "INVALID_TRANSITION" {
		t.Errorf("code = %v", payload["code"])
	}

	// 503: persistence down
	fp.saveProposalsFn = func(context.Context, []store.Proposal) error {
		return errors.New("redis gone")
	}
	rr = doRequest(server, http.MethodPost, "/api/proposals",
		`{"title":"Unpersistable","agency":"VA","dueDate":"2025-03-01"}`)
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("persistence status = %d, want 503", rr.Code)
	}
	if payload := decodeResponse(t, rr); payload["code"] != "PERSISTENCE_ERROR" {
		t.Errorf("code = %v", payload["code"])
	}
}

func TestTaskEndpoints(t *testing.T) {
	server, svc := newTestServer(t, &fakePersister{})
	created, err := svc.CreateProposal(context.Background(), store.ProposalDraft{
		Title: "With tasks", Agency: "NOAA", DueDate: "2025-03-01",
	})
	if err != nil {
		t.Fatalf("CreateProposal failed: %v", err)
	}
	id := created["id"].(string)

	rr := doRequest(server, http.MethodPost, "/api/proposals/"+id+"/tasks",
		`{"title":"Draft technical volume","owner":"Priya","dueDate":"2025-02-20"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("add task status = %d, body %s", rr.Code, rr.Body.String())
	}
	task := decodeResponse(t, rr)
	taskID := task["id"].(string)
	if task["completed"] != false {
		t.Errorf("new task completed = %v", task["completed"])
	}

	rr = doRequest(server, http.MethodPut, "/api/proposals/"+id+"/tasks/"+taskID,
		`{"status":"completed"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update task status = %d, body %s", rr.Code, rr.Body.String())
	}
	if updated := decodeResponse(t, rr); updated["completed"] != true {
		t.Errorf("completed = %v", updated["completed"])
	}

	rr = doRequest(server, http.MethodDelete, "/api/proposals/"+id+"/tasks/"+taskID, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("delete task status = %d", rr.Code)
	}
	rr = doRequest(server, http.MethodDelete, "/api/proposals/"+id+"/tasks/"+taskID, "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("second task delete status = %d, want 404", rr.Code)
	}
}

func TestEventEndpoints(t *testing.T) {
	server, _ := newTestServer(t, &fakePersister{})

	rr := doRequest(server, http.MethodPost, "/api/events",
		`{"title":"Q&A deadline","date":"2025-02-10","pushNotification":true,"notificationTime":"2025-02-09T09:00:00Z"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create event status = %d, body %s", rr.Code, rr.Body.String())
	}
	event := decodeResponse(t, rr)
	id := event["id"].(string)
	if event["type"] != "custom" {
		t.Errorf("event type = %v", event["type"])
	}

	// Push without a notification time is rejected.
	rr = doRequest(server, http.MethodPost, "/api/events",
		`{"title":"Bad event","date":"2025-02-10","pushNotification":true}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid event status = %d, want 422", rr.Code)
	}

	rr = doRequest(server, http.MethodPut, "/api/events/"+id, `{"title":"Final Q&A deadline"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update event status = %d", rr.Code)
	}

	rr = doRequest(server, http.MethodDelete, "/api/events/"+id, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("delete event status = %d", rr.Code)
	}
	rr = doRequest(server, http.MethodDelete, "/api/events/"+id, "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("second event delete status = %d, want 404", rr.Code)
	}
}

func TestCalendarEndpoint(t *testing.T) {
	server, svc := newTestServer(t, &fakePersister{})
	if _, err := svc.CreateProposal(context.Background(), store.ProposalDraft{
		Title: "On the calendar", Agency: "GSA", DueDate: "2025-02-01",
	}); err != nil {
		t.Fatalf("CreateProposal failed: %v", err)
	}

	rr := doRequest(server, http.MethodGet, "/api/calendar", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("calendar status = %d", rr.Code)
	}
	payload := decodeResponse(t, rr)
	if payload["total"] != float64(1) {
		t.Errorf("total = %v", payload["total"])
	}
}

func TestSearchEndpointUsesFallback(t *testing.T) {
	fp := &fakePersister{}
	svc := newTestService(t, fp)
	// Rebuild the service with the memory search backend attached.
	st := svc.store
	svc = NewService(st,
		WithClock(func() time.Time { return testNow }),
		WithSearch(search.NewService(nil, search.NewMemory(st))))
	server := NewHTTPServer(svc, nil, "*")

	if _, err := svc.CreateProposal(context.Background(), store.ProposalDraft{
		Title: "Hypersonics research", Agency: "DARPA", DueDate: "2025-04-01",
	}); err != nil {
		t.Fatalf("CreateProposal failed: %v", err)
	}

	rr := doRequest(server, http.MethodGet, "/api/search?q=hypersonics", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("search status = %d", rr.Code)
	}
	payload := decodeResponse(t, rr)
	if payload["total"] != float64(1) {
		t.Errorf("total = %v, body %s", payload["total"], rr.Body.String())
	}

	rr = doRequest(server, http.MethodGet, "/api/search?q=x&limit=abc", "")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad limit status = %d, want 422", rr.Code)
	}
	rr = doRequest(server, http.MethodGet, "/api/search?q=x&offset=-1", "")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("negative offset status = %d, want 422", rr.Code)
	}
	rr = doRequest(server, http.MethodGet, "/api/search?q=x&limit=-5", "")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("negative limit status = %d, want 422", rr.Code)
	}
}

func TestHistoryRejectsNegativeLimit(t *testing.T) {
	server, svc := newTestServer(t, &fakePersister{})
	created, err := svc.CreateProposal(context.Background(), store.ProposalDraft{
		Title: "With history", Agency: "VA", DueDate: "2025-03-01",
	})
	if err != nil {
		t.Fatalf("CreateProposal failed: %v", err)
	}
	id := created["id"].(string)

	rr := doRequest(server, http.MethodGet, "/api/proposals/"+id+"/history?limit=-1", "")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("negative limit status = %d, want 422", rr.Code)
	}
	if payload := decodeResponse(t, rr); payload["code"] != "VALIDATION_ERROR" {
		t.Errorf("code = %v", payload["code"])
	}

	rr = doRequest(server, http.MethodGet, "/api/proposals/"+id+"/history", "")
	if rr.Code != http.StatusOK {
		t.Errorf("history status = %d, want 200", rr.Code)
	}
}

func TestAutomationUnconfigured(t *testing.T) {
	server, _ := newTestServer(t, &fakePersister{})

	rr := doRequest(server, http.MethodPost, "/api/automation/jobs", `{"action":"export_report"}`)
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("enqueue status = %d, want 503", rr.Code)
	}
	rr = doRequest(server, http.MethodGet, "/api/automation/health", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("health status = %d, want 503", rr.Code)
	}
}
