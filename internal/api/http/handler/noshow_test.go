package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/simorq_noshow/internal/noshow"
)

type fakeService struct {
	noshow.Service

	predictErr  error
	historyErr  error
	analytics   *noshow.NoShowAnalytics
	analyticErr error
	updateErr   error
	batch       []noshow.BatchItem

	updated      uuid.UUID
	updatedTo    noshow.Outcome
	batchRequest []uuid.UUID
}

func (f *fakeService) Predict(_ context.Context, id uuid.UUID) (*noshow.NoShowPrediction, error) {
	if f.predictErr != nil {
		return nil, f.predictErr
	}
	return &noshow.NoShowPrediction{AppointmentID: id, RiskScore: 42, RiskLevel: noshow.RiskMedium}, nil
}

func (f *fakeService) BatchPredict(_ context.Context, ids []uuid.UUID) []noshow.BatchItem {
	f.batchRequest = ids
	return f.batch
}

func (f *fakeService) PatientHistory(_ context.Context, id uuid.UUID) (noshow.PatientNoShowHistory, error) {
	if f.historyErr != nil {
		return noshow.PatientNoShowHistory{}, f.historyErr
	}
	return noshow.PatientNoShowHistory{PatientID: id}, nil
}

func (f *fakeService) Analytics(context.Context) (*noshow.NoShowAnalytics, error) {
	return f.analytics, f.analyticErr
}

func (f *fakeService) UpdateOutcome(_ context.Context, id uuid.UUID, o noshow.Outcome) error {
	f.updated, f.updatedTo = id, o
	return f.updateErr
}

func newTestApp(svc noshow.Service, maxBatch int) *fiber.App {
	h := NewNoShowHandler(svc, maxBatch)
	app := fiber.New()
	app.Get("/appointments/:id/prediction", h.Predict)
	app.Post("/predictions/batch", h.BatchPredict)
	app.Get("/patients/:id/history", h.PatientHistory)
	app.Get("/analytics", h.Analytics)
	app.Patch("/appointments/:id/outcome", h.UpdateOutcome)
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]json.RawMessage) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var out map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode, out
}

func errorMessage(t *testing.T, body map[string]json.RawMessage) string {
	t.Helper()
	var msg string
	if err := json.Unmarshal(body["error"], &msg); err != nil {
		t.Fatalf("response has no error message: %v", err)
	}
	return msg
}

func TestPredict(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name       string
		path       string
		err        error
		wantStatus int
	}{
		{"ok", "/appointments/" + id.String() + "/prediction", nil, http.StatusOK},
		{"invalid id", "/appointments/nope/prediction", nil, http.StatusBadRequest},
		{"not found", "/appointments/" + id.String() + "/prediction",
			fmt.Errorf("get appointment: %w", noshow.ErrAppointmentNotFound), http.StatusNotFound},
		{"store failure", "/appointments/" + id.String() + "/prediction",
			errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(&fakeService{predictErr: tt.err}, 0)
			status, body := do(t, app, http.MethodGet, tt.path, "")
			if status != tt.wantStatus {
				t.Fatalf("status = %d, want %d", status, tt.wantStatus)
			}
			if status == http.StatusInternalServerError {
				if msg := errorMessage(t, body); strings.Contains(msg, "connection") {
					t.Errorf("internal error leaked: %q", msg)
				}
			}
			if status != http.StatusOK {
				return
			}
			var p noshow.NoShowPrediction
			if err := json.Unmarshal(body["data"], &p); err != nil {
				t.Fatalf("decode prediction: %v", err)
			}
			if p.AppointmentID != id || p.RiskLevel != noshow.RiskMedium {
				t.Errorf("prediction = %+v", p)
			}
		})
	}
}

func TestBatchPredict(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	svc := &fakeService{batch: []noshow.BatchItem{
		{AppointmentID: a, Prediction: &noshow.NoShowPrediction{AppointmentID: a, RiskScore: 80}},
		{AppointmentID: b, Err: fmt.Errorf("query failed: %w", errors.New("pq: secret table"))},
	}}
	app := newTestApp(svc, 2)

	status, body := do(t, app, http.MethodPost, "/predictions/batch",
		fmt.Sprintf(`{"appointment_ids":[%q,%q]}`, a, b))
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if len(svc.batchRequest) != 2 || svc.batchRequest[0] != a || svc.batchRequest[1] != b {
		t.Errorf("service received %v", svc.batchRequest)
	}

	var items []batchItemResponse
	if err := json.Unmarshal(body["data"], &items); err != nil {
		t.Fatalf("decode items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].Prediction == nil || items[0].Error != "" {
		t.Errorf("first item = %+v, want a prediction", items[0])
	}
	if items[1].Prediction != nil || items[1].Error != "prediction failed" {
		t.Errorf("second item = %+v, want sanitized failure", items[1])
	}
}

func TestBatchPredict_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"appointment_ids":`},
		{"bad id", `{"appointment_ids":["x"]}`},
		{"over cap", fmt.Sprintf(`{"appointment_ids":[%q,%q,%q]}`, uuid.New(), uuid.New(), uuid.New())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			status, _ := do(t, newTestApp(svc, 2), http.MethodPost, "/predictions/batch", tt.body)
			if status != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", status)
			}
			if svc.batchRequest != nil {
				t.Error("service should not be called")
			}
		})
	}
}

func TestBatchItemError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("x: %w", noshow.ErrAppointmentNotFound), "appointment not found"},
		{noshow.ErrPatientNotFound, "patient not found"},
		{errors.New("boom"), "prediction failed"},
	}
	for _, tt := range tests {
		if got := batchItemError(tt.err); got != tt.want {
			t.Errorf("batchItemError(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestPatientHistory(t *testing.T) {
	id := uuid.New()

	status, _ := do(t, newTestApp(&fakeService{}, 0), http.MethodGet, "/patients/"+id.String()+"/history", "")
	if status != http.StatusOK {
		t.Errorf("status = %d, want 200", status)
	}

	svc := &fakeService{historyErr: noshow.ErrPatientNotFound}
	status, body := do(t, newTestApp(svc, 0), http.MethodGet, "/patients/"+id.String()+"/history", "")
	if status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", status)
	}
	if msg := errorMessage(t, body); msg != "patient not found" {
		t.Errorf("error = %q", msg)
	}
}

func TestAnalytics(t *testing.T) {
	svc := &fakeService{analytics: &noshow.NoShowAnalytics{TotalAppointments: 10, TotalNoShows: 3}}
	status, body := do(t, newTestApp(svc, 0), http.MethodGet, "/analytics", "")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	var a noshow.NoShowAnalytics
	if err := json.Unmarshal(body["data"], &a); err != nil {
		t.Fatalf("decode analytics: %v", err)
	}
	if a.TotalAppointments != 10 || a.TotalNoShows != 3 {
		t.Errorf("analytics = %+v", a)
	}

	svc = &fakeService{analyticErr: errors.New("db down")}
	status, _ = do(t, newTestApp(svc, 0), http.MethodGet, "/analytics", "")
	if status != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", status)
	}
}

func TestUpdateOutcome(t *testing.T) {
	id := uuid.New()
	path := "/appointments/" + id.String() + "/outcome"

	tests := []struct {
		name       string
		path       string
		body       string
		err        error
		wantStatus int
	}{
		{"ok", path, `{"outcome":"no_show"}`, nil, http.StatusOK},
		{"invalid id", "/appointments/abc/outcome", `{"outcome":"no_show"}`, nil, http.StatusBadRequest},
		{"unknown outcome", path, `{"outcome":"maybe"}`, nil, http.StatusBadRequest},
		{"missing outcome", path, `{}`, nil, http.StatusBadRequest},
		{"not found", path, `{"outcome":"completed"}`, noshow.ErrAppointmentNotFound, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{updateErr: tt.err}
			status, _ := do(t, newTestApp(svc, 0), http.MethodPatch, tt.path, tt.body)
			if status != tt.wantStatus {
				t.Fatalf("status = %d, want %d", status, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK && (svc.updated != id || svc.updatedTo != noshow.OutcomeNoShow) {
				t.Errorf("service got %s/%s", svc.updated, svc.updatedTo)
			}
		})
	}
}

func TestMapNoShowError_Timeout(t *testing.T) {
	svc := &fakeService{predictErr: context.DeadlineExceeded}
	status, _ := do(t, newTestApp(svc, 0), http.MethodGet, "/appointments/"+uuid.NewString()+"/prediction", "")
	if status != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", status)
	}
}
