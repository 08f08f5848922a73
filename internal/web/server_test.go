package web

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alumnihub/gradimport/internal/config"
	"github.com/alumnihub/gradimport/internal/core"
)

// In-memory collaborators for end-to-end handler tests.

type fakeCourses struct{}

func (fakeCourses) FindCourseByName(_ context.Context, name string) (core.Course, bool, error) {
	if name == "Computer Science" {
		return core.Course{ID: "course-cs", Name: name}, true, nil
	}
	return core.Course{}, false, nil
}

type fakeGraduates struct {
	mu      sync.Mutex
	records []*core.Graduate
}

func (f *fakeGraduates) Create(_ context.Context, g *core.Graduate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g.ID = fmt.Sprintf("grad-%d", len(f.records)+1)
	g.CreatedAt = time.Now()
	f.records = append(f.records, g)
	return nil
}

func (f *fakeGraduates) FindByEmail(_ context.Context, email string) (*core.Graduate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.records {
		if strings.EqualFold(g.Email, email) {
			return g, nil
		}
	}
	return nil, nil
}

func (f *fakeGraduates) FindByStudentID(_ context.Context, studentID string) (*core.Graduate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.records {
		if g.StudentID == studentID {
			return g, nil
		}
	}
	return nil, nil
}

func (f *fakeGraduates) RecomputeProfileCompletion(_ context.Context, graduateID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.records {
		if g.ID == graduateID {
			g.ProfileCompletion = core.ComputeProfileCompletion(g)
			return g.ProfileCompletion, nil
		}
	}
	return 0, fmt.Errorf("graduate %s not found", graduateID)
}

func (f *fakeGraduates) ListGraduates(_ context.Context, _ core.ExportFilter) ([]core.Graduate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]core.Graduate, 0, len(f.records))
	for _, g := range f.records {
		out = append(out, *g)
	}
	return out, nil
}

type fakeRuns struct {
	mu   sync.Mutex
	runs map[string]*core.ImportRun
}

func newFakeRuns() *fakeRuns { return &fakeRuns{runs: map[string]*core.ImportRun{}} }

func (f *fakeRuns) Create(_ context.Context, run *core.ImportRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if run.ID == "" {
		run.ID = fmt.Sprintf("run-%d", len(f.runs)+1)
	}
	snapshot := *run
	f.runs[run.ID] = &snapshot
	return nil
}

func (f *fakeRuns) FinalizeSummary(_ context.Context, run *core.ImportRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	snapshot := *run
	f.runs[run.ID] = &snapshot
	return nil
}

func (f *fakeRuns) GetByID(_ context.Context, id string) (*core.ImportRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runs[id], nil
}

func (f *fakeRuns) ListRecent(_ context.Context, limit int) ([]core.ImportRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]core.ImportRun, 0, len(f.runs))
	for _, r := range f.runs {
		out = append(out, *r)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func newTestServer(t *testing.T) (*Server, *fakeGraduates) {
	t.Helper()

	cfg := &config.Config{}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.RequestTimeout = 30 * time.Second

	grads := &fakeGraduates{}
	svc := core.NewService(fakeCourses{}, grads, grads, newFakeRuns(), core.ServiceOptions{
		Defaults:      core.DefaultTransformDefaults(),
		MaxConcurrent: 2,
		MaxWait:       time.Second,
		RunTimeout:    10 * time.Second,
	})

	return New(cfg, svc, nil), grads
}

func multipartUpload(t *testing.T, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	mw.Close()
	return &body, mw.FormDataContentType()
}

const testCSV = "name,email,graduation_year,course_name,employment_status\n" +
	"Jane Doe,jane@example.com,2024,Computer Science,employed\n" +
	"Bad Row,not-an-email,2024,Computer Science,employed\n"

func doRequest(s *Server, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.httpSrv.Handler.ServeHTTP(w, r)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	w := doRequest(s, httptest.NewRequest("GET", "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestImportEndToEnd(t *testing.T) {
	s, grads := newTestServer(t)

	body, contentType := multipartUpload(t, "grads.csv", testCSV)
	req := httptest.NewRequest("POST", "/api/import/graduates", body)
	req.Header.Set("Content-Type", contentType)

	w := doRequest(s, req)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d body = %s", w.Code, w.Body)
	}

	var accepted map[string]string
	if err := json.NewDecoder(w.Body).Decode(&accepted); err != nil {
		t.Fatal(err)
	}
	runID := accepted["run_id"]
	if runID == "" {
		t.Fatal("no run_id in response")
	}

	// Poll the run endpoint until the summary reports completion.
	deadline := time.Now().Add(5 * time.Second)
	var run core.ImportRun
	for {
		w = doRequest(s, httptest.NewRequest("GET", "/api/import/runs/"+runID, nil))
		switch w.Code {
		case http.StatusOK:
			if err := json.NewDecoder(w.Body).Decode(&run); err != nil {
				t.Fatal(err)
			}
		case http.StatusAccepted:
			// Still processing, keep polling.
		default:
			t.Fatalf("get run status = %d body = %s", w.Code, w.Body)
		}
		if run.Status == core.RunCompleted || run.Status == core.RunFailed {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("run did not finish: %+v", run)
		}
		time.Sleep(20 * time.Millisecond)
	}

	if run.Created != 1 || run.Skipped != 1 {
		t.Errorf("run = %+v, want 1 created 1 skipped", run)
	}
	if len(grads.records) != 1 || grads.records[0].Email != "jane@example.com" {
		t.Errorf("persisted records = %+v", grads.records)
	}
}

func TestImportMissingFileField(t *testing.T) {
	s, _ := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.Close()

	req := httptest.NewRequest("POST", "/api/import/graduates", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w := doRequest(s, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d", w.Code)
	}

	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Error || resp.Code == "" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestGetRunNotFound(t *testing.T) {
	s, _ := newTestServer(t)

	w := doRequest(s, httptest.NewRequest("GET", "/api/import/runs/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d", w.Code)
	}

	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Code != "IMP002" {
		t.Errorf("code = %s, want IMP002", resp.Code)
	}
}

func TestTemplateDownload(t *testing.T) {
	s, _ := newTestServer(t)

	w := doRequest(s, httptest.NewRequest("GET", "/api/import/template", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/csv") {
		t.Errorf("content type = %s", ct)
	}

	records, err := csv.NewReader(w.Body).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("template has %d rows, want header plus example", len(records))
	}
	if _, err := core.ValidateHeaders(records[0]); err != nil {
		t.Errorf("template header invalid: %v", err)
	}
}

func TestExportEndpoint(t *testing.T) {
	s, grads := newTestServer(t)

	gpa := 3.5
	grads.records = append(grads.records, &core.Graduate{
		ID: "g1", Name: "Jane Doe", Email: "jane@example.com",
		CourseID: "course-cs", CourseName: "Computer Science",
		GraduationYear: 2024, GPA: &gpa,
		Employment: core.Employment{Status: "employed"},
		CreatedAt:  time.Now(),
	})

	w := doRequest(s, httptest.NewRequest("GET", "/api/export/graduates?fields=name,email,employment_status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "graduates_export_") {
		t.Errorf("content disposition = %s", cd)
	}

	records, err := csv.NewReader(w.Body).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("rows = %d, want header plus one record", len(records))
	}
	if records[0][0] != "Name" || records[1][2] != "Employed" {
		t.Errorf("csv = %v", records)
	}
}

func TestExportBadQuery(t *testing.T) {
	s, _ := newTestServer(t)

	w := doRequest(s, httptest.NewRequest("GET", "/api/export/graduates?gpa_min=high", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d", w.Code)
	}
}

func TestLimiterStatusEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	w := doRequest(s, httptest.NewRequest("GET", "/api/import/limiter", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var status core.ImportLimiterStatus
	if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if status.MaxConcurrent != 2 {
		t.Errorf("status = %+v", status)
	}
}
