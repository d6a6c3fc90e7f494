package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"school-quiz-service/internal/domain"
	"school-quiz-service/internal/grading"
	"school-quiz-service/internal/infra/memory"
)

func newAdminServer(t *testing.T) (*httptest.Server, *memory.ResultRepository) {
	t.Helper()
	results := memory.NewResultRepository()
	service := grading.NewService(results, nil, 50)
	handler := NewAdminHandler(service, results)

	mux := http.NewServeMux()
	handler.Register(mux)
	return httptest.NewServer(mux), results
}

const marksCSV = `index_no,stream,maths,biology,physics,chemistry
1001,maths,80,,70,60
1002,maths,50,,50,50
2001,biology,,66,44,77
`

func TestAdminMarksUploadAndRanges(t *testing.T) {
	server, results := newAdminServer(t)
	defer server.Close()

	// Upload marks; this seeds rows and recomputes z-scores/ranks.
	resp, err := http.Post(server.URL+"/admin/marks?year=2026", "text/csv", strings.NewReader(marksCSV))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload status %d", resp.StatusCode)
	}

	// Apply boundaries to every subject at once.
	body, _ := json.Marshal(applyRangesRequest{
		Year:    2026,
		Subject: domain.SubjectAll,
		Ranges:  domain.GradeRanges{S: 35, C: 50, B: 65, A: 75},
	})
	resp, err = http.Post(server.URL+"/admin/grade-ranges", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("apply ranges: %v", err)
	}
	defer resp.Body.Close()
	var report grading.BatchReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Updated != 3 || report.Failed != 0 {
		t.Fatalf("expected 3 rows regraded, got %+v", report)
	}

	rows, err := results.ListByYear(context.Background(), 2026)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, row := range rows {
		if len(row.Grades) == 0 {
			t.Fatalf("row %s left ungraded", row.IndexNo)
		}
	}
}

func TestAdminListResults(t *testing.T) {
	server, results := newAdminServer(t)
	defer server.Close()

	seed := domain.Result{IndexNo: "1001", Year: 2026, Stream: domain.StreamMaths}
	if err := results.Upsert(context.Background(), seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	resp, err := http.Get(server.URL + "/admin/results?year=2026")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var rows []domain.Result
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 1 || rows[0].IndexNo != "1001" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestAdminRejectsBadRanges(t *testing.T) {
	server, _ := newAdminServer(t)
	defer server.Close()

	body, _ := json.Marshal(applyRangesRequest{
		Year:    2026,
		Subject: domain.SubjectAll,
		Ranges:  domain.GradeRanges{S: 80, C: 50, B: 65, A: 75},
	})
	resp, err := http.Post(server.URL+"/admin/grade-ranges", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed ranges, got %d", resp.StatusCode)
	}
}

func TestAdminRejectsBadCSV(t *testing.T) {
	server, _ := newAdminServer(t)
	defer server.Close()

	resp, err := http.Post(server.URL+"/admin/marks?year=2026", "text/csv",
		strings.NewReader("index_no,stream,maths\n1001,maths,80\n"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing columns, got %d", resp.StatusCode)
	}
}

func TestAdminRequiresYear(t *testing.T) {
	server, _ := newAdminServer(t)
	defer server.Close()

	resp, err := http.Get(server.URL + "/admin/results")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without year, got %d", resp.StatusCode)
	}
}
