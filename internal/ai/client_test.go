package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hargabyte/sir/internal/report"
)

const testKeyEnv = "SIR_TEST_API_KEY"

// testClient builds a client pointed at a stub server.
func testClient(t *testing.T, handler http.HandlerFunc) (*Client, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Setenv(testKeyEnv, "test-key")

	c := New(Config{
		BaseURL:   srv.URL,
		Model:     "test-model",
		APIKeyEnv: testKeyEnv,
		Timeout:   5 * time.Second,
	})
	return c, srv.Close
}

// candidateResponse wraps text in the generateContent response shape.
func candidateResponse(text string) string {
	resp := map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
		},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

func sampleReport() report.Report {
	return report.Report{
		StudentName:         "Ana Beatriz Souza",
		OccurrenceDateTime:  "2025-06-09T10:30",
		OccurrenceLocation:  "Pátio",
		OccurrenceSeverity:  report.SeverityModerada,
		OccurrenceTypes:     report.OccurrenceTypes{Bullying: true},
		DetailedDescription: "Colegas hostilizaram a aluna durante o intervalo.",
	}
}

func TestAnalyzeIncident(t *testing.T) {
	var gotPath, gotKey string
	c, cleanup := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		answer := `{"summary": "Episódio de bullying no pátio.", "suggestedActions": ["Conversar com os envolvidos"], "referrals": ["Orientação educacional"], "severity": "Moderada"}`
		w.Write([]byte(candidateResponse(answer)))
	})
	defer cleanup()

	analysis, err := c.AnalyzeIncident(context.Background(), sampleReport())
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	if gotPath != "/v1beta/models/test-model:generateContent" {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("api key header = %q", gotKey)
	}
	if analysis.Summary == "" || analysis.Severity != "Moderada" {
		t.Errorf("analysis = %+v", analysis)
	}
	if len(analysis.SuggestedActions) != 1 {
		t.Errorf("suggestedActions = %v", analysis.SuggestedActions)
	}
}

func TestAnalyzeStripsCodeFences(t *testing.T) {
	c, cleanup := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		answer := "```json\n{\"summary\": \"ok\", \"severity\": \"Leve\"}\n```"
		w.Write([]byte(candidateResponse(answer)))
	})
	defer cleanup()

	analysis, err := c.AnalyzeIncident(context.Background(), sampleReport())
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if analysis.Summary != "ok" {
		t.Errorf("Summary = %q, want fences stripped", analysis.Summary)
	}
}

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{
			"unauthorized",
			func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusUnauthorized) },
			ErrInvalidCredential,
		},
		{
			"forbidden",
			func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusForbidden) },
			ErrInvalidCredential,
		},
		{
			"server error",
			func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
			ErrUnavailable,
		},
		{
			"no candidates",
			func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"candidates": []}`)) },
			ErrMalformedResponse,
		},
		{
			"non-JSON answer",
			func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(candidateResponse("desculpe, não sei"))) },
			ErrMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, cleanup := testClient(t, tt.handler)
			defer cleanup()

			_, err := c.AnalyzeIncident(context.Background(), sampleReport())
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNoAPIKey(t *testing.T) {
	t.Setenv(testKeyEnv, "")
	c := New(Config{APIKeyEnv: testKeyEnv})

	_, err := c.AnalyzeIncident(context.Background(), sampleReport())
	if !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("err = %v, want ErrNoAPIKey", err)
	}
}

func TestSingleInFlightPerFeature(t *testing.T) {
	release := make(chan struct{})
	c, cleanup := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte(candidateResponse(`{"summary": "ok", "severity": "Leve"}`)))
	})
	defer cleanup()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.AnalyzeIncident(context.Background(), sampleReport())
	}()

	// Wait for the first request to claim the slot.
	for i := 0; ; i++ {
		c.mu.Lock()
		busy := c.inFlight[FeatureAnalysis]
		c.mu.Unlock()
		if busy {
			break
		}
		if i > 100 {
			t.Fatal("first request never claimed the in-flight slot")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if _, err := c.AnalyzeIncident(context.Background(), sampleReport()); !errors.Is(err, ErrBusy) {
		t.Errorf("concurrent analyze = %v, want ErrBusy", err)
	}

	// A different feature is not blocked by the analysis slot.
	doneSearch := make(chan error, 1)
	go func() {
		_, err := c.SearchReports(context.Background(), "ana", nil)
		doneSearch <- err
	}()

	close(release)
	wg.Wait()
	if err := <-doneSearch; errors.Is(err, ErrBusy) {
		t.Error("search should not share the analysis in-flight slot")
	}

	// Slot is released after completion.
	if _, err := c.AnalyzeIncident(context.Background(), sampleReport()); errors.Is(err, ErrBusy) {
		t.Error("in-flight slot not released after completion")
	}
}

func TestSearchReportsFiltersUnknownIDs(t *testing.T) {
	c, cleanup := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(candidateResponse(`["known-1", "hallucinated", "known-2"]`)))
	})
	defer cleanup()

	reports := []report.SavedReport{
		{Report: report.Report{ID: "known-1"}},
		{Report: report.Report{ID: "known-2"}},
	}

	ids, err := c.SearchReports(context.Background(), "quem sofreu bullying?", reports)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(ids) != 2 || ids[0] != "known-1" || ids[1] != "known-2" {
		t.Errorf("ids = %v, want unknown ids dropped", ids)
	}
}

func TestProjectionOmitsSensitiveFields(t *testing.T) {
	sr := report.SavedReport{Report: sampleReport()}
	sr.ID = "r1"
	sr.GuardianPhone = "11999998888"
	sr.GuardianEmail = "m@example.com"
	sr.GuardianAddress = "Rua das Flores, 123, Centro"
	sr.Images = []report.Image{{Name: "foto.png", Data: "data:image/png;base64,xxxx"}}

	data, err := json.Marshal(project([]report.SavedReport{sr}))
	if err != nil {
		t.Fatalf("marshal projection: %v", err)
	}

	for _, secret := range []string{"11999998888", "m@example.com", "Rua das Flores", "base64"} {
		if strings.Contains(string(data), secret) {
			t.Errorf("projection leaks %q", secret)
		}
	}
	if !strings.Contains(string(data), "Ana Beatriz Souza") {
		t.Error("projection should keep the student name")
	}
}

func TestProjectionTruncatesDescription(t *testing.T) {
	sr := report.SavedReport{Report: sampleReport()}
	long := make([]rune, 500)
	for i := range long {
		long[i] = 'ã'
	}
	sr.DetailedDescription = string(long)

	p := project([]report.SavedReport{sr})
	if n := len([]rune(p[0].Description)); n != 280 {
		t.Errorf("description length = %d runes, want 280", n)
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"a": 1}`, `{"a": 1}`},
		{"```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"```\n[1, 2]\n```", `[1, 2]`},
		{"  {\"a\": 1}  ", `{"a": 1}`},
	}

	for _, tt := range tests {
		if got := stripFences(tt.in); got != tt.want {
			t.Errorf("stripFences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
