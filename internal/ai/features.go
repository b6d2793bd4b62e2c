package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hargabyte/sir/internal/report"
)

// IncidentAnalysis is the structured result of a single-incident analysis.
type IncidentAnalysis struct {
	Summary          string   `json:"summary"`
	SuggestedActions []string `json:"suggestedActions"`
	Referrals        []string `json:"referrals"`
	Severity         string   `json:"severity"`
}

// Insight is one trend observation over the report history.
type Insight struct {
	Title      string `json:"title"`
	Suggestion string `json:"suggestion"`
}

// projection is the simplified view of a saved report sent to the service.
// Images, signatures, and guardian contact data stay local.
type projection struct {
	ID          string   `json:"id"`
	Student     string   `json:"student"`
	Date        string   `json:"date"`
	Location    string   `json:"location"`
	Severity    string   `json:"severity"`
	Types       []string `json:"types"`
	Description string   `json:"description"`
	Status      string   `json:"status"`
}

func project(reports []report.SavedReport) []projection {
	out := make([]projection, 0, len(reports))
	for _, sr := range reports {
		desc := sr.DetailedDescription
		if runes := []rune(desc); len(runes) > 280 {
			desc = string(runes[:280])
		}
		out = append(out, projection{
			ID:          sr.ID,
			Student:     sr.StudentName,
			Date:        sr.OccurrenceDateTime,
			Location:    sr.OccurrenceLocation,
			Severity:    string(sr.OccurrenceSeverity),
			Types:       sr.OccurrenceTypes.Labels(),
			Description: desc,
			Status:      string(sr.Status),
		})
	}
	return out
}

// AnalyzeIncident asks the service to summarize one incident and suggest
// actions, referrals, and a severity assessment.
func (c *Client) AnalyzeIncident(ctx context.Context, r report.Report) (*IncidentAnalysis, error) {
	if err := c.acquire(FeatureAnalysis); err != nil {
		return nil, err
	}
	defer c.release(FeatureAnalysis)

	var b strings.Builder
	b.WriteString("Você é um assistente de orientação escolar. Analise a ocorrência abaixo e responda ")
	b.WriteString("somente com JSON no formato {\"summary\": string, \"suggestedActions\": [string], ")
	b.WriteString("\"referrals\": [string], \"severity\": \"Leve\"|\"Moderada\"|\"Grave\"}.\n\n")
	fmt.Fprintf(&b, "Aluno: %s (%s, %s)\n", r.StudentName, r.Grade, r.Shift)
	fmt.Fprintf(&b, "Data e local: %s, %s\n", r.OccurrenceDateTime, r.OccurrenceLocation)
	fmt.Fprintf(&b, "Tipos: %s\n", strings.Join(r.OccurrenceTypes.Labels(), ", "))
	fmt.Fprintf(&b, "Gravidade registrada: %s\n", r.OccurrenceSeverity)
	fmt.Fprintf(&b, "Descrição: %s\n", r.DetailedDescription)
	if r.ImmediateActions != "" {
		fmt.Fprintf(&b, "Providências já tomadas: %s\n", r.ImmediateActions)
	}

	text, err := c.generate(ctx, b.String())
	if err != nil {
		return nil, err
	}

	var analysis IncidentAnalysis
	if err := json.Unmarshal([]byte(stripFences(text)), &analysis); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &analysis, nil
}

// SearchReports asks the service which reports match a natural-language
// query, returning their ids. Ids not present in the supplied reports are
// dropped from the answer.
func (c *Client) SearchReports(ctx context.Context, query string, reports []report.SavedReport) ([]string, error) {
	if err := c.acquire(FeatureSearch); err != nil {
		return nil, err
	}
	defer c.release(FeatureSearch)

	data, err := json.Marshal(project(reports))
	if err != nil {
		return nil, fmt.Errorf("marshal projection: %w", err)
	}

	prompt := fmt.Sprintf("Dada a lista de ocorrências escolares abaixo (JSON), responda somente com um "+
		"array JSON contendo os ids das ocorrências que correspondem à consulta.\n\n"+
		"Consulta: %s\n\nOcorrências: %s", query, data)

	text, err := c.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var ids []string
	if err := json.Unmarshal([]byte(stripFences(text)), &ids); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	known := make(map[string]bool, len(reports))
	for _, sr := range reports {
		known[sr.ID] = true
	}
	matched := ids[:0]
	for _, id := range ids {
		if known[id] {
			matched = append(matched, id)
		}
	}
	return matched, nil
}

// TrendInsights asks the service for trend observations over the report
// history.
func (c *Client) TrendInsights(ctx context.Context, reports []report.SavedReport) ([]Insight, error) {
	if err := c.acquire(FeatureInsights); err != nil {
		return nil, err
	}
	defer c.release(FeatureInsights)

	data, err := json.Marshal(project(reports))
	if err != nil {
		return nil, fmt.Errorf("marshal projection: %w", err)
	}

	prompt := fmt.Sprintf("Analise as ocorrências escolares abaixo (JSON) e aponte tendências relevantes "+
		"para a gestão escolar. Responda somente com um array JSON de objetos "+
		"{\"title\": string, \"suggestion\": string}.\n\nOcorrências: %s", data)

	text, err := c.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var insights []Insight
	if err := json.Unmarshal([]byte(stripFences(text)), &insights); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return insights, nil
}
