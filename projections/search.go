package projections

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v7"

	"example.com/backstage/services/bipagem/config"
)

// DefaultSearchLimit caps searches that do not ask for a size
const DefaultSearchLimit = 20

// NoteDocument is one finalized report note in the search index
type NoteDocument struct {
	ReportID         string    `json:"report_id"`
	ReportName       string    `json:"report_name"`
	NoteID           string    `json:"note_id"`
	InvoiceNumber    string    `json:"invoice_number"`
	Supplier         string    `json:"supplier"`
	FinalDestination string    `json:"destination"`
	Collaborators    []string  `json:"collaborators"`
	Area             string    `json:"area"`
	Date             string    `json:"date"`
	Shift            string    `json:"shift"`
	Status           string    `json:"status"`
	Volume           int       `json:"volume"`
	FinalizedAt      time.Time `json:"finalized_at"`
}

// ReportSearch runs full-text queries over report notes
type ReportSearch struct {
	client *elasticsearch.Client
	cfg    config.ElasticConfig
}

// NewReportSearch creates a new report search
func NewReportSearch(client *elasticsearch.Client, cfg config.ElasticConfig) *ReportSearch {
	return &ReportSearch{client: client, cfg: cfg}
}

// SearchReportNotes matches query against invoice, supplier, destination,
// transporter and collaborator fields, newest reports first
func (s *ReportSearch) SearchReportNotes(ctx context.Context, query string, limit int) ([]NoteDocument, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(noteSearchQuery(query, limit)); err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(config.FormatIndex(s.cfg, ReportNotesIndex)),
		s.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search report notes: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("error searching report notes: %s", res.String())
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Source NoteDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	docs := make([]NoteDocument, len(result.Hits.Hits))
	for i, hit := range result.Hits.Hits {
		docs[i] = hit.Source
	}
	return docs, nil
}

func noteSearchQuery(query string, limit int) map[string]interface{} {
	if limit <= 0 || limit > 100 {
		limit = DefaultSearchLimit
	}

	return map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"invoice_number^3", "report_name^2", "supplier", "destination", "collaborators"},
			},
		},
		"sort": []interface{}{
			"_score",
			map[string]interface{}{"finalized_at": map[string]string{"order": "desc"}},
		},
	}
}
