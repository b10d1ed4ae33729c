package projections

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/backstage/services/bipagem/config"
	"example.com/backstage/services/bipagem/domain"
)

// fakeElastic answers like a single Elasticsearch node and records indexed documents
type fakeElastic struct {
	mu      sync.Mutex
	indexed map[string]json.RawMessage
	search  string
}

func (f *fakeElastic) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.URL.Path == "/":
		_, _ = io.WriteString(w, `{"version":{"number":"7.17.10","build_flavor":"default"},"tagline":"You Know, for Search"}`)
	case strings.HasSuffix(r.URL.Path, "/_search"):
		_, _ = io.WriteString(w, f.search)
	case strings.Contains(r.URL.Path, "/_doc/"):
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.indexed[r.URL.Path] = body
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"result":"created"}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{}`)
	}
}

func newFakeElastic(t *testing.T) (*fakeElastic, *elasticsearch.Client) {
	t.Helper()
	fake := &fakeElastic{indexed: map[string]json.RawMessage{}}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{server.URL}})
	require.NoError(t, err)
	return fake, client
}

var esConfig = config.ElasticConfig{Prefix: "bipagem"}

func TestReportProjectorIndexesNotes(t *testing.T) {
	fake, client := newFakeElastic(t)
	report := testReport(t)

	projector := NewReportProjector(nil, client, esConfig)
	require.NoError(t, projector.Project(context.Background(), domain.Event{
		Type: domain.ReportFinalizedEv,
		Data: domain.ReportFinalizedEvent{Report: report},
	}))

	path := "/bipagem-report-notes/_doc/r-1-" + report.Notes[0].ID
	require.Contains(t, fake.indexed, path)

	var doc NoteDocument
	require.NoError(t, json.Unmarshal(fake.indexed[path], &doc))
	assert.Equal(t, "000068310", doc.InvoiceNumber)
	assert.Equal(t, "TRANSPORTADORA X", doc.ReportName)
	assert.Equal(t, 14, doc.Volume)
	assert.Equal(t, "finalizado", doc.Status)
}

func TestSearchReportNotes(t *testing.T) {
	fake, client := newFakeElastic(t)
	fake.search = `{"hits":{"hits":[{"_source":{"report_id":"r-1","invoice_number":"000068310","volume":14}}]}}`

	hits, err := NewReportSearch(client, esConfig).SearchReportNotes(context.Background(), "000068310", 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "r-1", hits[0].ReportID)
	assert.Equal(t, 14, hits[0].Volume)
}

func TestNoteSearchQueryLimit(t *testing.T) {
	assert.Equal(t, DefaultSearchLimit, noteSearchQuery("x", 0)["size"])
	assert.Equal(t, DefaultSearchLimit, noteSearchQuery("x", 1000)["size"])
	assert.Equal(t, 5, noteSearchQuery("x", 5)["size"])
}

func TestNewCartDocument(t *testing.T) {
	cart, err := domain.NewCart("c-1", "embalagem_Ana_2025-03-14_A", "Carro 1")
	require.NoError(t, err)
	for _, raw := range []string{
		"COD1|000001|10|RJ08|ACME|SAO PAULO|ROD",
		"COD2|000001|5|RJ08|ACME|SAO PAULO|ROD",
		"COD3|000002|3|RJ08|ACME|SAO PAULO|ROD",
	} {
		line, err := domain.ParsePacking(raw, cart.State.CreatedAt)
		require.NoError(t, err)
		require.NoError(t, cart.AddLine(domain.RoleOperator, line))
	}

	doc := NewCartDocument(cart)
	assert.Equal(t, "c-1", doc.ID)
	assert.Equal(t, 18, doc.Volume)
	assert.Equal(t, 3, doc.LineCount)
	assert.ElementsMatch(t, []string{"000001", "000002"}, doc.Invoices)
	assert.Equal(t, "SAO PAULO", doc.FinalDestination)
}
