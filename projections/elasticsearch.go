package projections

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/rs/zerolog/log"

	"example.com/backstage/services/bipagem/config"
)

// Index names, prefixed with elasticsearch.prefix
const (
	CartsIndex       = "carts"
	ReportNotesIndex = "report-notes"
)

var indexMappings = map[string]string{
	CartsIndex: `{
  "mappings": {
    "properties": {
      "id":           {"type": "keyword"},
      "name":         {"type": "text"},
      "session_key":  {"type": "keyword"},
      "status":       {"type": "keyword"},
      "destination":  {"type": "text"},
      "invoices":     {"type": "keyword"},
      "volume":       {"type": "integer"},
      "updated_at":   {"type": "date"}
    }
  }
}`,
	ReportNotesIndex: `{
  "mappings": {
    "properties": {
      "report_id":      {"type": "keyword"},
      "report_name":    {"type": "text"},
      "invoice_number": {"type": "keyword"},
      "supplier":       {"type": "text"},
      "destination":    {"type": "text"},
      "collaborators":  {"type": "text"},
      "area":           {"type": "keyword"},
      "date":           {"type": "keyword"},
      "shift":          {"type": "keyword"},
      "status":         {"type": "keyword"},
      "volume":         {"type": "integer"},
      "finalized_at":   {"type": "date"}
    }
  }
}`,
}

// NewElasticsearchClient creates a new Elasticsearch client
func NewElasticsearchClient(cfg config.ElasticConfig) (*elasticsearch.Client, error) {
	elasticCfg := elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: 10,
		},
	}

	client, err := elasticsearch.NewClient(elasticCfg)
	if err != nil {
		return nil, fmt.Errorf("error creating Elasticsearch client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("error connecting to Elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch returned error: %s", res.String())
	}

	log.Info().Msg("Successfully connected to Elasticsearch")
	return client, nil
}

// EnsureIndices ensures that all required indices exist
func EnsureIndices(ctx context.Context, client *elasticsearch.Client, cfg config.ElasticConfig) error {
	for _, index := range []string{CartsIndex, ReportNotesIndex} {
		formattedIndex := config.FormatIndex(cfg, index)

		exists, err := indexExists(ctx, client, formattedIndex)
		if err != nil {
			return err
		}

		if !exists {
			log.Info().Str("index", formattedIndex).Msg("Creating index")
			if err := createIndex(ctx, client, formattedIndex, indexMappings[index]); err != nil {
				return err
			}
		}
	}

	return nil
}

func indexExists(ctx context.Context, client *elasticsearch.Client, index string) (bool, error) {
	res, err := client.Indices.Exists([]string{index}, client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("error checking if index %s exists: %w", index, err)
	}
	defer res.Body.Close()

	return res.StatusCode == http.StatusOK, nil
}

func createIndex(ctx context.Context, client *elasticsearch.Client, index, mapping string) error {
	res, err := client.Indices.Create(
		index,
		client.Indices.Create.WithBody(strings.NewReader(mapping)),
		client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("error creating index %s: %w", index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error creating index %s: %s", index, res.String())
	}

	return nil
}

// indexDocument writes doc under id, replacing any previous version
func indexDocument(ctx context.Context, client *elasticsearch.Client, index, id string, doc interface{}) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	res, err := client.Index(
		index,
		bytes.NewReader(body),
		client.Index.WithDocumentID(id),
		client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to index document %s in %s: %w", id, index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("failed to index document %s in %s: %s", id, index, res.String())
	}

	return nil
}
