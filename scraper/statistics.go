package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/aluiziolira/go-scrape-hys/models"
	"github.com/aluiziolira/go-scrape-hys/parser"
)

// ScrapeStatistics fetches the two aggregate-count endpoints and
// reshapes them into tables: per-country counts (country/n_responses)
// and per-respondent-category counts (category/n_responses, labels
// snake-cased). Neither endpoint paginates.
func (s *Scraper) ScrapeStatistics(ctx context.Context) (countries, categories *models.Table, err error) {
	s.progress("statistics", 1, 2)
	countries, err = s.scrapeCountryStatistics(ctx)
	if err != nil {
		return nil, nil, err
	}

	s.progress("statistics", 2, 2)
	categories, err = s.scrapeCategoryStatistics(ctx)
	if err != nil {
		return nil, nil, err
	}
	return countries, categories, nil
}

func (s *Scraper) scrapeCountryStatistics(ctx context.Context) (*models.Table, error) {
	url := fmt.Sprintf("%sbrpapi/feedBackByCountry?publicationId=%s",
		s.cfg.BaseURL, s.cfg.PublicationID)
	body, err := s.client.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	var payload struct {
		FeedbackCountryList []struct {
			Label string      `json:"label"`
			Total json.Number `json:"total"`
		} `json:"feedbackCountryList"`
	}
	if err := decodeJSON(body, &payload); err != nil {
		return nil, fmt.Errorf("decode country statistics: %w", err)
	}

	rows := make([]models.Record, 0, len(payload.FeedbackCountryList))
	for _, entry := range payload.FeedbackCountryList {
		rows = append(rows, models.Record{
			"country":     entry.Label,
			"n_responses": entry.Total,
		})
	}
	return &models.Table{Columns: []string{"country", "n_responses"}, Rows: rows}, nil
}

func (s *Scraper) scrapeCategoryStatistics(ctx context.Context) (*models.Table, error) {
	url := fmt.Sprintf("%sbrpapi/feedbackByCategorOfRespondent?publicationId=%s",
		s.cfg.BaseURL, s.cfg.PublicationID)
	body, err := s.client.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	var payload map[string]json.Number
	if err := decodeJSON(body, &payload); err != nil {
		return nil, fmt.Errorf("decode category statistics: %w", err)
	}

	// The endpoint returns a flat object map; sort by label so the
	// output is deterministic across runs.
	labels := make([]string, 0, len(payload))
	for label := range payload {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	rows := make([]models.Record, 0, len(labels))
	for _, label := range labels {
		rows = append(rows, models.Record{
			"category":    parser.SnakeCase(label),
			"n_responses": payload[label],
		})
	}
	return &models.Table{Columns: []string{"category", "n_responses"}, Rows: rows}, nil
}
