package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/aluiziolira/go-scrape-hys/config"
	"github.com/jarcoal/httpmock"
)

func registerStatistics(transport *httpmock.MockTransport, cfg *config.Config, countryBody, categoryBody string) {
	transport.RegisterResponder("GET",
		fmt.Sprintf("%sbrpapi/feedBackByCountry?publicationId=%s", cfg.BaseURL, cfg.PublicationID),
		httpmock.NewStringResponder(http.StatusOK, countryBody))
	transport.RegisterResponder("GET",
		fmt.Sprintf("%sbrpapi/feedbackByCategorOfRespondent?publicationId=%s", cfg.BaseURL, cfg.PublicationID),
		httpmock.NewStringResponder(http.StatusOK, categoryBody))
}

func TestScrapeStatistics(t *testing.T) {
	cfg := testConfig()
	s, transport := newTestScraper(t, cfg)

	registerStatistics(transport, cfg,
		`{"feedbackCountryList":[{"label":"BEL","total":12},{"label":"DEU","total":7}]}`,
		`{"NGO":5,"Business Association":3,"EU Citizen":9}`,
	)

	countries, categories, err := s.ScrapeStatistics(context.Background())
	if err != nil {
		t.Fatalf("ScrapeStatistics: %v", err)
	}

	if got, want := fmt.Sprint(countries.Columns), "[country n_responses]"; got != want {
		t.Errorf("country columns = %v, want %v", got, want)
	}
	if countries.Len() != 2 {
		t.Fatalf("country rows = %d, want 2", countries.Len())
	}
	if countries.Rows[0]["country"] != "BEL" || countries.Rows[0]["n_responses"] != json.Number("12") {
		t.Errorf("first country row = %v", countries.Rows[0])
	}

	if got, want := fmt.Sprint(categories.Columns), "[category n_responses]"; got != want {
		t.Errorf("category columns = %v, want %v", got, want)
	}
	// Labels are snake-cased and rows sorted by source label.
	wantCategories := []struct {
		label string
		count json.Number
	}{
		{"business_association", "3"},
		{"eu_citizen", "9"},
		{"ngo", "5"},
	}
	if categories.Len() != len(wantCategories) {
		t.Fatalf("category rows = %d, want %d", categories.Len(), len(wantCategories))
	}
	for i, want := range wantCategories {
		row := categories.Rows[i]
		if row["category"] != want.label || row["n_responses"] != want.count {
			t.Errorf("category row %d = %v, want %s=%s", i, row, want.label, want.count)
		}
	}
}

func TestScrapeStatisticsCountryFailurePropagates(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRetries = 0
	s, transport := newTestScraper(t, cfg)

	transport.RegisterResponder("GET",
		fmt.Sprintf("%sbrpapi/feedBackByCountry?publicationId=%s", cfg.BaseURL, cfg.PublicationID),
		httpmock.NewStringResponder(http.StatusBadGateway, ""))

	if _, _, err := s.ScrapeStatistics(context.Background()); err == nil {
		t.Fatalf("statistics failure should propagate")
	}
}
