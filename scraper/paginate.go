package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aluiziolira/go-scrape-hys/models"
)

// pageEnvelope is the wrapper returned by the paginated feedback
// endpoint: page metadata plus the embedded record list.
type pageEnvelope struct {
	Page struct {
		Size       int `json:"size"`
		TotalPages int `json:"totalPages"`
	} `json:"page"`
	Embedded struct {
		Feedback []models.Record `json:"feedback"`
	} `json:"_embedded"`
}

// fetchAllFeedback walks the paginated feedback collection. The first
// fetch omits the size parameter so the server reveals its default page
// size and the total page count; the remaining pages are requested with
// that size explicitly. Records are concatenated in server order. A
// failed page fetch aborts the whole walk.
func (s *Scraper) fetchAllFeedback(ctx context.Context) ([]models.Record, int, error) {
	initial, err := s.fetchFeedbackPage(ctx, 0, 0)
	if err != nil {
		return nil, 0, err
	}

	totalPages := initial.Page.TotalPages
	size := initial.Page.Size
	records := initial.Embedded.Feedback
	fetched := 1
	s.progress("feedback", 1, max(totalPages, 1))

	for page := 1; page < totalPages; page++ {
		current, err := s.fetchFeedbackPage(ctx, page, size)
		if err != nil {
			return nil, fetched, err
		}
		records = append(records, current.Embedded.Feedback...)
		fetched++
		s.progress("feedback", page+1, totalPages)
	}

	return records, fetched, nil
}

// fetchFeedbackPage retrieves one page. size == 0 means "let the server
// decide", used only for the initial probe.
func (s *Scraper) fetchFeedbackPage(ctx context.Context, page, size int) (*pageEnvelope, error) {
	url := fmt.Sprintf("%sbrpapi/allFeedback?publicationId=%s&page=%d",
		s.cfg.BaseURL, s.cfg.PublicationID, page)
	if size > 0 {
		url += fmt.Sprintf("&size=%d", size)
	}

	body, err := s.client.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	var env pageEnvelope
	if err := decodeJSON(body, &env); err != nil {
		return nil, fmt.Errorf("decode feedback page %d: %w", page, err)
	}
	s.Metrics.IncPages()
	return &env, nil
}

// decodeJSON decodes with UseNumber so numeric identifiers keep their
// exact wire form instead of collapsing into float64.
func decodeJSON(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	return dec.Decode(v)
}
