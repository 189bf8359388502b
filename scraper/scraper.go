// Package scraper retrieves feedback submissions, aggregate statistics,
// and file attachments from the European Commission's "Have your Say"
// consultation platform, one throttled request at a time.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aluiziolira/go-scrape-hys/config"
	"github.com/aluiziolira/go-scrape-hys/models"
	"github.com/aluiziolira/go-scrape-hys/parser"
	"github.com/aluiziolira/go-scrape-hys/pipeline"
)

// Scraper coordinates the scrape of one publication: paginated feedback
// retrieval, normalization, optional attachment downloads, statistics,
// and persistence of the tabular outputs.
type Scraper struct {
	cfg     *config.Config
	client  *Client
	Metrics *Metrics

	// Progress, when non-nil, is invoked once per completed step of a
	// stage ("feedback", "attachments", "statistics") for interactive
	// display. Nil falls back to debug logging.
	Progress func(stage string, current, total int)

	targetDir string
}

// New builds a scraper for cfg. The target directory is resolved lazily
// on the first operation that needs it.
func New(cfg *config.Config) (*Scraper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	metrics := NewMetrics()
	client, err := NewClient(cfg, metrics)
	if err != nil {
		return nil, err
	}

	return &Scraper{
		cfg:     cfg,
		client:  client,
		Metrics: metrics,
	}, nil
}

// Scrape runs the full sequence: feedback pagination and normalization,
// optional attachment downloads, statistics, and persistence of the
// delimited outputs into the target directory.
func (s *Scraper) Scrape(ctx context.Context) (*models.ScrapeResult, error) {
	start := time.Now()
	if err := s.ensureTargetDir(ctx); err != nil {
		return nil, err
	}

	feedbacks, pages, err := s.ScrapeFeedbacks(ctx)
	if err != nil {
		return nil, err
	}

	result := &models.ScrapeResult{
		Feedbacks: feedbacks,
		StartTime: start,
		PageCount: pages,
	}

	if s.cfg.DownloadAttachments {
		attachments, skipped, err := s.downloadAttachments(ctx, feedbacks)
		if err != nil {
			return nil, err
		}
		result.Attachments = attachments
		result.SkippedAttachments = skipped
	}

	result.Countries, result.Categories, err = s.ScrapeStatistics(ctx)
	if err != nil {
		return nil, err
	}

	if err := pipeline.Persist(s.targetDir, s.cfg.OutputFormat, result); err != nil {
		return nil, err
	}

	result.EndTime = time.Now()
	result.RequestCount = s.client.Requests()
	result.RetryCount = s.client.Retries()
	return result, nil
}

// ScrapeFeedbacks walks every feedback page and normalizes the records
// into a table. The page count of actual fetches is returned alongside.
func (s *Scraper) ScrapeFeedbacks(ctx context.Context) (*models.Table, int, error) {
	records, pages, err := s.fetchAllFeedback(ctx)
	if err != nil {
		return nil, pages, err
	}
	return parser.NormalizeFeedbacks(records, s.cfg.DownloadBaseURL), pages, nil
}

// DownloadAttachments fetches the attachments referenced by a feedback
// table into the target directory, creating it first if needed.
func (s *Scraper) DownloadAttachments(ctx context.Context, feedbacks *models.Table) (*models.Table, int, error) {
	if err := s.ensureTargetDir(ctx); err != nil {
		return nil, 0, err
	}
	return s.downloadAttachments(ctx, feedbacks)
}

// ScrapePublicationName fetches the publication's display name.
func (s *Scraper) ScrapePublicationName(ctx context.Context) (string, error) {
	url := fmt.Sprintf("%sbrpapi/shortTitleByPublicationId?publicationId=%s",
		s.cfg.BaseURL, s.cfg.PublicationID)
	body, err := s.client.Get(ctx, url)
	if err != nil {
		return "", err
	}

	var payload struct {
		ShortTitle string `json:"shortTitle"`
	}
	if err := decodeJSON(body, &payload); err != nil {
		return "", fmt.Errorf("decode publication name: %w", err)
	}
	return payload.ShortTitle, nil
}

// TargetDir returns the resolved output directory, empty until the
// first operation that needed it ran.
func (s *Scraper) TargetDir() string {
	return s.targetDir
}

// ensureTargetDir resolves and creates the output directory. Without an
// explicit override the directory name combines the publication id with
// the snake-cased publication name; the name lookup is best effort and
// any failure falls back silently to the id alone.
func (s *Scraper) ensureTargetDir(ctx context.Context) error {
	if s.targetDir != "" {
		return nil
	}

	dir := s.cfg.TargetDir
	if dir == "" {
		if name, err := s.ScrapePublicationName(ctx); err == nil && name != "" {
			dir = s.cfg.PublicationID + "_" + parser.SnakeCase(name)
		} else {
			dir = s.cfg.PublicationID
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &DirectoryAccessError{Path: dir, Err: err}
	}
	if s.cfg.DownloadAttachments {
		attachmentDir := filepath.Join(dir, "attachments")
		if err := os.MkdirAll(attachmentDir, 0o755); err != nil {
			return &DirectoryAccessError{Path: attachmentDir, Err: err}
		}
	}

	s.targetDir = dir
	return nil
}

func (s *Scraper) progress(stage string, current, total int) {
	if s.Progress != nil {
		s.Progress(stage, current, total)
		return
	}
	slog.Debug("scrape progress",
		slog.String("stage", stage),
		slog.Int("current", current),
		slog.Int("total", total),
	)
}
