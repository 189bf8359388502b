package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aluiziolira/go-scrape-hys/models"
)

// attachmentJob is one attachment to fetch: the owning feedback id, the
// download URL, and the target filename relative to the output dir.
type attachmentJob struct {
	id       string
	url      string
	filename string
}

// expandAttachments flattens the feedback table's attachments column
// into one job per attachment. Within a feedback record, attachments
// keep their original order and are numbered from 1; the first keeps
// the bare `<id>.pdf` name, later ones get an `_<n>` suffix.
func expandAttachments(feedbacks *models.Table) []attachmentJob {
	var jobs []attachmentJob
	for _, row := range feedbacks.Rows {
		urls, ok := row["attachments"].([]string)
		if !ok || len(urls) == 0 {
			continue
		}
		id := models.CellString(row["id"])
		for i, url := range urls {
			name := id + ".pdf"
			if i > 0 {
				name = fmt.Sprintf("%s_%d.pdf", id, i+1)
			}
			jobs = append(jobs, attachmentJob{
				id:       id,
				url:      url,
				filename: "attachments/" + name,
			})
		}
	}
	return jobs
}

// downloadAttachments fetches every attachment referenced by the
// feedback table into the target directory. Files already on disk are
// skipped, which makes re-runs resumable. Each download streams to a
// shared temporary path and is renamed into place afterwards; the
// shared path is safe only because downloads are strictly sequential.
// Returns the id→filename table and the skip count.
func (s *Scraper) downloadAttachments(ctx context.Context, feedbacks *models.Table) (*models.Table, int, error) {
	jobs := expandAttachments(feedbacks)
	tmp := filepath.Join(s.targetDir, ".tmp.pdf")

	skipped := 0
	for i, job := range jobs {
		s.progress("attachments", i+1, len(jobs))

		dest := filepath.Join(s.targetDir, filepath.FromSlash(job.filename))
		if _, err := os.Stat(dest); err == nil {
			skipped++
			s.Metrics.IncAttachment("skipped")
			continue
		}

		if err := s.client.GetFile(ctx, job.url, tmp); err != nil {
			return nil, skipped, fmt.Errorf("download attachment %s: %w", job.filename, err)
		}
		if err := os.Rename(tmp, dest); err != nil {
			return nil, skipped, fmt.Errorf("finalize attachment %s: %w", job.filename, err)
		}
		s.Metrics.IncAttachment("downloaded")
	}

	if skipped > 0 {
		slog.Info("attachments already present were skipped", slog.Int("skipped", skipped))
	}

	rows := make([]models.Record, 0, len(jobs))
	for _, job := range jobs {
		rows = append(rows, models.Record{"id": job.id, "filename": job.filename})
	}
	return &models.Table{Columns: []string{"id", "filename"}, Rows: rows}, skipped, nil
}
