package pipeline

import (
	"fmt"
	"path/filepath"

	"github.com/aluiziolira/go-scrape-hys/models"
)

// Persist lays the run's tables into dir: feedbacks (minus the
// list-valued attachments column, which delimited files cannot carry),
// countries, categories, and, when attachments were handled, the
// id→filename mapping. Nil tables are skipped.
func Persist(dir, format string, result *models.ScrapeResult) error {
	outputs := []struct {
		name  string
		table *models.Table
	}{
		{"feedbacks", dropAttachments(result.Feedbacks)},
		{"countries", result.Countries},
		{"categories", result.Categories},
		{"attachments", result.Attachments},
	}

	for _, out := range outputs {
		if out.table == nil {
			continue
		}
		if err := writeTable(dir, format, out.name, out.table); err != nil {
			return fmt.Errorf("persist %s: %w", out.name, err)
		}
	}
	return nil
}

func writeTable(dir, format, name string, t *models.Table) error {
	w, err := NewWriter(format, filepath.Join(dir, name))
	if err != nil {
		return err
	}

	if err := w.Write(t); err != nil {
		w.Close()
		return err
	}
	if t.Len() > 0 {
		if err := w.Validate(); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}

func dropAttachments(t *models.Table) *models.Table {
	if t == nil {
		return nil
	}
	return t.Drop("attachments")
}
