// Package parser normalizes raw feedback records into tabular form.
package parser

import (
	"strings"

	"github.com/aluiziolira/go-scrape-hys/models"
	"github.com/araddon/dateparse"
)

// Fields whose string values arrive SHOUTY from the API and are
// lowercased for readability. Keys are the source (camelCase) names.
var lowercaseFields = map[string]struct{}{
	"language":          {},
	"publication":       {},
	"userType":          {},
	"companySize":       {},
	"publicationStatus": {},
	"governanceLevel":   {},
	"scope":             {},
}

// NormalizeFeedbacks turns raw API records into a table: presentational
// fields dropped, attachment references expanded to download URLs,
// enum-ish values lowercased, keys snake-cased, the feedback date
// coerced to a time.Time, and an attachments column guaranteed on every
// row. downloadBase is the URL prefix a document id resolves under.
func NormalizeFeedbacks(records []models.Record, downloadBase string) *models.Table {
	rows := make([]models.Record, 0, len(records))
	for _, raw := range records {
		rows = append(rows, normalizeRecord(raw, downloadBase))
	}
	return models.NewTable(rows)
}

func normalizeRecord(raw models.Record, downloadBase string) models.Record {
	renamed := make(models.Record, len(raw))
	for key, value := range raw {
		switch key {
		case "isMyFeedback", "historyEventOccurs", "_links":
			continue
		case "attachments":
			renamed[key] = AttachmentURLs(value, downloadBase)
			continue
		}
		if _, ok := lowercaseFields[key]; ok {
			if s, isString := value.(string); isString {
				value = strings.ToLower(s)
			}
		}
		renamed[SnakeCase(key)] = value
	}

	if v, ok := renamed["date_feedback"]; ok {
		renamed["date_feedback"] = parseDate(v)
	}
	if _, ok := renamed["attachments"]; !ok {
		renamed["attachments"] = []string{}
	}
	return renamed
}

// AttachmentURLs rewrites a raw attachments value, a list of objects
// carrying a documentId, into fully qualified download URLs. Anything
// not shaped that way yields an empty list.
func AttachmentURLs(v any, downloadBase string) []string {
	list, ok := v.([]any)
	if !ok {
		return []string{}
	}
	urls := make([]string, 0, len(list))
	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id, ok := obj["documentId"]
		if !ok {
			continue
		}
		urls = append(urls, downloadBase+models.CellString(id))
	}
	return urls
}

// SnakeCase converts a camelCase or space-separated name to
// lowercase_with_underscores. Applying it twice is a no-op.
func SnakeCase(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range runes {
		if i > 0 && r >= 'A' && r <= 'Z' {
			prev := runes[i-1]
			if (prev >= 'a' && prev <= 'z') || (prev >= '0' && prev <= '9') {
				b.WriteByte('_')
			}
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

// parseDate coerces the feedback timestamp. Malformed values become nil
// rather than aborting the batch.
func parseDate(v any) any {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return nil
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return nil
	}
	return t
}
