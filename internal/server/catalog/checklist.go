package catalog

import (
	"context"

	"github.com/legalize/backoffice/internal/server/models"
)

// ChecklistEntry is a catalog item joined with the client's uploads.
type ChecklistEntry struct {
	Item
	IsUploaded bool               `json:"is_uploaded"`
	Documents  []*models.Document `json:"-"`
}

// Checklist builds the required-document checklist of a client. Only
// required items are listed; the compiled fallback is used when the
// purpose has no DB overrides.
func (c *Catalog) Checklist(ctx context.Context, client *models.Client, docs []*models.Document) ([]ChecklistEntry, error) {
	hasOverrides, err := c.HasOverrides(ctx, client.ApplicationPurpose)
	if err != nil {
		return nil, err
	}
	items, err := c.CatalogFor(ctx, client.ApplicationPurpose, client.PreferredLanguage(),
		Options{IncludeOptional: false, IncludeFallback: !hasOverrides})
	if err != nil {
		return nil, err
	}

	byType := make(map[string][]*models.Document)
	for _, d := range docs {
		byType[d.DocumentType] = append(byType[d.DocumentType], d)
	}

	out := make([]ChecklistEntry, 0, len(items))
	for _, it := range items {
		uploaded := byType[it.Code]
		out = append(out, ChecklistEntry{Item: it, IsUploaded: len(uploaded) > 0, Documents: uploaded})
	}
	return out, nil
}

// Missing returns the checklist entries without any upload.
func Missing(entries []ChecklistEntry) []Item {
	var out []Item
	for _, e := range entries {
		if !e.IsUploaded {
			out = append(out, e.Item)
		}
	}
	return out
}
