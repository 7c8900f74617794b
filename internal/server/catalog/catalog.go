package catalog

import (
	"context"
	"fmt"

	"github.com/legalize/backoffice/internal/common"
	"github.com/legalize/backoffice/internal/server/models"
)

// RequirementSource loads the DB overrides for a purpose ordered by
// (position, id).
type RequirementSource interface {
	ListByPurpose(ctx context.Context, purpose string) ([]*models.DocumentRequirement, error)
}

// Item is one checklist entry.
type Item struct {
	Code       string `json:"code"`
	Label      string `json:"label"`
	IsRequired bool   `json:"is_required"`
}

type Options struct {
	IncludeOptional bool
	IncludeFallback bool
}

// DefaultOptions includes optional rows and the compiled fallback.
func DefaultOptions() Options {
	return Options{IncludeOptional: true, IncludeFallback: true}
}

type Catalog struct {
	src RequirementSource
}

func New(src RequirementSource) *Catalog {
	return &Catalog{src: src}
}

// CatalogFor merges DB requirements for purpose with the compiled fallback.
// DB rows come first in their stored order; fallback codes absent from the
// DB are appended as required. The result only depends on its inputs.
func (c *Catalog) CatalogFor(ctx context.Context, purpose, lang string, opts Options) ([]Item, error) {
	lang = common.LanguageOrDefault(lang)

	reqs, err := c.src.ListByPurpose(ctx, purpose)
	if err != nil {
		return nil, fmt.Errorf("load requirements for %q: %w", purpose, err)
	}

	items := make([]Item, 0, len(reqs)+8)
	seen := make(map[string]struct{}, len(reqs))
	for _, r := range reqs {
		seen[r.DocumentType] = struct{}{}
		items = append(items, Item{Code: r.DocumentType, Label: ResolveLabel(r, lang), IsRequired: r.IsRequired})
	}

	if opts.IncludeFallback {
		for _, t := range Fallback(purpose, lang) {
			if _, ok := seen[string(t)]; ok {
				continue
			}
			items = append(items, Item{Code: string(t), Label: t.Label(lang), IsRequired: true})
		}
	}

	if !opts.IncludeOptional {
		required := items[:0]
		for _, it := range items {
			if it.IsRequired {
				required = append(required, it)
			}
		}
		items = required
	}
	return items, nil
}

// RequiredFor is CatalogFor without optional rows.
func (c *Catalog) RequiredFor(ctx context.Context, purpose, lang string) ([]Item, error) {
	return c.CatalogFor(ctx, purpose, lang, Options{IncludeOptional: false, IncludeFallback: true})
}

// HasOverrides reports whether any DB requirement exists for purpose.
func (c *Catalog) HasOverrides(ctx context.Context, purpose string) (bool, error) {
	reqs, err := c.src.ListByPurpose(ctx, purpose)
	if err != nil {
		return false, fmt.Errorf("load requirements for %q: %w", purpose, err)
	}
	return len(reqs) > 0, nil
}

// ResolveLabel picks the display label of a requirement:
//  1. the per-language custom name for lang,
//  2. the generic custom name, only for non-standard codes,
//  3. the translated label of a standard code,
//  4. the humanized code.
func ResolveLabel(r *models.DocumentRequirement, lang string) string {
	if name := r.CustomNameFor(common.LanguageOrDefault(lang)); name != "" {
		return name
	}
	standard := IsStandard(r.DocumentType)
	if r.CustomName != "" && !standard {
		return r.CustomName
	}
	if standard {
		return DocumentType(r.DocumentType).Label(lang)
	}
	return Humanize(r.DocumentType)
}
