package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/legalize/backoffice/internal/common"
	"github.com/legalize/backoffice/internal/server/audit"
	"github.com/legalize/backoffice/internal/server/catalog"
	"github.com/legalize/backoffice/internal/server/models"
	"github.com/legalize/backoffice/internal/server/repositories/repomanager"
)

// RequirementService edits the per-purpose document overrides that replace
// the compiled checklist.
type RequirementService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	audit       audit.Recorder
}

func NewRequirementService(db *sql.DB, m repomanager.RepositoryManager, rec audit.Recorder) *RequirementService {
	return &RequirementService{db: db, repomanager: m, audit: rec}
}

func (s *RequirementService) List(ctx context.Context, purpose string) ([]*models.DocumentRequirement, error) {
	return s.repomanager.Requirements(s.db).ListByPurpose(ctx, purpose)
}

// Save inserts or replaces the override for (purpose, document type).
func (s *RequirementService) Save(ctx context.Context, rc audit.RequestContext, req *models.DocumentRequirement) (*models.DocumentRequirement, error) {
	req.ApplicationPurpose = strings.TrimSpace(req.ApplicationPurpose)
	if req.ApplicationPurpose == "" {
		return nil, fmt.Errorf("application purpose: %w", common.ErrorValidation)
	}
	if !catalog.IsStandard(req.DocumentType) {
		return nil, fmt.Errorf("document type %q: %w", req.DocumentType, common.ErrorValidation)
	}
	saved, err := s.repomanager.Requirements(s.db).Upsert(ctx, req)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, rc, audit.Event{
		Action:   "save",
		Entity:   "document_requirement",
		EntityID: saved.ID,
		Changes:  []string{fmt.Sprintf("%s/%s required=%t", saved.ApplicationPurpose, saved.DocumentType, saved.IsRequired)},
	})
	return saved, nil
}

func (s *RequirementService) SetRequired(ctx context.Context, rc audit.RequestContext, purpose, documentType string, required bool) error {
	if err := s.repomanager.Requirements(s.db).SetRequired(ctx, purpose, documentType, required); err != nil {
		return fmt.Errorf("requirement %s/%s: %w", purpose, documentType, err)
	}
	s.audit.Record(ctx, rc, audit.Event{
		Action:  "set_required",
		Entity:  "document_requirement",
		Changes: []string{fmt.Sprintf("%s/%s required=%t", purpose, documentType, required)},
	})
	return nil
}
