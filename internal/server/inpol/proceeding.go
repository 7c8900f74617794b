package inpol

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/legalize/backoffice/internal/common"
	"github.com/legalize/backoffice/internal/server/models"
)

// Key orders differ between account types; the first non-empty value wins.
var (
	idKeys         = []string{"id", "proceedingId", "caseId", "case_id", "caseNumber", "number"}
	caseNumberKeys = []string{"caseNumber", "number", "proceedingNumber", "case_id", "id"}
	statusKeys     = []string{"status", "state", "decisionStatus", "decision", "phase"}
)

// ParseProceeding coerces one portal object into a Proceeding. The case
// number falls back to the id; a missing id is an error.
func ParseProceeding(raw map[string]any) (models.Proceeding, error) {
	id, ok := coalesce(raw, idKeys)
	if !ok {
		return models.Proceeding{}, fmt.Errorf("proceeding without identifier: %w", common.ErrUnexpectedPayload)
	}
	caseNumber, ok := coalesce(raw, caseNumberKeys)
	if !ok {
		caseNumber = id
	}
	status, _ := coalesce(raw, statusKeys)
	return models.Proceeding{ID: id, CaseNumber: caseNumber, Status: status, Raw: raw}, nil
}

// coalesce returns the first value under keys that is neither missing,
// null nor the empty string, rendered as a string.
func coalesce(src map[string]any, keys []string) (string, bool) {
	for _, k := range keys {
		v, ok := src[k]
		if !ok || v == nil {
			continue
		}
		s := stringify(v)
		if s == "" {
			continue
		}
		return s, true
	}
	return "", false
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
