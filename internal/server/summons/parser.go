package summons

import (
	"context"
	"strings"

	"github.com/legalize/backoffice/internal/logging"
)

// Extractor pulls raw text out of a stored file.
type Extractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}

type Parser struct {
	extractor Extractor
	log       logging.Logger
}

func NewParser(extractor Extractor, log logging.Logger) *Parser {
	return &Parser{extractor: extractor, log: log.With("module", "summons")}
}

// Parse extracts the text of the file at path and parses it. Extraction
// failures are logged and reported as a record without text.
func (p *Parser) Parse(ctx context.Context, path string) ParsedSummons {
	text, err := p.extractor.ExtractText(ctx, path)
	if err != nil {
		p.log.Warn(ctx, "text extraction failed", "path", path, "error", err)
		text = ""
	}
	res := ParseText(text)
	p.log.Debug(ctx, "summons parsed",
		"path", path,
		"kind", res.Kind.String(),
		"case_number_found", res.CaseNumber != "",
		"required_documents", len(res.RequiredDocuments),
	)
	return res
}

// ParseText runs field extraction on already extracted text.
func ParseText(text string) ParsedSummons {
	res := ParsedSummons{Text: text, Kind: KindUnknown, RequiredDocuments: []string{}}
	if strings.TrimSpace(text) == "" {
		res.Error = ErrorNoText
		return res
	}

	res.CaseNumber = FindCaseNumber(text)
	res.FullName = FindFullName(text)
	res.Kind = Classify(text)
	res.RequiredDocuments = RequiredDocuments(text)

	switch res.Kind {
	case KindDecision:
		res.DecisionDate = findDecisionDate(text)
	case KindFingerprints:
		res.FingerprintsDate = FirstDate(text)
		res.FingerprintsTime = findTime(text)
		res.FingerprintsLocation = findLocation(text)
	case KindUnknown:
		res.FingerprintsDate = FirstDate(text)
	}
	return res
}
