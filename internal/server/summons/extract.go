package summons

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/legalize/backoffice/internal/logging"
)

// ErrBackendUnavailable is returned by OCR and rasterizer backends whose
// binary is not installed.
var ErrBackendUnavailable = errors.New("backend unavailable")

// OCR recognises text in an image file.
type OCR interface {
	Recognize(ctx context.Context, imagePath string) (string, error)
	// Orientation returns the clockwise rotation in degrees that makes the
	// page upright.
	Orientation(ctx context.Context, imagePath string) (int, error)
}

// Rasterizer renders PDF pages to image files.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdfPath, outDir string, firstPage, lastPage int) ([]string, error)
}

// Observer receives OCR durations in seconds.
type Observer interface {
	Observe(float64)
}

const (
	pdfPageLimit   = 2
	minNativeChars = 50
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".tif": true, ".tiff": true, ".bmp": true, ".webp": true,
}

type FileExtractor struct {
	ocr        OCR
	rasterizer Rasterizer
	observer   Observer
	log        logging.Logger

	// seams for tests
	pdfText    func(path string, pages int) (string, error)
	preprocess func(ctx context.Context, ocr OCR, src, dstDir string) (string, error)
}

func NewFileExtractor(ocr OCR, rasterizer Rasterizer, observer Observer, log logging.Logger) *FileExtractor {
	return &FileExtractor{
		ocr:        ocr,
		rasterizer: rasterizer,
		observer:   observer,
		log:        log.With("module", "summons.extract"),
		pdfText:    nativePDFText,
		preprocess: preprocessImage,
	}
}

func (e *FileExtractor) ExtractText(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".pdf":
		return e.extractPDF(ctx, path)
	case imageExtensions[ext]:
		return e.extractImage(ctx, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read error: %w", err)
	}
	return strings.ToValidUTF8(string(data), ""), nil
}

func (e *FileExtractor) extractPDF(ctx context.Context, path string) (string, error) {
	native, err := e.pdfText(path, pdfPageLimit)
	if err != nil {
		e.log.Warn(ctx, "native pdf text failed", "path", path, "error", err)
	}
	if len(strings.TrimSpace(native)) >= minNativeChars {
		return native, nil
	}

	dir, err := os.MkdirTemp("", "summons-pdf-*")
	if err != nil {
		return "", fmt.Errorf("temp dir error: %w", err)
	}
	defer os.RemoveAll(dir)

	pages, err := e.rasterizer.Rasterize(ctx, path, dir, 1, pdfPageLimit)
	if err != nil {
		if errors.Is(err, ErrBackendUnavailable) {
			return e.fallback(ctx, path, native)
		}
		return "", fmt.Errorf("rasterize error: %w", err)
	}

	var parts []string
	for _, page := range pages {
		text, err := e.recognize(ctx, page)
		if err != nil {
			if errors.Is(err, ErrBackendUnavailable) {
				return e.fallback(ctx, path, native)
			}
			return "", err
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n"), nil
}

func (e *FileExtractor) extractImage(ctx context.Context, path string) (string, error) {
	dir, err := os.MkdirTemp("", "summons-img-*")
	if err != nil {
		return "", fmt.Errorf("temp dir error: %w", err)
	}
	defer os.RemoveAll(dir)

	prepared, err := e.preprocess(ctx, e.ocr, path, dir)
	if err != nil {
		e.log.Warn(ctx, "image preprocessing failed, using original", "path", path, "error", err)
		prepared = path
	}
	text, err := e.recognize(ctx, prepared)
	if errors.Is(err, ErrBackendUnavailable) {
		return e.fallback(ctx, path, "")
	}
	return text, err
}

func (e *FileExtractor) recognize(ctx context.Context, imagePath string) (string, error) {
	start := time.Now()
	text, err := e.ocr.Recognize(ctx, imagePath)
	if e.observer != nil && err == nil {
		e.observer.Observe(time.Since(start).Seconds())
	}
	if err != nil && !errors.Is(err, ErrBackendUnavailable) {
		return "", fmt.Errorf("ocr error: %w", err)
	}
	return text, err
}

// fallback decodes the file bytes as text and keeps the result only when it
// looks like a summons. otherwise is returned when nothing usable is found.
func (e *FileExtractor) fallback(ctx context.Context, path, otherwise string) (string, error) {
	e.log.Warn(ctx, "ocr backend unavailable, using naive decode", "path", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return otherwise, nil
	}
	text := naiveDecode(data)
	if text == "" {
		return otherwise, nil
	}
	return text, nil
}

func naiveDecode(data []byte) string {
	text := strings.ToValidUTF8(string(data), "")
	lower := strings.ToLower(text)
	if strings.Contains(lower, "wezwanie") || strings.Contains(lower, "duw") {
		return text
	}
	return ""
}

func nativePDFText(path string, pages int) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var b strings.Builder
	for i := 1; i <= r.NumPage() && i <= pages; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return b.String(), err
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String(), nil
}
