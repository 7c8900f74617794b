package summons

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const ocrLanguages = "pol+eng"

// TesseractOCR shells out to the tesseract binary.
type TesseractOCR struct {
	Binary string
	run    func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func NewTesseractOCR(binary string) *TesseractOCR {
	if binary == "" {
		binary = "tesseract"
	}
	return &TesseractOCR{Binary: binary, run: runCommand}
}

func (t *TesseractOCR) Recognize(ctx context.Context, imagePath string) (string, error) {
	out, err := t.run(ctx, t.Binary, imagePath, "stdout", "-l", ocrLanguages)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

var osdRotate = regexp.MustCompile(`Rotate:\s*(\d+)`)

func (t *TesseractOCR) Orientation(ctx context.Context, imagePath string) (int, error) {
	out, err := t.run(ctx, t.Binary, imagePath, "stdout", "--psm", "0")
	if err != nil {
		return 0, err
	}
	m := osdRotate.FindSubmatch(out)
	if m == nil {
		return 0, nil
	}
	return strconv.Atoi(string(m[1]))
}

// Pdftoppm renders pages with poppler's pdftoppm.
type Pdftoppm struct {
	Binary string
	DPI    int
	run    func(ctx context.Context, name string, args ...string) ([]byte, error)
}

func NewPdftoppm(binary string) *Pdftoppm {
	if binary == "" {
		binary = "pdftoppm"
	}
	return &Pdftoppm{Binary: binary, DPI: 300, run: runCommand}
}

func (p *Pdftoppm) Rasterize(ctx context.Context, pdfPath, outDir string, firstPage, lastPage int) ([]string, error) {
	prefix := filepath.Join(outDir, "page")
	_, err := p.run(ctx, p.Binary,
		"-f", strconv.Itoa(firstPage),
		"-l", strconv.Itoa(lastPage),
		"-r", strconv.Itoa(p.DPI),
		"-png", pdfPath, prefix)
	if err != nil {
		return nil, err
	}
	pages, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, err
	}
	sort.Strings(pages)
	return pages, nil
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	bin, err := exec.LookPath(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, ErrBackendUnavailable)
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s failed: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
