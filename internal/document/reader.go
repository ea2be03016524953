// Package document turns source files into plain text for extraction.
package document

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	"github.com/cloudwego/eino/components/document/parser"
	"go.uber.org/zap"
)

// Extensions lists the file types accepted from the incoming directory. Legacy
// binary workbooks (.xls) are not listed and stay in the incoming directory.
var Extensions = []string{".pdf", ".docx", ".csv", ".xlsx", ".txt"}

// ErrNoText is returned when a document has content but none of it could be
// read as text.
var ErrNoText = errors.New("no extractable text")

const pdfMIMEType = "application/pdf"

// Supported reports whether path has an accepted extension.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// IsTabular reports whether every row of the file is a separate document.
func IsTabular(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".xlsx":
		return true
	}
	return false
}

// OCR transcribes documents that have no text layer.
type OCR interface {
	Transcribe(ctx context.Context, data []byte, mimeType string) (string, error)
}

// Reader extracts text from documents.
type Reader struct {
	pdf    parser.Parser
	ocr    OCR
	logger *zap.Logger
}

// NewReader builds a Reader with the eino PDF parser. ocr may be nil, in which
// case PDF files without a text layer cannot be read.
func NewReader(ctx context.Context, ocr OCR, logger *zap.Logger) (*Reader, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{ToPages: false})
	if err != nil {
		return nil, fmt.Errorf("creating pdf parser: %w", err)
	}
	return newReader(p, ocr, logger), nil
}

func newReader(p parser.Parser, ocr OCR, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{pdf: p, ocr: ocr, logger: logger}
}

// Read returns the text of the file at path. Failures are logged and yield
// empty text.
func (r *Reader) Read(ctx context.Context, path string) string {
	text, err := r.read(ctx, path)
	if err != nil {
		r.logger.Warn("reading document failed", zap.String("file", path), zap.Error(err))
		return ""
	}
	return text
}

// Texts returns the non-empty documents in a file. Tabular files yield one
// document per data row. Unlike Read it reports failures, so callers can leave
// unreadable files where they are.
func (r *Reader) Texts(ctx context.Context, path string) ([]string, error) {
	var (
		raw []string
		err error
	)
	if IsTabular(path) {
		raw, err = r.rows(path)
	} else {
		var text string
		text, err = r.read(ctx, path)
		raw = []string{text}
	}
	if err != nil {
		return nil, err
	}

	texts := raw[:0]
	for _, t := range raw {
		if strings.TrimSpace(t) != "" {
			texts = append(texts, t)
		}
	}
	return texts, nil
}

func (r *Reader) read(ctx context.Context, path string) (string, error) {
	var (
		text string
		err  error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		text, err = r.readPDF(ctx, path)
	case ".docx":
		text, err = readWord(path)
	case ".csv", ".xlsx":
		var rows []string
		rows, err = r.rows(path)
		text = strings.Join(rows, "\n\n")
	case ".xls":
		err = errors.New("legacy excel workbooks are not supported")
	default:
		text, err = readText(path)
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// Rows returns one text per data row of a tabular file. The header row is
// skipped, the cells of each row are joined with spaces and blank rows are
// dropped. Failures are logged and yield no rows.
func (r *Reader) Rows(path string) []string {
	rows, err := r.rows(path)
	if err != nil {
		r.logger.Warn("reading rows failed", zap.String("file", path), zap.Error(err))
		return nil
	}
	return rows
}

func (r *Reader) rows(path string) ([]string, error) {
	if strings.ToLower(filepath.Ext(path)) == ".xlsx" {
		return readWorkbook(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	var out []string
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}
		if row := joinCells(record); row != "" {
			out = append(out, row)
		}
	}
	return out, nil
}

func joinCells(cells []string) string {
	return strings.TrimSpace(strings.Join(cells, " "))
}

func (r *Reader) readPDF(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	docs, err := r.pdf.Parse(ctx, f, parser.WithURI(path))
	if err != nil {
		return "", fmt.Errorf("parsing pdf: %w", err)
	}

	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		if d == nil {
			continue
		}
		if t := trimLines(d.Content); t != "" {
			parts = append(parts, t)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, "\n"), nil
	}

	if r.ocr == nil {
		return "", fmt.Errorf("%w: pdf has no text layer and ocr is disabled", ErrNoText)
	}
	return r.transcribe(ctx, path, pdfMIMEType)
}

func (r *Reader) transcribe(ctx context.Context, path, mimeType string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	r.logger.Info("no text layer found, running ocr", zap.String("file", path))

	text, err := r.ocr.Transcribe(ctx, data, mimeType)
	if err != nil {
		return "", fmt.Errorf("ocr: %w", err)
	}
	if text = trimLines(text); text == "" {
		return "", fmt.Errorf("%w: ocr found nothing", ErrNoText)
	}
	return text, nil
}

func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return trimLines(strings.ToValidUTF8(string(data), "")), nil
}

// trimLines trims every line and drops blank ones.
func trimLines(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	kept := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}

// RowName names the n-th (1-based) document of a file that holds total
// documents.
func RowName(file string, n, total int) string {
	if total > 1 {
		return fmt.Sprintf("%s_row%d", file, n)
	}
	return file
}
