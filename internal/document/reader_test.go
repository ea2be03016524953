package document

import (
	"archive/zip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/cloudwego/eino/components/document/parser"
	"github.com/cloudwego/eino/schema"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeParser struct {
	docs []*schema.Document
	err  error
	got  string
}

func (f *fakeParser) Parse(_ context.Context, r io.Reader, _ ...parser.Option) ([]*schema.Document, error) {
	data, _ := io.ReadAll(r)
	f.got = string(data)
	return f.docs, f.err
}

type fakeOCR struct {
	text  string
	err   error
	calls int
	mime  string
}

func (f *fakeOCR) Transcribe(_ context.Context, _ []byte, mimeType string) (string, error) {
	f.calls++
	f.mime = mimeType
	return f.text, f.err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestReadText(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "jd.txt", "  Job Title: Data Analyst  \r\n\n\n   Location: Pune\n")

	got := newReader(&fakeParser{}, nil, nil).Read(context.Background(), path)
	want := "Job Title: Data Analyst\nLocation: Pune"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestReadPDF(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "jd.pdf", "%PDF-raw")
	p := &fakeParser{docs: []*schema.Document{
		{Content: "  Company: Acme Ltd \n\n Skills: Go "},
		nil,
		{Content: "   "},
	}}

	got := newReader(p, nil, nil).Read(context.Background(), path)
	if got != "Company: Acme Ltd\nSkills: Go" {
		t.Fatalf("unexpected text %q", got)
	}
	if p.got != "%PDF-raw" {
		t.Fatalf("expected parser to receive file contents, got %q", p.got)
	}
}

func TestReadFailuresYieldEmptyText(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pdfPath := writeFile(t, dir, "broken.pdf", "x")
	docxPath := writeFile(t, dir, "cv.docx", "x")
	xlsxPath := writeFile(t, dir, "jobs.xlsx", "x")
	xlsPath := writeFile(t, dir, "jobs.xls", "x")

	tests := []struct {
		name string
		path string
	}{
		{name: "parser error", path: pdfPath},
		{name: "corrupt word document", path: docxPath},
		{name: "corrupt workbook", path: xlsxPath},
		{name: "legacy workbook", path: xlsPath},
		{name: "missing file", path: filepath.Join(dir, "absent.txt")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, observed := observer.New(zapcore.WarnLevel)
			r := newReader(&fakeParser{err: errors.New("bad xref table")}, nil, zap.New(core))

			if got := r.Read(context.Background(), tt.path); got != "" {
				t.Fatalf("expected empty text, got %q", got)
			}
			if observed.FilterMessage("reading document failed").Len() != 1 {
				t.Fatalf("expected a warning to be logged")
			}
		})
	}
}

func TestRows(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "jobs.csv",
		"title,company,location\nData Analyst,Acme Ltd,Pune\n,,\n\"Go Developer\",Globex,\n")

	r := newReader(&fakeParser{}, nil, nil)
	rows := r.Rows(path)
	want := []string{"Data Analyst Acme Ltd Pune", "Go Developer Globex"}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("expected %q, got %q", want, rows)
	}

	text := r.Read(context.Background(), path)
	if text != "Data Analyst Acme Ltd Pune\n\nGo Developer Globex" {
		t.Fatalf("unexpected joined text %q", text)
	}
}

func TestRowsHeaderOnly(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "empty.csv", "title,company\n")
	if rows := newReader(&fakeParser{}, nil, nil).Rows(path); len(rows) != 0 {
		t.Fatalf("expected no rows, got %q", rows)
	}
}

func TestSupported(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"a.PDF":  true,
		"b.txt":  true,
		"c.csv":  true,
		"d.xlsx": true,
		"e.docx": true,
		"f.xls":  false,
		"g.png":  false,
		"README": false,
	}
	for name, want := range tests {
		if got := Supported(name); got != want {
			t.Fatalf("Supported(%q) = %v, want %v", name, got, want)
		}
	}
	if !IsTabular("jobs.CSV") || !IsTabular("jobs.xlsx") || IsTabular("jobs.txt") {
		t.Fatalf("unexpected tabular detection")
	}
}

func TestRowName(t *testing.T) {
	t.Parallel()

	if got := RowName("jobs.csv", 2, 3); got != "jobs.csv_row2" {
		t.Fatalf("unexpected name %q", got)
	}
	if got := RowName("jd.pdf", 1, 1); got != "jd.pdf" {
		t.Fatalf("unexpected name %q", got)
	}
}

func writeWorkbook(t *testing.T, path string, rows [][]any) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("set row %d: %v", i+1, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
}

func writeWord(t *testing.T, path, body string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create(wordBody)
	if err != nil {
		t.Fatalf("zip entry: %v", err)
	}
	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body + `</w:body></w:document>`
	if _, err := io.WriteString(w, doc); err != nil {
		t.Fatalf("write body: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
}

func TestReadWord(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "jd.docx")
	writeWord(t, path,
		`<w:p><w:r><w:t>Job Title: </w:t></w:r><w:r><w:t>Data Analyst</w:t></w:r></w:p>`+
			`<w:p><w:r><w:t xml:space="preserve">   </w:t></w:r></w:p>`+
			`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>Location:</w:t><w:tab/><w:t>Pune</w:t></w:r></w:p></w:tc></w:tr></w:tbl>`+
			`<w:p><w:r><w:t>Skills: Python</w:t><w:br/><w:t>SQL</w:t></w:r></w:p>`)

	got := newReader(&fakeParser{}, nil, nil).Read(context.Background(), path)
	want := "Job Title: Data Analyst\nLocation:\tPune\nSkills: Python SQL"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestReadWordWithoutBody(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	zw := zip.NewWriter(f)
	if _, err := zw.Create("[Content_Types].xml"); err != nil {
		t.Fatalf("zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	_ = f.Close()

	if _, err := newReader(&fakeParser{}, nil, nil).Texts(context.Background(), path); err == nil {
		t.Fatalf("expected an error for a document without a body")
	}
}

func TestWorkbookRows(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "jobs.xlsx")
	writeWorkbook(t, path, [][]any{
		{"title", "company", "location"},
		{"Data Analyst", "Acme Ltd", "Pune"},
		{"", "", ""},
		{"Go Developer", "Globex"},
	})

	r := newReader(&fakeParser{}, nil, nil)
	want := []string{"Data Analyst Acme Ltd Pune", "Go Developer Globex"}
	if rows := r.Rows(path); !reflect.DeepEqual(rows, want) {
		t.Fatalf("expected %q, got %q", want, rows)
	}

	texts, err := r.Texts(context.Background(), path)
	if err != nil {
		t.Fatalf("texts: %v", err)
	}
	if !reflect.DeepEqual(texts, want) {
		t.Fatalf("expected %q, got %q", want, texts)
	}
}

func TestReadPDFFallsBackToOCR(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "scan.pdf", "%PDF-scan")
	ocr := &fakeOCR{text: "  Job Title: Welder \n\n Location: Pune "}
	r := newReader(&fakeParser{docs: []*schema.Document{{Content: "  "}}}, ocr, nil)

	got := r.Read(context.Background(), path)
	if got != "Job Title: Welder\nLocation: Pune" {
		t.Fatalf("unexpected text %q", got)
	}
	if ocr.calls != 1 || ocr.mime != "application/pdf" {
		t.Fatalf("expected one pdf transcription, got %d calls with %q", ocr.calls, ocr.mime)
	}
}

func TestReadPDFWithTextSkipsOCR(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "jd.pdf", "%PDF-text")
	ocr := &fakeOCR{text: "unused"}
	r := newReader(&fakeParser{docs: []*schema.Document{{Content: "Skills: Go"}}}, ocr, nil)

	if got := r.Read(context.Background(), path); got != "Skills: Go" {
		t.Fatalf("unexpected text %q", got)
	}
	if ocr.calls != 0 {
		t.Fatalf("expected no transcription, got %d", ocr.calls)
	}
}

func TestTextsReportsUnreadablePDF(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "scan.pdf", "%PDF-scan")
	empty := func() *fakeParser { return &fakeParser{docs: []*schema.Document{{Content: ""}}} }

	tests := []struct {
		name string
		ocr  OCR
	}{
		{name: "ocr disabled"},
		{name: "ocr finds nothing", ocr: &fakeOCR{text: " \n "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := newReader(empty(), tt.ocr, nil).Texts(context.Background(), path)
			if !errors.Is(err, ErrNoText) {
				t.Fatalf("expected ErrNoText, got %v", err)
			}
		})
	}

	failing := &fakeOCR{err: errors.New("quota exceeded")}
	if _, err := newReader(empty(), failing, nil).Texts(context.Background(), path); err == nil {
		t.Fatalf("expected the ocr error to be returned")
	}
}

func TestTextsDropsBlankDocuments(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "blank.txt", "\n   \n")
	texts, err := newReader(&fakeParser{}, nil, nil).Texts(context.Background(), path)
	if err != nil {
		t.Fatalf("texts: %v", err)
	}
	if len(texts) != 0 {
		t.Fatalf("expected no documents, got %q", texts)
	}
}
