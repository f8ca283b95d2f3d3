package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"

	apperrors "github.com/spanscore/spanscore/internal/pkg/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func writeGzipFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating %s: %v", name, err)
	}
	zw := gzip.NewWriter(f)
	if _, err := zw.Write([]byte(content)); err != nil {
		t.Fatalf("writing gzip: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing gzip: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("closing file: %v", err)
	}
	return path
}

const refJSONL = `{"page_id":"p1","n_excerpts":2,"excerpts":[{"start":2,"end":5,"poem_id":"a"},{"start":10,"end":15,"poem_id":"b"}]}
{"page_id":"p2","n_excerpts":0}

{"page_id":"p3","n_excerpts":1,"excerpts":[{"start":0,"end":3,"poem_id":"c"}]}
`

func TestReadReferencePages(t *testing.T) {
	path := writeFile(t, "ref.jsonl", refJSONL)

	pages, err := ReadReferencePages(path)
	if err != nil {
		t.Fatalf("ReadReferencePages() error = %v", err)
	}

	if len(pages) != 3 {
		t.Fatalf("got %d pages, want 3", len(pages))
	}
	if pages[0].PageID != "p1" || pages[1].PageID != "p2" || pages[2].PageID != "p3" {
		t.Errorf("page ids = %s, %s, %s", pages[0].PageID, pages[1].PageID, pages[2].PageID)
	}
	if pages[0].NumExcerpts != 2 || len(pages[0].Excerpts) != 2 {
		t.Errorf("p1 excerpts = %d (n_excerpts=%d), want 2", len(pages[0].Excerpts), pages[0].NumExcerpts)
	}
	if pages[0].Excerpts[0] != (Excerpt{Start: 2, End: 5, PoemID: "a"}) {
		t.Errorf("p1 excerpt[0] = %+v", pages[0].Excerpts[0])
	}
	if len(pages[1].Excerpts) != 0 {
		t.Errorf("p2 should have no excerpts, got %d", len(pages[1].Excerpts))
	}
}

func TestReadSystemPages(t *testing.T) {
	sysJSONL := `{"page_id":"p1","n_spans":1,"poem_spans":[{"page_start":1,"page_end":6,"ref_id":"a"}]}
{"page_id":"p2","n_spans":0}
`
	path := writeFile(t, "sys.jsonl", sysJSONL)

	pages, err := ReadSystemPages(path)
	if err != nil {
		t.Fatalf("ReadSystemPages() error = %v", err)
	}

	if len(pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(pages))
	}
	if pages[0].PoemSpans[0] != (PoemSpan{PageStart: 1, PageEnd: 6, RefID: "a"}) {
		t.Errorf("p1 span[0] = %+v", pages[0].PoemSpans[0])
	}
}

func TestReadReferencePages_Gzip(t *testing.T) {
	path := writeGzipFile(t, "ref.jsonl.gz", refJSONL)

	pages, err := ReadReferencePages(path)
	if err != nil {
		t.Fatalf("ReadReferencePages() error = %v", err)
	}
	if len(pages) != 3 {
		t.Errorf("got %d pages, want 3", len(pages))
	}
}

func TestReadPages_MalformedLine(t *testing.T) {
	path := writeFile(t, "bad.jsonl", `{"page_id":"p1","n_excerpts":0}
{not json}
`)

	_, err := ReadReferencePages(path)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !apperrors.IsCode(err, apperrors.CodeParse) {
		t.Errorf("error = %v, want code %s", err, apperrors.CodeParse)
	}
}

func TestReadPages_MissingPageID(t *testing.T) {
	path := writeFile(t, "noid.jsonl", `{"n_excerpts":0}
`)

	_, err := ReadReferencePages(path)
	if err == nil {
		t.Fatal("expected parse error for missing page_id")
	}
	if !apperrors.IsCode(err, apperrors.CodeParse) {
		t.Errorf("error = %v, want code %s", err, apperrors.CodeParse)
	}
}

func TestReadPages_MissingFile(t *testing.T) {
	_, err := ReadReferencePages(filepath.Join(t.TempDir(), "nope.jsonl"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Errorf("error = %v, want code %s", err, apperrors.CodeNotFound)
	}
}
