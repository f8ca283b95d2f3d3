package corpus

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	apperrors "github.com/spanscore/spanscore/internal/pkg/errors"
)

// Scanner buffer sizing: pages hold full-text offsets, so records can get long.
const (
	initialBufSize = 64 * 1024
	maxLineSize    = 16 * 1024 * 1024
)

// ReadReferencePages reads a reference annotation file. Files ending in .gz
// are decompressed transparently.
func ReadReferencePages(path string) ([]ReferencePage, error) {
	return readPages[ReferencePage](path)
}

// ReadSystemPages reads a system annotation file. Files ending in .gz are
// decompressed transparently.
func ReadSystemPages(path string) ([]SystemPage, error) {
	return readPages[SystemPage](path)
}

type pageRecord interface {
	id() string
}

func readPages[T pageRecord](path string) ([]T, error) {
	r, err := open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var pages []T

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, initialBufSize), maxLineSize)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var page T
		if err := json.Unmarshal([]byte(text), &page); err != nil {
			return nil, apperrors.ParseError(path, line, err)
		}
		if page.id() == "" {
			return nil, apperrors.ParseError(path, line, fmt.Errorf("missing page_id"))
		}

		pages = append(pages, page)
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeParse, fmt.Sprintf("reading %s", path), err)
	}

	return pages, nil
}

func open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeNotFound, fmt.Sprintf("opening %s", path), err)
	}

	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}

	zr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, apperrors.Wrap(apperrors.CodeParse, fmt.Sprintf("opening gzip %s", path), err)
	}

	return &gzipReadCloser{zr: zr, f: f}, nil
}

// gzipReadCloser closes both the gzip stream and the underlying file.
type gzipReadCloser struct {
	zr *gzip.Reader
	f  *os.File
}

func (g *gzipReadCloser) Read(p []byte) (int, error) {
	return g.zr.Read(p)
}

func (g *gzipReadCloser) Close() error {
	zerr := g.zr.Close()
	ferr := g.f.Close()
	if zerr != nil {
		return zerr
	}
	return ferr
}
