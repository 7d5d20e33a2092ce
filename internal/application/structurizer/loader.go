package structurizer

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/turtacn/FairReview-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/FairReview-Intelligence/pkg/errors"
	"github.com/turtacn/FairReview-Intelligence/pkg/types/review"
)

// Supported reports whether LoadDocument can read path.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".docx", ".txt", ".md":
		return true
	}
	return false
}

// LoadDocument reads a .docx, .txt or .md file. DOCX paragraphs are
// separated by blank lines so that paragraph fallback splitting still works.
func LoadDocument(path string) (review.Document, error) {
	if !Supported(path) {
		return review.Document{}, errors.Newf(errors.ErrCodeDocumentUnsupported, "structurizer: unsupported file type %q", filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return review.Document{}, errors.Wrap(err, errors.ErrCodeDocumentUnreadable, "structurizer: read document")
	}

	text := string(data)
	if strings.EqualFold(filepath.Ext(path), ".docx") {
		text, err = DOCXText(data)
		if err != nil {
			return review.Document{}, err
		}
	}
	return review.Document{Name: filepath.Base(path), Path: path, Text: text}, nil
}

// LoadDirectory loads every supported file directly under dir, sorted by
// name. Unreadable files are logged and skipped.
func LoadDirectory(dir string, logger logging.Logger) ([]review.Document, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDocumentUnreadable, "structurizer: read directory")
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && Supported(e.Name()) && !strings.HasPrefix(e.Name(), "~$") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	docs := make([]review.Document, 0, len(names))
	for _, n := range names {
		d, err := LoadDocument(filepath.Join(dir, n))
		if err != nil {
			logger.Warn("skipping document", logging.String("file", n), logging.Err(err))
			continue
		}
		docs = append(docs, d)
	}
	return docs, nil
}

// LoadPath loads a single document or every document in a directory.
func LoadPath(path string, logger logging.Logger) ([]review.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDocumentUnreadable, "structurizer: stat input").WithDetail(path)
	}
	if info.IsDir() {
		return LoadDirectory(path, logger)
	}
	d, err := LoadDocument(path)
	if err != nil {
		return nil, err
	}
	return []review.Document{d}, nil
}

// DOCXText extracts the body text of a DOCX archive.
func DOCXText(data []byte) (string, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeDocumentUnreadable, "structurizer: docx is not a zip archive")
	}
	var body *zip.File
	for _, f := range r.File {
		if strings.EqualFold(f.Name, "word/document.xml") {
			body = f
			break
		}
	}
	if body == nil {
		return "", errors.New(errors.ErrCodeDocumentUnreadable, "structurizer: docx has no word/document.xml")
	}
	rc, err := body.Open()
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeDocumentUnreadable, "structurizer: open document.xml")
	}
	defer rc.Close()
	return docxXMLText(rc)
}

func docxXMLText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var (
		sb   strings.Builder
		para strings.Builder
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", errors.Wrap(err, errors.ErrCodeDocumentUnreadable, "structurizer: malformed document.xml")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				var text string
				if err := dec.DecodeElement(&text, &t); err == nil {
					para.WriteString(text)
				}
			case "tab":
				para.WriteByte('\t')
			case "br", "cr":
				para.WriteByte('\n')
			}
		case xml.EndElement:
			if t.Name.Local == "p" {
				if strings.TrimSpace(para.String()) != "" {
					sb.WriteString(para.String())
					sb.WriteString("\n\n")
				}
				para.Reset()
			}
		}
	}
	return sb.String(), nil
}

//Personal.AI order the ending
