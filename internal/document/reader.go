package document

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"

	"github.com/docuvault/docintel/internal/common"
)

// Text is the plain-text view of a document.
type Text struct {
	Text      string
	PageCount int
}

// FormField is one fillable field read from a document. Value is whatever the
// source format carries: string for text/radio/dropdown, bool for checkbox.
type FormField struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// Reader is the document-access collaborator. Real format parsing (PDF forms
// etc.) lives behind this interface; the pipeline only depends on the shape.
type Reader interface {
	ExtractText(ctx context.Context, path string) (Text, error)
	ReadFormFields(ctx context.Context, path string) ([]FormField, error)
}

// PlainReader reads documents as UTF-8 text. Form fields, when present, come
// from a JSON sidecar next to the document (<path>.fields.json), which is how
// upstream form extraction hands its output to this subsystem.
type PlainReader struct{}

func NewPlainReader() *PlainReader { return &PlainReader{} }

func (r *PlainReader) ExtractText(_ context.Context, path string) (Text, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Text{}, common.NewAppError("UPSTREAM_IO", "read document", errors.Join(common.ErrUpstreamIO, err))
	}
	text := string(data)
	return Text{Text: text, PageCount: estimatePages(text)}, nil
}

func (r *PlainReader) ReadFormFields(_ context.Context, path string) ([]FormField, error) {
	data, err := os.ReadFile(path + ".fields.json")
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, common.WrapError(err, "read form fields sidecar")
	}
	var fields []FormField
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, common.WrapError(err, "parse form fields sidecar")
	}
	return fields, nil
}

// estimatePages approximates a page count for plain text, one page per ~3000
// characters, minimum one.
func estimatePages(text string) int {
	if strings.TrimSpace(text) == "" {
		return 1
	}
	return 1 + len(text)/3000
}
