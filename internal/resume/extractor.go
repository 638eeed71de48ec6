package resume

import (
	"context"
	"errors"

	"hiremate-backend/internal/extract"
)

// ErrExtraction wraps any failure to turn an upload into text.
var ErrExtraction = errors.New("resume extraction failed")

// Upload is a résumé file as received from the candidate.
type Upload struct {
	FileName string
	MimeType string
	Data     []byte
}

// Extractor turns an uploaded file into structured résumé fields.
type Extractor interface {
	Extract(ctx context.Context, upload Upload) (Parsed, error)
}

// TextExtractor reads PDF, DOCX or plain text and parses the result.
type TextExtractor struct{}

func (TextExtractor) Extract(ctx context.Context, upload Upload) (Parsed, error) {
	text, err := extract.ExtractTextFromBytes(ctx, upload.Data, upload.MimeType, upload.FileName)
	if err != nil {
		return Parsed{}, errors.Join(ErrExtraction, err)
	}
	return Parse(text), nil
}

var _ Extractor = TextExtractor{}
