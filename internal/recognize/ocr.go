package recognize

import (
	"context"
	"errors"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// ErrRecognition means the OCR engine itself failed. It is fatal for the
// request: no partial book info is fabricated from a failed recognition.
var ErrRecognition = errors.New("text recognition failed")

// Engine extracts unstructured text from raw image bytes.
type Engine interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// TesseractEngine runs OCR through the system Tesseract installation.
type TesseractEngine struct {
	language string
}

func NewTesseractEngine(language string) *TesseractEngine {
	if language == "" {
		language = "eng"
	}
	return &TesseractEngine{language: language}
}

func (e *TesseractEngine) Recognize(ctx context.Context, image []byte) (string, error) {
	// gosseract has no context support; at least refuse to start work for a
	// caller that is already gone.
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.language); err != nil {
		return "", fmt.Errorf("set ocr language %q: %w", e.language, err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("load image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	return text, nil
}
