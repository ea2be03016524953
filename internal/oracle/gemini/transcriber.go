package gemini

import (
	"context"
	_ "embed"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/jd-matcher/internal/logger"
)

//go:embed ocr_prompt.md
var ocrPrompt string

// Transcribe returns the text the model reads from a document without a text
// layer, such as a scanned PDF.
func (c *Client) Transcribe(ctx context.Context, data []byte, mimeType string) (string, error) {
	if len(data) == 0 {
		return "", nil
	}

	c.logger.Debug("gemini transcription request",
		zap.String(logger.FieldModel, c.nerModel),
		zap.String("mime_type", mimeType),
		zap.Int("bytes", len(data)),
	)

	contents := []*genai.Content{genai.NewContentFromParts([]*genai.Part{
		genai.NewPartFromBytes(data, mimeType),
		genai.NewPartFromText(ocrPrompt),
	}, genai.RoleUser)}

	text, err := c.generateContent(ctx, contents, &genai.GenerateContentConfig{Temperature: genai.Ptr[float32](0)})
	if err != nil {
		return "", err
	}

	c.logger.Debug("gemini transcription response",
		zap.String(logger.FieldModel, c.nerModel),
		zap.String("response_preview", logger.TruncateForLog(text, c.maxLogLen)),
	)
	return text, nil
}
