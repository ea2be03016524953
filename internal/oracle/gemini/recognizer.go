package gemini

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/jd-matcher/internal/logger"
	"github.com/spigell/jd-matcher/internal/oracle"
)

//go:embed ner_prompt.md
var nerPrompt string

var knownLabels = map[string]struct{}{
	oracle.LabelOrg:   {},
	oracle.LabelGPE:   {},
	oracle.LabelLoc:   {},
	oracle.LabelFac:   {},
	oracle.LabelMoney: {},
}

type nerResponse struct {
	Entities []oracle.Entity `json:"entities"`
}

// Recognize asks the model for labeled spans of text.
func (c *Client) Recognize(ctx context.Context, text string) ([]oracle.Entity, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	c.logger.Debug("gemini entity request",
		zap.String(logger.FieldModel, c.nerModel),
		zap.Int("text_length", utf8.RuneCountInString(text)),
		zap.String("text_preview", logger.TruncateForLog(text, c.maxLogLen)),
	)

	raw, err := c.generate(ctx, nerPrompt, text)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("gemini entity response",
		zap.String(logger.FieldModel, c.nerModel),
		zap.String("response_preview", logger.TruncateForLog(raw, c.maxLogLen)),
	)

	return parseEntities(raw)
}

func parseEntities(raw string) ([]oracle.Entity, error) {
	var data any
	if err := json.Unmarshal([]byte(extractJSON(raw)), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	// Some responses are a bare list instead of the wrapped object.
	if list, ok := data.([]any); ok {
		data = map[string]any{"entities": list}
	}

	var resp nerResponse
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &resp,
	})
	if err != nil {
		return nil, fmt.Errorf("create decoder: %w", err)
	}
	if err := decoder.Decode(data); err != nil {
		return nil, fmt.Errorf("decode gemini entities: %w", err)
	}

	entities := make([]oracle.Entity, 0, len(resp.Entities))
	for _, e := range resp.Entities {
		e.Text = strings.TrimSpace(e.Text)
		e.Label = strings.ToUpper(strings.TrimSpace(e.Label))
		if e.Text == "" {
			continue
		}
		if _, ok := knownLabels[e.Label]; !ok {
			continue
		}
		entities = append(entities, e)
	}
	return entities, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
