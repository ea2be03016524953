package extraction

import (
	"context"
	"strings"

	"github.com/spigell/jd-matcher/internal/oracle"
	"go.uber.org/zap"
)

// Document is the per-call view of the text handed to field strategies.
// Entities are recognized lazily and at most once per oracle.
type Document struct {
	Text  string
	Lower string

	ctx    context.Context
	logger *zap.Logger

	ner          oracle.EntityRecognizer
	parser       oracle.EntityRecognizer
	sharedParser bool

	nerDone    bool
	nerEnts    []oracle.Entity
	parserDone bool
	parserEnts []oracle.Entity
}

// NewDocument wraps text for extraction. A nil parser reuses the NER
// recognizer's entities.
func NewDocument(ctx context.Context, text string, ner, parser oracle.EntityRecognizer, logger *zap.Logger) *Document {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if ner == nil {
		ner = oracle.Nop{}
	}

	return &Document{
		Text:         text,
		Lower:        strings.ToLower(text),
		ctx:          ctx,
		logger:       logger,
		ner:          ner,
		parser:       parser,
		sharedParser: parser == nil,
	}
}

// Entities returns the spans found by the named-entity model.
func (d *Document) Entities() []oracle.Entity {
	if !d.nerDone {
		d.nerDone = true
		d.nerEnts = d.recognize(d.ner, "ner")
	}
	return d.nerEnts
}

// ParsedEntities returns the spans found by the general linguistic parser.
func (d *Document) ParsedEntities() []oracle.Entity {
	if d.sharedParser {
		return d.Entities()
	}
	if !d.parserDone {
		d.parserDone = true
		d.parserEnts = d.recognize(d.parser, "parser")
	}
	return d.parserEnts
}

func (d *Document) recognize(r oracle.EntityRecognizer, name string) []oracle.Entity {
	if strings.TrimSpace(d.Text) == "" {
		return nil
	}
	ents, err := r.Recognize(d.ctx, d.Text)
	if err != nil {
		d.logger.Warn("entity recognition failed, continuing without entities",
			zap.String("oracle", name),
			zap.Error(err),
		)
		return nil
	}
	return ents
}
