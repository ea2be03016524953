// Package inbox manages the incoming and processed document directories.
package inbox

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
)

// Inbox moves documents from Source to Processed once they are handled.
type Inbox struct {
	Source    string
	Processed string

	accept func(string) bool
	logger *zap.Logger
}

// New creates both directories when missing. accept filters file names;
// nil accepts everything.
func New(source, processed string, accept func(string) bool, logger *zap.Logger) (*Inbox, error) {
	for _, dir := range []string{source, processed} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating directory %q: %w", dir, err)
		}
	}
	if accept == nil {
		accept = func(string) bool { return true }
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Inbox{Source: source, Processed: processed, accept: accept, logger: logger}, nil
}

// Pending returns the accepted regular files in Source, sorted by name.
// Unsupported files are logged and left in place.
func (b *Inbox) Pending() ([]string, error) {
	entries, err := os.ReadDir(b.Source)
	if err != nil {
		return nil, fmt.Errorf("listing %q: %w", b.Source, err)
	}

	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if !b.accept(e.Name()) {
			b.logger.Info("skipping unsupported file", zap.String("file", e.Name()))
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Path returns the location of name inside Source.
func (b *Inbox) Path(name string) string {
	return filepath.Join(b.Source, name)
}

// Done moves name from Source to Processed, replacing any older copy.
func (b *Inbox) Done(name string) error {
	dst := filepath.Join(b.Processed, name)
	if err := os.Rename(b.Path(name), dst); err != nil {
		return fmt.Errorf("moving %q to %q: %w", name, b.Processed, err)
	}
	b.logger.Debug("moved to processed", zap.String("file", name))
	return nil
}
