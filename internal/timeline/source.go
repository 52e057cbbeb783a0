package timeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "github.com/folken88/casandalee-discord-bot-sub000/internal/errors"
)

// Source supplies the ordered event list. The core only consumes it; fetching
// and source-specific parsing stay outside.
type Source interface {
	// Load returns the full, ordered event list. The source is append-only:
	// successive loads may only grow the list, never reorder or remove
	// historical entries.
	Load(ctx context.Context) ([]Event, error)
}

// FileSource reads events from a JSON or YAML file on disk. The file holds an
// array of raw rows; malformed rows are skipped with a warning, not failed.
type FileSource struct {
	path string
}

// NewFileSource creates a file-backed event source.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Path returns the watched file path.
func (s *FileSource) Path() string {
	return s.path
}

// Load implements Source.
func (s *FileSource) Load(ctx context.Context) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.New(apperrors.ErrCodeEventsNotFound,
				"events file not found: "+s.path, err).
				WithSuggestion("check paths.events_file in the config")
		}
		return nil, apperrors.Wrap(apperrors.ErrCodeEventsUnreadable, err)
	}

	var raws []RawEvent
	switch strings.ToLower(filepath.Ext(s.path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raws)
	default:
		err = json.Unmarshal(data, &raws)
	}
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeEventsMalformed,
			"events file is not a valid row array: "+s.path, err)
	}

	events, skipped := NormalizeAll(raws)
	if skipped > 0 {
		slog.Warn("events_rows_skipped",
			slog.String("path", s.path),
			slog.Int("skipped", skipped),
			slog.Int("kept", len(events)))
	}

	return events, nil
}
