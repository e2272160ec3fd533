// Package bundle persists export bundles as indented JSON files, one file per
// crawled group.
package bundle

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/YehoanatnEzra/Whatsapp-Crawler/internal/core/domain"
	"github.com/YehoanatnEzra/Whatsapp-Crawler/internal/crawler"
	"github.com/YehoanatnEzra/Whatsapp-Crawler/internal/observability"
	"github.com/YehoanatnEzra/Whatsapp-Crawler/internal/waid"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644

	dateLayout = "2006-01-02"
)

const (
	fieldPath     = "path"
	fieldMessages = "messages"
)

// Writer persists one bundle per group under a single export directory.
type Writer struct {
	dir    string
	logger zerolog.Logger
	now    func() time.Time
}

var _ crawler.Writer = (*Writer)(nil)

// New creates a writer rooted at dir. The directory is created on first
// write.
func New(dir string, logger zerolog.Logger) *Writer {
	return &Writer{dir: dir, logger: logger, now: time.Now}
}

// Write marshals the bundle and returns the path it was written to. The
// filename joins the sanitized group name with the export date, so repeated
// crawls of the same group on the same day overwrite each other.
func (w *Writer) Write(ctx context.Context, bundle domain.ExportBundle) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(w.dir, dirPerm); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode bundle: %w", err)
	}

	path := filepath.Join(w.dir, w.filename(bundle.Metadata.GroupName))
	if err := os.WriteFile(path, data, filePerm); err != nil {
		return "", fmt.Errorf("write bundle: %w", err)
	}

	observability.BundlesWritten.Inc()
	w.logger.Info().Str(fieldPath, path).Int(fieldMessages, len(bundle.Messages)).Msg("Bundle written")

	return path, nil
}

func (w *Writer) filename(groupName string) string {
	return fmt.Sprintf("%s_%s.json", sanitizeName(groupName), w.now().UTC().Format(dateLayout))
}

// sanitizeName keeps letters and digits from any script and folds runs of
// everything else into single underscores, so RTL group names stay
// recognizable on disk.
func sanitizeName(name string) string {
	stripped := waid.StripDirectionalMarks(name)

	var b strings.Builder

	pendingSep := false

	for _, r := range stripped {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			pendingSep = b.Len() > 0

			continue
		}

		if pendingSep {
			b.WriteRune('_')

			pendingSep = false
		}

		b.WriteRune(r)
	}

	if b.Len() == 0 {
		return "group"
	}

	return b.String()
}
