package export

import (
	"context"
	"fmt"

	"github.com/KevinKickass/OpenSequenceCore/internal/document"
	"go.uber.org/zap"
)

// Exporter builds reports and writes them through a WorkbookOpener.
type Exporter struct {
	open   WorkbookOpener
	logger *zap.Logger
}

func NewExporter(open WorkbookOpener, logger *zap.Logger) *Exporter {
	return &Exporter{
		open:   open,
		logger: logger,
	}
}

// Preview builds the report without writing anything.
func (e *Exporter) Preview(doc *document.Document, labels Labels) *Report {
	rep := Build(doc, labels)
	e.logShadowed(rep)
	return rep
}

// Export writes doc to path. doc must not be mutated concurrently; callers
// holding a shared document pass a snapshot.
func (e *Exporter) Export(ctx context.Context, doc *document.Document, labels Labels, path string) (*Report, error) {
	rep := e.Preview(doc, labels)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	wb, err := e.open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	if err := Write(rep, wb); err != nil {
		e.logger.Error("Table export failed", zap.String("path", path), zap.Error(err))
		return nil, err
	}

	e.logger.Info("Table exported",
		zap.String("path", path),
		zap.Int("rules", doc.Rules.Len()),
		zap.Int("subprograms", doc.Subprograms.Len()),
		zap.Int("last_address", doc.Subprograms.LastAddress()))
	return rep, nil
}

func (e *Exporter) logShadowed(rep *Report) {
	for _, sb := range rep.Shadowed {
		e.logger.Warn("Condition shadowed by an earlier binding for the same column",
			zap.String("sheet", sb.Sheet),
			zap.Int("row", sb.Row),
			zap.Int("col", sb.Col),
			zap.String("target", sb.Target),
			zap.String("frame", string(sb.Frame)),
			zap.Int("index", sb.Index))
	}
}
