package index

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mvbarbosa/judagg/internal/gazette"
)

// DocumentSource supplies gazette documents. Implementations own all
// I/O concerns (timeouts, retries); the indexer only iterates.
type DocumentSource interface {
	// List returns document IDs in acquisition order. That order is
	// the dedup tiebreak, so it must be stable across calls.
	List(ctx context.Context) ([]string, error)
	Load(ctx context.Context, id string) (gazette.Document, error)
}

// DocumentFailure records one skipped document.
type DocumentFailure struct {
	DocumentID string `json:"documento"`
	Reason     string `json:"motivo"`
}

// Summary reports what one indexing run did.
type Summary struct {
	DocumentsListed    int                `json:"documentos_listados"`
	DocumentsProcessed int                `json:"documentos_processados"`
	Failures           []DocumentFailure  `json:"falhas,omitempty"`
	RecordsExtracted   int                `json:"processos_extraidos"`
	RecordsMerged      int                `json:"processos_no_snapshot"`
	Rejections         gazette.Rejections `json:"rejeicoes"`
	Elapsed            time.Duration      `json:"-"`
}

// Indexer drives extraction over a document source and publishes the
// result into a snapshot store. Documents are extracted in parallel,
// but candidates are merged by a single writer in acquisition order so
// first-seen-wins is reproducible across reruns.
type Indexer struct {
	source    DocumentSource
	extractor *gazette.Extractor
	store     API
	workers   int
	logger    *zap.Logger
	tracer    trace.Tracer
	clock     func() time.Time
}

// NewIndexer wires an Indexer. workers <= 0 means 4.
func NewIndexer(source DocumentSource, extractor *gazette.Extractor, store API, workers int, logger *zap.Logger) *Indexer {
	if workers <= 0 {
		workers = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{
		source:    source,
		extractor: extractor,
		store:     store,
		workers:   workers,
		logger:    logger,
		tracer:    otel.Tracer("judagg/index"),
		clock:     time.Now,
	}
}

// Reindex walks every available document and publishes a fresh
// generation. It fails only when the source lists nothing or listing
// itself fails; individual unreadable documents are skipped and
// reported in the summary.
func (ix *Indexer) Reindex(ctx context.Context) (*Snapshot, Summary, error) {
	ctx, span := ix.tracer.Start(ctx, "index.Reindex")
	defer span.End()

	started := ix.clock()
	ids, err := ix.source.List(ctx)
	if err != nil {
		return nil, Summary{}, newError(CodeStorage, "list documents: %v", err)
	}
	if len(ids) == 0 {
		return nil, Summary{}, newError(CodeNoDocuments, "document source is empty; nothing to index")
	}

	records, summary := ix.extractAll(ctx, ids)
	summary.DocumentsListed = len(ids)
	if summary.DocumentsProcessed == 0 {
		return nil, summary, newError(CodeNoDocuments, "all %d documents failed extraction", len(ids))
	}

	snap := &Snapshot{
		Records:     Merge(nil, records),
		SourceDocs:  processedIDs(ids, summary.Failures),
		GeneratedAt: ix.clock(),
	}
	if err := ix.store.Publish(snap); err != nil {
		return nil, summary, err
	}
	summary.RecordsMerged = len(snap.Records)
	summary.Elapsed = ix.clock().Sub(started)
	span.SetAttributes(
		attribute.Int("documents", summary.DocumentsProcessed),
		attribute.Int("records", summary.RecordsMerged),
	)
	ix.logger.Info("reindex complete",
		zap.Int("documents", summary.DocumentsProcessed),
		zap.Int("records", summary.RecordsMerged),
		zap.Int("rejected", summary.Rejections.Total()),
		zap.Duration("elapsed", summary.Elapsed),
	)
	return snap, summary, nil
}

// Refresh extracts only documents the current snapshot has not seen and
// merges their records under first-seen-wins, so identifiers already
// present keep their first-observed fields.
func (ix *Indexer) Refresh(ctx context.Context) (*Snapshot, Summary, error) {
	ctx, span := ix.tracer.Start(ctx, "index.Refresh")
	defer span.End()

	started := ix.clock()
	current, err := ix.store.Current()
	if current == nil {
		return nil, Summary{}, err
	}

	ids, err := ix.source.List(ctx)
	if err != nil {
		return nil, Summary{}, newError(CodeStorage, "list documents: %v", err)
	}
	var fresh []string
	for _, id := range ids {
		if !current.HasDocument(id) {
			fresh = append(fresh, id)
		}
	}
	if len(fresh) == 0 {
		summary := Summary{DocumentsListed: len(ids), RecordsMerged: len(current.Records), Elapsed: ix.clock().Sub(started)}
		return current, summary, nil
	}

	records, summary := ix.extractAll(ctx, fresh)
	summary.DocumentsListed = len(ids)

	snap, err := ix.store.MergeIncremental(records, processedIDs(fresh, summary.Failures))
	if err != nil {
		return nil, summary, err
	}
	summary.RecordsMerged = len(snap.Records)
	summary.Elapsed = ix.clock().Sub(started)
	ix.logger.Info("incremental refresh complete",
		zap.Int("new_documents", summary.DocumentsProcessed),
		zap.Int("records", summary.RecordsMerged),
		zap.Duration("elapsed", summary.Elapsed),
	)
	return snap, summary, nil
}

type docResult struct {
	records []gazette.Record
	rej     gazette.Rejections
	err     error
}

// extractAll processes documents concurrently but assembles results by
// list position, keeping the merge order deterministic regardless of
// worker completion order.
func (ix *Indexer) extractAll(ctx context.Context, ids []string) ([]gazette.Record, Summary) {
	results := make([]docResult, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.workers)
	for i, id := range ids {
		g.Go(func() error {
			doc, err := ix.source.Load(gctx, id)
			if err != nil {
				results[i] = docResult{err: err}
				return nil
			}
			records, rej, err := ix.extractor.ExtractDocument(doc, gazette.Options{})
			results[i] = docResult{records: records, rej: rej, err: err}
			return nil
		})
	}
	_ = g.Wait()

	var (
		all     []gazette.Record
		summary Summary
	)
	for i, res := range results {
		if res.err != nil {
			if !errors.Is(res.err, context.Canceled) {
				ix.logger.Warn("document skipped", zap.String("document", ids[i]), zap.Error(res.err))
			}
			summary.Failures = append(summary.Failures, DocumentFailure{DocumentID: ids[i], Reason: res.err.Error()})
			continue
		}
		summary.DocumentsProcessed++
		summary.RecordsExtracted += len(res.records)
		summary.Rejections = addRejections(summary.Rejections, res.rej)
		all = append(all, res.records...)
	}
	return all, summary
}

func addRejections(a, b gazette.Rejections) gazette.Rejections {
	a.NoTypeMatch += b.NoTypeMatch
	a.Inactive += b.Inactive
	a.NoProperty += b.NoProperty
	a.ComarcaMismatch += b.ComarcaMismatch
	a.ValueOutOfRange += b.ValueOutOfRange
	return a
}

func processedIDs(ids []string, failures []DocumentFailure) []string {
	failed := make(map[string]struct{}, len(failures))
	for _, f := range failures {
		failed[f.DocumentID] = struct{}{}
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, skip := failed[id]; !skip {
			out = append(out, id)
		}
	}
	return out
}
