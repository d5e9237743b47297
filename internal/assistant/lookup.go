package assistant

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"oyz-trade/internal/common/metrics"
	"oyz-trade/internal/models"
	"oyz-trade/internal/recordstore"
)

// RecordStore is the read-only data access the assistant needs.
type RecordStore interface {
	recordstore.Finder
	recordstore.Searcher
}

type MatchKind string

const (
	MatchUnique    MatchKind = "unique"
	MatchAmbiguous MatchKind = "ambiguous"
	MatchEmpty     MatchKind = "empty"
)

// Lookup stages, in the order they run.
const (
	StageContains   = "contains"
	StageFullText   = "full_text"
	DefaultCapLimit = 5
)

type LookupResult struct {
	Kind       MatchKind              `json:"kind"`
	Stage      string                 `json:"stage,omitempty"`
	Candidates []models.CandidateItem `json:"candidates"`
}

// ItemLookup finds items by name: a case-insensitive substring match, then
// a full-text search only when the first stage is empty. At most limit
// candidates are ever returned.
type ItemLookup struct {
	store  RecordStore
	limit  int
	tracer trace.Tracer
}

func NewItemLookup(store RecordStore, limit int) *ItemLookup {
	if limit <= 0 {
		limit = DefaultCapLimit
	}
	return &ItemLookup{
		store:  store,
		limit:  limit,
		tracer: otel.Tracer("oyz-trade/assistant"),
	}
}

func (l *ItemLookup) Limit() int {
	return l.limit
}

func (l *ItemLookup) Find(ctx context.Context, hint string) (LookupResult, error) {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return LookupResult{Kind: MatchEmpty}, nil
	}

	recs, err := l.stage(ctx, StageContains, hint, func(ctx context.Context) ([]recordstore.Record, error) {
		return l.store.FindMany(ctx, models.TableItems,
			recordstore.Filter{recordstore.Contains(models.ItemColumnName, hint)},
			recordstore.Options{
				OrderBy: []recordstore.Order{{Column: models.ItemColumnName}},
				Limit:   l.limit,
			})
	})
	if err != nil {
		return LookupResult{}, err
	}
	if len(recs) > 0 {
		return classify(StageContains, recs, l.limit), nil
	}

	recs, err = l.stage(ctx, StageFullText, hint, func(ctx context.Context) ([]recordstore.Record, error) {
		return l.store.TextSearch(ctx, models.TableItems, models.ItemColumnName, hint, l.limit)
	})
	if err != nil {
		return LookupResult{}, err
	}
	return classify(StageFullText, recs, l.limit), nil
}

func (l *ItemLookup) stage(ctx context.Context, name, hint string, run func(context.Context) ([]recordstore.Record, error)) ([]recordstore.Record, error) {
	ctx, span := l.tracer.Start(ctx, "assistant.lookup."+name,
		trace.WithAttributes(attribute.String("hint", hint)))
	defer span.End()

	recs, err := run(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.AssistantLookupResults.WithLabelValues(name, "error").Inc()
		return nil, err
	}

	span.SetAttributes(attribute.Int("results", len(recs)))
	result := "hit"
	if len(recs) == 0 {
		result = "miss"
	}
	metrics.AssistantLookupResults.WithLabelValues(name, result).Inc()
	return recs, nil
}

func classify(stage string, recs []recordstore.Record, limit int) LookupResult {
	if len(recs) > limit {
		recs = recs[:limit]
	}
	candidates := make([]models.CandidateItem, len(recs))
	for i, rec := range recs {
		candidates[i] = candidateFromRecord(rec)
	}

	switch len(candidates) {
	case 0:
		return LookupResult{Kind: MatchEmpty, Stage: stage}
	case 1:
		return LookupResult{Kind: MatchUnique, Stage: stage, Candidates: candidates}
	default:
		return LookupResult{Kind: MatchAmbiguous, Stage: stage, Candidates: candidates}
	}
}

func candidateFromRecord(rec recordstore.Record) models.CandidateItem {
	return models.CandidateItem{
		ID:       rec.String(models.ColumnID),
		Name:     rec.String(models.ItemColumnName),
		Code:     rec.String(models.ItemColumnCode),
		Stock:    rec.Float(models.ItemColumnStock),
		Location: rec.String(models.ItemColumnLocation),
	}
}
