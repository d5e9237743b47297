package assistant

import (
	"context"
	"errors"
	"fmt"

	apperrors "oyz-trade/internal/common/errors"
	"oyz-trade/internal/common/logger"
	"oyz-trade/internal/models"
	"oyz-trade/internal/recordstore"
)

const DefaultHistoryLimit = 10

type Options struct {
	CandidateLimit int
	HistoryLimit   int
	Routes         RouteTable
}

// Resolver turns intents into outcomes. It reads from the record store but
// never writes; creation is left to the host's dialogs.
type Resolver struct {
	store        RecordStore
	lookup       *ItemLookup
	routes       RouteTable
	historyLimit int
	logger       logger.Logger
}

func NewResolver(store RecordStore, opts Options, log logger.Logger) *Resolver {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	if opts.Routes == nil {
		opts.Routes = DefaultRoutes()
	}
	return &Resolver{
		store:        store,
		lookup:       NewItemLookup(store, opts.CandidateLimit),
		routes:       opts.Routes,
		historyLimit: opts.HistoryLimit,
		logger:       log,
	}
}

// Resolve produces the outcome for intent, updating pending as the intent
// requires. Lookup failures are reported in the outcome, never returned.
func (r *Resolver) Resolve(ctx context.Context, intent Intent, pending *PendingSelection) Outcome {
	switch intent.Kind {
	case IntentNavigate:
		return r.navigate(intent.Page)
	case IntentCreateCategory:
		return Outcome{
			Kind:     OutcomeNeedsCreation,
			Text:     fmt.Sprintf("Opening the new category form for %q.", intent.Name),
			Creation: &CreationRequest{Entity: models.EntityCategory, Name: intent.Name},
		}
	case IntentCreateItem:
		return r.createItem(ctx, intent, pending)
	case IntentCreatePurchase:
		return r.createWithParty(ctx, models.EntityPurchase, intent.PartyHint, pending)
	case IntentCreateSale:
		return r.createWithParty(ctx, models.EntitySale, intent.PartyHint, pending)
	case IntentStockQuery:
		return r.itemQuery(ctx, intent, PurposeStockOnly, pending)
	case IntentHistoryQuery:
		return r.itemQuery(ctx, intent, PurposeFullHistory, pending)
	case IntentNumericSelection:
		return r.selection(ctx, intent.Index, pending)
	default:
		return r.notAnswered(apperrors.NewUnrecognizedIntentError(intent.Raw), helpText)
	}
}

func (r *Resolver) navigate(page string) Outcome {
	return Outcome{
		Kind:  OutcomeNavigated,
		Text:  fmt.Sprintf("Opening %s.", pageTitle(page)),
		Page:  page,
		Route: r.routes.Route(page),
	}
}

func (r *Resolver) createItem(ctx context.Context, intent Intent, pending *PendingSelection) Outcome {
	req := &CreationRequest{Entity: models.EntityItem, Name: intent.Name}

	rec, found, err := r.findByName(ctx, models.TableCategories, intent.CategoryHint)
	if err != nil {
		return r.lookupFailed(pending, "category", err)
	}
	if !found {
		req.CategoryHint = intent.CategoryHint
		return Outcome{
			Kind: OutcomeNeedsCreation,
			Text: fmt.Sprintf("Category %q doesn't exist yet. You can create it inline from the new item form for %q.",
				intent.CategoryHint, intent.Name),
			Creation: req,
		}
	}

	req.CategoryID = rec.String(models.ColumnID)
	return Outcome{
		Kind:     OutcomeNeedsCreation,
		Text:     fmt.Sprintf("Opening the new item form for %q in category %q.", intent.Name, rec.String(models.ColumnName)),
		Creation: req,
	}
}

func (r *Resolver) createWithParty(ctx context.Context, entity models.EntityKind, hint string, pending *PendingSelection) Outcome {
	table, party := models.TableSuppliers, "supplier"
	if entity == models.EntitySale {
		table, party = models.TableCustomers, "customer"
	}

	rec, found, err := r.findByName(ctx, table, hint)
	if err != nil {
		return r.lookupFailed(pending, party, err)
	}

	req := &CreationRequest{Entity: entity}
	var text string
	switch {
	case found && entity == models.EntitySale:
		req.CustomerID = rec.String(models.ColumnID)
		text = fmt.Sprintf("Opening a new sale to %q.", rec.String(models.ColumnName))
	case found:
		req.SupplierID = rec.String(models.ColumnID)
		text = fmt.Sprintf("Opening a new purchase from %q.", rec.String(models.ColumnName))
	case entity == models.EntitySale:
		req.CustomerHint = hint
		text = fmt.Sprintf("Customer %q was not found. You can add them from the new sale form.", hint)
	default:
		req.SupplierHint = hint
		text = fmt.Sprintf("Supplier %q was not found. You can add them from the new purchase form.", hint)
	}

	return Outcome{Kind: OutcomeNeedsCreation, Text: text, Creation: req}
}

// findByName matches name exactly, ignoring case.
func (r *Resolver) findByName(ctx context.Context, table, name string) (recordstore.Record, bool, error) {
	rec, err := r.store.FindOne(ctx, table, recordstore.Filter{recordstore.EqFold(models.ColumnName, name)})
	if errors.Is(err, recordstore.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

func (r *Resolver) itemQuery(ctx context.Context, intent Intent, purpose Purpose, pending *PendingSelection) Outcome {
	res, err := r.lookup.Find(ctx, intent.ItemHint)
	if err != nil {
		return r.lookupFailed(pending, "item details", err)
	}

	r.logger.Debug("item lookup finished", map[string]interface{}{
		"hint":       intent.ItemHint,
		"stage":      res.Stage,
		"match":      string(res.Kind),
		"candidates": len(res.Candidates),
	})

	switch res.Kind {
	case MatchUnique:
		return r.report(ctx, res.Candidates[0], purpose, pending)
	case MatchAmbiguous:
		pending.Set(res.Candidates, purpose)
		return Outcome{
			Kind:       OutcomeDisambiguate,
			Text:       formatChoices(intent.ItemHint, res.Candidates),
			Candidates: res.Candidates,
			Purpose:    purpose,
		}
	default:
		pending.Clear()
		if intent.Implicit {
			return r.notAnswered(apperrors.NewUnrecognizedIntentError(intent.Raw), helpText)
		}
		return r.notAnswered(apperrors.NewItemNotFoundError(intent.ItemHint),
			fmt.Sprintf("No item found matching %q.", intent.ItemHint))
	}
}

func (r *Resolver) selection(ctx context.Context, index int, pending *PendingSelection) Outcome {
	if pending.Empty() {
		return r.notAnswered(apperrors.NewInvalidSelectionError(index, 0), "There is nothing to choose from right now.")
	}

	chosen, ok := pending.Pick(index)
	if !ok {
		return r.notAnswered(apperrors.NewInvalidSelectionError(index, len(pending.Candidates)),
			fmt.Sprintf("That is not a valid number. Reply with a number between 1 and %d.", len(pending.Candidates)))
	}

	purpose := pending.Purpose
	pending.Clear()
	return r.report(ctx, chosen, purpose, pending)
}

// report answers for a single resolved candidate.
func (r *Resolver) report(ctx context.Context, c models.CandidateItem, purpose Purpose, pending *PendingSelection) Outcome {
	facts := factsFor(c)
	if purpose != PurposeFullHistory {
		return Outcome{Kind: OutcomeAnswered, Text: formatFacts(facts), Stock: facts}
	}

	rows, err := r.history(ctx, c.ID)
	if err != nil {
		return r.lookupFailed(pending, "purchase history", err)
	}
	return Outcome{
		Kind:    OutcomeAnswered,
		Text:    formatHistory(facts, rows),
		Stock:   facts,
		History: rows,
	}
}

func (r *Resolver) history(ctx context.Context, itemID string) ([]models.PurchaseHistoryRow, error) {
	recs, err := r.store.FindMany(ctx, models.TablePurchaseHistory,
		recordstore.Filter{recordstore.Eq(models.HistoryColumnItemID, itemID)},
		recordstore.Options{
			OrderBy: []recordstore.Order{{Column: models.HistoryColumnDate, Desc: true}},
			Limit:   r.historyLimit,
		})
	if err != nil {
		return nil, err
	}

	rows := make([]models.PurchaseHistoryRow, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, models.PurchaseHistoryRow{
			ShopName:     rec.String(models.HistoryColumnShopName),
			PurchaseDate: rec.Time(models.HistoryColumnDate),
			UnitPrice:    rec.Float(models.HistoryColumnUnitPrice),
		})
	}
	return rows, nil
}

func (r *Resolver) lookupFailed(pending *PendingSelection, what string, err error) Outcome {
	pending.Clear()
	e := apperrors.NewLookupFailedError(what, err)
	r.logger.Warn("lookup failed", map[string]interface{}{
		"entity":  what,
		"code":    string(e.Code),
		"details": e.Details,
	})
	return failed(e, e.Message+". Please try again.")
}

// notAnswered reports a turn that could not produce what was asked for.
func (r *Resolver) notAnswered(e *apperrors.StandardError, text string) Outcome {
	r.logger.Debug("turn not answered", map[string]interface{}{
		"code":    string(e.Code),
		"details": e.Details,
	})
	return failed(e, text)
}
