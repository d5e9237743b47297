package assistant

import (
	apperrors "oyz-trade/internal/common/errors"
	"oyz-trade/internal/models"
)

type OutcomeKind string

const (
	OutcomeNavigated     OutcomeKind = "navigated"
	OutcomeAnswered      OutcomeKind = "answered"
	OutcomeDisambiguate  OutcomeKind = "disambiguate"
	OutcomeNeedsCreation OutcomeKind = "needs_creation"
)

// Purpose says what resolving a pending candidate will report.
type Purpose string

const (
	PurposeStockOnly   Purpose = "stock_only"
	PurposeFullHistory Purpose = "full_history"
)

// StockFacts is what a stock answer reports about one item.
type StockFacts struct {
	ItemID   string  `json:"itemId"`
	Name     string  `json:"name"`
	Code     string  `json:"code,omitempty"`
	Stock    float64 `json:"stock"`
	Location string  `json:"location,omitempty"`
}

func factsFor(c models.CandidateItem) *StockFacts {
	return &StockFacts{ItemID: c.ID, Name: c.Name, Code: c.Code, Stock: c.Stock, Location: c.Location}
}

// CreationRequest pre-fills a creation dialog. For each referenced record
// either the resolved id or the raw hint is set, never both.
type CreationRequest struct {
	Entity       models.EntityKind `json:"entity"`
	Name         string            `json:"name,omitempty"`
	CategoryID   string            `json:"categoryId,omitempty"`
	CategoryHint string            `json:"categoryHint,omitempty"`
	SupplierID   string            `json:"supplierId,omitempty"`
	SupplierHint string            `json:"supplierHint,omitempty"`
	CustomerID   string            `json:"customerId,omitempty"`
	CustomerHint string            `json:"customerHint,omitempty"`
}

// Outcome is the result of one turn. Status carries the conversational
// error code (not found, invalid selection, ...) when the turn did not
// produce what was asked for.
type Outcome struct {
	Kind   OutcomeKind         `json:"kind"`
	Status apperrors.ErrorCode `json:"status,omitempty"`
	Text   string              `json:"text"`

	Page  string `json:"page,omitempty"`
	Route string `json:"route,omitempty"`

	Stock   *StockFacts                 `json:"stock,omitempty"`
	History []models.PurchaseHistoryRow `json:"history,omitempty"`

	Candidates []models.CandidateItem `json:"candidates,omitempty"`
	Purpose    Purpose                `json:"purpose,omitempty"`

	Creation *CreationRequest `json:"creation,omitempty"`
}

func failed(e *apperrors.StandardError, text string) Outcome {
	return Outcome{Kind: OutcomeAnswered, Status: e.Code, Text: text}
}
