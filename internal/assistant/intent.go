package assistant

// IntentKind tags the variant held by an Intent.
type IntentKind string

const (
	IntentNavigate         IntentKind = "navigate"
	IntentCreateCategory   IntentKind = "create_category"
	IntentCreateItem       IntentKind = "create_item"
	IntentCreatePurchase   IntentKind = "create_purchase"
	IntentCreateSale       IntentKind = "create_sale"
	IntentStockQuery       IntentKind = "stock_query"
	IntentHistoryQuery     IntentKind = "history_query"
	IntentNumericSelection IntentKind = "numeric_selection"
	IntentUnrecognized     IntentKind = "unrecognized"
)

// Intent is the classified purpose of one utterance. Only the fields of
// its Kind are set.
type Intent struct {
	Kind IntentKind `json:"kind"`

	// Navigate
	Page string `json:"page,omitempty"`

	// CreateCategory, CreateItem
	Name         string `json:"name,omitempty"`
	CategoryHint string `json:"categoryHint,omitempty"`

	// CreatePurchase (supplier), CreateSale (customer)
	PartyHint string `json:"partyHint,omitempty"`

	// StockQuery, HistoryQuery. Implicit marks the catch-all lookup of the
	// whole utterance.
	ItemHint string `json:"itemHint,omitempty"`
	Implicit bool   `json:"implicit,omitempty"`

	// NumericSelection, 1-based
	Index int `json:"index,omitempty"`

	Raw string `json:"raw,omitempty"`
}

func Navigate(page string) Intent {
	return Intent{Kind: IntentNavigate, Page: page}
}

func CreateCategory(name string) Intent {
	return Intent{Kind: IntentCreateCategory, Name: name}
}

func CreateItem(name, categoryHint string) Intent {
	return Intent{Kind: IntentCreateItem, Name: name, CategoryHint: categoryHint}
}

func CreatePurchase(supplierHint string) Intent {
	return Intent{Kind: IntentCreatePurchase, PartyHint: supplierHint}
}

func CreateSale(customerHint string) Intent {
	return Intent{Kind: IntentCreateSale, PartyHint: customerHint}
}

func StockQuery(itemHint string) Intent {
	return Intent{Kind: IntentStockQuery, ItemHint: itemHint}
}

func HistoryQuery(itemHint string) Intent {
	return Intent{Kind: IntentHistoryQuery, ItemHint: itemHint}
}

func NumericSelection(index int) Intent {
	return Intent{Kind: IntentNumericSelection, Index: index}
}

func Unrecognized(raw string) Intent {
	return Intent{Kind: IntentUnrecognized, Raw: raw}
}
