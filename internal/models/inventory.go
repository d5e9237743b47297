// internal/models/inventory.go
package models

import "time"

// Tables read by the assistant. Writes happen elsewhere.
const (
	TableItems           = "items"
	TableCategories      = "categories"
	TableSuppliers       = "suppliers"
	TableCustomers       = "customers"
	TablePurchaseHistory = "purchase_history"
)

// Column names shared by the record store queries.
const (
	ColumnID   = "id"
	ColumnName = "name"

	ItemColumnName     = "item_name"
	ItemColumnCode     = "item_code"
	ItemColumnStock    = "current_stock"
	ItemColumnLocation = "storage_location"
	ItemColumnCategory = "category_id"

	HistoryColumnItemID    = "item_id"
	HistoryColumnShopName  = "shop_name"
	HistoryColumnDate      = "purchase_date"
	HistoryColumnUnitPrice = "unit_price"
)

// CandidateItem is a lightweight projection of an inventory record surfaced
// as a possible match for a name-based query.
type CandidateItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Code     string  `json:"code,omitempty"`
	Stock    float64 `json:"stock"`
	Location string  `json:"location,omitempty"`
}

// PurchaseHistoryRow is one past purchase of an item.
type PurchaseHistoryRow struct {
	ShopName     string    `json:"shopName"`
	PurchaseDate time.Time `json:"purchaseDate"`
	UnitPrice    float64   `json:"unitPrice"`
}

// EntityKind names what a creation dialog creates.
type EntityKind string

const (
	EntityCategory EntityKind = "category"
	EntityItem     EntityKind = "item"
	EntityPurchase EntityKind = "purchase"
	EntitySale     EntityKind = "sale"
)
