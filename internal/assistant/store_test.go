package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"oyz-trade/internal/models"
	"oyz-trade/internal/recordstore"
)

// memoryStore is an in-memory RecordStore that counts calls.
type memoryStore struct {
	items      []recordstore.Record
	fullText   map[string][]recordstore.Record
	categories []recordstore.Record
	suppliers  []recordstore.Record
	customers  []recordstore.Record
	history    map[string][]recordstore.Record

	failTable string
	err       error

	findOneCalls  int
	findManyCalls int
	textCalls     int
	lastLimit     int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		fullText: map[string][]recordstore.Record{},
		history:  map[string][]recordstore.Record{},
	}
}

func (m *memoryStore) addItem(id, name string, stock float64, location string) *memoryStore {
	m.items = append(m.items, recordstore.Record{
		models.ColumnID:           id,
		models.ItemColumnName:     name,
		models.ItemColumnCode:     strings.ToUpper(strings.ReplaceAll(name, " ", "-")),
		models.ItemColumnStock:    stock,
		models.ItemColumnLocation: location,
	})
	return m
}

func (m *memoryStore) addHistory(itemID, shop string, date time.Time, price float64) *memoryStore {
	m.history[itemID] = append(m.history[itemID], recordstore.Record{
		models.HistoryColumnItemID:    itemID,
		models.HistoryColumnShopName:  shop,
		models.HistoryColumnDate:      date,
		models.HistoryColumnUnitPrice: price,
	})
	return m
}

func (m *memoryStore) totalCalls() int {
	return m.findOneCalls + m.findManyCalls + m.textCalls
}

func (m *memoryStore) fail(table string) error {
	if m.err != nil && (m.failTable == "" || m.failTable == table) {
		return fmt.Errorf("%w: %s: %w", recordstore.ErrQueryFailed, table, m.err)
	}
	return nil
}

func (m *memoryStore) FindOne(_ context.Context, table string, filter recordstore.Filter) (recordstore.Record, error) {
	m.findOneCalls++
	if err := m.fail(table); err != nil {
		return nil, err
	}

	var rows []recordstore.Record
	switch table {
	case models.TableCategories:
		rows = m.categories
	case models.TableSuppliers:
		rows = m.suppliers
	case models.TableCustomers:
		rows = m.customers
	}

	want := fmt.Sprint(filter[0].Value)
	for _, r := range rows {
		if strings.EqualFold(r.String(models.ColumnName), want) {
			return r, nil
		}
	}
	return nil, recordstore.ErrNotFound
}

func (m *memoryStore) FindMany(_ context.Context, table string, filter recordstore.Filter, opts recordstore.Options) ([]recordstore.Record, error) {
	m.findManyCalls++
	m.lastLimit = opts.Limit
	if err := m.fail(table); err != nil {
		return nil, err
	}

	var out []recordstore.Record
	switch table {
	case models.TableItems:
		needle := strings.ToLower(fmt.Sprint(filter[0].Value))
		for _, r := range m.items {
			if strings.Contains(strings.ToLower(r.String(models.ItemColumnName)), needle) {
				out = append(out, r)
			}
		}
	case models.TablePurchaseHistory:
		out = m.history[fmt.Sprint(filter[0].Value)]
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *memoryStore) TextSearch(_ context.Context, table, _ string, query string, limit int) ([]recordstore.Record, error) {
	m.textCalls++
	if err := m.fail(table); err != nil {
		return nil, err
	}
	out := m.fullText[strings.ToLower(query)]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// recordingHost captures side effects.
type recordingHost struct {
	routes    []string
	closed    int
	creations []CreationRequest
}

func (h *recordingHost) Navigate(route string) { h.routes = append(h.routes, route) }
func (h *recordingHost) CloseDialog()          { h.closed++ }
func (h *recordingHost) OpenCreationDialog(req CreationRequest) {
	h.creations = append(h.creations, req)
}
