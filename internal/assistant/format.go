package assistant

import (
	"fmt"
	"strconv"
	"strings"

	"oyz-trade/internal/models"
)

const helpText = `Sorry, I didn't understand that. You can try:
- "go to purchases" or "open inventory"
- "new category Snacks"
- "new item Basmati Rice in Grains"
- "new purchase from Metro Wholesale" or "new sale to Ravi Stores"
- "stock of rice" or "how many sugar left"
- "purchase history of rice" or "supplier of flour"`

func formatQuantity(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatFacts(f *StockFacts) string {
	var b strings.Builder
	b.WriteString(f.Name)
	if f.Code != "" {
		fmt.Fprintf(&b, " (%s)", f.Code)
	}
	fmt.Fprintf(&b, ": %s in stock", formatQuantity(f.Stock))
	if f.Location != "" {
		fmt.Fprintf(&b, ", stored at %s", f.Location)
	}
	b.WriteString(".")
	return b.String()
}

func formatHistory(f *StockFacts, rows []models.PurchaseHistoryRow) string {
	var b strings.Builder
	b.WriteString(formatFacts(f))
	if len(rows) == 0 {
		b.WriteString("\nNo purchase history recorded.")
		return b.String()
	}
	b.WriteString("\nRecent purchases:")
	for i, row := range rows {
		date := "unknown date"
		if !row.PurchaseDate.IsZero() {
			date = row.PurchaseDate.Format("2006-01-02")
		}
		fmt.Fprintf(&b, "\n%d. %s, %s, %s", i+1, row.ShopName, date, strconv.FormatFloat(row.UnitPrice, 'f', 2, 64))
	}
	return b.String()
}

func formatChoices(hint string, candidates []models.CandidateItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I found %d items matching %q. Reply with a number:", len(candidates), hint)
	for i, c := range candidates {
		fmt.Fprintf(&b, "\n%d. %s", i+1, c.Name)
		if c.Code != "" {
			fmt.Fprintf(&b, " (%s)", c.Code)
		}
	}
	return b.String()
}
