package assistant

import "strings"

// Pages that navigation phrases accept.
var Pages = []string{
	"dashboard", "overview", "inventory", "purchases", "sales", "items",
	"categories", "settings", "customers", "suppliers", "barcode-print",
}

// RouteTable maps a page name to the host application's route.
type RouteTable map[string]string

func DefaultRoutes() RouteTable {
	return RouteTable{
		"dashboard":     "/",
		"overview":      "/overview",
		"inventory":     "/inventory",
		"purchases":     "/purchases",
		"sales":         "/sales",
		"items":         "/items",
		"categories":    "/categories",
		"settings":      "/settings",
		"customers":     "/customers",
		"suppliers":     "/suppliers",
		"barcode-print": "/barcode-print",
	}
}

// WithOverrides returns a copy with overrides applied. Unknown pages are
// ignored since the matcher would never produce them.
func (t RouteTable) WithOverrides(overrides map[string]string) RouteTable {
	out := make(RouteTable, len(t))
	for page, route := range t {
		out[page] = route
	}
	for page, route := range overrides {
		page = strings.ToLower(page)
		if _, ok := out[page]; ok && route != "" {
			out[page] = route
		}
	}
	return out
}

// Route falls back to "/<page>" for pages missing from the table.
func (t RouteTable) Route(page string) string {
	if route, ok := t[page]; ok {
		return route
	}
	return "/" + page
}

func pageTitle(page string) string {
	return strings.ReplaceAll(page, "-", " ")
}
