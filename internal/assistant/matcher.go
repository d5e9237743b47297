package assistant

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Rule recognises one intent. Rules run in order and the first match wins,
// so a rule may assume every earlier rule declined.
type Rule struct {
	Name  string
	Match func(u Utterance, hasPending bool) (Intent, bool)
}

// Matcher classifies normalized utterances with an ordered rule list.
type Matcher struct {
	rules []Rule
}

func NewMatcher(rules []Rule) *Matcher {
	return &Matcher{rules: rules}
}

func DefaultMatcher() *Matcher {
	return NewMatcher(DefaultRules())
}

// DefaultRules returns the built-in precedence: selection, navigation,
// creation, stock, history, then the catch-all item lookup.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "numeric-selection", Match: matchNumericSelection},
		{Name: "navigate", Match: matchNavigate},
		{Name: "create-category", Match: captureRule(createCategoryPattern, func(m []string) Intent { return CreateCategory(m[1]) })},
		{Name: "create-item", Match: captureRule(createItemPattern, func(m []string) Intent { return CreateItem(m[1], m[2]) })},
		{Name: "create-purchase", Match: captureRule(createPurchasePattern, func(m []string) Intent { return CreatePurchase(m[1]) })},
		{Name: "create-sale", Match: captureRule(createSalePattern, func(m []string) Intent { return CreateSale(m[1]) })},
		{Name: "stock-query", Match: matchStockQuery},
		{Name: "history-query", Match: matchHistoryQuery},
		{Name: "item-lookup", Match: matchFallback},
	}
}

// Rules returns a copy of the rule list, e.g. to splice in a new rule.
func (m *Matcher) Rules() []Rule {
	out := make([]Rule, len(m.rules))
	copy(out, m.rules)
	return out
}

func (m *Matcher) Classify(u Utterance, hasPending bool) Intent {
	if u.Empty() {
		return Unrecognized("")
	}
	for _, rule := range m.rules {
		if intent, ok := rule.Match(u, hasPending); ok {
			return intent
		}
	}
	return Unrecognized(u.Raw)
}

func matchNumericSelection(u Utterance, hasPending bool) (Intent, bool) {
	if !hasPending || !isDigits(u.Text) {
		return Intent{}, false
	}
	// Overflow yields 0, which is out of range.
	index, err := strconv.Atoi(u.Text)
	if err != nil {
		index = 0
	}
	return NumericSelection(index), true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

var navigatePattern = func() *regexp.Regexp {
	alts := make([]string, len(Pages))
	for i, p := range Pages {
		alts[i] = strings.ReplaceAll(regexp.QuoteMeta(p), "-", "[- ]")
	}
	return regexp.MustCompile(`(?i)^(?:go to|open|show me the)\s+(?:the\s+)?(` +
		strings.Join(alts, "|") + `)(?:\s+page)?$`)
}()

func matchNavigate(u Utterance, _ bool) (Intent, bool) {
	m := navigatePattern.FindStringSubmatch(u.Text)
	if m == nil {
		return Intent{}, false
	}
	return Navigate(strings.ReplaceAll(m[1], " ", "-")), true
}

var (
	createCategoryPattern = regexp.MustCompile(`(?i)^(?:new|add|create)\s+category\s+(.+)$`)
	createItemPattern     = regexp.MustCompile(`(?i)^(?:new|add|create)\s+item\s+(.+?)\s+(?:in(?:\s+category)?|category)\s+(.+)$`)
	createPurchasePattern = regexp.MustCompile(`(?i)^(?:new|add|create)\s+purchase\s+(?:from|at)\s+(.+)$`)
	createSalePattern     = regexp.MustCompile(`(?i)^(?:new|add|create)\s+sale\s+(?:to|for)\s+(.+)$`)
)

// captureRule matches against the raw text so captured names keep the
// user's casing.
func captureRule(re *regexp.Regexp, build func(m []string) Intent) func(Utterance, bool) (Intent, bool) {
	return func(u Utterance, _ bool) (Intent, bool) {
		m := re.FindStringSubmatch(u.Raw)
		if m == nil {
			return Intent{}, false
		}
		for i := 1; i < len(m); i++ {
			m[i] = cleanName(m[i])
			if m[i] == "" {
				return Intent{}, false
			}
		}
		return build(m), true
	}
}

func cleanName(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), `"'`))
}

var stockKeywords = []string{"stock", "quantity", "how many", "available", "left"}

// stockScaffolding are words stripped from a stock question to leave the
// item name. Trigger keywords are included so "stock of rice" yields "rice".
var stockScaffolding = map[string]bool{
	"what": true, "whats": true, "what's": true, "is": true, "are": true,
	"the": true, "a": true, "an": true, "of": true, "for": true, "in": true,
	"on": true, "how": true, "many": true, "much": true, "do": true,
	"does": true, "we": true, "i": true, "have": true, "has": true,
	"there": true, "stock": true, "stocks": true, "quantity": true,
	"qty": true, "available": true, "availability": true, "left": true,
	"remaining": true, "check": true, "show": true, "me": true, "tell": true,
	"current": true, "units": true, "unit": true, "please": true,
	"our": true, "my": true,
}

func matchStockQuery(u Utterance, _ bool) (Intent, bool) {
	if !containsAny(u.Text, stockKeywords) {
		return Intent{}, false
	}
	hint := extractStockHint(u.Raw)
	if hint == "" {
		return Intent{}, false
	}
	return StockQuery(hint), true
}

func extractStockHint(raw string) string {
	var kept []string
	for _, word := range strings.Fields(raw) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if word == "" || stockScaffolding[lower.String(word)] {
			continue
		}
		kept = append(kept, word)
	}
	return strings.Join(kept, " ")
}

var historyPattern = regexp.MustCompile(`(?i)(?:purchase history of|past purchases of|history of|supplier of)\s*(.*)$`)

var leadingArticle = regexp.MustCompile(`(?i)^(?:the|a|an)\s+`)

func matchHistoryQuery(u Utterance, _ bool) (Intent, bool) {
	m := historyPattern.FindStringSubmatch(u.Raw)
	if m == nil {
		return Intent{}, false
	}
	hint := cleanName(leadingArticle.ReplaceAllString(strings.TrimSpace(m[1]), ""))
	if hint == "" {
		return Intent{}, false
	}
	return HistoryQuery(hint), true
}

func matchFallback(u Utterance, _ bool) (Intent, bool) {
	intent := HistoryQuery(u.Raw)
	intent.Implicit = true
	return intent, true
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}
