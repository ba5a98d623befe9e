package intent

import (
	"regexp"
	"sort"
	"strings"
)

// KeywordTable maps a normalized key to the word patterns that signal it.
// Patterns are regular-expression fragments; they are matched case-insensitively
// on word boundaries.
type KeywordTable map[string][]string

// ActionKeywords are the verb groups used to locate the primary action.
var ActionKeywords = KeywordTable{
	"create":    {"create", "build", "make", "generate", "develop", "implement", "write"},
	"extract":   {"extract", "scrape", "crawl", "parse", "pull", "fetch", "download", "collect"},
	"transform": {"convert", "transform", "format", "clean", "normalize", "merge", "filter"},
	"analyze":   {"analy[sz]e", "summari[sz]e", "compare", "classify", "evaluate", "count"},
	"store":     {"save", "store", "export", "persist", "upload", "backup"},
	"notify":    {"send", "notify", "email", "post", "publish", "alert"},
	"automate":  {"automate", "schedule", "monitor", "watch", "sync"},
	"search":    {"search", "find", "look ?up", "query", "list"},
}

// CapabilityKeywords are the technical domains a request can touch.
var CapabilityKeywords = KeywordTable{
	"web":        {"web", "website", "webpage", "scrap\\w*", "crawl\\w*", "http", "https", "url", "html", "browser", "page"},
	"file":       {"files?", "csv", "excel", "xlsx", "json", "pdf", "disk", "folder", "director(?:y|ies)", "spreadsheet"},
	"api":        {"api", "apis", "rest", "endpoints?", "webhooks?", "graphql"},
	"database":   {"database", "sql", "db", "postgres\\w*", "mysql", "sqlite", "mongo\\w*", "tables?"},
	"data":       {"data", "dataset", "statistics", "metrics", "prices?", "records"},
	"ai":         {"ai", "llm", "gpt", "claude", "machine learning", "model", "classif\\w*", "sentiment"},
	"email":      {"e-?mails?", "mail", "smtp", "inbox"},
	"image":      {"images?", "photos?", "pictures?", "png", "jpe?g", "screenshots?"},
	"text":       {"text", "documents?", "summar\\w*", "translat\\w*", "articles?"},
	"automation": {"automat\\w*", "schedul\\w*", "cron", "workflow", "monitor\\w*", "daily", "hourly"},
}

// TagKeywords are coarse categorization nouns.
var TagKeywords = KeywordTable{
	"scraping":        {"scrap\\w*", "crawl\\w*"},
	"data-processing": {"extract\\w*", "transform\\w*", "pars\\w*", "convert\\w*", "clean\\w*"},
	"reporting":       {"reports?", "dashboards?", "charts?", "summary", "graphs?"},
	"integration":     {"api", "webhooks?", "integrat\\w*", "sync\\w*"},
	"storage":         {"sav\\w*", "stor\\w*", "csv", "database", "export\\w*"},
	"communication":   {"e-?mails?", "notif\\w*", "messages?", "slack", "sms"},
	"monitoring":      {"monitor\\w*", "watch\\w*", "alerts?"},
}

// StepKeywords infers steps when a request has no explicit markers.
// Order matters only for ties at the same text position.
var StepKeywords = []struct {
	Pattern string
	Step    string
}{
	{"fetch|scrape|crawl|download|collect|pull", "Fetch the source data"},
	{"extract|parse", "Extract the relevant fields"},
	{"convert|transform|clean|normalize|format|filter", "Transform the extracted data"},
	{"analy[sz]e|summari[sz]e|compare|classify|evaluate", "Analyze the results"},
	{"save|store|export|persist|write to|upload", "Save the output"},
	{"send|notify|email|post|publish|alert", "Send the notification"},
	{"schedule|monitor|watch|automate", "Schedule the recurring run"},
}

// GenericSteps is the fallback when no step could be inferred.
var GenericSteps = []string{
	"Gather the required input",
	"Process the input",
	"Produce the output",
}

// FillerPhrases are stripped from requests before matching.
var FillerPhrases = []string{
	"please",
	"i want to",
	"i would like to",
	"i'd like to",
	"i need to",
	"we need to",
	"can you",
	"could you",
	"would you",
	"help me",
	"kindly",
}

// stopWords are ignored when deriving a suggested name.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"is": true, "are": true, "was": true, "were": true, "be": true,
	"this": true, "that": true, "these": true, "those": true, "it": true, "its": true,
	"to": true, "of": true, "in": true, "for": true, "on": true, "with": true,
	"by": true, "at": true, "from": true, "into": true, "as": true,
	"some": true, "all": true, "each": true, "every": true, "any": true,
	"then": true, "them": true, "their": true, "my": true, "our": true, "your": true,
	"me": true, "we": true, "you": true, "i": true,
	"can": true, "will": true, "should": true, "would": true, "could": true,
	"new": true, "that's": true, "which": true, "what": true,
}

// tableMatcher is a keyword table compiled into a single alternation regex.
// Capture group i+1 corresponds to keys[i].
type tableMatcher struct {
	keys []string
	re   *regexp.Regexp
}

// compileTable builds one case-insensitive alternation for the whole table.
func compileTable(table KeywordTable) *tableMatcher {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	groups := make([]string, len(keys))
	for i, k := range keys {
		groups[i] = "(" + strings.Join(nonCapturing(table[k]), "|") + ")"
	}

	pattern := `(?i)\b(?:` + strings.Join(groups, "|") + `)\b`
	return &tableMatcher{keys: keys, re: regexp.MustCompile(pattern)}
}

// nonCapturing rewrites bare "(" in fragments so group numbering stays stable.
func nonCapturing(patterns []string) []string {
	out := make([]string, len(patterns))
	for i, p := range patterns {
		out[i] = strings.ReplaceAll(strings.ReplaceAll(p, "(?:", "\x00"), "(", "(?:")
		out[i] = strings.ReplaceAll(out[i], "\x00", "(?:")
	}
	return out
}

// keyMatch is a table key found in the text at a byte offset.
type keyMatch struct {
	Key    string
	Offset int
}

// matches returns every key that matched, in order of first occurrence.
func (m *tableMatcher) matches(text string) []keyMatch {
	found := make(map[string]bool)
	var out []keyMatch
	for _, loc := range m.re.FindAllStringSubmatchIndex(text, -1) {
		for i, key := range m.keys {
			start := loc[2*(i+1)]
			if start < 0 {
				continue
			}
			if !found[key] {
				found[key] = true
				out = append(out, keyMatch{Key: key, Offset: start})
			}
			break
		}
	}
	return out
}

// first returns the byte offset of the first match, or -1.
func (m *tableMatcher) first(text string) int {
	loc := m.re.FindStringIndex(text)
	if loc == nil {
		return -1
	}
	return loc[0]
}
