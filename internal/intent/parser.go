// Package intent turns free-text requests into structured intents.
//
// Parsing is pure and never fails: poorly formed input yields generic
// fallbacks and a low confidence rather than an error. Callers decide what to
// do with low-confidence results, typically by showing SuggestRefinements.
package intent

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/ShayCichocki/skillflow/pkg/models"
)

var (
	actionMatcher     = compileTable(ActionKeywords)
	capabilityMatcher = compileTable(CapabilityKeywords)
	tagMatcher        = compileTable(TagKeywords)

	fillerRe     = compileFillers(FillerPhrases)
	whitespaceRe = regexp.MustCompile(`\s+`)
	sentenceRe   = regexp.MustCompile(`[.!?\n]`)
	markerRe     = regexp.MustCompile(`(?i)\b(?:first(?:ly)?|second(?:ly)?|then|next|after that|afterwards|finally|lastly)\b[,:]?`)
	numberedRe   = regexp.MustCompile(`(?m)^\s*(?:\d+[.)]|[-*•])\s+(.+?)\s*$`)
	inlineNumRe  = regexp.MustCompile(`(?:^|\s)\d+[.)]\s+`)
	stepRes      = compileStepPatterns()
)

const (
	// actionWindowBefore and actionWindowAfter bound the primary action window
	// around the first action verb, in runes.
	actionWindowBefore = 20
	actionWindowAfter  = 50
	// maxNameTokens is how many words of the action go into a suggested name.
	maxNameTokens = 2
)

// Parser converts requests into models.ParsedIntent values.
// The zero value is not usable; use NewParser.
type Parser struct {
	now func() time.Time
}

// Option configures a Parser.
type Option func(*Parser)

// WithClock overrides the time source used for fallback names.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) { p.now = now }
}

// NewParser creates a parser.
func NewParser(opts ...Option) *Parser {
	p := &Parser{now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse extracts a structured intent from request. It never fails.
func (p *Parser) Parse(request string) *models.ParsedIntent {
	cleaned := Clean(request)

	action := primaryAction(cleaned)
	capMatches := capabilityMatcher.matches(cleaned)
	tagMatches := tagMatcher.matches(cleaned)
	steps := extractSteps(request, cleaned)

	intent := &models.ParsedIntent{
		Raw:           request,
		PrimaryAction: action,
		Capabilities:  keysOrGeneral(capMatches),
		Tags:          keysOrGeneral(tagMatches),
		Steps:         steps,
	}
	intent.SuggestedName = p.suggestName(action, capMatches)
	intent.Confidence = confidence(action, intent.Capabilities, steps)
	return intent
}

// Clean strips filler phrases and collapses whitespace.
func Clean(request string) string {
	s := fillerRe.ReplaceAllString(request, " ")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// primaryAction returns the window around the first action verb, or the
// first sentence when no action verb is present.
func primaryAction(text string) string {
	if off := actionMatcher.first(text); off >= 0 {
		runes := []rune(text)
		idx := utf8.RuneCountInString(text[:off])
		start := idx - actionWindowBefore
		if start < 0 {
			start = 0
		}
		end := idx + actionWindowAfter
		if end > len(runes) {
			end = len(runes)
		}
		return strings.TrimSpace(string(runes[start:end]))
	}

	if loc := sentenceRe.FindStringIndex(text); loc != nil {
		return strings.TrimSpace(text[:loc[0]])
	}
	return text
}

// extractSteps prefers explicit structure, then keyword inference, then the
// generic skeleton. The raw request is used for numbered lists because
// cleaning collapses the newlines they depend on.
func extractSteps(raw, cleaned string) []string {
	if steps := numberedSteps(raw); len(steps) > 0 {
		return steps
	}
	if steps := markedSteps(cleaned); len(steps) > 0 {
		return steps
	}
	if steps := inferredSteps(cleaned); len(steps) > 0 {
		return steps
	}
	return append([]string(nil), GenericSteps...)
}

// numberedSteps handles "1. foo\n2. bar" lists and "1) foo 2) bar" inline lists.
func numberedSteps(text string) []string {
	var steps []string
	if lines := numberedRe.FindAllStringSubmatch(text, -1); len(lines) >= 2 {
		for _, m := range lines {
			if s := tidyStep(m[1]); s != "" {
				steps = append(steps, s)
			}
		}
		return steps
	}

	locs := inlineNumRe.FindAllStringIndex(text, -1)
	if len(locs) < 2 {
		return nil
	}
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		if s := tidyStep(text[loc[1]:end]); s != "" {
			steps = append(steps, s)
		}
	}
	return steps
}

// markedSteps splits text on discourse markers such as "first" and "then".
func markedSteps(text string) []string {
	locs := markerRe.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}

	var steps []string
	// Text before the first marker is an implicit first step ("scrape it, then save").
	if lead := tidyStep(text[:locs[0][0]]); lead != "" {
		steps = append(steps, lead)
	}
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		segment := text[loc[1]:end]
		if cut := sentenceRe.FindStringIndex(segment); cut != nil {
			segment = segment[:cut[0]]
		}
		if s := tidyStep(segment); s != "" {
			steps = append(steps, s)
		}
	}
	return steps
}

// inferredSteps maps action words to step descriptions in order of appearance.
func inferredSteps(text string) []string {
	type hit struct {
		offset int
		order  int
		step   string
	}
	var hits []hit
	for i, re := range stepRes {
		if loc := re.FindStringIndex(text); loc != nil {
			hits = append(hits, hit{offset: loc[0], order: i, step: StepKeywords[i].Step})
		}
	}
	sort.SliceStable(hits, func(a, b int) bool {
		if hits[a].offset != hits[b].offset {
			return hits[a].offset < hits[b].offset
		}
		return hits[a].order < hits[b].order
	})

	steps := make([]string, 0, len(hits))
	for _, h := range hits {
		steps = append(steps, h.step)
	}
	return steps
}

// tidyStep trims connective words and punctuation around a step fragment.
func tidyStep(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, ",;:.- ")
	lower := strings.ToLower(s)
	for _, suffix := range []string{" and", " then", " or"} {
		if strings.HasSuffix(lower, suffix) {
			s = strings.TrimSpace(s[:len(s)-len(suffix)])
			lower = strings.ToLower(s)
		}
	}
	if strings.HasPrefix(lower, "and ") {
		s = strings.TrimSpace(s[4:])
	}
	s = strings.Trim(s, ",;:. ")
	if s == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// suggestName joins up to two content words of the action with the first
// capability found in the text. Falls back to a timestamped name.
func (p *Parser) suggestName(action string, caps []keyMatch) string {
	var tokens []string
	for _, word := range strings.FieldsFunc(strings.ToLower(action), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len(word) <= 2 || stopWords[word] {
			continue
		}
		tokens = append(tokens, word)
		if len(tokens) == maxNameTokens {
			break
		}
	}

	if len(tokens) == 0 {
		return fmt.Sprintf("skill_%s", p.now().Format("20060102_150405"))
	}
	if len(caps) > 0 && !models.Contains(tokens, caps[0].Key) {
		tokens = append(tokens, caps[0].Key)
	}
	return strings.Join(tokens, "_")
}

// confidence scores the parse from 0 to 1.
func confidence(action string, caps, steps []string) float64 {
	score := 0
	if n := utf8.RuneCountInString(action); n > 10 {
		score += 20
		if n > 30 {
			score += 20
		}
	}
	score += min(10*len(caps), 30)
	score += min(10*len(steps), 30)
	return float64(score) / 100
}

func keysOrGeneral(ms []keyMatch) []string {
	if len(ms) == 0 {
		return []string{models.GeneralCapability}
	}
	keys := make([]string, len(ms))
	for i, m := range ms {
		keys[i] = m.Key
	}
	return models.NormalizeSet(keys)
}

func compileFillers(phrases []string) *regexp.Regexp {
	quoted := make([]string, len(phrases))
	for i, p := range phrases {
		quoted[i] = regexp.QuoteMeta(p)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b[,]?`)
}

func compileStepPatterns() []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(StepKeywords))
	for i, sk := range StepKeywords {
		res[i] = regexp.MustCompile(`(?i)\b(?:` + sk.Pattern + `)`)
	}
	return res
}
