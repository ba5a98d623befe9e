package intent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/ShayCichocki/skillflow/pkg/models"
)

func fixedClock() time.Time {
	return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
}

func TestParseEmptyFallsBack(t *testing.T) {
	p := NewParser(WithClock(fixedClock))

	for _, input := range []string{"", "   ", "\n\t"} {
		got := p.Parse(input)
		assert.Equal(t, []string{models.GeneralCapability}, got.Capabilities, "input %q", input)
		assert.Equal(t, []string{models.GeneralCapability}, got.Tags, "input %q", input)
		assert.Equal(t, GenericSteps, got.Steps, "input %q", input)
		assert.Equal(t, "skill_20260102_030405", got.SuggestedName)
		assert.True(t, got.IsGeneral())
	}
}

func TestParseWebScraperScenario(t *testing.T) {
	p := NewParser()
	got := p.Parse("build a web scraper that extracts prices and saves to CSV")

	assert.Subset(t, got.Capabilities, []string{"web", "file"})
	assert.Contains(t, got.Tags, "scraping")
	assert.Contains(t, got.Tags, "storage")
	assert.Equal(t, []string{
		"Fetch the source data",
		"Extract the relevant fields",
		"Save the output",
	}, got.Steps)
	assert.Equal(t, "build_web", got.SuggestedName)
	assert.InDelta(t, 1.0, got.Confidence, 1e-9)
	assert.Empty(t, SuggestRefinements(got))
}

func TestParseMarkedSteps(t *testing.T) {
	p := NewParser()
	got := p.Parse("First download the report, then convert it to CSV, finally email it to the team")

	assert.Equal(t, []string{
		"Download the report",
		"Convert it to CSV",
		"Email it to the team",
	}, got.Steps)
}

func TestParseMarkedStepsWithLeadingClause(t *testing.T) {
	p := NewParser()
	got := p.Parse("scrape the listings then store them in sqlite")

	assert.Equal(t, []string{"Scrape the listings", "Store them in sqlite"}, got.Steps)
	assert.Contains(t, got.Capabilities, "database")
}

func TestParseNumberedSteps(t *testing.T) {
	p := NewParser()
	got := p.Parse("1. Fetch the page\n2. Parse the table\n3. Save as JSON")

	assert.Equal(t, []string{"Fetch the page", "Parse the table", "Save as JSON"}, got.Steps)
}

func TestParseInlineNumberedSteps(t *testing.T) {
	p := NewParser()
	got := p.Parse("1) call the api 2) write the rows to a file")

	assert.Equal(t, []string{"Call the api", "Write the rows to a file"}, got.Steps)
}

func TestClean(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Please   I want to scrape   the site", "scrape the site"},
		{"could you, help me export data", "export data"},
		{"  plain  ", "plain"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Clean(tt.in))
	}
}

func TestPrimaryActionFirstSentence(t *testing.T) {
	p := NewParser()
	got := p.Parse("The quarterly numbers. Nothing else")
	assert.Equal(t, "The quarterly numbers", got.PrimaryAction)
}

func TestPrimaryActionWindow(t *testing.T) {
	p := NewParser()
	prefix := "For the marketing team in the office, "
	got := p.Parse(prefix + "generate a weekly dashboard of sales numbers pulled from the shared spreadsheet")

	// 20 runes before the verb, 50 from it.
	assert.Equal(t, "team in the office, generate a weekly dashboard of sales numbers pulle", got.PrimaryAction)
}

func TestSubstringLikeWordsDoNotMatch(t *testing.T) {
	p := NewParser()
	got := p.Parse("maintain the records")
	assert.NotContains(t, got.Capabilities, "ai")
}

func TestSuggestRefinements(t *testing.T) {
	p := NewParser()
	hints := SuggestRefinements(p.Parse(""))
	require.Len(t, hints, 2)

	single := &models.ParsedIntent{
		PrimaryAction: "do it",
		Capabilities:  []string{"web"},
		Steps:         []string{"only"},
		Confidence:    0.9,
	}
	assert.Len(t, SuggestRefinements(single), 1)
	assert.Nil(t, SuggestRefinements(nil))
}

func TestParseInvariantsProperty(t *testing.T) {
	p := NewParser()
	rapid.Check(t, func(rt *rapid.T) {
		input := rapid.String().Draw(rt, "input")
		got := p.Parse(input)

		if len(got.Capabilities) == 0 {
			rt.Fatalf("empty capabilities for %q", input)
		}
		if len(got.Tags) == 0 {
			rt.Fatalf("empty tags for %q", input)
		}
		if len(got.Steps) == 0 {
			rt.Fatalf("empty steps for %q", input)
		}
		if got.Confidence < 0 || got.Confidence > 1 {
			rt.Fatalf("confidence %v out of range", got.Confidence)
		}
		if got.SuggestedName == "" {
			rt.Fatalf("empty suggested name for %q", input)
		}
	})
}
