package intent

import "github.com/ShayCichocki/skillflow/pkg/models"

// lowConfidence is the threshold below which refinements are suggested.
const lowConfidence = 0.5

// SuggestRefinements returns human-readable hints for improving a request.
// It returns nil when the intent looks specific enough.
func SuggestRefinements(intent *models.ParsedIntent) []string {
	if intent == nil {
		return nil
	}

	var hints []string
	if intent.Confidence < lowConfidence {
		hints = append(hints, "Describe the main action more concretely (e.g. \"scrape product prices from a web page\").")
	}
	if intent.IsGeneral() {
		hints = append(hints, "Mention the systems involved, such as web pages, files, APIs, databases or email.")
	}
	if len(intent.Steps) <= 1 {
		hints = append(hints, "Break the request into steps using \"first\", \"then\" and \"finally\", or a numbered list.")
	}
	return hints
}
