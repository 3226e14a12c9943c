package prompt

import (
	"fmt"
	"strings"
)

// GetCheckerSystemPrompt restricts the generator model to the three
// severity classes and spells out what it must not flag.
func GetCheckerSystemPrompt() string {
	return `You are a helpful assistant that checks for text issues and suggests corrections on online websites. Classify issues by the following severities:
- critical: Major errors that significantly impact readability (e.g., spelling mistakes, severe grammar errors, typos, repeated words)
- important: Issues that should be fixed but don't completely break readability (e.g., awkward phrasing, consistency issues, missing words, grammar mistakes)
- minor: Subtle improvements that would enhance readability (e.g., style suggestions, minor clarity improvements)

Important: Keep the issues concise and to the point.

DO NOT CHECK for the following things:
* Do not check for code, urls, variables, domain names
* Do not check for smart quotes, emojis, or other non-printable characters.
* Do not check for formal tones or formality.
* DO not check for American vs British english consistency issues.
* DO NOT check for ellipses.
* DO NOT check for capitalization.`
}

// GetCheckerUserPrompt builds the user message around the page URL, the
// extracted text and the requested severities.
func GetCheckerUserPrompt(pageURL, extractedText string, severities []string) string {
	return fmt.Sprintf(
		"Following text is from the website: %s \n Please check it and return the corrections: ``` \n %s \n ``` Return only %s severity corrections.",
		pageURL, extractedText, strings.Join(severities, ", "),
	)
}
