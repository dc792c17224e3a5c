// Package textclean normalizes English input before it is sent to the
// grammar endpoint: contractions are expanded, punctuation stripped,
// whitespace collapsed, and first-person pronouns rewritten for Auslan
// word order.
package textclean

import (
	"regexp"
	"strings"
)

type rule struct {
	re   *regexp.Regexp
	repl string
}

// Irregular and special cases run first, longest patterns before their
// prefixes so the y'all family expands in one pass.
var irregularRules = []rule{
	{regexp.MustCompile(`(?i)\by'all'd've\b`), "you all would have"},
	{regexp.MustCompile(`(?i)\by'all're\b`), "you all are"},
	{regexp.MustCompile(`(?i)\by'all've\b`), "you all have"},
	{regexp.MustCompile(`(?i)\by'all'd\b`), "you all would"},
	{regexp.MustCompile(`(?i)\by'all\b`), "you all"},
	{regexp.MustCompile(`(?i)\bwon't\b`), "will not"},
	{regexp.MustCompile(`(?i)\bcan't\b`), "cannot"},
	{regexp.MustCompile(`(?i)\bshan't\b`), "shall not"},
	{regexp.MustCompile(`(?i)\bain't\b`), "is not"},
	{regexp.MustCompile(`(?i)\blet's\b`), "let us"},
	{regexp.MustCompile(`(?i)\bma'am\b`), "madam"},
	{regexp.MustCompile(`(?i)\bc'mon\b`), "come on"},
}

// Stacked forms ('d've, 'll've) must run before the general families so the
// trailing 've is not consumed on its own.
var stackedRules = []rule{
	{regexp.MustCompile(`(?i)\b(\w+)'d've\b`), "$1 would have"},
	{regexp.MustCompile(`(?i)\b(\w+)'ll've\b`), "$1 will have"},
}

var generalRules = []rule{
	{regexp.MustCompile(`(?i)\b(\w+)n't\b`), "$1 not"},
	{regexp.MustCompile(`(?i)\b(you|we|they|who|what|where|when|why|how|there|here|that|these|those)'re\b`), "$1 are"},
	{regexp.MustCompile(`(?i)\b(i|you|we|they|who|there|could|would|should|might|must)'ve\b`), "$1 have"},
	{regexp.MustCompile(`(?i)\b(i|you|he|she|it|we|they|there|that|these|those|who|what|where|when|why|how)'ll\b`), "$1 will"},
	{regexp.MustCompile(`(?i)\b(i|you|he|she|it|we|they)'d\b`), "$1 would"},
	{regexp.MustCompile(`(?i)\bi'm\b`), "i am"},
	{regexp.MustCompile(`(?i)\b(\w+)'s\b`), "$1 is"},
}

var (
	curlyQuotes   = strings.NewReplacer("’", "'", "‘", "'", "“", `"`, "”", `"`)
	symbolRe      = regexp.MustCompile(`[^\w\s]|_`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
	firstPersonBe = regexp.MustCompile(`(?i)\bi am\b`)
	firstPersonRe = regexp.MustCompile(`\b[Ii]\b`)
)

// ExpandContractions rewrites common English contractions to their full
// forms. Ambiguous 's expands to "is" and 'd to "would". Rules are applied
// repeatedly until the text stops changing so stacked forms fully unwind;
// five passes is plenty for real text.
func ExpandContractions(text string) string {
	text = curlyQuotes.Replace(text)

	all := make([]rule, 0, len(irregularRules)+len(stackedRules)+len(generalRules))
	all = append(all, irregularRules...)
	all = append(all, stackedRules...)
	all = append(all, generalRules...)

	for pass := 0; pass < 5; pass++ {
		prev := text
		for _, r := range all {
			text = r.re.ReplaceAllString(text, r.repl)
		}
		if text == prev {
			break
		}
	}
	return text
}

// Clean prepares input text for the grammar endpoint: contractions are
// expanded, symbols and underscores removed, whitespace collapsed, the
// first-person copula dropped ("i am" carries no sign), and "I" rewritten
// to "me" per Auslan grammar.
func Clean(text string) string {
	text = ExpandContractions(text)
	text = strings.TrimSpace(text)
	text = symbolRe.ReplaceAllString(text, "")
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = firstPersonBe.ReplaceAllString(text, "i")
	text = firstPersonRe.ReplaceAllString(text, "me")
	return strings.TrimSpace(text)
}
