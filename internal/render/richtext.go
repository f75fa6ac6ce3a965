package render

import (
	"regexp"
	"strings"
)

var (
	blockBreak  = regexp.MustCompile(`(?i)</(p|div|h[1-6]|blockquote|tr)>|<br\s*/?>`)
	listItem    = regexp.MustCompile(`(?i)<li[^>]*>`)
	anyTag      = regexp.MustCompile(`<[^>]*>`)
	manyBreaks  = regexp.MustCompile(`\n{3,}`)
	entityTable = strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&apos;", "'",
	)
)

// ReduceRichText flattens rich note content to plain text: block-level tags
// become line breaks, list items become bulleted lines, remaining markup is
// stripped and common HTML entities are decoded.
func ReduceRichText(s string) string {
	out := blockBreak.ReplaceAllString(s, "\n")
	out = listItem.ReplaceAllString(out, "\n• ")
	out = anyTag.ReplaceAllString(out, "")
	out = entityTable.Replace(out)
	out = manyBreaks.ReplaceAllString(out, "\n\n")
	return strings.Trim(out, "\n")
}

// textareaLines prepares textarea content for drawing: rich markup is
// reduced to plain text first, then wrapped to the column width.
func textareaLines(value string, maxChars int) []string {
	return wrapLines(ReduceRichText(value), maxChars)
}

// wrapLines word-wraps text to maxChars columns, preserving existing line
// breaks. Words longer than a line are hard-split.
func wrapLines(text string, maxChars int) []string {
	if maxChars < 1 {
		maxChars = 1
	}
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		if paragraph == "" {
			lines = append(lines, "")
			continue
		}
		var line string
		for _, word := range strings.Fields(paragraph) {
			for len(word) > maxChars {
				if line != "" {
					lines = append(lines, line)
					line = ""
				}
				lines = append(lines, word[:maxChars])
				word = word[maxChars:]
			}
			switch {
			case line == "":
				line = word
			case len(line)+1+len(word) <= maxChars:
				line += " " + word
			default:
				lines = append(lines, line)
				line = word
			}
		}
		lines = append(lines, line)
	}
	return lines
}
