package content

import (
	"regexp"
	"strings"
)

// editorArtifacts is the fixed set of editor-only markup removed before an
// artifact is written.  The visual editor decorates elements with state
// attributes and helper classes that have no meaning outside an editing
// session.
var editorArtifacts = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\sdata-silex-[^=]*="[^"]*"`),
	regexp.MustCompile(`(?i)\sdata-gjs-[^=]*="[^"]*"`),
	regexp.MustCompile(`(?i)\scontenteditable="[^"]*"`),
	regexp.MustCompile(`(?i)\sdraggable="[^"]*"`),
	regexp.MustCompile(`(?i)\sclass="[^"]*silex-[^"]*"`),
	regexp.MustCompile(`(?i)\sclass="[^"]*\bui-[^"]*"`),
}

var (
	collapseWS   = regexp.MustCompile(`\s+`)
	interTagWS   = regexp.MustCompile(`>\s+<`)
	doctypeCheck = regexp.MustCompile(`(?i)^<!DOCTYPE`)
)

// Clean strips editor-only attributes and classes, collapses redundant
// whitespace, and guarantees a DOCTYPE prefix when the input is already a
// full document.  Cleaning is deterministic: identical input yields
// identical output, which is what makes republishing unchanged content
// produce byte-identical artifacts.
func Clean(html string) string {
	cleaned := html
	for _, re := range editorArtifacts {
		cleaned = re.ReplaceAllString(cleaned, "")
	}

	cleaned = collapseWS.ReplaceAllString(cleaned, " ")
	cleaned = interTagWS.ReplaceAllString(cleaned, "><")
	cleaned = strings.TrimSpace(cleaned)

	if strings.HasPrefix(cleaned, "<html") || doctypeCheck.MatchString(cleaned) {
		if !doctypeCheck.MatchString(cleaned) {
			cleaned = "<!DOCTYPE html>\n" + cleaned
		}
	}
	return cleaned
}
