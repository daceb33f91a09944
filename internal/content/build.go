package content

import (
	"html"
	"strings"
)

// BuildDocument assembles one self-contained HTML document with the CSS
// embedded in a <style> block, so serving a page never requires a second
// request for a stylesheet.  body and css are inserted verbatim; the title
// is escaped.
func BuildDocument(title, body, css string) string {
	var b strings.Builder
	b.Grow(len(body) + len(css) + 512)

	b.WriteString("<!DOCTYPE html>\n")
	b.WriteString("<html lang=\"en\">\n<head>\n")
	b.WriteString("    <meta charset=\"UTF-8\">\n")
	b.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	b.WriteString("    <title>")
	b.WriteString(html.EscapeString(title))
	b.WriteString("</title>\n")
	b.WriteString("    <style>\n")
	b.WriteString(css)
	b.WriteString("\n    </style>\n</head>\n<body>\n")
	b.WriteString(body)
	b.WriteString("\n</body>\n</html>")

	return b.String()
}

// DefaultDocument synthesizes a branded placeholder page from the page's
// title and description.  It is the terminal step of the serve fallback
// chain and must always succeed, so it takes no I/O dependencies.
func DefaultDocument(title, description, siteTitle string) string {
	if description == "" {
		description = "A page built with PageMade"
	}

	body := `    <div class="hero">
        <h1>` + html.EscapeString(title) + `</h1>
        <p class="lead">` + html.EscapeString(description) + `</p>
    </div>
    <div class="content">
        <p>This page is being updated.</p>
    </div>
    <footer>
        <p>&copy; ` + html.EscapeString(siteTitle) + ` &middot; Built with PageMade</p>
    </footer>`

	const css = `        body { margin: 0; font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; }
        .hero { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 100px 24px; text-align: center; }
        .content { padding: 60px 24px; text-align: center; }
        footer { background: #2c3e50; color: white; padding: 40px 24px; text-align: center; }`

	return BuildDocument(title, body, css)
}
