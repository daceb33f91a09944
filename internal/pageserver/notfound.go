// internal/pageserver/notfound.go
//
// Branded not-found pages.  An unresolvable subdomain or an unpublished
// site/page gets a small styled page, not a bare 404 body.
package pageserver

import (
	"html"
	"net/http"
)

const notFoundCSS = `        body { margin: 0; font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif;
               display: flex; align-items: center; justify-content: center;
               min-height: 100vh; background: #f5f6fa; color: #2c3e50; }
        .card { text-align: center; padding: 48px; }
        h1 { font-size: 2rem; margin-bottom: 8px; }
        p { color: #7f8c8d; }
        a { color: #667eea; text-decoration: none; }`

func writeSiteNotFound(w http.ResponseWriter, subdomain string) {
	heading := "Site not found"
	detail := "There is no published site here yet."
	if subdomain != "" {
		detail = "The site “" + html.EscapeString(subdomain) + "” is not published or does not exist."
	}
	writeNotFound(w, heading, detail)
}

func writePageNotFound(w http.ResponseWriter, siteTitle, slug string) {
	heading := "Page not found"
	detail := "This page does not exist on " + html.EscapeString(siteTitle) + "."
	if slug != "" {
		detail = "“" + html.EscapeString(slug) + "” does not exist on " + html.EscapeString(siteTitle) + "."
	}
	writeNotFound(w, heading, detail)
}

func writeNotFound(w http.ResponseWriter, heading, detail string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>` + html.EscapeString(heading) + `</title>
    <style>
` + notFoundCSS + `
    </style>
</head>
<body>
    <div class="card">
        <h1>` + html.EscapeString(heading) + `</h1>
        <p>` + detail + `</p>
        <p><a href="https://pagemade.site">Built with PageMade</a></p>
    </div>
</body>
</html>`))
}
