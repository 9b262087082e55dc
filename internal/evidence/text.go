package evidence

import (
	"strings"

	"golang.org/x/net/html"
)

// VisibleText returns the title and readable text of an HTML document,
// skipping scripts, styles and other non-content elements
func VisibleText(htmlContent string) (title, text string, err error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", "", err
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "svg", "template":
				return
			case "title":
				if title == "" && n.FirstChild != nil {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
				return
			}
		}

		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				buf.WriteString(t)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)
	return title, strings.TrimSpace(buf.String()), nil
}

// isHTML reports whether a content type or file extension denotes HTML
func isHTML(kind string) bool {
	kind = strings.ToLower(kind)
	return strings.Contains(kind, "html") || strings.HasSuffix(kind, ".htm")
}
