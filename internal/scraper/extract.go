package scraper

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// maxContentLen bounds the stored text content of a page.
const maxContentLen = 50000

// Elements whose text is never page content.
var skipElements = map[string]bool{
	"script":   true,
	"style":    true,
	"nav":      true,
	"header":   true,
	"footer":   true,
	"aside":    true,
	"noscript": true,
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

// walk visits every node in depth-first order until fn returns false.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

// metaContent returns the content attribute of the first <meta> tag
// whose attrKey attribute equals attrName.
func metaContent(doc *html.Node, attrKey, attrName string) string {
	var content string
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "meta" &&
			strings.EqualFold(attrVal(n, attrKey), attrName) {
			if v := strings.TrimSpace(attrVal(n, "content")); v != "" {
				content = v
				return false
			}
		}
		return true
	})
	return content
}

// firstElement returns the first element with the given tag name.
func firstElement(doc *html.Node, tag string) *html.Node {
	var found *html.Node
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == tag {
			found = n
			return false
		}
		return true
	})
	return found
}

// extractTitle prefers og:title, then twitter:title, then <title>.
func extractTitle(doc *html.Node) string {
	if t := metaContent(doc, "property", "og:title"); t != "" {
		return t
	}
	if t := metaContent(doc, "name", "twitter:title"); t != "" {
		return t
	}
	if titleNode := firstElement(doc, "title"); titleNode != nil {
		var sb strings.Builder
		for c := titleNode.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				sb.WriteString(c.Data)
			}
		}
		return strings.TrimSpace(sb.String())
	}
	return ""
}

// extractDescription prefers og:description, then twitter:description,
// then the standard meta description.
func extractDescription(doc *html.Node) string {
	if d := metaContent(doc, "property", "og:description"); d != "" {
		return d
	}
	if d := metaContent(doc, "name", "twitter:description"); d != "" {
		return d
	}
	return metaContent(doc, "name", "description")
}

// extractContent pulls the readable text of the page: the first <main>
// or <article> element when present, otherwise the whole <body>, with
// script/style/navigation chrome stripped and whitespace normalized.
func extractContent(doc *html.Node) string {
	root := firstElement(doc, "main")
	if root == nil {
		root = firstElement(doc, "article")
	}
	if root == nil {
		root = firstElement(doc, "body")
	}
	if root == nil {
		return ""
	}

	var sb strings.Builder
	collectText(root, &sb)

	text := strings.Join(strings.Fields(sb.String()), " ")
	if len(text) > maxContentLen {
		text = text[:maxContentLen] + "..."
	}
	return text
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.ElementNode && skipElements[n.Data] {
		return
	}
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		sb.WriteString(" ")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}

// extractFavicon resolves the page's favicon URL from <link rel=icon>
// variants, falling back to /favicon.ico at the site root.
func extractFavicon(doc *html.Node, base *url.URL) string {
	iconRels := []string{"icon", "shortcut icon", "apple-touch-icon", "apple-touch-icon-precomposed"}

	var href string
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.Data != "link" {
			return true
		}
		rel := strings.ToLower(strings.TrimSpace(attrVal(n, "rel")))
		for _, want := range iconRels {
			if rel == want {
				if h := strings.TrimSpace(attrVal(n, "href")); h != "" {
					href = h
					return false
				}
			}
		}
		return true
	})

	if href != "" {
		if ref, err := url.Parse(href); err == nil {
			return base.ResolveReference(ref).String()
		}
	}

	return base.Scheme + "://" + base.Host + "/favicon.ico"
}
