package render

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// document is the result of parsing one HTML page.
type document struct {
	links  []string
	images []Image
}

// parseDocument extracts a[href] targets and img sources from HTML.
//
// Relative references are resolved against pageURL, or against the first
// <base href> when the page declares one. Links with a non-hierarchical
// scheme (mailto:, javascript:, tel:, data:) are kept as written so the
// caller can classify them. Static parsing cannot observe image loading,
// so every image is reported as not loaded and gets confirmed with a GET.
func parseDocument(pageURL *url.URL, content io.Reader) (*document, error) {
	root, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	base := pageURL
	if b := findBase(root); b != "" {
		if u, err := url.Parse(b); err == nil {
			base = pageURL.ResolveReference(u)
		}
	}

	doc := &document{}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "a":
				if href, ok := getAttr(n, "href"); ok {
					if link := resolveURL(base, href); link != "" {
						doc.links = append(doc.links, link)
					}
				}
			case "img":
				src, _ := getAttr(n, "src")
				if src = strings.TrimSpace(src); src != "" {
					src = resolveURL(base, src)
				}
				doc.images = append(doc.images, Image{Src: src})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return doc, nil
}

// findBase returns the href of the first <base> element, if any.
func findBase(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "base" {
		if href, ok := getAttr(n, "href"); ok {
			return strings.TrimSpace(href)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if href := findBase(c); href != "" {
			return href
		}
	}
	return ""
}

// resolveURL resolves href against base the way a browser's a.href does.
func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if u.Opaque != "" {
		return href
	}
	return base.ResolveReference(u).String()
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}
