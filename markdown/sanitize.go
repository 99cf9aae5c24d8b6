package markdown

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Sanitize strips active content from an HTML fragment: script/style/iframe
// subtrees, on* event attributes and javascript: URLs. Everything else is
// re-serialized unchanged.
func Sanitize(source string) (string, error) {
	nodes, err := html.ParseFragment(strings.NewReader(source), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, n := range nodes {
		if isDisallowed(n) {
			continue
		}
		clean(n)
		if err := html.Render(&b, n); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

// clean prunes disallowed subtrees and attributes in place.
func clean(n *html.Node) {
	if n.Type == html.ElementNode {
		n.Attr = cleanAttrs(n.Attr)
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if isDisallowed(c) {
			n.RemoveChild(c)
		} else {
			clean(c)
		}
		c = next
	}
}

func isDisallowed(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Iframe, atom.Object, atom.Embed:
		return true
	}
	return false
}

func cleanAttrs(attrs []html.Attribute) []html.Attribute {
	out := attrs[:0]
	for _, a := range attrs {
		key := strings.ToLower(a.Key)
		if strings.HasPrefix(key, "on") {
			continue
		}
		if (key == "href" || key == "src") &&
			strings.HasPrefix(strings.ToLower(strings.TrimSpace(a.Val)), "javascript:") {
			continue
		}
		out = append(out, a)
	}
	return out
}
