package listing

import (
	"html/template"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

type renderedCard struct {
	Heading  string
	Summary  string
	Link     string
	ImageSrc string
	ImageAlt string
}

type renderedListing struct {
	Cards    []renderedCard
	Notices  []string
	Elements map[string]int
}

func parseListing(t *testing.T, content template.HTML) renderedListing {
	t.Helper()
	root, err := html.Parse(strings.NewReader("<html><body><div id=\"cardsContainer\">" + string(content) + "</div></body></html>"))
	require.NoError(t, err)

	out := renderedListing{Elements: map[string]int{}}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			out.Elements[n.Data]++
			switch {
			case n.Data == "div" && attr(n, "class") == "col":
				out.Cards = append(out.Cards, readCard(n))
			case n.Data == "p" && strings.Contains(attr(n, "class"), "listing-notice"):
				out.Notices = append(out.Notices, text(n))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

func readCard(n *html.Node) renderedCard {
	var card renderedCard
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case n.Data == "h5":
				card.Heading = text(n)
			case n.Data == "p" && attr(n, "class") == "card-text":
				card.Summary = text(n)
			case n.Data == "a":
				card.Link = attr(n, "href")
			case n.Data == "img":
				card.ImageSrc = attr(n, "src")
				card.ImageAlt = attr(n, "alt")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return card
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func text(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func hasAttr(content template.HTML, t *testing.T, key string) bool {
	t.Helper()
	root, err := html.Parse(strings.NewReader(string(content)))
	require.NoError(t, err)
	found := false
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, a := range n.Attr {
				if a.Key == key {
					found = true
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return found
}
