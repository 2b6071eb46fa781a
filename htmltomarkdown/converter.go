// Package htmltomarkdown converts HTML documentation files found in
// repositories into Markdown.
package htmltomarkdown

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/fwojciec/repodocs"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Ensure Converter implements repodocs.Converter at compile time.
var _ repodocs.Converter = (*Converter)(nil)

// Converter wraps html-to-markdown to convert HTML to Markdown.
type Converter struct {
	conv *converter.Converter
}

// NewConverter creates a new Converter.
func NewConverter() *Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	return &Converter{conv: conv}
}

// Convert transforms an HTML file into Markdown. Only the body is converted.
// A page whose body has no h1 gets its <title> as the top-level heading.
func (c *Converter) Convert(input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", repodocs.Errorf(repodocs.EINVALID, "empty HTML input")
	}

	doc, err := html.Parse(strings.NewReader(input))
	if err != nil {
		return "", repodocs.WrapError(repodocs.EINVALID, err, "failed to parse HTML")
	}

	body := findElement(doc, atom.Body)
	if body == nil {
		body = doc
	}

	md, err := c.conv.ConvertNode(body)
	if err != nil {
		return "", repodocs.WrapError(repodocs.EINVALID, err, "failed to convert HTML")
	}
	out := strings.TrimSpace(string(md))

	if title := elementText(findElement(doc, atom.Title)); title != "" && findElement(body, atom.H1) == nil {
		out = "# " + title + "\n\n" + out
	}
	return out, nil
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findElement(child, a); found != nil {
			return found
		}
	}
	return nil
}

func elementText(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
