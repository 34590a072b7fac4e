package surface

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/teranos/marquee/errors"
)

// Node converts the subtree rooted at e into an *html.Node tree.
func (e *Element) Node() *html.Node {
	tag := strings.ToLower(e.Tag)
	if tag == "" {
		tag = "div"
	}
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	if e.ID != "" {
		n.Attr = append(n.Attr, html.Attribute{Key: "id", Val: e.ID})
	}
	if len(e.classes) > 0 {
		n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: strings.Join(e.classes, " ")})
	}
	if len(e.style) > 0 {
		n.Attr = append(n.Attr, html.Attribute{Key: "style", Val: e.StyleAttr()})
	}
	for _, name := range e.attrNames() {
		n.Attr = append(n.Attr, html.Attribute{Key: name, Val: e.attrs[name]})
	}
	if e.Text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: e.Text})
	}
	for _, c := range e.children {
		n.AppendChild(c.Node())
	}
	return n
}

// Render writes the subtree rooted at e as HTML.
func (e *Element) Render(w io.Writer) error {
	if err := html.Render(w, e.Node()); err != nil {
		return errors.Wrap(err, "failed to render surface")
	}
	return nil
}

// HTML renders the subtree rooted at e to a string.
func (e *Element) HTML() (string, error) {
	var buf bytes.Buffer
	if err := e.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
