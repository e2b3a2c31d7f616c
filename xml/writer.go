package xml

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// Writer serializes a tree back to markup. It covers what the CLI and
// the tests need; round-tripping every lexical detail of the input is
// not a goal.
type Writer struct {
	inner io.Writer

	Indent string
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{
		inner: w,
		Indent: "  ",
	}
}

func (w *Writer) Write(doc *Document) error {
	fmt.Fprintf(w.inner, "<?xml version=%q encoding=%q?>", doc.Version, doc.Encoding)
	fmt.Fprintln(w.inner)
	for i := range doc.Nodes {
		if err := w.writeNode(doc.Nodes[i], 0); err != nil {
			return err
		}
	}
	return nil
}

func WriteNode(node Node) string {
	var (
		buf bytes.Buffer
		w   = NewWriter(&buf)
	)
	w.writeNode(node, 0)
	return buf.String()
}

func (w *Writer) writeNode(node Node, depth int) error {
	prefix := strings.Repeat(w.Indent, depth)
	switch n := node.(type) {
	case *Element:
		fmt.Fprintf(w.inner, "%s<%s", prefix, n.QualifiedName())
		for _, a := range n.Attrs {
			fmt.Fprintf(w.inner, " %s=%q", a.QualifiedName(), a.Datum)
		}
		if len(n.Nodes) == 0 {
			fmt.Fprint(w.inner, "/>")
			fmt.Fprintln(w.inner)
			return nil
		}
		fmt.Fprint(w.inner, ">")
		if n.Leaf() {
			for i := range n.Nodes {
				io.WriteString(w.inner, escapeText(n.Nodes[i].Value()))
			}
			fmt.Fprintf(w.inner, "</%s>", n.QualifiedName())
			fmt.Fprintln(w.inner)
			return nil
		}
		fmt.Fprintln(w.inner)
		for i := range n.Nodes {
			if t, ok := n.Nodes[i].(*Text); ok && strings.TrimSpace(t.Content) == "" {
				continue
			}
			if err := w.writeNode(n.Nodes[i], depth+1); err != nil {
				return err
			}
		}
		fmt.Fprintf(w.inner, "%s</%s>", prefix, n.QualifiedName())
		fmt.Fprintln(w.inner)
	case *Text:
		fmt.Fprintf(w.inner, "%s%s", prefix, escapeText(n.Content))
		fmt.Fprintln(w.inner)
	case *Comment:
		fmt.Fprintf(w.inner, "%s<!--%s-->", prefix, n.Content)
		fmt.Fprintln(w.inner)
	case *Instruction:
		fmt.Fprintf(w.inner, "%s<?%s %s?>", prefix, n.Target, n.Content)
		fmt.Fprintln(w.inner)
	case *Attribute:
		fmt.Fprintf(w.inner, "%s%s=%q", prefix, n.QualifiedName(), n.Datum)
		fmt.Fprintln(w.inner)
	case *Document:
		return w.Write(n)
	default:
		return fmt.Errorf("%T: node can not be serialized", node)
	}
	return nil
}

var textEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

func escapeText(str string) string {
	return textEscaper.Replace(str)
}
