package xml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Parser builds a Document from a token stream. Prefixes are
// reconstructed from the namespace declarations so that qualified
// names round-trip.
type Parser struct {
	dec    *xml.Decoder
	scopes []map[string]string

	TrimSpace  bool
	KeepPrefix bool
}

func NewParser(r io.Reader) *Parser {
	dec := xml.NewDecoder(r)
	return &Parser{
		dec: dec,
	}
}

func ParseString(str string) (*Document, error) {
	return NewParser(strings.NewReader(str)).Parse()
}

func ParseFile(file string) (*Document, error) {
	r, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	doc, err := NewParser(r).Parse()
	if err == nil {
		doc.BaseURI = file
	}
	return doc, err
}

func (p *Parser) Parse() (*Document, error) {
	var (
		doc   = EmptyDocument()
		stack []*Element
	)
	for {
		tok, err := p.dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		parent := func() interface{ Append(Node) } {
			if len(stack) > 0 {
				return stack[len(stack)-1]
			}
			return doc
		}
		switch tok := tok.(type) {
		case xml.StartElement:
			el := p.enterElement(tok)
			parent().Append(el)
			stack = append(stack, el)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("unexpected closing element")
			}
			stack = stack[:len(stack)-1]
			p.scopes = p.scopes[:len(p.scopes)-1]
		case xml.CharData:
			str := string(tok)
			if len(stack) == 0 {
				if strings.TrimSpace(str) == "" {
					continue
				}
				return nil, fmt.Errorf("text outside of document element")
			}
			parent().Append(NewText(str))
		case xml.Comment:
			parent().Append(NewComment(string(tok)))
		case xml.ProcInst:
			if tok.Target == "xml" {
				continue
			}
			parent().Append(NewInstruction(tok.Target, string(tok.Inst)))
		case xml.Directive:
		}
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("document has no root element")
	}
	return doc, nil
}

func (p *Parser) enterElement(tok xml.StartElement) *Element {
	scope := make(map[string]string)
	if len(p.scopes) > 0 {
		for uri, prefix := range p.scopes[len(p.scopes)-1] {
			scope[uri] = prefix
		}
	}
	for _, a := range tok.Attr {
		switch {
		case a.Name.Space == "xmlns":
			scope[a.Value] = a.Name.Local
		case a.Name.Space == "" && a.Name.Local == "xmlns":
			scope[a.Value] = ""
		}
	}
	p.scopes = append(p.scopes, scope)

	el := NewElement(p.resolve(tok.Name, scope))
	for _, a := range tok.Attr {
		var qn QName
		switch {
		case a.Name.Space == "xmlns":
			qn = ExpandedName(a.Name.Local, "xmlns", XmlnsNS)
		case a.Name.Space == "" && a.Name.Local == "xmlns":
			qn = LocalName("xmlns")
		default:
			qn = p.resolve(a.Name, scope)
		}
		el.SetAttribute(NewAttribute(qn, a.Value))
	}
	return el
}

func (p *Parser) resolve(name xml.Name, scope map[string]string) QName {
	if name.Space == "" {
		return LocalName(name.Local)
	}
	prefix, ok := scope[name.Space]
	if !ok && name.Space == XmlNS {
		prefix = "xml"
	}
	return ExpandedName(name.Local, prefix, name.Space)
}
