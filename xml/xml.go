package xml

import (
	"fmt"
	"strings"
)

const (
	SupportedVersion  = "1.0"
	SupportedEncoding = "UTF-8"
)

const (
	XmlNS   = "http://www.w3.org/XML/1998/namespace"
	XmlnsNS = "http://www.w3.org/2000/xmlns/"
)

type NodeType int16

const (
	TypeDocument NodeType = 1 << iota
	TypeElement
	TypeAttribute
	TypeText
	TypeComment
	TypeInstruction
	TypeNamespace
)

// TypeNode is the mask matched by the node() kind test.
const TypeNode = TypeDocument | TypeElement | TypeAttribute |
	TypeText | TypeComment | TypeInstruction | TypeNamespace

func (n NodeType) String() string {
	switch n {
	case TypeDocument:
		return "document-node"
	case TypeElement:
		return "element"
	case TypeAttribute:
		return "attribute"
	case TypeText:
		return "text"
	case TypeComment:
		return "comment"
	case TypeInstruction:
		return "processing-instruction"
	case TypeNamespace:
		return "namespace-node"
	case TypeNode:
		return "node"
	default:
		return "<>"
	}
}

type QName struct {
	Uri   string
	Space string
	Name  string
}

func ParseName(name string) (QName, error) {
	var (
		qn QName
		ok bool
	)
	qn.Space, qn.Name, ok = strings.Cut(name, ":")
	if !ok {
		qn.Name, qn.Space = qn.Space, ""
	}
	if ok && (qn.Space == "" || qn.Name == "") {
		return qn, fmt.Errorf("%s: invalid qualified name", name)
	}
	return qn, nil
}

func ExpandedName(name, space, uri string) QName {
	return QName{
		Name:  name,
		Space: space,
		Uri:   uri,
	}
}

func LocalName(name string) QName {
	return ExpandedName(name, "", "")
}

func QualifiedName(name, space string) QName {
	return ExpandedName(name, space, "")
}

func (q QName) Zero() bool {
	return q.Name == "" && q.Space == "" && q.Uri == ""
}

// Equal compares expanded names: namespace URI and local part.
func (q QName) Equal(other QName) bool {
	return q.Uri == other.Uri && q.Name == other.Name
}

func (q QName) LocalName() string {
	return q.Name
}

func (q QName) QualifiedName() string {
	if q.Space == "" {
		return q.Name
	}
	return q.Space + ":" + q.Name
}

func (q QName) ExpandedName() string {
	if q.Uri == "" {
		return q.Name
	}
	return fmt.Sprintf("Q{%s}%s", q.Uri, q.Name)
}

type NS struct {
	Prefix string
	Uri    string
}

func (n NS) Default() bool {
	return n.Prefix == ""
}
