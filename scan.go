package xpath

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type Position struct {
	Line   int
	Column int
	Offset int
}

// Span locates a token in the source expression, from the first byte
// of the token to the byte after its last one.
type Span struct {
	Position
	End int
}

func (s Span) Zero() bool {
	return s.Line == 0 && s.Column == 0 && s.End == 0
}

const (
	kwLet       = "let"
	kwIf        = "if"
	kwThen      = "then"
	kwElse      = "else"
	kwFor       = "for"
	kwIn        = "in"
	kwTo        = "to"
	kwReturn    = "return"
	kwSome      = "some"
	kwEvery     = "every"
	kwSatisfies = "satisfies"
	kwUnion     = "union"
	kwIntersect = "intersect"
	kwExcept    = "except"
	kwAnd       = "and"
	kwOr        = "or"
	kwDiv       = "div"
	kwIdiv      = "idiv"
	kwMod       = "mod"
	kwAs        = "as"
	kwIs        = "is"
	kwOf        = "of"
	kwCast      = "cast"
	kwCastable  = "castable"
	kwTreat     = "treat"
	kwInstance  = "instance"
	kwMap       = "map"
	kwArray     = "array"
	kwFunction  = "function"
	kwEq        = "eq"
	kwNe        = "ne"
	kwLt        = "lt"
	kwLe        = "le"
	kwGt        = "gt"
	kwGe        = "ge"
)

const (
	EOF rune = -(1 + iota)
	Name
	Namespace // ':' between prefix and local part
	Literal
	Digit
	Variable
	BraceUri // the uri of a Q{uri}local name
	Invalid
)

const (
	currNode rune = -(iota + 1000)
	parentNode
	attrNode
	currLevel
	anyLevel
	begPred
	endPred
	begGrp
	endGrp
	begCurl
	endCurl
	opSeq
	opAxis
	opAssign
	opArrow
	opBang
	opQuestion
	opConcat
	opUnion
	opIntersect
	opExcept
	opAdd
	opSub
	opMul
	opDiv
	opIdiv
	opMod
	opEq
	opNe
	opLt
	opLe
	opGt
	opGe
	opValEq
	opValNe
	opValLt
	opValLe
	opValGt
	opValGe
	opBefore
	opAfter
	opIs
	opAnd
	opOr
	opRange
	opInstanceOf
	opCastAs
	opCastableAs
	opTreatAs
	opHash
)

type Token struct {
	Literal string
	Type    rune
	Span
}

func (t Token) String() string {
	switch t.Type {
	case EOF:
		return "<eof>"
	case Name:
		return fmt.Sprintf("name(%s)", t.Literal)
	case Namespace:
		return "<colon>"
	case Literal:
		return fmt.Sprintf("literal(%s)", t.Literal)
	case Digit:
		return fmt.Sprintf("number(%s)", t.Literal)
	case Variable:
		return fmt.Sprintf("variable(%s)", t.Literal)
	case BraceUri:
		return fmt.Sprintf("uri(%s)", t.Literal)
	case Invalid:
		return fmt.Sprintf("<invalid(%s)>", t.Literal)
	case currNode:
		return "<current-node>"
	case parentNode:
		return "<parent-node>"
	case attrNode:
		return "<attribute>"
	case currLevel:
		return "<child-step>"
	case anyLevel:
		return "<descendant-step>"
	case begPred:
		return "<begin-predicate>"
	case endPred:
		return "<end-predicate>"
	case begGrp:
		return "<begin-group>"
	case endGrp:
		return "<end-group>"
	case begCurl:
		return "<begin-curly>"
	case endCurl:
		return "<end-curly>"
	case opSeq:
		return "<sequence>"
	case opAxis:
		return "<axis>"
	case opAssign:
		return "<assignment>"
	case opArrow:
		return "<arrow>"
	case opBang:
		return "<simple-map>"
	case opQuestion:
		return "<lookup>"
	case opConcat:
		return "<concat>"
	case opUnion:
		return "<union>"
	case opIntersect:
		return "<intersect>"
	case opExcept:
		return "<except>"
	case opAdd:
		return "<add>"
	case opSub:
		return "<subtract>"
	case opMul:
		return "<multiply>"
	case opDiv:
		return "<divide>"
	case opIdiv:
		return "<integer-divide>"
	case opMod:
		return "<modulo>"
	case opEq:
		return "<equal>"
	case opNe:
		return "<not-equal>"
	case opLt:
		return "<lesser-than>"
	case opLe:
		return "<lesser-eq>"
	case opGt:
		return "<greater-than>"
	case opGe:
		return "<greater-eq>"
	case opValEq:
		return "<value-eq>"
	case opValNe:
		return "<value-ne>"
	case opValLt:
		return "<value-lt>"
	case opValLe:
		return "<value-le>"
	case opValGt:
		return "<value-gt>"
	case opValGe:
		return "<value-ge>"
	case opBefore:
		return "<before>"
	case opAfter:
		return "<after>"
	case opIs:
		return "<identity>"
	case opAnd:
		return "<and>"
	case opOr:
		return "<or>"
	case opRange:
		return "<range>"
	case opInstanceOf:
		return "<instance-of>"
	case opCastAs:
		return "<cast-as>"
	case opCastableAs:
		return "<castable-as>"
	case opTreatAs:
		return "<treat-as>"
	case opHash:
		return "<function-ref>"
	default:
		return "<unknown>"
	}
}

type Scanner struct {
	input string
	next  int
	char  rune

	Position
	version Version

	// type of the last significant token, used to decide whether a
	// bare word like "div" is an operator or a name
	last rune
	str  strings.Builder
}

func Scan(input string) *Scanner {
	return ScanVersion(input, VersionDefault)
}

func ScanVersion(input string, version Version) *Scanner {
	scan := &Scanner{
		input:   input,
		version: version,
		last:    EOF,
	}
	scan.Line = 1
	scan.read()
	return scan
}

func (s *Scanner) Scan() Token {
	s.skipBlank()
	for s.isComment() {
		if !s.skipComment() {
			tok := Token{Type: Invalid, Literal: "unterminated comment"}
			tok.Span = s.spanFrom(s.Position)
			return tok
		}
		s.skipBlank()
	}
	var (
		tok Token
		beg = s.Position
	)
	if s.done() {
		tok.Type = EOF
		tok.Span = s.spanFrom(beg)
		s.last = EOF
		return tok
	}
	s.str.Reset()
	switch {
	case s.char == apos || s.char == quote:
		s.scanLiteral(&tok)
	case s.char == dollar:
		s.scanVariable(&tok)
	case unicode.IsDigit(s.char):
		s.scanNumber(&tok)
	case s.char == dot && unicode.IsDigit(s.peek()):
		s.scanNumber(&tok)
	case isNameStart(s.char):
		s.scanIdent(&tok)
	default:
		s.scanOperator(&tok)
	}
	tok.Span = s.spanFrom(beg)
	s.last = tok.Type
	return tok
}

func (s *Scanner) spanFrom(beg Position) Span {
	return Span{
		Position: beg,
		End:      s.Offset,
	}
}

func (s *Scanner) scanLiteral(tok *Token) {
	quote := s.char
	s.read()
	for !s.done() {
		if s.char == quote {
			if s.peek() != quote {
				break
			}
			s.read()
		}
		s.write()
		s.read()
	}
	tok.Type = Literal
	tok.Literal = s.str.String()
	if s.char != quote {
		tok.Type = Invalid
		tok.Literal = "unterminated string literal"
		return
	}
	s.read()
}

func (s *Scanner) scanVariable(tok *Token) {
	s.read()
	for !s.done() && isNamePart(s.char) {
		s.write()
		s.read()
	}
	tok.Type = Variable
	tok.Literal = s.str.String()
	if tok.Literal == "" {
		tok.Type = Invalid
		tok.Literal = "variable name expected after '$'"
	}
}

func (s *Scanner) scanNumber(tok *Token) {
	for !s.done() && unicode.IsDigit(s.char) {
		s.write()
		s.read()
	}
	if s.char == dot {
		s.write()
		s.read()
		for !s.done() && unicode.IsDigit(s.char) {
			s.write()
			s.read()
		}
	}
	if s.char == 'e' || s.char == 'E' {
		s.write()
		s.read()
		if s.char == '-' || s.char == '+' {
			s.write()
			s.read()
		}
		if !unicode.IsDigit(s.char) {
			tok.Type = Invalid
			tok.Literal = "exponent expected"
			return
		}
		for !s.done() && unicode.IsDigit(s.char) {
			s.write()
			s.read()
		}
	}
	tok.Type = Digit
	tok.Literal = s.str.String()
}

func (s *Scanner) scanIdent(tok *Token) {
	for !s.done() && isNamePart(s.char) {
		s.write()
		s.read()
	}
	tok.Literal = s.str.String()
	tok.Type = Name

	if tok.Literal == "Q" && s.char == lcurly && s.version >= Version30 {
		s.scanBraceUri(tok)
		return
	}
	if !s.afterOperand() {
		return
	}
	switch tok.Literal {
	case kwAnd:
		tok.Type = opAnd
	case kwOr:
		tok.Type = opOr
	case kwDiv:
		tok.Type = opDiv
	case kwIdiv:
		if s.version >= Version20 {
			tok.Type = opIdiv
		}
	case kwMod:
		tok.Type = opMod
	case kwTo:
		if s.version >= Version20 {
			tok.Type = opRange
		}
	case kwUnion:
		tok.Type = opUnion
	case kwIntersect:
		if s.version >= Version20 {
			tok.Type = opIntersect
		}
	case kwExcept:
		if s.version >= Version20 {
			tok.Type = opExcept
		}
	case kwIs:
		if s.version >= Version20 {
			tok.Type = opIs
		}
	case kwEq:
		tok.Type = opValEq
	case kwNe:
		tok.Type = opValNe
	case kwLt:
		tok.Type = opValLt
	case kwLe:
		tok.Type = opValLe
	case kwGt:
		tok.Type = opValGt
	case kwGe:
		tok.Type = opValGe
	case kwCast:
		if s.version >= Version20 && s.lookForward(kwAs) {
			tok.Type = opCastAs
		}
	case kwCastable:
		if s.version >= Version20 && s.lookForward(kwAs) {
			tok.Type = opCastableAs
		}
	case kwTreat:
		if s.version >= Version20 && s.lookForward(kwAs) {
			tok.Type = opTreatAs
		}
	case kwInstance:
		if s.version >= Version20 && s.lookForward(kwOf) {
			tok.Type = opInstanceOf
		}
	}
	if tok.Type != Name && s.version < Version20 {
		switch tok.Type {
		case opAnd, opOr, opDiv, opMod, opUnion:
		default:
			tok.Type = Name
		}
	}
}

func (s *Scanner) scanBraceUri(tok *Token) {
	s.read()
	s.str.Reset()
	for !s.done() && s.char != rcurly {
		s.write()
		s.read()
	}
	if s.char != rcurly {
		tok.Type = Invalid
		tok.Literal = "unterminated braced uri"
		return
	}
	s.read()
	tok.Type = BraceUri
	tok.Literal = s.str.String()
}

func (s *Scanner) scanOperator(tok *Token) {
	switch k := s.peek(); s.char {
	case lparen:
		tok.Type = begGrp
	case rparen:
		tok.Type = endGrp
	case lsquare:
		tok.Type = begPred
	case rsquare:
		tok.Type = endPred
	case lcurly:
		tok.Type = begCurl
	case rcurly:
		tok.Type = endCurl
	case comma:
		tok.Type = opSeq
	case arobase:
		tok.Type = attrNode
	case dollar:
		tok.Type = Invalid
	case plus:
		tok.Type = opAdd
	case dash:
		tok.Type = opSub
	case star:
		tok.Type = opMul
	case pipe:
		tok.Type = opUnion
		if k == pipe && s.version >= Version30 {
			s.read()
			tok.Type = opConcat
		}
	case bang:
		tok.Type = Invalid
		tok.Literal = "unexpected '!'"
		if k == equal {
			s.read()
			tok.Type = opNe
			tok.Literal = ""
		} else if s.version >= Version30 {
			tok.Type = opBang
			tok.Literal = ""
		}
	case question:
		tok.Type = opQuestion
	case hash:
		tok.Type = Invalid
		tok.Literal = "unexpected '#'"
		if s.version >= Version30 {
			tok.Type = opHash
			tok.Literal = ""
		}
	case equal:
		tok.Type = opEq
		if k == rangle && s.version >= Version31 {
			s.read()
			tok.Type = opArrow
		}
	case langle:
		tok.Type = opLt
		if k == equal {
			s.read()
			tok.Type = opLe
		} else if k == langle && s.version >= Version20 {
			s.read()
			tok.Type = opBefore
		}
	case rangle:
		tok.Type = opGt
		if k == equal {
			s.read()
			tok.Type = opGe
		} else if k == rangle && s.version >= Version20 {
			s.read()
			tok.Type = opAfter
		}
	case slash:
		tok.Type = currLevel
		if k == slash {
			s.read()
			tok.Type = anyLevel
		}
	case dot:
		tok.Type = currNode
		if k == dot {
			s.read()
			tok.Type = parentNode
		}
	case colon:
		tok.Type = Namespace
		if k == colon {
			s.read()
			tok.Type = opAxis
		} else if k == equal {
			s.read()
			tok.Type = opAssign
		}
	default:
		tok.Type = Invalid
		tok.Literal = fmt.Sprintf("unexpected character %q", s.char)
	}
	if tok.Type != Invalid {
		s.read()
	}
}

// afterOperand reports whether the previous token can end an operand,
// which makes a following bare word an operator keyword rather than a
// name. This is the one-token window that disambiguates "div" the
// element from "div" the operator.
func (s *Scanner) afterOperand() bool {
	switch s.last {
	case Name, Digit, Literal, Variable, currNode, parentNode,
		endGrp, endPred, endCurl, opQuestion:
		return true
	default:
		return false
	}
}

func (s *Scanner) lookForward(want string) bool {
	if s.done() {
		return false
	}
	var (
		rest  = s.input[s.next-utf8.RuneLen(s.char):]
		runes int
		i     int
	)
	for i < len(rest) {
		c, n := utf8.DecodeRuneInString(rest[i:])
		if !unicode.IsSpace(c) {
			break
		}
		i += n
		runes++
	}
	if !strings.HasPrefix(rest[i:], want) {
		return false
	}
	after := rest[i+len(want):]
	if after != "" {
		c, _ := utf8.DecodeRuneInString(after)
		if isNamePart(c) {
			return false
		}
	}
	for skip := runes + len(want); skip > 0; skip-- {
		s.read()
	}
	return true
}

func (s *Scanner) isComment() bool {
	return s.version >= Version20 && s.char == lparen && s.peek() == colon
}

func (s *Scanner) skipComment() bool {
	s.read()
	s.read()
	depth := 1
	for !s.done() && depth > 0 {
		switch {
		case s.char == lparen && s.peek() == colon:
			s.read()
			depth++
		case s.char == colon && s.peek() == rparen:
			s.read()
			depth--
		}
		s.read()
	}
	return depth == 0
}

func (s *Scanner) skipBlank() {
	for unicode.IsSpace(s.char) {
		s.read()
	}
}

func (s *Scanner) write() {
	s.str.WriteRune(s.char)
}

func (s *Scanner) read() {
	if s.char == '\n' {
		s.Column = 0
		s.Line++
	}
	if s.next >= len(s.input) {
		if s.char != utf8.RuneError {
			s.Column++
		}
		s.Offset = len(s.input)
		s.char = utf8.RuneError
		return
	}
	s.Column++
	s.Offset = s.next
	c, n := utf8.DecodeRuneInString(s.input[s.next:])
	s.char = c
	s.next += n
}

func (s *Scanner) peek() rune {
	if s.next >= len(s.input) {
		return utf8.RuneError
	}
	c, _ := utf8.DecodeRuneInString(s.input[s.next:])
	return c
}

func (s *Scanner) done() bool {
	return s.char == utf8.RuneError
}

func isNameStart(c rune) bool {
	return unicode.IsLetter(c) || c == underscore
}

func isNamePart(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c) ||
		c == dash || c == underscore || c == dot
}

const (
	langle     = '<'
	rangle     = '>'
	lsquare    = '['
	rsquare    = ']'
	lparen     = '('
	rparen     = ')'
	lcurly     = '{'
	rcurly     = '}'
	colon      = ':'
	quote      = '"'
	apos       = '\''
	slash      = '/'
	question   = '?'
	bang       = '!'
	equal      = '='
	dash       = '-'
	underscore = '_'
	dot        = '.'
	arobase    = '@'
	comma      = ','
	plus       = '+'
	star       = '*'
	pipe       = '|'
	dollar     = '$'
	hash       = '#'
)
