package xpath

import (
	"errors"
	"fmt"
)

// W3C error codes raised by the engine. Static codes come from the
// compiler, the others from evaluation.
const (
	CodeSyntax        = "XPST0003"
	CodeUndefinedVar  = "XPST0008"
	CodeUnknownFunc   = "XPST0017"
	CodeUnboundPrefix = "XPST0081"
	CodeStaticType    = "XPST0005"
	CodeUnknownType   = "XPST0051"

	CodeNoContext   = "XPDY0002"
	CodeTreatAs     = "XPDY0050"
	CodeOperandType = "XPTY0004"
	CodeStepType    = "XPTY0019"
	CodeMixedPath   = "XPTY0018"

	CodeBoolValue   = "FORG0006"
	CodeBadArgument = "FORG0001"
	CodeEmptyArg    = "FORG0004"
	CodeSingleArg   = "FORG0005"
	CodeRegexFlags  = "FORX0001"
	CodeRegex       = "FORX0002"
	CodeRegexMatch  = "FORX0003"
	CodeRegexGroup  = "FORX0004"
	CodeDivZero     = "FOAR0001"
	CodeNumericOp   = "FOAR0002"
	CodeCast        = "FOCA0002"
	CodeIntRange    = "FOCA0003"
	CodeDateTime    = "FODT0001"
	CodeDuration    = "FODT0002"
	CodeTimezone    = "FODT0003"
	CodeNamespace   = "FONS0004"
	CodeUserError   = "FOER0000"
	CodeDocument    = "FODC0002"
	CodeCollation   = "FOCH0002"
	CodeNoEntry     = "FOAY0001"
	CodeDupKey      = "FOJS0003"
)

var (
	ErrType        = errors.New("invalid type")
	ErrIndex       = errors.New("index out of range")
	ErrNode        = errors.New("node expected")
	ErrEmpty       = errors.New("sequence is empty")
	ErrImplemented = errors.New("not implemented")
	ErrZero        = errors.New("division by zero")
	ErrArgument    = errors.New("invalid number of argument(s)")
	ErrSyntax      = errors.New("invalid syntax")
	ErrCast        = errors.New("value can not be cast to target type")
)

// Error carries the W3C error code and, when known, the source span of
// the offending token.
type Error struct {
	Code    string
	Message string
	Span
}

func (e *Error) Error() string {
	if e.Span.Zero() {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s at %d:%d", e.Code, e.Message, e.Line, e.Column)
}

func Errorf(code, pattern string, args ...any) error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(pattern, args...),
	}
}

func errorAt(code string, span Span, pattern string, args ...any) error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(pattern, args...),
		Span:    span,
	}
}

// ErrorCode extracts the W3C code from err, or the empty string.
func ErrorCode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func spanned(err error, span Span) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) && e.Span.Zero() {
		e.Span = span
	}
	return err
}
