package xpath

import (
	"net/url"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	codepointCollationURI = "http://www.w3.org/2005/xpath-functions/collation/codepoint"
	ucaCollationURI       = "http://www.w3.org/2013/collation/UCA"
)

// Collation compares strings. The codepoint collation is always
// available; locale sensitive ones resolve through x/text.
type Collation interface {
	Compare(left, right string) int
}

type codepointCollation struct{}

func (codepointCollation) Compare(left, right string) int {
	return strings.Compare(left, right)
}

type localeCollation struct {
	collator *collate.Collator
}

func (c localeCollation) Compare(left, right string) int {
	return c.collator.CompareString(left, right)
}

// resolveCollation accepts the codepoint URI, a UCA URI with a lang
// query parameter, or a bare BCP47 language tag.
func resolveCollation(name string) (Collation, error) {
	if name == "" || name == codepointCollationURI {
		return codepointCollation{}, nil
	}
	lang := name
	if strings.HasPrefix(name, ucaCollationURI) {
		u, err := url.Parse(name)
		if err != nil {
			return nil, Errorf(CodeCollation, "%s: invalid collation uri", name)
		}
		lang = u.Query().Get("lang")
		if lang == "" {
			return localeCollation{collator: collate.New(language.Und)}, nil
		}
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return nil, Errorf(CodeCollation, "%s: unknown collation", name)
	}
	return localeCollation{collator: collate.New(tag)}, nil
}
