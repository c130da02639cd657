package documents

import (
	"fmt"
	"strings"
)

// Type switches labels and whether payment terms are appended
type Type string

const (
	TypeQuote   Type = "quote"
	TypeInvoice Type = "invoice"
)

// ParseType parses a document type case-insensitively.
// Empty input is a quote, which is what the form produced before invoices existed.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(TypeQuote):
		return TypeQuote, nil
	case string(TypeInvoice):
		return TypeInvoice, nil
	default:
		return "", fmt.Errorf("unknown document type %q", s)
	}
}

func (t Type) IsInvoice() bool {
	return t == TypeInvoice
}

// Upper e.g. "QUOTE"
func (t Type) Upper() string {
	if t.IsInvoice() {
		return "INVOICE"
	}
	return "QUOTE"
}

// Title e.g. "Quote"
func (t Type) Title() string {
	if t.IsInvoice() {
		return "Invoice"
	}
	return "Quote"
}

func (t Type) NumberLabel() string {
	return t.Upper() + " NUMBER"
}

func (t Type) DateLabel() string {
	return t.Upper() + " DATE"
}

func (t Type) String() string {
	if t == "" {
		return string(TypeQuote)
	}
	return string(t)
}
