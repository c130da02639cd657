package documents

import "math"

// LineItem is one billable row
type LineItem struct {
	Description string `json:"description"`
	Amount      Money  `json:"amount"` // pence
}

// Document parameterizes a quote or invoice render
type Document struct {
	Type            Type       `json:"type"`
	Number          string     `json:"number"`
	Date            string     `json:"date"`
	CustomerName    string     `json:"customer_name"`
	CustomerAddress []string   `json:"customer_address"`
	Company         Company    `json:"company"`
	Items           []LineItem `json:"items"`
}

func (d *Document) Subtotal() Money {
	var sum Money
	for _, it := range d.Items {
		sum += it.Amount
	}
	return sum
}

// VAT rounds half up to a penny. Zero when no rate is configured.
func (d *Document) VAT() Money {
	rate := d.Company.VATRatePercent
	if rate <= 0 {
		return 0
	}
	return Money(math.Floor(float64(d.Subtotal())*rate/100 + 0.5))
}

func (d *Document) Total() Money {
	return d.Subtotal() + d.VAT()
}

// Filename e.g. "KM-Joinery-Quote.pdf"
func (d *Document) Filename() string {
	slug := d.Company.Slug()
	if slug == "" {
		return d.Type.Title() + ".pdf"
	}
	return slug + "-" + d.Type.Title() + ".pdf"
}

// Title e.g. "QUOTE KMJ-123"
func (d *Document) Title() string {
	return d.Type.Upper() + " " + d.Number
}
