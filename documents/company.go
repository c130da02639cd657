package documents

import "strings"

// Company is the profile printed on every document
type Company struct {
	Name           string         `json:"name"`
	Address        []string       `json:"address"`
	Contact        string         `json:"contact"` // phone
	Email          string         `json:"email"`
	Website        string         `json:"website"` // without scheme and "www."
	NumberPrefix   string         `json:"number_prefix"`
	Currency       string         `json:"currency"` // symbol
	VATRatePercent float64        `json:"vat_rate_percent"`
	Payment        PaymentDetails `json:"payment"`
}

type PaymentDetails struct {
	AccountName   string `json:"account_name"`
	SortCode      string `json:"sort_code"`
	AccountNumber string `json:"account_number"`
	TermsDays     int    `json:"terms_days"`
}

const (
	DefaultCurrency  = "£"
	DefaultTermsDays = 30
)

// DefaultCompany is the profile used when no company config is present
func DefaultCompany() Company {
	return Company{
		Name:         "KM Joinery",
		Address:      []string{"24 Lyra Road", "Liverpool", "L22 0NT"},
		Contact:      "07395128423",
		Email:        "contact@kmjoinery.co.uk",
		Website:      "kmjoinery.co.uk",
		NumberPrefix: "KMJ",
		Currency:     DefaultCurrency,
		Payment: PaymentDetails{
			AccountName:   "KM Joinery",
			SortCode:      "00-00-00",
			AccountNumber: "00000000",
			TermsDays:     DefaultTermsDays,
		},
	}
}

// Normalize fills defaults for zero fields
func (c *Company) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	if c.Currency == "" {
		c.Currency = DefaultCurrency
	}
	if c.Payment.TermsDays <= 0 {
		c.Payment.TermsDays = DefaultTermsDays
	}
	if c.Payment.AccountName == "" {
		c.Payment.AccountName = c.Name
	}
	c.Website = strings.TrimPrefix(strings.TrimPrefix(c.Website, "https://"), "http://")
	c.Website = strings.TrimPrefix(c.Website, "www.")
}

// Slug e.g. "KM-Joinery"
func (c Company) Slug() string {
	return strings.Join(strings.Fields(c.Name), "-")
}
