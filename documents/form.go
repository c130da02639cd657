package documents

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Form is raw user input as posted by the browser form or the JSON API
type Form struct {
	Type             string     `json:"type"`
	Number           string     `json:"number"`
	Date             string     `json:"date"`
	CustomerName     string     `json:"customer_name"`
	CustomerAddress1 string     `json:"customer_address1"`
	CustomerAddress2 string     `json:"customer_address2,omitempty"`
	CustomerPostcode string     `json:"customer_postcode"`
	Items            []FormItem `json:"items"`
}

type FormItem struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

// maxItems bounds the number of rows accepted from a single submission
const maxItems = 200

var (
	itemKeyRe = regexp.MustCompile(`^items\[(\d+)\]\[(description|amount)\]$`)
	dateRe    = regexp.MustCompile(`^\d{1,2}/\d{1,2}/(\d{2}|\d{4})$`)
)

// FormFromValues decodes an application/x-www-form-urlencoded submission.
// Rows come as items[N][description] / items[N][amount]; the single
// description/amount pair of the original form is still accepted.
func FormFromValues(v url.Values) Form {
	f := Form{
		Type:             v.Get("type"),
		Number:           v.Get("number"),
		Date:             v.Get("date"),
		CustomerName:     v.Get("customer_name"),
		CustomerAddress1: v.Get("customer_address1"),
		CustomerAddress2: v.Get("customer_address2"),
		CustomerPostcode: v.Get("customer_postcode"),
	}

	rows := map[int]*FormItem{}
	for key, vals := range v {
		m := itemKeyRe.FindStringSubmatch(key)
		if m == nil || len(vals) == 0 {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil || idx >= maxItems {
			continue
		}
		row, ok := rows[idx]
		if !ok {
			row = &FormItem{}
			rows[idx] = row
		}
		if m[2] == "description" {
			row.Description = vals[0]
		} else {
			row.Amount = vals[0]
		}
	}
	indexes := make([]int, 0, len(rows))
	for idx := range rows {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)
	for _, idx := range indexes {
		row := rows[idx]
		// blank trailing rows left by the browser are not items
		if strings.TrimSpace(row.Description) == "" && strings.TrimSpace(row.Amount) == "" && len(indexes) > 1 {
			continue
		}
		f.Items = append(f.Items, *row)
	}

	if len(f.Items) == 0 && (v.Has("description") || v.Has("amount")) {
		f.Items = []FormItem{{Description: v.Get("description"), Amount: v.Get("amount")}}
	}
	return f
}

// FormFromDocument turns a generated document back into editable input.
// Address lines between the first and the postcode are joined into line 2.
func FormFromDocument(doc *Document) Form {
	f := Form{
		Type:         string(doc.Type),
		Number:       doc.Number,
		Date:         doc.Date,
		CustomerName: doc.CustomerName,
	}
	if n := len(doc.CustomerAddress); n > 0 {
		f.CustomerAddress1 = doc.CustomerAddress[0]
		if n > 1 {
			f.CustomerPostcode = doc.CustomerAddress[n-1]
		}
		if n > 2 {
			f.CustomerAddress2 = strings.Join(doc.CustomerAddress[1:n-1], ", ")
		}
	}
	for _, it := range doc.Items {
		f.Items = append(f.Items, FormItem{Description: it.Description, Amount: it.Amount.Decimal()})
	}
	return f
}

// Values encodes the form as query parameters FormFromValues reads back
func (f Form) Values() url.Values {
	v := url.Values{}
	v.Set("type", f.Type)
	v.Set("number", f.Number)
	v.Set("date", f.Date)
	v.Set("customer_name", f.CustomerName)
	v.Set("customer_address1", f.CustomerAddress1)
	v.Set("customer_address2", f.CustomerAddress2)
	v.Set("customer_postcode", f.CustomerPostcode)
	for i, it := range f.Items {
		v.Set(fmt.Sprintf("items[%d][description]", i), it.Description)
		v.Set(fmt.Sprintf("items[%d][amount]", i), it.Amount)
	}
	return v
}

// Validate checks required fields. Labels follow the document type.
func (f Form) Validate() ValidationErrors {
	var errs ValidationErrors

	docType, err := ParseType(f.Type)
	if err != nil {
		errs.add("type", "Document type must be quote or invoice")
		docType = TypeQuote
	}
	if strings.TrimSpace(f.Number) == "" {
		errs.add("number", docType.Title()+" number is required")
	}
	date := strings.TrimSpace(f.Date)
	switch {
	case date == "":
		errs.add("date", docType.Title()+" date is required")
	case !validDate(date):
		errs.add("date", docType.Title()+" date must be DD/MM/YY")
	}
	if strings.TrimSpace(f.CustomerName) == "" {
		errs.add("customer_name", "Customer name is required")
	}
	if strings.TrimSpace(f.CustomerAddress1) == "" {
		errs.add("customer_address1", "Address line 1 is required")
	}
	if strings.TrimSpace(f.CustomerPostcode) == "" {
		errs.add("customer_postcode", "Postcode is required")
	}

	if len(f.Items) == 0 {
		errs.add("items", "At least one line item is required")
	}
	if len(f.Items) > maxItems {
		errs.add("items", fmt.Sprintf("At most %d line items are allowed", maxItems))
	}
	var subtotal Money
	for i, it := range f.Items {
		if strings.TrimSpace(it.Description) == "" {
			errs.add(fmt.Sprintf("items[%d].description", i), "Description is required")
		}
		amount, err := ParseMoney(it.Amount)
		key := fmt.Sprintf("items[%d].amount", i)
		switch {
		case errors.Is(err, ErrEmptyAmount):
			errs.add(key, "Amount is required")
		case errors.Is(err, ErrAmountTooLarge):
			errs.add(key, "Amount must not exceed "+MaxAmount.Format("£"))
		case err != nil:
			errs.add(key, "Amount must be a valid amount")
		default:
			subtotal += amount
		}
	}
	if subtotal > MaxAmount {
		errs.add("items", "Total is too large")
	}
	return errs
}

func validDate(s string) bool {
	if !dateRe.MatchString(s) {
		return false
	}
	for _, layout := range []string{"2/1/06", "2/1/2006"} {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// ToDocument validates the form and builds the document for the company
func (f Form) ToDocument(company Company) (*Document, error) {
	if errs := f.Validate(); len(errs) > 0 {
		return nil, errs
	}
	docType, _ := ParseType(f.Type)

	address := []string{strings.TrimSpace(f.CustomerAddress1)}
	if a2 := strings.TrimSpace(f.CustomerAddress2); a2 != "" {
		address = append(address, a2)
	}
	address = append(address, strings.TrimSpace(f.CustomerPostcode))

	items := make([]LineItem, len(f.Items))
	for i, it := range f.Items {
		amount, _ := ParseMoney(it.Amount) // validated above
		items[i] = LineItem{
			Description: strings.TrimSpace(it.Description),
			Amount:      amount,
		}
	}

	company.Normalize()
	return &Document{
		Type:            docType,
		Number:          strings.TrimSpace(f.Number),
		Date:            strings.TrimSpace(f.Date),
		CustomerName:    strings.TrimSpace(f.CustomerName),
		CustomerAddress: address,
		Company:         company,
		Items:           items,
	}, nil
}
