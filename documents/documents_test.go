package documents

import (
	"math/rand/v2"
	"net/url"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validForm() Form {
	return Form{
		Type:             "quote",
		Number:           "KMJ-123",
		Date:             "05/03/25",
		CustomerName:     "John Doe",
		CustomerAddress1: "123 Main St",
		CustomerPostcode: "L31 8AL",
		Items:            []FormItem{{Description: "Side double door repairs", Amount: "150.00"}},
	}
}

func TestParseType(t *testing.T) {
	typ, err := ParseType("")
	require.NoError(t, err)
	assert.Equal(t, TypeQuote, typ)

	typ, err = ParseType(" INVOICE ")
	require.NoError(t, err)
	assert.Equal(t, TypeInvoice, typ)
	assert.Equal(t, "INVOICE NUMBER", typ.NumberLabel())
	assert.Equal(t, "INVOICE DATE", typ.DateLabel())
	assert.Equal(t, "Invoice", typ.Title())

	_, err = ParseType("receipt")
	assert.Error(t, err)
}

func TestFormValidate_OK(t *testing.T) {
	assert.Empty(t, validForm().Validate())
}

func TestFormValidate_Required(t *testing.T) {
	errs := Form{Type: "invoice"}.Validate()
	assert.Equal(t, "Invoice number is required", errs.Get("number"))
	assert.Equal(t, "Invoice date is required", errs.Get("date"))
	assert.Equal(t, "Customer name is required", errs.Get("customer_name"))
	assert.Equal(t, "Address line 1 is required", errs.Get("customer_address1"))
	assert.Equal(t, "Postcode is required", errs.Get("customer_postcode"))
	assert.Equal(t, "At least one line item is required", errs.Get("items"))
	assert.Empty(t, errs.Get("customer_address2"))
}

func TestFormValidate_Items(t *testing.T) {
	f := validForm()
	f.Items = []FormItem{
		{Description: "", Amount: ""},
		{Description: "Skirting", Amount: "ten pounds"},
	}
	errs := f.Validate()
	assert.Equal(t, "Description is required", errs.Get("items[0].description"))
	assert.Equal(t, "Amount is required", errs.Get("items[0].amount"))
	assert.Equal(t, "Amount must be a valid amount", errs.Get("items[1].amount"))
	assert.Contains(t, errs.Error(), "items[1].amount")
}

func TestFormValidate_TotalBounded(t *testing.T) {
	f := validForm()
	f.Items = []FormItem{{Description: "Huge", Amount: "46,116,860,184,273,879"}}
	assert.Equal(t, "Amount must not exceed £1,000,000,000.00", f.Validate().Get("items[0].amount"))

	f.Items = []FormItem{
		{Description: "A", Amount: "600,000,000"},
		{Description: "B", Amount: "600,000,000"},
	}
	errs := f.Validate()
	assert.Equal(t, "Total is too large", errs.Get("items"))
	_, err := f.ToDocument(DefaultCompany())
	assert.Error(t, err)

	f.Items = f.Items[:1]
	doc, err := f.ToDocument(DefaultCompany())
	require.NoError(t, err)
	assert.Positive(t, int64(doc.Total()))
}

func TestFormValidate_Date(t *testing.T) {
	f := validForm()
	for _, d := range []string{"05/03/25", "5/3/25", "05/03/2025"} {
		f.Date = d
		assert.Empty(t, f.Validate(), d)
	}
	for _, d := range []string{"2025-03-05", "32/01/25", "05/13/25"} {
		f.Date = d
		assert.Equal(t, "Quote date must be DD/MM/YY", f.Validate().Get("date"), d)
	}
}

func TestFormToDocument(t *testing.T) {
	f := validForm()
	f.CustomerAddress2 = "  Liverpool "
	f.Items = append(f.Items, FormItem{Description: "Hinges", Amount: "£12.5"})

	doc, err := f.ToDocument(DefaultCompany())
	require.NoError(t, err)
	assert.Equal(t, TypeQuote, doc.Type)
	assert.Equal(t, []string{"123 Main St", "Liverpool", "L31 8AL"}, doc.CustomerAddress)
	assert.Equal(t, Money(16250), doc.Subtotal())
	assert.Equal(t, Money(16250), doc.Total())
	assert.Equal(t, "KM-Joinery-Quote.pdf", doc.Filename())
	assert.Equal(t, "QUOTE KMJ-123", doc.Title())

	f.CustomerAddress2 = ""
	doc, err = f.ToDocument(DefaultCompany())
	require.NoError(t, err)
	assert.Equal(t, []string{"123 Main St", "L31 8AL"}, doc.CustomerAddress)
}

func TestFormToDocument_Invalid(t *testing.T) {
	f := validForm()
	f.CustomerName = " "
	_, err := f.ToDocument(DefaultCompany())
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 1)
}

func TestFormFromDocument(t *testing.T) {
	doc, err := validForm().ToDocument(DefaultCompany())
	require.NoError(t, err)

	f := FormFromDocument(doc)
	back, err := f.ToDocument(DefaultCompany())
	require.NoError(t, err)
	assert.Equal(t, doc, back)

	doc.CustomerAddress = []string{"Unit 4", "Dock Road", "Bootle", "L20 1AA"}
	f = FormFromDocument(doc)
	assert.Equal(t, "Unit 4", f.CustomerAddress1)
	assert.Equal(t, "Dock Road, Bootle", f.CustomerAddress2)
	assert.Equal(t, "L20 1AA", f.CustomerPostcode)
}

func TestDocumentVAT(t *testing.T) {
	c := DefaultCompany()
	c.VATRatePercent = 20
	doc := &Document{Company: c, Items: []LineItem{{Amount: 1005}, {Amount: 1000}}}
	assert.Equal(t, Money(2005), doc.Subtotal())
	assert.Equal(t, Money(401), doc.VAT()) // 401.0
	assert.Equal(t, Money(2406), doc.Total())
}

func TestFormFromValues(t *testing.T) {
	v := url.Values{}
	v.Set("type", "invoice")
	v.Set("number", "KMJ-200")
	v.Set("items[1][description]", "Second")
	v.Set("items[1][amount]", "20")
	v.Set("items[0][description]", "First")
	v.Set("items[0][amount]", "10")
	v.Set("items[2][description]", "")
	v.Set("items[2][amount]", "")
	v.Set("items[x][amount]", "99")

	f := FormFromValues(v)
	assert.Equal(t, "invoice", f.Type)
	require.Len(t, f.Items, 2)
	assert.Equal(t, "First", f.Items[0].Description)
	assert.Equal(t, "20", f.Items[1].Amount)

	back := FormFromValues(f.Values())
	assert.Equal(t, f, back)
}

func TestFormFromValues_Legacy(t *testing.T) {
	v := url.Values{}
	v.Set("description", "Side double door repairs")
	v.Set("amount", "150.00")
	f := FormFromValues(v)
	require.Len(t, f.Items, 1)
	assert.Equal(t, "150.00", f.Items[0].Amount)
}

func TestDefaults(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	n := DefaultNumber("KMJ", rng)
	assert.Regexp(t, regexp.MustCompile(`^KMJ-[1-9]\d{2}$`), n)
	assert.Equal(t, "KMJ-007", FormatNumber("KMJ", 7))
	assert.Equal(t, "1234", FormatNumber("", 1234))

	now := time.Date(2025, time.March, 5, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "05/03/25", DefaultDate(now))
}

func TestCompanyNormalize(t *testing.T) {
	c := Company{Name: " Acme  Plastering ", Website: "https://www.acme.test"}
	c.Normalize()
	assert.Equal(t, "£", c.Currency)
	assert.Equal(t, 30, c.Payment.TermsDays)
	assert.Equal(t, "Acme  Plastering", c.Payment.AccountName)
	assert.Equal(t, "acme.test", c.Website)
	assert.Equal(t, "Acme-Plastering", c.Slug())
}
