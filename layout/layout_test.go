package layout

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeptools/gw-docgen/documents"
	"github.com/zeptools/gw-docgen/pdfs"
)

func sampleDoc(t documents.Type) *documents.Document {
	return &documents.Document{
		Type:            t,
		Number:          "KMJ-123",
		Date:            "05/03/25",
		CustomerName:    "John Doe",
		CustomerAddress: []string{"123 Main St", "Liverpool", "L31 8AL"},
		Company:         documents.DefaultCompany(),
		Items:           []documents.LineItem{{Description: "Side double door repairs", Amount: 15000}},
	}
}

// at asserts s is drawn exactly once at (x, y) on page 1 and returns the op
func at(t *testing.T, r *recorder, s string, x, y float64) op {
	t.Helper()
	found := r.texts(s)
	require.Len(t, found, 1, "text %q", s)
	assert.Equal(t, 1, found[0].Page, "page of %q", s)
	assert.InDelta(t, x, found[0].X, 0.001, "x of %q", s)
	assert.InDelta(t, y, found[0].Y, 0.001, "y of %q", s)
	return found[0]
}

func TestRender_QuoteFixedPositions(t *testing.T) {
	r := newRecorder()
	require.NoError(t, Render(r, sampleDoc(documents.TypeQuote), Options{Creator: "docgen"}))

	title := r.texts("KM Joinery")
	require.NotEmpty(t, title)
	assert.Equal(t, op{Page: 1, Kind: "text", X: 20, Y: 20, S: "KM Joinery", Style: "B", Size: 24}, title[0])

	heading := at(t, r, "QUOTE", 20, 30)
	assert.Equal(t, 16.0, heading.Size)

	at(t, r, "QUOTE NUMBER", 20, 40)
	at(t, r, "QUOTE DATE", 70, 40)
	num := at(t, r, "KMJ-123", 20, 45)
	assert.Equal(t, "", num.Style)
	at(t, r, "05/03/25", 70, 45)

	at(t, r, "PREPARED FOR", 20, 55)
	at(t, r, "PREPARED BY", 70, 55)
	at(t, r, "CONTACT", 140, 55)
	at(t, r, "John Doe", 20, 60)
	at(t, r, "123 Main St", 20, 65)
	at(t, r, "L31 8AL", 20, 75)
	at(t, r, "24 Lyra Road", 70, 65)
	at(t, r, "L22 0NT", 70, 75)
	at(t, r, "07395128423", 140, 60)
	at(t, r, "contact@kmjoinery.co.uk", 140, 65)
	at(t, r, "kmjoinery.co.uk", 140, 70)

	lines := r.kind("line")
	require.Len(t, lines, 2)
	assert.Equal(t, 85.0, lines[0].Y)
	assert.Equal(t, 20.0, lines[0].X)
	assert.Equal(t, 190.0, lines[0].X2)
	assert.Equal(t, 115.0, lines[1].Y)

	at(t, r, "DESCRIPTION", 20, 95)
	at(t, r, "AMOUNT", 160, 95)
	at(t, r, "Side double door repairs", 20, 105)

	amounts := r.texts("£150.00")
	require.Len(t, amounts, 3)
	assert.Equal(t, []float64{105, 125, 135}, []float64{amounts[0].Y, amounts[1].Y, amounts[2].Y})
	assert.Equal(t, "", amounts[1].Style)
	assert.Equal(t, "B", amounts[2].Style)

	at(t, r, "SUBTOTAL", 130, 125)
	at(t, r, "TOTAL", 130, 135)

	assert.Empty(t, r.texts("PAYMENT TERMS"))
	assert.Empty(t, r.kind("image"))
	assert.Equal(t, 1, r.PageCount())
	assert.Equal(t, "QUOTE KMJ-123", r.meta.Title)
	assert.Equal(t, "KM Joinery", r.meta.Author)
	assert.Equal(t, "docgen", r.meta.Creator)
}

func TestRender_Footer(t *testing.T) {
	r := newRecorder()
	require.NoError(t, Render(r, sampleDoc(documents.TypeQuote), Options{}))

	tpl, ok := r.TemplateStore().Get(FooterTemplate)
	require.True(t, ok)
	require.Len(t, tpl, 2)

	name := tpl[0]
	assert.Equal(t, "KM Joinery", name.S)
	assert.Equal(t, 270.0, name.Y)
	assert.Equal(t, "B", name.Style)
	assert.InDelta(t, 105, name.X+r.StringWidth(name.S)/2, 0.001) // centered

	contact := tpl[1]
	assert.Equal(t, "Tel: 07395128423 | contact@kmjoinery.co.uk | www.kmjoinery.co.uk", contact.S)
	assert.Equal(t, 275.0, contact.Y)
	assert.Equal(t, "", contact.Style)
}

func TestRender_InvoicePaymentTerms(t *testing.T) {
	r := newRecorder()
	require.NoError(t, Render(r, sampleDoc(documents.TypeInvoice), Options{}))

	at(t, r, "INVOICE", 20, 30)
	at(t, r, "INVOICE NUMBER", 20, 40)
	at(t, r, "INVOICE DATE", 70, 40)
	at(t, r, "PAYMENT TERMS", 20, 150)
	at(t, r, "Payment due within 30 days of invoice date", 20, 155)
	at(t, r, "PAYMENT DETAILS", 20, 165)
	at(t, r, "Please make payment to:", 20, 170)
	at(t, r, "Account Name: KM Joinery", 20, 175)
	at(t, r, "Sort Code: 00-00-00", 20, 180)
	at(t, r, "Account Number: 00000000", 20, 185)
	at(t, r, "Reference: KMJ-123", 20, 190)
	assert.Empty(t, r.texts("QUOTE"))
}

func TestRender_MultipleItems(t *testing.T) {
	doc := sampleDoc(documents.TypeQuote)
	doc.Items = []documents.LineItem{
		{Description: "Fit new front door", Amount: 45000},
		{Description: strings.Repeat("word ", 30), Amount: 1250}, // 149 glyphs -> 3 lines at 65 per line
		{Description: "Line one\nLine two", Amount: 99},
	}
	r := newRecorder()
	require.NoError(t, Render(r, doc, Options{}))

	at(t, r, "Fit new front door", 20, 105)
	at(t, r, "£450.00", 160, 105)

	// second item starts 10mm below the first and wraps over three lines
	at(t, r, "£12.50", 160, 115)
	var wrapped []float64
	for _, o := range r.kind("text") {
		if strings.HasPrefix(o.S, "word") {
			wrapped = append(wrapped, o.Y)
		}
	}
	assert.Equal(t, []float64{115, 120, 125}, wrapped)

	at(t, r, "Line one", 20, 135)
	at(t, r, "Line two", 20, 140)
	at(t, r, "£0.99", 160, 135)

	lines := r.kind("line")
	require.Len(t, lines, 2)
	assert.Equal(t, 150.0, lines[1].Y)
	at(t, r, "SUBTOTAL", 130, 160)
	at(t, r, "TOTAL", 130, 170)
	totals := r.texts("£463.49")
	require.Len(t, totals, 2)
	assert.Equal(t, 160.0, totals[0].Y)
	assert.Equal(t, 170.0, totals[1].Y)
}

func TestRender_LongAddressPushesRule(t *testing.T) {
	doc := sampleDoc(documents.TypeQuote)
	doc.CustomerAddress = []string{"Flat 2", "10 High St", "Crosby", "Liverpool", "L23 1AA"}
	r := newRecorder()
	require.NoError(t, Render(r, doc, Options{}))

	at(t, r, "L23 1AA", 20, 85)
	lines := r.kind("line")
	require.NotEmpty(t, lines)
	assert.Equal(t, 95.0, lines[0].Y)
	at(t, r, "DESCRIPTION", 20, 105)
	at(t, r, "Side double door repairs", 20, 115)
}

func TestRender_LetterPage(t *testing.T) {
	doc := sampleDoc(documents.TypeQuote)
	doc.Items = nil
	for i := 0; i < 20; i++ {
		doc.Items = append(doc.Items, documents.LineItem{Description: fmt.Sprintf("Item %02d", i), Amount: 100})
	}
	r := newRecorder()
	r.paper = pdfs.LetterSize
	require.NoError(t, Render(r, doc, Options{}))

	tpl, ok := r.TemplateStore().Get(FooterTemplate)
	require.True(t, ok)
	require.Len(t, tpl, 2)
	assert.InDelta(t, 252.4, tpl[0].Y, 0.001)
	assert.InDelta(t, 257.4, tpl[1].Y, 0.001)
	assert.InDelta(t, 107.95, tpl[0].X+r.StringWidth(tpl[0].S)/2, 0.001)

	// content stops 10mm above the footer: 105..235 fit on page 1
	last := r.texts("Item 13")
	require.Len(t, last, 1)
	assert.Equal(t, 1, last[0].Page)
	assert.Equal(t, 235.0, last[0].Y)
	next := r.texts("Item 14")
	require.Len(t, next, 1)
	assert.Equal(t, 2, next[0].Page)
	assert.Equal(t, 30.0, next[0].Y)
}

func TestRender_Pagination(t *testing.T) {
	doc := sampleDoc(documents.TypeInvoice)
	doc.Items = nil
	for i := 0; i < 30; i++ {
		doc.Items = append(doc.Items, documents.LineItem{Description: fmt.Sprintf("Item %02d", i), Amount: 100})
	}
	r := newRecorder()
	require.NoError(t, Render(r, doc, Options{}))

	require.Equal(t, 2, r.PageCount())
	for _, o := range r.kind("text") {
		assert.LessOrEqual(t, o.Y, 260.0, "%q on page %d", o.S, o.Page)
	}

	// items 105..255 fit on page 1 (16 items), the rest continue under repeated headers
	last := r.texts("Item 15")
	require.Len(t, last, 1)
	assert.Equal(t, 1, last[0].Page)
	assert.Equal(t, 255.0, last[0].Y)

	next := r.texts("Item 16")
	require.Len(t, next, 1)
	assert.Equal(t, 2, next[0].Page)
	assert.Equal(t, 30.0, next[0].Y)

	headers := r.texts("DESCRIPTION")
	require.Len(t, headers, 2)
	assert.Equal(t, 2, headers[1].Page)
	assert.Equal(t, 20.0, headers[1].Y)

	// footer stamped on both pages
	var footerPages []int
	for _, o := range r.ops {
		if o.Template && o.S == "KM Joinery" {
			footerPages = append(footerPages, o.Page)
		}
	}
	assert.Equal(t, []int{1, 2}, footerPages)

	totals := r.texts("TOTAL")
	require.Len(t, totals, 1)
	assert.Equal(t, 2, totals[0].Page)
	terms := r.texts("PAYMENT TERMS")
	require.Len(t, terms, 1)
	assert.Equal(t, 2, terms[0].Page)
}

func TestRender_TotalsMoveToNextPage(t *testing.T) {
	doc := sampleDoc(documents.TypeQuote)
	doc.Items = nil
	for i := 0; i < 15; i++ { // last item at 245, rule would be 255
		doc.Items = append(doc.Items, documents.LineItem{Description: fmt.Sprintf("Item %02d", i), Amount: 100})
	}
	r := newRecorder()
	require.NoError(t, Render(r, doc, Options{}))

	require.Equal(t, 2, r.PageCount())
	lines := r.kind("line")
	require.Len(t, lines, 2)
	assert.Equal(t, 2, lines[1].Page)
	assert.Equal(t, 20.0, lines[1].Y)
	sub := r.texts("SUBTOTAL")
	require.Len(t, sub, 1)
	assert.Equal(t, 30.0, sub[0].Y)
}

func TestRender_VAT(t *testing.T) {
	doc := sampleDoc(documents.TypeQuote)
	doc.Company.VATRatePercent = 20
	r := newRecorder()
	require.NoError(t, Render(r, doc, Options{}))

	at(t, r, "VAT (20%)", 120, 135)
	at(t, r, "£30.00", 160, 135)
	at(t, r, "TOTAL", 130, 145)
	at(t, r, "£180.00", 160, 145)
}

func TestRender_QRCode(t *testing.T) {
	r := newRecorder()
	opts := Options{QRCode: []byte{0x89, 'P', 'N', 'G'}, QRCaption: "Scan to view online"}
	require.NoError(t, Render(r, sampleDoc(documents.TypeInvoice), opts))

	imgs := r.kind("image")
	require.Len(t, imgs, 1)
	assert.Equal(t, 155.0, imgs[0].X)
	assert.Equal(t, 146.0, imgs[0].Y)
	assert.Equal(t, 190.0, imgs[0].X2)
	caption := r.texts("Scan to view online")
	require.Len(t, caption, 1)
	assert.True(t, caption[0].Grey)
	for _, o := range r.kind("text") {
		if o.S != caption[0].S {
			assert.False(t, o.Grey, "%q", o.S)
		}
	}
}

func TestRender_Errors(t *testing.T) {
	assert.Error(t, Render(newRecorder(), nil, Options{}))
	doc := sampleDoc(documents.TypeQuote)
	doc.Items = nil
	assert.Error(t, Render(newRecorder(), doc, Options{}))
}

func TestTrimFloat(t *testing.T) {
	assert.Equal(t, "20", trimFloat(20))
	assert.Equal(t, "17.5", trimFloat(17.5))
}
