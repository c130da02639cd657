// Package layout draws a quote or invoice onto an A4 or Letter page.
//
// Every element sits at a fixed position (mm, text baselines) except the
// customer/company address block and the line items, whose heights push
// everything below them down. Line items that would run into the footer
// continue on a new page. The footer is anchored to the bottom edge and the
// page is centered horizontally, so on A4 the footer sits at y=270 and
// content stops at y=260.
package layout

import (
	"fmt"
	"math"
	"strings"

	"github.com/zeptools/gw-docgen/documents"
	"github.com/zeptools/gw-docgen/pdfs"
)

const FooterTemplate = "footer"

const (
	fontFamily = "helvetica"
	styleBold  = "B"
	styleReg   = ""

	colLeft        = 20.0
	colMiddle      = 70.0
	colContact     = 140.0
	colTotalsLabel = 130.0
	colAmount      = 160.0
	ruleRight      = 190.0

	lineStep       = 5.0
	rowGap         = 10.0 // baseline to baseline between blocks
	descWidth      = 130.0
	minRuleY       = 85.0
	continuedTop   = 20.0
	footerName     = 27.0 // above the bottom edge
	footerContact  = 22.0
	footerClear    = 10.0 // between content and the footer name

	qrX    = 155.0
	qrSize = 35.0
)

var (
	ruleGrey    = [3]int{220, 220, 220}
	captionGrey = [3]int{110, 110, 110}
)

type Options struct {
	Creator   string // document metadata, e.g. app name
	QRCode    []byte // PNG, optional
	QRCaption string
}

// Render draws doc onto w, starting a new page
func Render[T any](w pdfs.Writer[T], doc *documents.Document, opts Options) error {
	if doc == nil {
		return fmt.Errorf("layout: nil document")
	}
	if len(doc.Items) == 0 {
		return fmt.Errorf("layout: document %q has no line items", doc.Number)
	}
	paper := w.PaperSize()
	height := roundMM(paper.HeightMM())
	e := &engine[T]{
		w:        w,
		doc:      doc,
		opts:     opts,
		currency: doc.Company.Currency,
		center:   roundMM(paper.WidthMM()) / 2,
		footerY:  height - footerName,
		bottom:   height - footerName - footerClear,
	}
	if e.currency == "" {
		e.currency = documents.DefaultCurrency
	}

	w.SetMetadata(pdfs.Metadata{
		Title:   doc.Title(),
		Author:  doc.Company.Name,
		Subject: doc.Title() + " for " + doc.CustomerName,
		Creator: opts.Creator,
	})
	e.defineFooter()
	e.newPage()

	ruleY := e.drawHeader()
	e.rule(ruleY)
	e.drawItemsHeader(ruleY + rowGap)
	lastItemY := e.drawItems(ruleY + 2*rowGap)
	totalY := e.drawTotals(lastItemY + rowGap)

	anchor := totalY + 15
	if doc.Type.IsInvoice() {
		anchor = e.drawPaymentTerms(anchor)
	}
	if len(opts.QRCode) > 0 {
		e.drawQRCode(anchor)
	}
	return w.Err()
}

type engine[T any] struct {
	w        pdfs.Writer[T]
	doc      *documents.Document
	opts     Options
	currency string

	center  float64
	footerY float64
	bottom  float64 // nothing but the footer goes below
}

func (e *engine[T]) defineFooter() {
	c := e.doc.Company
	contact := fmt.Sprintf("Tel: %s | %s | www.%s", c.Contact, c.Email, c.Website)
	contactY := e.footerY + footerName - footerContact
	e.w.DefineTemplate(FooterTemplate, func(cv pdfs.Canvas) {
		cv.SetFont(fontFamily, styleBold, 10)
		cv.TextCentered(e.center, e.footerY, c.Name)
		cv.SetFontStyle(styleReg)
		cv.TextCentered(e.center, contactY, contact)
	})
}

func (e *engine[T]) newPage() {
	if !e.w.AddTemplatePage(FooterTemplate) {
		e.w.AddBlankPage()
	}
	e.w.SetFont(fontFamily, styleReg, 10)
}

// continuePage starts a follow-on page and returns its first usable baseline
func (e *engine[T]) continuePage() float64 {
	e.newPage()
	return continuedTop
}

func (e *engine[T]) text(x, y float64, s string) {
	if s == "" {
		return
	}
	e.w.Text(x, y, s)
}

func (e *engine[T]) rule(y float64) {
	e.w.SetDrawColor(ruleGrey[0], ruleGrey[1], ruleGrey[2])
	e.w.Line(colLeft, y, ruleRight, y)
}

func (e *engine[T]) money(m documents.Money) string {
	return m.Format(e.currency)
}

// drawHeader returns the y of the rule closing the variable-height address block
func (e *engine[T]) drawHeader() float64 {
	d, c, w := e.doc, e.doc.Company, e.w

	w.SetFont(fontFamily, styleBold, 24)
	e.text(colLeft, 20, c.Name)
	w.SetFontSize(16)
	e.text(colLeft, 30, d.Type.Upper())

	w.SetFontSize(10)
	e.text(colLeft, 40, d.Type.NumberLabel())
	e.text(colMiddle, 40, d.Type.DateLabel())
	w.SetFontStyle(styleReg)
	e.text(colLeft, 45, d.Number)
	e.text(colMiddle, 45, d.Date)

	w.SetFontStyle(styleBold)
	e.text(colLeft, 55, "PREPARED FOR")
	e.text(colMiddle, 55, "PREPARED BY")
	e.text(colContact, 55, "CONTACT")

	w.SetFontStyle(styleReg)
	e.text(colLeft, 60, d.CustomerName)
	last := e.column(colLeft, 65, d.CustomerAddress)
	e.text(colMiddle, 60, c.Name)
	last = max(last, e.column(colMiddle, 65, c.Address))
	last = max(last, e.column(colContact, 60, []string{c.Contact, c.Email, c.Website}))

	return max(minRuleY, last+rowGap)
}

// column draws lines downward from y and returns the last baseline used
func (e *engine[T]) column(x, y float64, lines []string) float64 {
	last := y - lineStep
	for _, l := range lines {
		e.text(x, y, l)
		last = y
		y += lineStep
	}
	return last
}

func (e *engine[T]) drawItemsHeader(y float64) {
	e.w.SetFontStyle(styleBold)
	e.text(colLeft, y, "DESCRIPTION")
	e.text(colAmount, y, "AMOUNT")
	e.w.SetFontStyle(styleReg)
}

// drawItems returns the baseline of the last description line drawn.
// An item moves whole to a new page when it fits there; one taller than a
// page breaks between its lines.
func (e *engine[T]) drawItems(y float64) float64 {
	last := y
	fresh := continuedTop + rowGap
	for _, it := range e.doc.Items {
		lines := e.descriptionLines(it.Description)
		height := float64(len(lines)-1) * lineStep
		if y+height > e.bottom && (fresh+height <= e.bottom || y > e.bottom) {
			y = e.newItemsPage()
		}
		e.text(colAmount, y, e.money(it.Amount))
		for i, l := range lines {
			if i > 0 {
				y += lineStep
				if y > e.bottom {
					y = e.newItemsPage()
				}
			}
			e.text(colLeft, y, l)
		}
		last = y
		y = last + rowGap
	}
	return last
}

// newItemsPage repeats the column headers and returns the first item baseline
func (e *engine[T]) newItemsPage() float64 {
	top := e.continuePage()
	e.drawItemsHeader(top)
	return top + rowGap
}

func (e *engine[T]) descriptionLines(desc string) []string {
	var lines []string
	for _, para := range strings.Split(strings.ReplaceAll(desc, "\r\n", "\n"), "\n") {
		lines = append(lines, e.w.SplitText(para, descWidth)...)
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	return lines
}

// drawTotals draws the closing rule at ruleY and the totals under it.
// Returns the TOTAL baseline.
func (e *engine[T]) drawTotals(ruleY float64) float64 {
	d := e.doc
	rows := 2
	vat := d.VAT()
	if vat > 0 {
		rows++
	}
	if ruleY+float64(rows)*rowGap > e.bottom {
		ruleY = e.continuePage()
	}
	e.rule(ruleY)

	y := ruleY + rowGap
	e.w.SetFontStyle(styleBold)
	e.text(colTotalsLabel, y, "SUBTOTAL")
	e.w.SetFontStyle(styleReg)
	e.text(colAmount, y, e.money(d.Subtotal()))

	if vat > 0 {
		y += rowGap
		e.w.SetFontStyle(styleBold)
		e.text(colTotalsLabel-10, y, fmt.Sprintf("VAT (%s%%)", trimFloat(d.Company.VATRatePercent)))
		e.w.SetFontStyle(styleReg)
		e.text(colAmount, y, e.money(vat))
	}

	y += rowGap
	e.w.SetFontStyle(styleBold)
	e.text(colTotalsLabel, y, "TOTAL")
	e.text(colAmount, y, e.money(d.Total()))
	e.w.SetFontStyle(styleReg)
	return y
}

// drawPaymentTerms draws the invoice-only block from y, moving it to a new
// page when it does not fit. Returns the y it was drawn at.
func (e *engine[T]) drawPaymentTerms(y float64) float64 {
	d, p := e.doc, e.doc.Company.Payment
	if y+8*lineStep > e.bottom {
		y = e.continuePage()
	}
	terms := p.TermsDays
	if terms <= 0 {
		terms = documents.DefaultTermsDays
	}
	accountName := p.AccountName
	if accountName == "" {
		accountName = d.Company.Name
	}

	e.w.SetFontStyle(styleBold)
	e.text(colLeft, y, "PAYMENT TERMS")
	e.w.SetFontStyle(styleReg)
	e.text(colLeft, y+5, fmt.Sprintf("Payment due within %d days of invoice date", terms))

	e.w.SetFontStyle(styleBold)
	e.text(colLeft, y+15, "PAYMENT DETAILS")
	e.w.SetFontStyle(styleReg)
	e.column(colLeft, y+20, []string{
		"Please make payment to:",
		"Account Name: " + accountName,
		"Sort Code: " + p.SortCode,
		"Account Number: " + p.AccountNumber,
		"Reference: " + d.Number,
	})
	return y
}

// drawQRCode places the code to the right of the block anchored at y
func (e *engine[T]) drawQRCode(y float64) {
	top := y - 4
	if top+qrSize+lineStep > e.bottom {
		top = e.continuePage() - 4
	}
	e.w.Image("qr", e.opts.QRCode, qrX, top, qrSize, qrSize)
	if e.opts.QRCaption != "" {
		e.w.SetFontSize(8)
		e.w.SetTextColor(captionGrey[0], captionGrey[1], captionGrey[2])
		e.w.TextCentered(qrX+qrSize/2, top+qrSize+4, e.opts.QRCaption)
		e.w.SetTextColor(0, 0, 0)
		e.w.SetFontSize(10)
	}
}

// roundMM drops float noise from pt to mm conversion, e.g. 296.99999 -> 297
func roundMM(v float64) float64 {
	return math.Round(v*10) / 10
}

func trimFloat(f float64) string {
	s := fmt.Sprintf("%.2f", f)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
