// Package share holds what the viewer needs to pass a document on:
// signed share links, Web Share API payloads, WhatsApp links and QR codes.
package share

import (
	"fmt"
	"net/url"
	"regexp"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/zeptools/gw-docgen/documents"
)

const whatsAppBase = "https://wa.me/"

// Payload for navigator.share
type Payload struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	URL   string `json:"url"`
}

// NewPayload e.g. title "KM Joinery Quote KMJ-123"
func NewPayload(doc *documents.Document, link string) Payload {
	title := fmt.Sprintf("%s %s %s", doc.Company.Name, doc.Type.Title(), doc.Number)
	return Payload{
		Title: title,
		Text:  fmt.Sprintf("%s for %s", title, doc.CustomerName),
		URL:   link,
	}
}

// Message is the single line sent where only text can be shared
func (p Payload) Message() string {
	if p.URL == "" {
		return p.Text
	}
	return p.Text + ": " + p.URL
}

// WhatsAppURL opens WhatsApp with text prefilled, for browsers without the Web Share API
func WhatsAppURL(text string) string {
	return whatsAppBase + "?text=" + url.QueryEscape(text)
}

// QRCodePNG encodes content as a size x size PNG
func QRCodePNG(content string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("share: qr code: %w", err)
	}
	return png, nil
}

var mobileUA = regexp.MustCompile(`(?i)iPhone|iPad|iPod|Android`)

func IsMobileUserAgent(ua string) bool {
	return mobileUA.MatchString(ua)
}
