package render

import (
	"html/template"
	"strconv"

	"github.com/zeptools/gw-docgen/documents"
)

// Funcs are the template helpers shared by the document and page templates
func Funcs() template.FuncMap {
	return template.FuncMap{
		"money": func(currency string, m documents.Money) string {
			if currency == "" {
				currency = documents.DefaultCurrency
			}
			return m.Format(currency)
		},
		"percent": func(f float64) string {
			return strconv.FormatFloat(f, 'f', -1, 64) + "%"
		},
		"add": func(a, b int) int {
			return a + b
		},
	}
}
