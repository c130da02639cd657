package documents

import (
	"errors"
	"strconv"
	"strings"
)

// Money in minor units (pence)
type Money int64

// MaxAmount caps a single line item and a document subtotal at £1bn.
// 200 items at the cap stay far inside int64.
const MaxAmount Money = 1_000_000_000 * 100

var (
	ErrEmptyAmount    = errors.New("empty amount")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrAmountTooLarge = errors.New("amount too large")
)

var currencySymbols = []string{"£", "$", "€"}

// ParseMoney parses user input like "150", "150.5", "£1,200.50"
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	for _, sym := range currencySymbols {
		if strings.HasPrefix(s, sym) {
			s = strings.TrimSpace(strings.TrimPrefix(s, sym))
			break
		}
	}
	if s == "" {
		return 0, ErrEmptyAmount
	}
	if !validGrouping(s) {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", "")

	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if hasFrac && (frac == "" || len(frac) > 2) {
		return 0, ErrInvalidAmount
	}
	for _, part := range []string{whole, frac} {
		for i := 0; i < len(part); i++ {
			if part[i] < '0' || part[i] > '9' {
				return 0, ErrInvalidAmount
			}
		}
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, ErrAmountTooLarge
	}
	var minor int64
	if frac != "" {
		if len(frac) == 1 {
			frac += "0"
		}
		minor, _ = strconv.ParseInt(frac, 10, 64)
	}
	if units > int64(MaxAmount/100) {
		return 0, ErrAmountTooLarge
	}
	m := Money(units*100 + minor)
	if m > MaxAmount {
		return 0, ErrAmountTooLarge
	}
	return m, nil
}

// validGrouping accepts thousands separators only in groups of three
func validGrouping(s string) bool {
	if !strings.Contains(s, ",") {
		return true
	}
	whole, _, _ := strings.Cut(s, ".")
	groups := strings.Split(whole, ",")
	if len(groups[0]) == 0 || len(groups[0]) > 3 {
		return false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return false
		}
	}
	return true
}

// Format renders e.g. "£1,200.50"
func (m Money) Format(symbol string) string {
	neg := m < 0
	if neg {
		m = -m
	}
	units := strconv.FormatInt(int64(m)/100, 10)
	minor := int64(m) % 100

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(symbol)
	for i, c := range units {
		if i > 0 && (len(units)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	b.WriteByte('.')
	if minor < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.FormatInt(minor, 10))
	return b.String()
}

// Decimal renders e.g. "1200.50", the form used in inputs
func (m Money) Decimal() string {
	return strings.ReplaceAll(m.Format(""), ",", "")
}
