package export

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// cleanText NFC-normalises free text and drops control characters that are
// not allowed in XML 1.0 documents.
func cleanText(s string) string {
	s = norm.NFC.String(s)
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return r
		case r < 0x20 || r == 0xFFFE || r == 0xFFFF:
			return -1
		}
		return r
	}, s)
}

func isoDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// compactDate renders YYYYMMDD, used by both the ledger text and the CII "102" format
func compactDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return strings.ReplaceAll(isoDate(t), "-", "")
}

func fixed2(d decimal.Decimal) string {
	return d.StringFixed(2)
}
