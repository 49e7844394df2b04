package simulator

import (
	"github.com/dustin/go-humanize"
)

// FormatTaxID renders 11 CPF digits as NNN.NNN.NNN-NN. Other lengths are
// returned as bare digits.
func FormatTaxID(s string) string {
	d := DigitsOnly(s)
	if len(d) != 11 {
		return d
	}
	return d[:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:]
}

// FormatPhone renders (NN) NNNNN-NNNN for mobiles and (NN) NNNN-NNNN for
// landlines. Other lengths are returned as bare digits.
func FormatPhone(s string) string {
	d := DigitsOnly(s)
	switch len(d) {
	case 11:
		return "(" + d[:2] + ") " + d[2:7] + "-" + d[7:]
	case 10:
		return "(" + d[:2] + ") " + d[2:6] + "-" + d[6:]
	}
	return d
}

// FormatCurrency renders v in reais with pt-BR grouping, e.g. R$ 1.234,50.
func FormatCurrency(v float64) string {
	return "R$ " + humanize.FormatFloat("#.###,##", v)
}
