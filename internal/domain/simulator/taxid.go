package simulator

import "strings"

// DigitsOnly strips every non-digit rune.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidCPF reports whether s holds a CPF whose two check digits are correct.
// Formatting characters are ignored; repeated-digit sequences are rejected.
func ValidCPF(s string) bool {
	d := DigitsOnly(s)
	if len(d) != 11 {
		return false
	}
	if strings.Count(d, d[:1]) == 11 {
		return false
	}
	return cpfCheckDigit(d[:9]) == int(d[9]-'0') && cpfCheckDigit(d[:10]) == int(d[10]-'0')
}

// cpfCheckDigit weights the digits from len+1 down to 2.
func cpfCheckDigit(digits string) int {
	sum := 0
	weight := len(digits) + 1
	for i := 0; i < len(digits); i++ {
		sum += int(digits[i]-'0') * weight
		weight--
	}
	rem := (sum * 10) % 11
	if rem == 10 || rem == 11 {
		rem = 0
	}
	return rem
}
