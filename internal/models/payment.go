package models

import "strings"

// PaymentMethods lists the methods offered to operators. The empty string
// means "not paid yet".
var PaymentMethods = []string{"", "Contanti", "POS", "Assegno", "Olio"}

// CanonicalPayment matches s case-insensitively against PaymentMethods and
// returns the canonical spelling.
func CanonicalPayment(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, m := range PaymentMethods {
		if strings.EqualFold(m, s) {
			return m, true
		}
	}
	return s, false
}
