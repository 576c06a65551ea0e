package validator

// IsValidGTIN verifies the GS1 check digit of a GTIN-8, -12, -13 or
// -14 string. Non-digit characters or any other length fail outright.
func IsValidGTIN(code string) bool {
	switch len(code) {
	case 8, 12, 13, 14:
	default:
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}

	// Weighted sum over the digits left of the check digit, walking
	// right to left with multipliers alternating 3, 1, 3, 1, ...
	sum := 0
	mult := 3
	for i := len(code) - 2; i >= 0; i-- {
		sum += int(code[i]-'0') * mult
		if mult == 3 {
			mult = 1
		} else {
			mult = 3
		}
	}
	expected := (10 - (sum % 10)) % 10
	return int(code[len(code)-1]-'0') == expected
}
