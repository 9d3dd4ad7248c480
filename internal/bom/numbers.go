package bom

import (
	"regexp"
	"strconv"
	"strings"
)

// quantityPattern matches a number in German or English notation with an
// optional trailing unit, e.g. "4", "2,5", "1.250,5 m", "3 pcs".
var quantityPattern = regexp.MustCompile(`^\s*(\d{1,3}(?:[.,\s]\d{3})*(?:[.,]\d+)?|\d+(?:[.,]\d+)?)\s*([a-zA-ZäöüÄÖÜ%°]{0,8})\s*$`)

// knownUnits whitelists unit suffixes so descriptions like "4 Schrauben" do
// not lose their text to the unit capture.
var knownUnits = map[string]string{
	"st":     "st",
	"stk":    "st",
	"stck":   "st",
	"stuck":  "st",
	"pcs":    "pcs",
	"pc":     "pcs",
	"pieces": "pcs",
	"x":      "",
	"m":      "m",
	"mm":     "mm",
	"cm":     "cm",
	"kg":     "kg",
	"g":      "g",
	"l":      "l",
	"set":    "set",
	"paar":   "paar",
	"":       "",
}

// ParseQuantity parses a quantity cell. It accepts comma decimals ("2,5"),
// period decimals ("2.5"), thousands separators ("1.250,5") and an optional
// unit suffix. The boolean is false when the string is not a quantity.
func ParseQuantity(s string) (float64, string, bool) {
	m := quantityPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, "", false
	}
	number, rawUnit := m[1], strings.ToLower(m[2])

	unit, ok := knownUnits[NormalizeHeaderToken(rawUnit)]
	if !ok {
		return 0, "", false
	}

	value, ok := parseLocalizedNumber(number)
	if !ok || value <= 0 {
		return 0, "", false
	}
	return value, unit, true
}

// parseLocalizedNumber converts a numeric string that may use either "." or
// "," as the decimal separator, with the other as thousands grouping.
func parseLocalizedNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(s, " ", "")
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			// German: dot groups, comma decimal.
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			// English: comma groups, dot decimal.
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") == 1 && len(s)-lastComma-1 != 3 {
			s = strings.Replace(s, ",", ".", 1)
		} else if allGroupsOfThree(s, ",") {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case lastDot >= 0:
		// A lone dot followed by exactly three digits reads as German
		// thousands grouping ("1.250" = 1250), not as a decimal point.
		if allGroupsOfThree(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
		} else if strings.Count(s, ".") > 1 {
			return 0, false
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// allGroupsOfThree reports whether every separator-delimited group after the
// first has exactly three digits, i.e. the separator is thousands grouping.
func allGroupsOfThree(s, sep string) bool {
	parts := strings.Split(s, sep)
	if len(parts) < 2 {
		return false
	}
	for _, p := range parts[1:] {
		if len(p) != 3 {
			return false
		}
	}
	return true
}
