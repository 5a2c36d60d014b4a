package utils

import "strconv"

func FormatBoolean(yesno bool, yes string, no string) string {
	if yesno {
		return yes
	}
	return no
}

// FormatNumber prints whole numbers without a decimal part
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
