package utils

import (
	"math"
	"strconv"
)

// FormatINR formats an amount as whole rupees with Indian digit grouping
// (lakh/crore), e.g. 1234567.4 -> "₹12,34,567". Halves round away from zero.
func FormatINR(amount float64) string {
	switch {
	case math.IsNaN(amount):
		return "₹NaN"
	case math.IsInf(amount, 1):
		return "₹∞"
	case math.IsInf(amount, -1):
		return "-₹∞"
	}
	rounded := math.Round(amount)
	neg := rounded < 0
	if neg {
		rounded = -rounded
	}

	digits := strconv.FormatFloat(rounded, 'f', 0, 64)
	out := groupIndian(digits)
	if neg {
		return "-₹" + out
	}
	return "₹" + out
}

// groupIndian inserts separators after the last three digits and then every two
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head := digits[:len(digits)-3]
	tail := digits[len(digits)-3:]

	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}

	out := ""
	for _, g := range groups {
		out += g + ","
	}
	return out + tail
}
