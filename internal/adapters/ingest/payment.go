package ingest

import (
	"regexp"
	"strconv"
	"strings"
)

var amountRe = regexp.MustCompile(`(?:\$|usd\s?)\s?([0-9][0-9,]*(?:\.[0-9]{1,2})?)`)

// DetectPaymentRequest scans subject and body for currency amounts. The
// largest amount found is reported, and any amount flags the email as a
// payment request, matching the dashboard's amount-driven flagging.
func DetectPaymentRequest(subject, body string) (bool, float64) {
	text := strings.ToLower(subject + " " + body)

	largest := 0.0
	for _, m := range amountRe.FindAllStringSubmatch(text, -1) {
		raw := strings.ReplaceAll(m[1], ",", "")
		if amount, err := strconv.ParseFloat(raw, 64); err == nil && amount > largest {
			largest = amount
		}
	}

	return largest > 0, largest
}
