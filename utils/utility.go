package gateway_integration_utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

func ParseDateTime(dateTimeStr string) (time.Time, error) {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05", // Without timezone
		"2006-01-02",
	}

	var t time.Time
	var err error
	for _, layout := range layouts {
		t, err = time.Parse(layout, dateTimeStr)
		if err == nil {
			return t, nil
		}
	}
	return t, err
}

// AmountToCents converts a decimal amount string as found in ISO 20022
// documents ("110.00", "5.5", "250") into minor currency units. Amounts with
// more than two decimal places are rejected.
func AmountToCents(amount string) (int64, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return 0, eris.New("empty amount")
	}

	whole, frac, _ := strings.Cut(amount, ".")
	if len(frac) > 2 {
		return 0, eris.Errorf("amount %q has more than two decimal places", amount)
	}
	for len(frac) < 2 {
		frac += "0"
	}

	wholeVal, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "parsing amount %q", amount)
	}
	fracVal, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "parsing amount %q", amount)
	}

	if wholeVal < 0 {
		return wholeVal*100 - fracVal, nil
	}
	return wholeVal*100 + fracVal, nil
}

// CentsToAmount renders minor currency units as a decimal string with two
// decimal places, the format ISO 20022 amount elements expect.
func CentsToAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
