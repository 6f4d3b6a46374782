package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// fallbackRegions are tried in order for numbers written without a country
// calling code.
var fallbackRegions = []string{
	"US",
	"GB",
	"IL",
}

// NormalizePhone returns the E.164 form of phone, or "" when it cannot be
// parsed as a phone number.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)

	if phone == "" {
		return ""
	}

	for _, region := range fallbackRegions {
		parsedNumber, err := phonenumbers.Parse(phone, region)
		if err == nil {
			return phonenumbers.Format(parsedNumber, phonenumbers.E164)
		}
	}
	return ""
}
