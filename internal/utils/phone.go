package utils

import (
	"errors"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// PhoneDigits is the number of digits a phone number carries once the
// leading "+" is dropped, country code included (998 90 123 45 67).
const PhoneDigits = 12

// DefaultPhoneRegion is used by the parser when a number lacks a "+".
const DefaultPhoneRegion = "UZ"

var (
	// ErrPhoneNotDigits is returned when a phone number contains anything but digits.
	ErrPhoneNotDigits = errors.New("phone number must contain digits only")
	// ErrPhoneLength is returned when a phone number does not have PhoneDigits digits.
	ErrPhoneLength = errors.New("phone number must contain 12 digits")
)

// NormalizePhone returns the canonical E.164 form ("+998901234567") of raw.
// Spaces, dashes and parentheses are ignored; a leading "+" is optional.
func NormalizePhone(raw string) (string, error) {
	digits := stripPhone(raw)
	if digits == "" {
		return "", ErrPhoneNotDigits
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", ErrPhoneNotDigits
		}
	}
	if len(digits) != PhoneDigits {
		return "", ErrPhoneLength
	}

	num, err := phonenumbers.Parse("+"+digits, DefaultPhoneRegion)
	if err != nil {
		return "", err
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// PhoneSuffix returns the last n digits of phone.
func PhoneSuffix(phone string, n int) string {
	digits := stripPhone(phone)
	if len(digits) <= n {
		return digits
	}
	return digits[len(digits)-n:]
}

func stripPhone(raw string) string {
	replacer := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", "+", "")
	return replacer.Replace(strings.TrimSpace(raw))
}
