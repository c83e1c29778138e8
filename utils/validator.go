package gateway_integration_utils

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func InitValidator() *validator.Validate {
	validate = validator.New()
	validate.RegisterValidation(string(IBAN), ValidateIBAN)

	return validate
}

func GetValidator() *validator.Validate {
	if validate == nil {
		return InitValidator()
	} else {
		return validate
	}
}

func ValidateStruct(ctx context.Context, s interface{}) error {
	return GetValidator().Struct(s)
}

// Register custom validation rule

// Custom validation tag name to be used in struct tag
type CustomValidatorName string

const (
	IBAN CustomValidatorName = "iban"
)

// ValidateIBAN runs the ISO 13616 mod-97 check on the field value.
// Country-specific length rules are not enforced beyond the general 15-34
// bound, the gateway rejects those violations on its side anyway.
func ValidateIBAN(fl validator.FieldLevel) bool {
	return CheckIBAN(fl.Field().String())
}

func CheckIBAN(iban string) bool {
	iban = strings.ToUpper(strings.ReplaceAll(iban, " ", ""))
	if len(iban) < 15 || len(iban) > 34 {
		return false
	}

	// Move the country code and check digits to the end, substitute letters
	// with their numeric values, then compute mod 97.
	rearranged := iban[4:] + iban[:4]
	remainder := 0
	for _, c := range rearranged {
		switch {
		case c >= '0' && c <= '9':
			remainder = (remainder*10 + int(c-'0')) % 97
		case c >= 'A' && c <= 'Z':
			n := int(c-'A') + 10
			remainder = (remainder*100 + n) % 97
		default:
			return false
		}
	}

	return remainder == 1
}
