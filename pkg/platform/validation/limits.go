package validation

import (
	"fmt"

	dErrors "vcissuer/pkg/domain-errors"
)

// Identifier and document length limits for admin requests.
const (
	// MaxIDLength bounds definition, holder and participant identifiers.
	MaxIDLength = 128

	// MaxCredentialTypeLength bounds a credential type name.
	MaxCredentialTypeLength = 256

	// MaxURLLength bounds storage endpoints and schema URLs.
	MaxURLLength = 2048

	// MaxSchemaLength bounds an inline JSON schema.
	MaxSchemaLength = 64 * 1024
)

// Element count limits.
const (
	// MaxDefinitionsPerIssuance is the maximum number of credentials one
	// issuance request may ask for.
	MaxDefinitionsPerIssuance = 20

	// MaxMappings is the maximum number of claim mappings per definition.
	MaxMappings = 50
)

// CheckSliceCount validates that a collection does not exceed the maximum count.
func CheckSliceCount(fieldName string, count, max int) error {
	if count > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("too many %s: max %d allowed", fieldName, max))
	}
	return nil
}

// CheckStringLength validates that a string does not exceed the maximum length.
func CheckStringLength(fieldName, value string, max int) error {
	if len(value) > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max length of %d", fieldName, max))
	}
	return nil
}

// CheckEachStringLength validates every string in values against max.
func CheckEachStringLength(fieldName string, values []string, max int) error {
	for _, v := range values {
		if err := CheckStringLength(fieldName, v, max); err != nil {
			return err
		}
	}
	return nil
}

// First returns the first non-nil error, so request validators can list
// their checks in one expression.
func First(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
