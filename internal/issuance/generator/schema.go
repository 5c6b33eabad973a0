package generator

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"vcissuer/internal/issuance/models"
	dErrors "vcissuer/pkg/domain-errors"
)

// validateSubject checks a credential subject against the definition's JSON
// schema. Definitions without a schema accept any subject.
func validateSubject(def *models.CredentialDefinition, subject map[string]any) error {
	var schema gojsonschema.JSONLoader
	switch {
	case def.JSONSchema != "":
		schema = gojsonschema.NewStringLoader(def.JSONSchema)
	case def.JSONSchemaURL != "":
		schema = gojsonschema.NewReferenceLoader(def.JSONSchemaURL)
	default:
		return nil
	}

	result, err := gojsonschema.Validate(schema, gojsonschema.NewGoLoader(subject))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest,
			fmt.Sprintf("could not validate credentialSubject of '%s': %s", def.ID, err))
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return dErrors.New(dErrors.CodeValidation,
		fmt.Sprintf("credentialSubject does not match schema of '%s': %s", def.ID, strings.Join(problems, "; ")))
}
