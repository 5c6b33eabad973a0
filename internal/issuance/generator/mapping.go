package generator

import (
	"fmt"
	"strings"

	"vcissuer/internal/issuance/models"
	dErrors "vcissuer/pkg/domain-errors"
)

// ApplyMappings copies claims along the definition's mappings. Without
// mappings the claims pass through unchanged; with mappings only the mapped
// outputs are kept.
func ApplyMappings(mappings []models.Mapping, claims map[string]any) (map[string]any, error) {
	if len(mappings) == 0 {
		return claims, nil
	}
	out := map[string]any{}
	for _, m := range mappings {
		v, ok := lookupPath(claims, m.Input)
		if !ok {
			if m.Required {
				return nil, dErrors.New(dErrors.CodeBadRequest,
					fmt.Sprintf("Mapping for input '%s' is required but the claim is missing", m.Input))
			}
			continue
		}
		if err := setPath(out, m.Output, v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func lookupPath(claims map[string]any, path string) (any, bool) {
	var cur any = claims
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = obj[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func setPath(target map[string]any, path string, value any) error {
	parts := strings.Split(path, ".")
	cur := target
	for _, part := range parts[:len(parts)-1] {
		next, ok := cur[part]
		if !ok {
			child := map[string]any{}
			cur[part] = child
			cur = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return dErrors.New(dErrors.CodeBadRequest,
				fmt.Sprintf("Mapping output '%s' collides with a non-object claim at '%s'", path, part))
		}
		cur = child
	}
	cur[parts[len(parts)-1]] = value
	return nil
}
