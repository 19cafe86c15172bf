package status

import (
	"fmt"
	"slices"
	"strings"

	"github.com/qualis-hq/backoffice/internal/apperror"
)

// ValidateAnswers checks that the submitted answer keys are exactly the
// questionnaire's declared field keys. Values are not inspected. The error
// lists missing and unexpected keys in sorted order.
func ValidateAnswers(declared []string, answers map[string]any) error {
	want := make(map[string]struct{}, len(declared))
	for _, k := range declared {
		want[k] = struct{}{}
	}

	var missing, unexpected []string
	for k := range want {
		if _, ok := answers[k]; !ok {
			missing = append(missing, k)
		}
	}
	for k := range answers {
		if _, ok := want[k]; !ok {
			unexpected = append(unexpected, k)
		}
	}
	if len(missing) == 0 && len(unexpected) == 0 {
		return nil
	}

	slices.Sort(missing)
	slices.Sort(unexpected)

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(missing, ", "))
	}
	if len(unexpected) > 0 {
		parts = append(parts, "unexpected: "+strings.Join(unexpected, ", "))
	}
	return apperror.NewBadRequest(fmt.Sprintf("answers do not match questionnaire fields (%s)",
		strings.Join(parts, "; ")))
}
