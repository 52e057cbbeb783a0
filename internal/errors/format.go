package errors

import (
	"fmt"
	"strings"
)

// FormatForCLI formats an error for terminal output.
// CoreErrors get their suggestion and code; plain errors pass through.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	ce, ok := err.(*CoreError)
	if !ok {
		return fmt.Sprintf("Error: %s", err.Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Error: %s\n", ce.Message))

	if ce.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("Suggestion: %s\n", ce.Suggestion))
	}

	sb.WriteString(fmt.Sprintf("[%s]", ce.Code))

	return sb.String()
}
