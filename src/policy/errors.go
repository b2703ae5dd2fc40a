package policy

import "fmt"

// SchemaError reports an input value that does not fit the declared schema.
// Merges collect one SchemaError per offending leaf and fail as a whole.
type SchemaError struct {
	Setting string // setting name or input path, e.g. "extensions[2].id"
	Want    Kind   // declared kind; zero when Reason explains the problem
	Got     string // JSON shape of the rejected value
	Reason  string
}

func (e *SchemaError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("schema: %s: %s", e.Setting, e.Reason)
	}
	return fmt.Sprintf("schema: %s: expected %s, got %s", e.Setting, e.Want, e.Got)
}
