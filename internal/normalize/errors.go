package normalize

import (
	"fmt"
	"strings"
)

// SchemaError reports required columns that were missing or unresolvable
// after alias matching. It is fatal to the normalization call and is
// propagated to the caller, never retried.
type SchemaError struct {
	Columns []string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	return fmt.Sprintf("required columns missing or unresolvable: %s", strings.Join(e.Columns, ", "))
}
