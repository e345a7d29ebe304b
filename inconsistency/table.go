package inconsistency

// MismatchingTableDefinition represents a difference in the columns or types
// of two compared tables.
type MismatchingTableDefinition struct {
	Left  string
	Right string
	Info  string
}
