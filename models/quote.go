package models

// Columns is the key set of a Quote record, in insertion order
var Columns = []string{"quote", "author", "tags"}

// Quote represents one quote block extracted from a listing page
type Quote struct {
	Quote  string
	Author string
	Tags   []string // in document order
}

// Fields returns the key set of the record
func (q Quote) Fields() []string {
	fields := make([]string, len(Columns))
	copy(fields, Columns)
	return fields
}
