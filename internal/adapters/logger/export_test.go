package logger

var (
	CollectErrorEntries = collectErrorEntries
	FormatErrorEntries  = formatErrorEntries
)

// Message exposes the message of an entry to the external test package.
func (e errorEntry) Message() string { return e.message }

// Fields exposes the metadata of an entry to the external test package.
func (e errorEntry) Fields() map[string]any { return e.metadata }
