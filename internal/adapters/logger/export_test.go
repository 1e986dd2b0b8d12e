package logger

// Exported for black-box tests of the error renderer.
var (
	CollectErrorEntries = collectErrorEntries
	FormatErrorEntries  = formatErrorEntries
)
