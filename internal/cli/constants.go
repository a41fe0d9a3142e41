package cli

// Default values for CLI output.
const (
	// TabWidth is the padding between columns in tabular output.
	TabWidth = 2
	// setCommandArgs is the number of arguments expected by `config set`.
	setCommandArgs = 2
)
