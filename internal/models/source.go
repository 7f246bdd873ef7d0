package models

// SourceFile is a file selected by the collector for flattening.
type SourceFile struct {
	Path    string // Absolute path on disk
	RelPath string // Path relative to the scanned root, always slash-separated
	Ext     string // Lower-cased extension including the leading dot (e.g. ".java")
}

// OutputEntry is one artifact written into the output directory.
type OutputEntry struct {
	Name    string     // Final file name, unique within the output directory
	Source  SourceFile // File the entry was produced from
	Content string     // Header, blank line, original text
}
