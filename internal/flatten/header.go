package flatten

import (
	"path/filepath"

	"github.com/harrison/srcflat/internal/config"
)

// headerLabel is the text between the comment delimiters of a provenance header
const headerLabel = " Original project path: "

// HeaderFor returns the provenance header for filePath.
// The path is made relative to rootDir and slash-normalized; the delimiters
// come from the comment style of the file's extension.
//
//	/* Original project path: app/Main.java */
//	# Original project path: tools/run.foo
func HeaderFor(filePath, rootDir string, rules *config.Rules) string {
	rel, err := filepath.Rel(rootDir, filePath)
	if err != nil {
		rel = filePath
	}
	style := rules.CommentStyleFor(config.ExtOf(filePath))
	return style.Prefix + headerLabel + config.NormalizePath(rel) + " " + style.Suffix
}
