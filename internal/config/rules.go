package config

import (
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// RulesOptions is the raw input for NewRules
type RulesOptions struct {
	Extensions     []string
	CommentStyles  map[string]CommentStyle
	DefaultStyle   CommentStyle
	BlacklistDirs  []string
	BlacklistFiles []string
	WhitelistFiles []string // nil or empty disables whitelist filtering
	RootDirs       []string // Pruned only directly under the root (the run's own output and state)
}

// Rules is the read-only matching configuration shared by the collector and the flattener.
// A Rules value is never modified after NewRules returns, so it is safe to share.
type Rules struct {
	extensions     map[string]struct{}
	styles         map[string]CommentStyle
	defaultStyle   CommentStyle
	blacklistDirs  map[string]struct{}
	blacklistFiles map[string]struct{}
	whitelist      map[string]struct{}
	rootDirs       map[string]struct{}
}

// NewRules normalizes opts into a Rules value.
// Extensions and comment-style keys are lower-cased and dot-prefixed; directory
// and whitelist paths are converted to a cleaned, slash-separated form.
func NewRules(opts RulesOptions) *Rules {
	r := &Rules{
		extensions:     make(map[string]struct{}, len(opts.Extensions)),
		styles:         make(map[string]CommentStyle, len(opts.CommentStyles)),
		defaultStyle:   opts.DefaultStyle,
		blacklistDirs:  make(map[string]struct{}, len(opts.BlacklistDirs)),
		blacklistFiles: make(map[string]struct{}, len(opts.BlacklistFiles)),
		rootDirs:       make(map[string]struct{}, len(opts.RootDirs)),
	}

	if r.defaultStyle.Prefix == "" && r.defaultStyle.Suffix == "" {
		r.defaultStyle = CommentStyle{Prefix: "#"}
	}

	for _, ext := range opts.Extensions {
		r.extensions[normalizeExt(ext)] = struct{}{}
	}
	for ext, style := range opts.CommentStyles {
		r.styles[normalizeExt(ext)] = style
	}
	for _, dir := range opts.BlacklistDirs {
		r.blacklistDirs[NormalizePath(dir)] = struct{}{}
	}
	for _, name := range opts.RootDirs {
		r.rootDirs[NormalizePath(name)] = struct{}{}
	}
	for _, name := range opts.BlacklistFiles {
		r.blacklistFiles[name] = struct{}{}
	}
	if len(opts.WhitelistFiles) > 0 {
		r.whitelist = make(map[string]struct{}, len(opts.WhitelistFiles))
		for _, entry := range opts.WhitelistFiles {
			r.whitelist[NormalizePath(entry)] = struct{}{}
		}
	}

	return r
}

// NormalizePath converts p to a cleaned, slash-separated path
func NormalizePath(p string) string {
	return path.Clean(strings.ReplaceAll(filepath.ToSlash(p), `\`, "/"))
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// AllowsExtension reports whether ext (case-insensitive) is collected
func (r *Rules) AllowsExtension(ext string) bool {
	if ext == "" {
		return false
	}
	_, ok := r.extensions[normalizeExt(ext)]
	return ok
}

// IsBlacklistedDir reports whether the subdirectory name, found under the
// root-relative directory parentRel, must be pruned.
// Root directories only match when parentRel is the root itself.
func (r *Rules) IsBlacklistedDir(parentRel, name string) bool {
	if parentRel == "" {
		if _, ok := r.rootDirs[name]; ok {
			return true
		}
	}
	if _, ok := r.blacklistDirs[name]; ok {
		return true
	}
	_, ok := r.blacklistDirs[NormalizePath(path.Join(parentRel, name))]
	return ok
}

// IsBlacklistedFile reports whether a bare file name is excluded
func (r *Rules) IsBlacklistedFile(name string) bool {
	_, ok := r.blacklistFiles[name]
	return ok
}

// HasWhitelist reports whether whitelist filtering is active
func (r *Rules) HasWhitelist() bool {
	return len(r.whitelist) > 0
}

// IsWhitelisted reports whether a file passes the whitelist.
// Always true when no whitelist is configured.
func (r *Rules) IsWhitelisted(name, rel string) bool {
	if !r.HasWhitelist() {
		return true
	}
	if _, ok := r.whitelist[name]; ok {
		return true
	}
	_, ok := r.whitelist[NormalizePath(rel)]
	return ok
}

// CommentStyleFor returns the delimiters for ext, falling back to the default style
func (r *Rules) CommentStyleFor(ext string) CommentStyle {
	if style, ok := r.styles[normalizeExt(ext)]; ok {
		return style
	}
	return r.defaultStyle
}

// Extensions returns the collected extensions, sorted
func (r *Rules) Extensions() []string {
	exts := make([]string, 0, len(r.extensions))
	for ext := range r.extensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// ExtOf returns the lower-cased extension of a file name, including the dot.
// Leading dots do not start an extension, so ".gitignore" and "..txt" have none.
func ExtOf(name string) string {
	base := path.Base(filepath.ToSlash(name))
	trimmed := strings.TrimLeft(base, ".")
	idx := strings.LastIndex(trimmed, ".")
	if idx < 0 {
		return ""
	}
	return strings.ToLower(trimmed[idx:])
}
