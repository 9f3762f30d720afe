package bundle

import "fmt"

const (
	// SeparatorWidth is the number of '=' characters in a delimiter line.
	SeparatorWidth = 80

	// DefaultMaxFileSize is the per-file ceiling applied when none is configured.
	DefaultMaxFileSize int64 = 1024 * 1024

	// DefaultEncoding is the label used to decode file contents.
	DefaultEncoding = "utf-8"
)

// Options holds everything one bundle run needs.
type Options struct {
	Root        string          // Traversal root; also the base for explicit paths.
	Output      string          // Destination path for the bundle.
	Tree        string          // Optional destination for a tree of bundled paths.
	Inclusion   InclusionPolicy // Which files become candidates.
	Exclusion   ExclusionPolicy // Which directories are pruned.
	Subdirs     []string        // Walk only these subdirectories of Root, then Root's own files.
	MaxFileSize int64           // Byte ceiling per file; 0 disables the ceiling.
	Encoding    string          // WHATWG label used for the permissive decode.
	SkipBinary  bool            // Skip files that look binary after reading.
	Sort        bool            // Sort directory entries by name instead of enumeration order.
}

// InclusionPolicy decides which traversed files are candidates.
type InclusionPolicy struct {
	Extensions    []string // Case-sensitive, with the leading dot.
	Filenames     []string // Exact base names included regardless of extension.
	AlwaysInclude []string // Root-relative slash paths included regardless of extension.
	ExplicitFiles []string // When set, the ordered candidate list; traversal is skipped.
}

// ExclusionPolicy decides which directories are never descended into.
type ExclusionPolicy struct {
	Dirs          []string      // Directory names; entries containing '/' prune that root-relative path.
	Matchers      []PathMatcher // Additional pattern-based exclusions.
	IncludeHidden bool          // Disable the dot-prefix pruning convention.
}

// PathMatcher reports whether a root-relative slash path is excluded.
type PathMatcher interface {
	Match(rel string, isDir bool) bool
}

// Candidate is a file selected for bundling.
type Candidate struct {
	Path    string // Filesystem path used to read the file.
	RelPath string // Path printed in the header.
	Ext     string // Extension including the leading dot, empty if none.
	Size    int64  // Size in bytes, -1 until known.
}

// Entry is one block of the bundle.
type Entry struct {
	RelPath string
	Content string
}

// SkipReason classifies a recoverable per-file problem.
type SkipReason string

const (
	SkipNotFound  SkipReason = "not found"
	SkipTooLarge  SkipReason = "too large"
	SkipReadError SkipReason = "read error"
	SkipBinary    SkipReason = "binary"
)

// Skip records a candidate that did not make it into the bundle.
type Skip struct {
	Path   string
	Reason SkipReason
	Size   int64
	Err    error
}

func (s Skip) String() string {
	switch {
	case s.Err != nil:
		return fmt.Sprintf("%s: %s: %v", s.Path, s.Reason, s.Err)
	case s.Reason == SkipTooLarge:
		return fmt.Sprintf("%s: %s (%d bytes)", s.Path, s.Reason, s.Size)
	default:
		return fmt.Sprintf("%s: %s", s.Path, s.Reason)
	}
}

// Summary is the result of one run.
type Summary struct {
	Files   int      // Number of blocks written.
	Bytes   int64    // Cumulative length of decoded content, in bytes.
	Added   []string // Header paths in output order.
	Skipped []Skip
}

// MiB returns Bytes in mebibytes.
func (s *Summary) MiB() float64 {
	return float64(s.Bytes) / (1024 * 1024)
}

// SkippedBy filters Skipped by reason.
func (s *Summary) SkippedBy(reason SkipReason) []Skip {
	var out []Skip
	for _, sk := range s.Skipped {
		if sk.Reason == reason {
			out = append(out, sk)
		}
	}
	return out
}

func (s *Summary) add(rel string, n int) {
	s.Files++
	s.Bytes += int64(n)
	s.Added = append(s.Added, rel)
}

func (s *Summary) skip(rel string, reason SkipReason, size int64, err error) {
	s.Skipped = append(s.Skipped, Skip{Path: rel, Reason: reason, Size: size, Err: err})
}
