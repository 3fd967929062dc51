// Package imgref formats and parses the markdown references that point at
// stored clipboard images.
//
// The persisted form is the one compatibility surface of the whole system:
//
//	![pasted image](clipimg://clipboard-images/ID)
//	![pasted image](clipimg://clipboard-images/ID =WxH)
//
// The scheme literal is independent of which backend holds the bytes, so a
// document stays portable across environments. Changing the scheme or the
// grammar breaks previously pasted documents and would need explicit
// versioning.
package imgref

import (
	"fmt"
	"strconv"
	"strings"
)

// Scheme is the fixed literal marking a managed clipboard-image reference.
const Scheme = "clipimg"

// DefaultAlt is the alt text used for freshly pasted images.
const DefaultAlt = "pasted image"

const prefix = Scheme + "://clipboard-images/"

// Ref is the parsed form of a reference.
type Ref struct {
	// ID is the backend-issued id. Opaque: no structure beyond identifier
	// characters is assumed.
	ID string
	// Width and Height are an optional display hint in rendering units.
	// They say nothing about the stored payload's pixel dimensions. Both
	// zero means "render at intrinsic size".
	Width  int
	Height int
}

// HasSize reports whether the reference carries a display size hint.
func (r Ref) HasSize() bool {
	return r.Width > 0 && r.Height > 0
}

// String returns the URL form of the reference, without the surrounding
// markdown image syntax.
func (r Ref) String() string {
	if r.HasSize() {
		return fmt.Sprintf("%s%s =%dx%d", prefix, r.ID, r.Width, r.Height)
	}
	return prefix + r.ID
}

// Markdown returns the full markdown image node for the reference.
func (r Ref) Markdown(alt string) string {
	if alt == "" {
		alt = DefaultAlt
	}
	return "![" + alt + "](" + r.String() + ")"
}

// Parse parses the URL part of a markdown image node. It reports false when
// src is not a managed clipboard-image reference at all (ordinary URLs,
// empty strings). A malformed size suffix does not fail the parse: sizing is
// only a rendering hint, so it degrades to "no hint" instead of making the
// image unreachable.
func Parse(src string) (Ref, bool) {
	rest, ok := strings.CutPrefix(src, prefix)
	if !ok {
		return Ref{}, false
	}
	id := rest
	var w, h int
	if i := strings.Index(rest, " ="); i >= 0 {
		id = rest[:i]
		w, h = parseSize(rest[i+2:])
	}
	if !validID(id) {
		return Ref{}, false
	}
	return Ref{ID: id, Width: w, Height: h}, true
}

// parseSize parses "WxH". Non-positive or non-integer values yield (0, 0).
func parseSize(s string) (int, int) {
	ws, hs, ok := strings.Cut(s, "x")
	if !ok {
		return 0, 0
	}
	w, err := strconv.Atoi(ws)
	if err != nil || w <= 0 {
		return 0, 0
	}
	h, err := strconv.Atoi(hs)
	if err != nil || h <= 0 {
		return 0, 0
	}
	return w, h
}

func validID(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		ok := c == '-' || c == '_' ||
			(c >= '0' && c <= '9') ||
			(c >= 'A' && c <= 'Z') ||
			(c >= 'a' && c <= 'z')
		if !ok {
			return false
		}
	}
	return true
}
