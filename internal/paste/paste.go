// Package paste turns clipboard paste events into stored images and
// markdown references.
package paste

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/maruel/mdpaste/internal/imgref"
	"github.com/maruel/mdpaste/internal/imgstore"
)

// Event is the pipeline's view of a paste. The editor integration fills in
// whatever the OS clipboard exposed: raw bitmap bytes, file paths copied in
// a file manager, or neither.
type Event struct {
	// Data is the raw image payload, if the clipboard carried one.
	Data []byte `json:"data,omitempty"`
	// FormatHint is the MIME type declared by the clipboard for Data.
	// Empty or unknown hints trigger content sniffing, falling back to PNG.
	FormatHint string `json:"format_hint,omitempty"`
	// Paths are file paths present on the clipboard.
	Paths []string `json:"paths,omitempty"`
	// Width and Height are display dimensions declared by the source,
	// forwarded into the reference as a sizing hint.
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
}

// Notifier surfaces save failures to the user. Fire-and-forget: the
// pipeline never waits on it or checks a result.
type Notifier interface {
	PasteFailed(ctx context.Context, reason string, err error)
}

// LogNotifier reports failures to slog. Used when no richer notification
// surface is wired in.
type LogNotifier struct{}

func (LogNotifier) PasteFailed(ctx context.Context, reason string, err error) {
	slog.WarnContext(ctx, "Paste failed", "reason", reason, "err", err)
}

// Pipeline classifies paste events and stores the images they carry.
type Pipeline struct {
	store  imgstore.Store
	notify Notifier
}

// New returns a pipeline writing to store. notify may be nil.
func New(store imgstore.Store, notify Notifier) *Pipeline {
	if notify == nil {
		notify = LogNotifier{}
	}
	return &Pipeline{store: store, notify: notify}
}

// Capture processes one paste event and returns the markdown image nodes to
// insert at the caret, one per successfully stored image.
//
// Raw bytes win over file paths. File paths are filtered to supported image
// extensions that exist at capture time and each surviving path is handled
// independently: one failing save is notified and skipped without blocking
// the others. An empty result means the event was not an image paste and the
// editor's default handling should run.
func (p *Pipeline) Capture(ctx context.Context, ev Event) []string {
	if len(ev.Data) > 0 {
		ref, ok := p.saveOne(ctx, ev.Data, detectMime(ev.Data, ev.FormatHint), ev)
		if !ok {
			return nil
		}
		return []string{ref.Markdown(imgref.DefaultAlt)}
	}

	var out []string
	for _, path := range ev.Paths {
		if !imgstore.IsImageExt(filepath.Ext(path)) {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			// Vanished since the copy; not an image paste failure.
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			p.notify.PasteFailed(ctx, "cannot read "+filepath.Base(path), err)
			continue
		}
		ref, ok := p.saveOne(ctx, data, imgstore.MimeForExt(filepath.Ext(path)), ev)
		if !ok {
			continue
		}
		out = append(out, ref.Markdown(imgref.DefaultAlt))
	}
	return out
}

// saveOne stores one image and builds its reference. On failure the editor
// content must stay untouched for this image, so it notifies and reports
// false instead of returning an error.
func (p *Pipeline) saveOne(ctx context.Context, data []byte, mt imgstore.MimeType, ev Event) (imgref.Ref, bool) {
	rec, err := p.store.Save(ctx, data, mt)
	if err != nil {
		reason := "storage error"
		if errors.Is(err, imgstore.ErrTooLarge) {
			reason = "image too large"
		}
		p.notify.PasteFailed(ctx, reason, err)
		return imgref.Ref{}, false
	}
	return imgref.Ref{ID: rec.ID, Width: ev.Width, Height: ev.Height}, true
}

// detectMime resolves the format of raw clipboard bytes. The declared hint
// wins when it names a supported format; otherwise the content is sniffed.
// Undetectable input is stored as PNG.
func detectMime(data []byte, hint string) imgstore.MimeType {
	if hint != "" {
		if mt := imgstore.MimeType(hint); imgstore.Normalize(mt) == mt {
			return mt
		}
	}
	detected := mimetype.Detect(data)
	for _, mt := range sniffable {
		if detected.Is(string(mt)) {
			return mt
		}
	}
	return imgstore.MimePNG
}

var sniffable = []imgstore.MimeType{
	imgstore.MimePNG,
	imgstore.MimeJPEG,
	imgstore.MimeGIF,
	imgstore.MimeWebP,
	imgstore.MimeSVG,
	imgstore.MimeBMP,
}
