package imgstore

import "strings"

// MimeType identifies the format of a stored image.
type MimeType string

// The supported image formats. Anything else is normalized to PNG.
const (
	MimePNG  MimeType = "image/png"
	MimeJPEG MimeType = "image/jpeg"
	MimeGIF  MimeType = "image/gif"
	MimeWebP MimeType = "image/webp"
	MimeSVG  MimeType = "image/svg+xml"
	MimeBMP  MimeType = "image/bmp"
)

// extByMime holds the canonical file extension per MIME type. DirStore file
// names are {id}{ext}, so this mapping is the only metadata DirStore keeps.
var extByMime = map[MimeType]string{
	MimePNG:  ".png",
	MimeJPEG: ".jpg",
	MimeGIF:  ".gif",
	MimeWebP: ".webp",
	MimeSVG:  ".svg",
	MimeBMP:  ".bmp",
}

var mimeByExt = map[string]MimeType{
	".png":  MimePNG,
	".jpg":  MimeJPEG,
	".jpeg": MimeJPEG,
	".gif":  MimeGIF,
	".webp": MimeWebP,
	".svg":  MimeSVG,
	".bmp":  MimeBMP,
}

// Normalize maps mt to a supported MIME type, defaulting to PNG. The mapping
// must stay total: an image with an unknown source format is stored and read
// back as PNG rather than rejected.
func Normalize(mt MimeType) MimeType {
	if _, ok := extByMime[mt]; ok {
		return mt
	}
	return MimePNG
}

// ExtForMime returns the canonical file extension for mt, ".png" for
// anything unsupported.
func ExtForMime(mt MimeType) string {
	if ext, ok := extByMime[mt]; ok {
		return ext
	}
	return ".png"
}

// MimeForExt returns the MIME type for a file extension (with or without the
// leading dot, any case). Unknown extensions map to PNG so that reads stay
// consistent with the write-side default.
func MimeForExt(ext string) MimeType {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if mt, ok := mimeByExt[strings.ToLower(ext)]; ok {
		return mt
	}
	return MimePNG
}

// IsImageExt reports whether ext is one of the supported image extensions.
// Used by the paste pipeline to filter clipboard file paths.
func IsImageExt(ext string) bool {
	_, ok := mimeByExt[strings.ToLower(ext)]
	return ok
}
