package imgstore

import "testing"

func TestMimeExtensionRoundTrip(t *testing.T) {
	for mt := range extByMime {
		if got := MimeForExt(ExtForMime(mt)); got != mt {
			t.Errorf("MimeForExt(ExtForMime(%s)) = %s", mt, got)
		}
	}
}

func TestMimeForExt(t *testing.T) {
	tests := []struct {
		ext  string
		want MimeType
	}{
		{".png", MimePNG},
		{".jpg", MimeJPEG},
		{".jpeg", MimeJPEG},
		{".JPG", MimeJPEG},
		{"gif", MimeGIF},
		{".webp", MimeWebP},
		{".svg", MimeSVG},
		{".bmp", MimeBMP},
		{".xyz", MimePNG}, // unknown defaults to PNG, same as write side
		{"", MimePNG},
	}
	for _, tt := range tests {
		if got := MimeForExt(tt.ext); got != tt.want {
			t.Errorf("MimeForExt(%q) = %s, want %s", tt.ext, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("image/tiff"); got != MimePNG {
		t.Errorf("Normalize(image/tiff) = %s, want %s", got, MimePNG)
	}
	if got := Normalize(MimeSVG); got != MimeSVG {
		t.Errorf("Normalize(%s) = %s", MimeSVG, got)
	}
	if got := Normalize(""); got != MimePNG {
		t.Errorf("Normalize(\"\") = %s, want %s", got, MimePNG)
	}
}

func TestIsImageExt(t *testing.T) {
	if !IsImageExt(".png") || !IsImageExt(".JPEG") {
		t.Error("supported extensions rejected")
	}
	if IsImageExt(".txt") || IsImageExt("") {
		t.Error("unsupported extensions accepted")
	}
}
