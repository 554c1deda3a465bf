package pipeline

import "testing"

func TestSniffPassesThroughResolvedFilters(t *testing.T) {
	if got := sniff(FilterText, "readme.mystery", []byte{0x00, 0x00, 0x00}); got != FilterText {
		t.Errorf("expected an already-resolved Text filter to pass through unchanged, got %v", got)
	}
}

func TestSniffDetectsBinaryContentOnUnknownExtension(t *testing.T) {
	gzipMagic := []byte{0x1F, 0x8B, 0x08, 0x00}
	if got := sniff(FilterInspect, "data.mystery", gzipMagic); got != FilterBinary {
		t.Errorf("expected gzip-magic content to sniff as Binary, got %v", got)
	}
}

func TestSniffDetectsPlainText(t *testing.T) {
	if got := sniff(FilterInspect, "notes.mystery", []byte("hello world, this is plain text")); got != FilterText {
		t.Errorf("expected plain text to sniff as Text, got %v", got)
	}
}

func TestSniffPromotesHtmlExtension(t *testing.T) {
	if got := sniff(FilterInspect, "index.html", []byte("<html></html>")); got != FilterHtml {
		t.Errorf("expected .html to sniff as Html, got %v", got)
	}
}

func TestSniffDetectsNullByteHeavyContent(t *testing.T) {
	data := make([]byte, 200)
	for i := range data {
		if i%2 == 0 {
			data[i] = 0
		} else {
			data[i] = 'x'
		}
	}
	if got := sniff(FilterInspect, "weird.mystery", data); got != FilterBinary {
		t.Errorf("expected null-byte-heavy content to sniff as Binary, got %v", got)
	}
}
