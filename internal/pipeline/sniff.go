package pipeline

import (
	"bytes"
	"path/filepath"
	"strings"
)

// htmlExtensions promotes an Inspect filter straight to Html without
// sniffing content.
var htmlExtensions = map[string]bool{
	".html": true, ".htm": true, ".xhtml": true,
}

var binaryExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true,
	".ico": true, ".webp": true, ".tiff": true, ".tif": true,
	".zip": true, ".tar": true, ".gz": true, ".bz2": true, ".xz": true,
	".7z": true, ".rar": true, ".jar": true, ".war": true,
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".a": true, ".o": true,
	".woff": true, ".woff2": true, ".ttf": true, ".otf": true, ".eot": true,
	".pdf": true, ".class": true, ".bin": true,
}

var binaryMagic = [][]byte{
	{0x1F, 0x8B}, // gzip
	{0x50, 0x4B, 0x03, 0x04}, {0x50, 0x4B, 0x05, 0x06}, // zip
	{0x89, 0x50, 0x4E, 0x47}, // png
	{0xFF, 0xD8, 0xFF},       // jpeg
	{0x47, 0x49, 0x46, 0x38}, // gif
	{0x25, 0x50, 0x44, 0x46}, // pdf
	{0x7F, 0x45, 0x4C, 0x46}, // elf
	{0x4D, 0x5A},             // dos/pe
	{0xCA, 0xFE, 0xBA, 0xBE}, // mach-o
}

// sniff applies the loader's second filter pass (spec §4.6): an Inspect
// filter becomes Html or Binary by extension, Binary by content, and Text
// otherwise; sniff never returns Ignore. Any filter other than Inspect
// (the walker resolves Text and Html by extension) is passed through
// unchanged.
func sniff(filter Filter, relPath string, content []byte) Filter {
	if filter != FilterInspect {
		return filter
	}
	ext := strings.ToLower(filepath.Ext(relPath))
	if htmlExtensions[ext] {
		return FilterHtml
	}
	if binaryExtensions[ext] {
		return FilterBinary
	}
	if isBinaryContent(content) {
		return FilterBinary
	}
	return FilterText
}

func isBinaryContent(content []byte) bool {
	checkLen := 512
	if len(content) < checkLen {
		checkLen = len(content)
	}
	sample := content[:checkLen]
	if len(sample) == 0 {
		return false
	}
	for _, magic := range binaryMagic {
		if bytes.HasPrefix(sample, magic) {
			return true
		}
	}

	nullBytes, nonPrintable := 0, 0
	for _, b := range sample {
		if b == 0 {
			nullBytes++
		}
		if b < 0x20 && b != 0x09 && b != 0x0A && b != 0x0D {
			nonPrintable++
		}
	}
	if nullBytes > len(sample)/100 {
		return true
	}
	if nonPrintable > len(sample)*30/100 {
		return true
	}
	return false
}
