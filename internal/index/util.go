package index

import (
	"errors"
	"unicode/utf8"
)

var errNameTooLong = errors.New("file name exceeds 65535 bytes")

func stringIsValidUTF8(b []byte) bool {
	return utf8.Valid(b)
}
