package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Extension is the manifest file suffix.
const Extension = ".toml"

const maxSlugRunes = 96

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// Slug maps a playlist title to a string that is safe as a single path component.
//
// Titles that are already safe are returned unchanged. Any title that had to be altered gets a
// short hash of the original appended, so two different titles never share a slug.
func Slug(title string) string {
	s := fileNameReplacer.Replace(norm.NFC.String(title))
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimLeft(s, "."))

	if utf8.RuneCountInString(s) > maxSlugRunes {
		s = strings.TrimSpace(string([]rune(s)[:maxSlugRunes]))
	}

	if s != "" && s == title {
		return s
	}

	sum := sha256.Sum256([]byte(title))
	suffix := hex.EncodeToString(sum[:4])
	if s == "" {
		return suffix
	}
	return s + "-" + suffix
}

// FileName returns the manifest file name for a playlist title.
func FileName(title string) string {
	return Slug(title) + Extension
}

// DirName returns the directory name downloaded audio for a playlist is written to.
func DirName(title string) string {
	return Slug(title)
}
