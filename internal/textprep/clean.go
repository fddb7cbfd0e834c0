package textprep

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
)

const maxBinaryCheckBytes = 512

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// typographic characters commonly pasted from word processors
var charReplacer = strings.NewReplacer(
	"\u2018", "'", "\u2019", "'", "\u201C", "\"", "\u201D", "\"",
	"\u2013", "-", "\u2014", "--", "\u2026", "...", "\u00a0", " ",
	"\u2022", " ", "\u25CF", " ", "\u00B7", " ",
)

// IsLikelyBinary reports whether the first bytes of the file contain a NUL,
// which rules out plain-text resumes.
func IsLikelyBinary(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	buf := make([]byte, maxBinaryCheckBytes)
	n, err := f.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	return bytes.Contains(buf[:n], []byte{0}), nil
}

// CleanBytes turns raw file bytes into a valid UTF-8 string: it drops a
// leading BOM, replaces invalid sequences and normalizes typographic
// punctuation. src is only used for log messages.
func CleanBytes(b []byte, src string) (string, error) {
	b = bytes.TrimPrefix(b, utf8BOM)

	if !utf8.Valid(b) {
		log.Warnf("%s: invalid UTF-8, replacing invalid sequences", src)
		b = bytes.ToValidUTF8(b, []byte(string(utf8.RuneError)))
	}

	s := charReplacer.Replace(string(b))
	if !utf8.ValidString(s) {
		return "", fmt.Errorf("invalid UTF-8 after cleaning: %s", src)
	}
	return s, nil
}

// ReadFile loads a resume from disk. HTML files are reduced to their visible
// text.
func ReadFile(path string) (string, error) {
	binary, err := IsLikelyBinary(path)
	if err != nil {
		return "", fmt.Errorf("inspect %s: %w", path, err)
	}
	if binary {
		return "", fmt.Errorf("%s looks like a binary file", path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	text, err := CleanBytes(raw, path)
	if err != nil {
		return "", err
	}
	if LooksLikeHTML(text) {
		return HTMLToText(text)
	}
	return text, nil
}
