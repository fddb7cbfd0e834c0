package textprep

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// LooksLikeHTML is a cheap heuristic for resume fields that carry markup,
// such as the Resume_html column of the public resume dataset.
func LooksLikeHTML(s string) bool {
	head := strings.ToLower(strings.TrimSpace(s))
	if len(head) > 512 {
		head = head[:512]
	}
	if !strings.HasPrefix(head, "<") {
		return false
	}
	for _, marker := range []string{"<html", "<!doctype", "<div", "<body", "<p", "<span", "<table"} {
		if strings.Contains(head, marker) {
			return true
		}
	}
	return false
}

// HTMLToText returns the visible text of an HTML document, one block per
// text node, skipping script, style and head content.
func HTMLToText(s string) (string, error) {
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return "", fmt.Errorf("parse html: %w", err)
			}
			return strings.Join(strings.Fields(b.String()), " "), nil
		case html.StartTagToken:
			if name, _ := z.TagName(); isHiddenTag(string(name)) {
				skip++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isHiddenTag(string(name)) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
				b.WriteByte(' ')
			}
		}
	}
}

func isHiddenTag(name string) bool {
	switch name {
	case "script", "style", "head", "noscript":
		return true
	}
	return false
}
