package textprep

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
	log "github.com/sirupsen/logrus"
)

var (
	tokenizerOnce sync.Once
	tokenizer     *sentences.DefaultSentenceTokenizer
)

func sentenceTokenizer() *sentences.DefaultSentenceTokenizer {
	tokenizerOnce.Do(func() {
		t, err := english.NewSentenceTokenizer(nil)
		if err != nil {
			log.Warnf("Sentence tokenizer unavailable, excerpts will cut at rune boundaries: %v", err)
			return
		}
		tokenizer = t
	})
	return tokenizer
}

// Excerpt shortens text to at most maxRunes runes, cutting at sentence
// boundaries where possible. Whitespace runs are collapsed first. A first
// sentence longer than maxRunes is cut mid-sentence.
func Excerpt(text string, maxRunes int) string {
	text = strings.Join(strings.Fields(text), " ")
	if maxRunes <= 0 || utf8.RuneCountInString(text) <= maxRunes {
		return text
	}

	var b strings.Builder
	n := 0
	if tok := sentenceTokenizer(); tok != nil {
		for _, s := range tok.Tokenize(text) {
			sent := strings.TrimSpace(s.Text)
			if sent == "" {
				continue
			}
			l := utf8.RuneCountInString(sent)
			if n > 0 {
				l++
			}
			if n+l > maxRunes {
				break
			}
			if n > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(sent)
			n += l
		}
	}
	if n > 0 {
		return b.String()
	}
	return string([]rune(text)[:maxRunes])
}
