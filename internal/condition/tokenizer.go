package condition

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-ego/gse"
)

// Tokenizer splits mixed Chinese/English text into words.
type Tokenizer interface {
	Tokenize(text string) []string
}

const (
	SegmenterScript = "script"
	SegmenterGSE    = "gse"
)

// NewTokenizer returns the tokenizer registered under name. An empty name
// selects the script tokenizer.
func NewTokenizer(name string) (Tokenizer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", SegmenterScript:
		return ScriptTokenizer{}, nil
	case SegmenterGSE:
		return NewGSETokenizer()
	default:
		return nil, fmt.Errorf("unsupported segmenter: %s", name)
	}
}

type runeClass int

const (
	classSeparator runeClass = iota
	classHan
	classWord
)

func classify(r rune) runeClass {
	switch {
	case unicode.Is(unicode.Han, r):
		return classHan
	case unicode.IsLetter(r), unicode.IsDigit(r), r == '+', r == '#', r == '.', r == '/':
		return classWord
	default:
		return classSeparator
	}
}

// ScriptTokenizer cuts text wherever the script changes between Han
// characters and Latin letters or digits. It needs no dictionary, so Han runs
// come back whole.
type ScriptTokenizer struct{}

func (ScriptTokenizer) Tokenize(text string) []string {
	var (
		tokens  []string
		current strings.Builder
		last    = classSeparator
	)

	flush := func() {
		if current.Len() == 0 {
			return
		}
		token := strings.Trim(current.String(), "./")
		if token != "" {
			tokens = append(tokens, token)
		}
		current.Reset()
	}

	for _, r := range text {
		class := classify(r)
		if class != last {
			flush()
		}
		if class != classSeparator {
			current.WriteRune(r)
		}
		last = class
	}
	flush()

	return tokens
}

// GSETokenizer segments text with the gse dictionary segmenter.
type GSETokenizer struct {
	seg gse.Segmenter
}

// NewGSETokenizer loads the embedded gse dictionary.
func NewGSETokenizer() (*GSETokenizer, error) {
	t := &GSETokenizer{}
	if err := t.seg.LoadDictEmbed(); err != nil {
		return nil, fmt.Errorf("loading gse dictionary: %w", err)
	}
	return t, nil
}

func (t *GSETokenizer) Tokenize(text string) []string {
	words := t.seg.Cut(text, true)
	tokens := make([]string, 0, len(words))
	for _, word := range words {
		word = strings.TrimSpace(word)
		if word == "" {
			continue
		}
		if !strings.ContainsFunc(word, func(r rune) bool { return classify(r) != classSeparator }) {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}
