package chunk

import (
	"regexp"
	"strings"
)

// wordTokenizer は「単語 + 後続空白」を1トークンとして扱うテスト用トークナイザ
// Decode(Encode(s)) == s が常に成り立つ
type wordTokenizer struct {
	vocab  map[string]int
	pieces []string
}

var wordPattern = regexp.MustCompile(`\S+\s*|\s+`)

func newWordTokenizer() *wordTokenizer {
	return &wordTokenizer{vocab: make(map[string]int)}
}

func (t *wordTokenizer) Encode(text string) []int {
	parts := wordPattern.FindAllString(text, -1)
	tokens := make([]int, 0, len(parts))
	for _, p := range parts {
		id, ok := t.vocab[p]
		if !ok {
			id = len(t.pieces)
			t.vocab[p] = id
			t.pieces = append(t.pieces, p)
		}
		tokens = append(tokens, id)
	}
	return tokens
}

func (t *wordTokenizer) Decode(tokens []int) string {
	var sb strings.Builder
	for _, id := range tokens {
		sb.WriteString(t.pieces[id])
	}
	return sb.String()
}

// collapsingTokenizer は連続空白を1つにまとめる（正規化が入力を変える）トークナイザ
type collapsingTokenizer struct {
	*wordTokenizer
}

var spaceRun = regexp.MustCompile(`\s+`)

func (t collapsingTokenizer) Encode(text string) []int {
	return t.wordTokenizer.Encode(spaceRun.ReplaceAllString(text, " "))
}
