package chunk

import (
	"unicode"
	"unicode/utf8"
)

// SplitSentences はテキストを文単位に分割する
//
// 文末記号（. ! ?）の直後に空白が続く位置を文境界とみなす単純なヒューリスティック。
// 略語や小数、引用符内の句読点は考慮しない。チャンクの再現性がこの分割結果に依存するため、
// 判定ロジックを変更してはならない。
// 境界の空白は直前の文の末尾に含めるので、全要素を連結すると入力と一致する。
func SplitSentences(text string) []string {
	var sentences []string
	start := 0
	i := 0

	for i < len(text) {
		c := text[i]
		if c != '.' && c != '!' && c != '?' {
			i++
			continue
		}

		// 文末記号に続く空白を読み飛ばす
		j := i + 1
		for j < len(text) {
			r, size := utf8.DecodeRuneInString(text[j:])
			if !unicode.IsSpace(r) {
				break
			}
			j += size
		}

		if j == i+1 {
			// 空白が続かない場合は境界ではない（例: "3.14", "e.g.x"）
			i++
			continue
		}

		sentences = append(sentences, text[start:j])
		start = j
		i = j
	}

	if start < len(text) {
		sentences = append(sentences, text[start:])
	}

	return sentences
}
