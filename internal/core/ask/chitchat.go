package ask

import "strings"

// DefaultChitChatPhrases は雑談とみなす既定のフレーズ
var DefaultChitChatPhrases = []string{
	"hi", "hello", "hey", "how are you", "good morning", "good evening",
	"what's up", "how's it going", "nice to meet you", "bye", "goodbye",
}

// ChitChatDetector は検索が不要な雑談クエリを判定する
//
// 判定は前方一致のため、"hi-fi" のように雑談フレーズで始まる質問も雑談と判定される。
// 既知の制約としてそのまま維持している。
type ChitChatDetector struct {
	phrases []string
}

// NewChitChatDetector は新しい ChitChatDetector を作成する
// phrases が空の場合は DefaultChitChatPhrases を使用する
func NewChitChatDetector(phrases ...string) *ChitChatDetector {
	if len(phrases) == 0 {
		phrases = DefaultChitChatPhrases
	}
	normalized := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			normalized = append(normalized, p)
		}
	}
	return &ChitChatDetector{phrases: normalized}
}

// IsChitChat はクエリが雑談フレーズのいずれかで始まるかを返す
func (d *ChitChatDetector) IsChitChat(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	for _, p := range d.phrases {
		if strings.HasPrefix(q, p) {
			return true
		}
	}
	return false
}
