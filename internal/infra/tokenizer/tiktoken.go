package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/jinford/research-genie/internal/core/ingestion/chunk"
)

// DefaultEncoding は OpenAI の埋め込みモデルと互換のエンコーディング
const DefaultEncoding = "cl100k_base"

// Tiktoken は tiktoken を利用した chunk.Tokenizer 実装
type Tiktoken struct {
	encoding *tiktoken.Tiktoken
}

// NewTiktoken は指定エンコーディングの Tiktoken を作成する
// encodingName が空の場合は cl100k_base を使用する
func NewTiktoken(encodingName string) (*Tiktoken, error) {
	if encodingName == "" {
		encodingName = DefaultEncoding
	}

	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken encoding: %w", err)
	}
	return &Tiktoken{encoding: enc}, nil
}

// Encode はテキストをトークン列に変換する
func (t *Tiktoken) Encode(text string) []int {
	return t.encoding.Encode(text, nil, nil)
}

// Decode はトークン列をテキストに戻す
func (t *Tiktoken) Decode(tokens []int) string {
	return t.encoding.Decode(tokens)
}

// インターフェース実装の確認
var _ chunk.Tokenizer = (*Tiktoken)(nil)
