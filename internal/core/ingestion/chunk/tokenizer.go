package chunk

// Tokenizer はテキストとトークン列を相互変換するインターフェース
// 実装は Decode(Encode(text)) で正規化済みテキストを返すこと
type Tokenizer interface {
	// Encode はテキストをトークンID列に変換する
	Encode(text string) []int
	// Decode はトークンID列をテキストに戻す
	Decode(tokens []int) string
}
