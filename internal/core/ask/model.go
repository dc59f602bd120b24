package ask

// ConversationTurn は過去の1往復の会話を表す
// 会話履歴は呼び出し側が保持し、このパッケージは保存しない
type ConversationTurn struct {
	User string `json:"user"` // ユーザーの発話
	AI   string `json:"ai"`   // アシスタントの応答
}

// Match はベクトルストアの検索結果1件を表す
type Match struct {
	ID    string
	Text  string
	Score float64 // 類似度（大きいほど近い）
}

// Metadata は検索結果テキストに対応するメタデータ
type Metadata struct {
	ID    string  // "<documentID>_<chunkID>"
	Score float64 // 類似度
}

// RetrievalResult は検索で得たテキストとメタデータの並列列
// どちらも類似度の降順で、同じ添字が同じチャンクを指す
type RetrievalResult struct {
	Chunks   []string
	Metadata []Metadata
}

// AskResult は質問応答の結果を表す
type AskResult struct {
	Answer     string     // LLMによる回答
	DirectChat bool       // 雑談として検索をスキップしたか
	Sources    []Metadata // 参照したチャンク（DirectChat の場合は空）
}

// Role はチャットメッセージの発話者
type Role string

const (
	// RoleUser はユーザー発話
	RoleUser Role = "user"
)

// Message はチャットモデルへ送るメッセージ
type Message struct {
	Role    Role
	Content string
}
