package ingestion

import (
	"path/filepath"
	"strings"
	"time"
)

// Document はテキスト抽出済みの論文ドキュメントを表す
// チャンク化に渡した後は変更しない
type Document struct {
	Filename string `json:"filename"` // 元ファイル名
	Text     string `json:"text"`     // 抽出済みテキスト
}

// DocumentID は拡張子を除いたファイル名をドキュメントIDとして返す
func (d *Document) DocumentID() string {
	return documentID(d.Filename)
}

// ChunkRecord はチャンクファイル内の1チャンクを表す
type ChunkRecord struct {
	ChunkID int    `json:"chunk_id"` // ドキュメント内で1始まりの連番
	Text    string `json:"text"`
}

// ChunkedDocument はチャンク化ステージとインデックス化ステージの受け渡し形式
type ChunkedDocument struct {
	Filename string        `json:"filename"`
	Chunks   []ChunkRecord `json:"chunks"`
}

// DocumentID は拡張子を除いたファイル名をドキュメントIDとして返す
func (d *ChunkedDocument) DocumentID() string {
	return documentID(d.Filename)
}

// ChunkResult はチャンク化処理の結果を表す
type ChunkResult struct {
	ProcessedDocuments int           // チャンクを書き出したドキュメント数
	SkippedDocuments   int           // テキストが抽出できずスキップしたドキュメント数
	FailedDocuments    int           // 書き出しに失敗したドキュメント数
	DuplicateDocuments int           // ドキュメントIDが既出のためスキップしたドキュメント数
	TotalChunks        int           // 書き出したチャンク総数
	Duration           time.Duration // 処理時間
}

func documentID(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
