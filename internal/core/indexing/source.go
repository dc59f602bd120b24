package indexing

import (
	"fmt"
	"sort"

	"github.com/jinford/research-genie/internal/core/ingestion"
)

// GlobalChunkID はドキュメントIDとチャンクIDからグローバルに一意なIDを組み立てる
func GlobalChunkID(documentID string, chunkID int) string {
	return fmt.Sprintf("%s_%d", documentID, chunkID)
}

// Flatten はチャンク済みドキュメントを決定的な順序の1次元列に展開する
//
// ドキュメントIDの昇順、同一ドキュメント内はチャンクIDの昇順に並べる。
// カーソルはこの順序に対するバッチ番号なので、実行ごとに同じ順序でなければならない。
// チャンクIDが1未満のレコードは不正として除外する。
func Flatten(docs []*ingestion.ChunkedDocument) []IndexItem {
	sorted := make([]*ingestion.ChunkedDocument, 0, len(docs))
	for _, doc := range docs {
		if doc != nil {
			sorted = append(sorted, doc)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DocumentID() < sorted[j].DocumentID()
	})

	var items []IndexItem
	for _, doc := range sorted {
		docID := doc.DocumentID()

		records := make([]ingestion.ChunkRecord, 0, len(doc.Chunks))
		for _, r := range doc.Chunks {
			if r.ChunkID < 1 {
				continue
			}
			records = append(records, r)
		}
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].ChunkID < records[j].ChunkID
		})

		for _, r := range records {
			items = append(items, IndexItem{
				ID:         GlobalChunkID(docID, r.ChunkID),
				DocumentID: docID,
				ChunkID:    r.ChunkID,
				Text:       r.Text,
			})
		}
	}
	return items
}

// TotalBatches は総チャンク数とバッチサイズからバッチ数を求める（切り上げ）
func TotalBatches(totalChunks, batchSize int) int {
	if totalChunks <= 0 || batchSize <= 0 {
		return 0
	}
	return (totalChunks + batchSize - 1) / batchSize
}

// batchBounds はバッチ番号に対応する items の範囲を返す
func batchBounds(batch, batchSize, total int) (int, int) {
	lo := batch * batchSize
	hi := lo + batchSize
	if hi > total {
		hi = total
	}
	return lo, hi
}
