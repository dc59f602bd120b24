package chunk

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultWindowSize は1チャンクあたりの最大トークン数のデフォルト値
	DefaultWindowSize = 512
	// DefaultOverlap は連続するチャンク間で重複させるトークン数のデフォルト値
	DefaultOverlap = 128
)

// ErrInvalidWindow はウィンドウ設定が不正な場合のエラー
var ErrInvalidWindow = errors.New("invalid chunk window")

// Chunk はドキュメント内の1チャンクを表す
type Chunk struct {
	ChunkID       int    // ドキュメント内で1始まりの連番
	Text          string // デコード済みテキスト
	TokenCount    int    // チャンクのトークン数
	OverlapTokens int    // 直前のチャンクから引き継いだ先頭トークン数
}

// SlidingWindowChunker は文境界を保ったままトークン数でテキストを分割する
type SlidingWindowChunker struct {
	tokenizer  Tokenizer
	windowSize int
	overlap    int
}

// NewSlidingWindowChunker は新しい SlidingWindowChunker を作成する
func NewSlidingWindowChunker(tokenizer Tokenizer, windowSize, overlap int) (*SlidingWindowChunker, error) {
	if tokenizer == nil {
		return nil, fmt.Errorf("tokenizer is required")
	}
	if windowSize <= 0 {
		return nil, fmt.Errorf("%w: window size must be positive, got %d", ErrInvalidWindow, windowSize)
	}
	if overlap < 0 || overlap >= windowSize {
		return nil, fmt.Errorf("%w: overlap must be in [0, %d), got %d", ErrInvalidWindow, windowSize, overlap)
	}

	return &SlidingWindowChunker{
		tokenizer:  tokenizer,
		windowSize: windowSize,
		overlap:    overlap,
	}, nil
}

// WindowSize は最大トークン数を返す
func (c *SlidingWindowChunker) WindowSize() int {
	return c.windowSize
}

// Overlap はオーバーラップトークン数を返す
func (c *SlidingWindowChunker) Overlap() int {
	return c.overlap
}

// Normalize はテキストを一度トークン化してからデコードし、トークナイザ基準の表現に揃える
func (c *SlidingWindowChunker) Normalize(text string) string {
	return c.tokenizer.Decode(c.tokenizer.Encode(text))
}

// Chunk はテキストをオーバーラップ付きのチャンク列に分割する
//
// 文は途中で分割しない。単独でウィンドウを超える文はその文だけで1チャンクになる。
// 抽出可能なテキストがない場合は空のスライスを返す。
func (c *SlidingWindowChunker) Chunk(text string) []*Chunk {
	normalized := c.Normalize(text)
	if strings.TrimSpace(normalized) == "" {
		return nil
	}

	var (
		chunks []*Chunk
		buffer []int
		seeded int  // buffer 先頭の引き継ぎトークン数
		fresh  bool // buffer に未出力の文が含まれるか
	)

	emit := func() {
		chunks = append(chunks, &Chunk{
			ChunkID:       len(chunks) + 1,
			Text:          c.tokenizer.Decode(buffer),
			TokenCount:    len(buffer),
			OverlapTokens: seeded,
		})
	}

	for _, sentence := range SplitSentences(normalized) {
		tokens := c.tokenizer.Encode(sentence)
		if len(tokens) == 0 {
			continue
		}

		if len(tokens) > c.windowSize {
			// ウィンドウを超える文: 現在のチャンクを閉じ、文単独のチャンクを出力する
			if fresh {
				emit()
			}
			buffer = append([]int(nil), tokens...)
			seeded = 0
			emit()
			buffer = c.seed(buffer, 0)
			seeded = len(buffer)
			fresh = false
			continue
		}

		if len(buffer)+len(tokens) > c.windowSize {
			if fresh {
				emit()
			}
			buffer = c.seed(buffer, len(tokens))
			seeded = len(buffer)
		}

		buffer = append(buffer, tokens...)
		fresh = true
	}

	if fresh {
		emit()
	}

	return chunks
}

// seed は直前のバッファ末尾から次チャンクへ引き継ぐトークンを切り出す
// incoming は続けて追加する文のトークン数で、合計がウィンドウを超えないよう引き継ぎ量を縮める
func (c *SlidingWindowChunker) seed(buffer []int, incoming int) []int {
	n := c.overlap
	if room := c.windowSize - incoming; n > room {
		n = room
	}
	if n > len(buffer) {
		n = len(buffer)
	}
	if n <= 0 {
		return nil
	}

	seed := make([]int, n)
	copy(seed, buffer[len(buffer)-n:])
	return seed
}
