package ask

import (
	"context"
	"log/slog"
	"strings"
)

// DefaultTopK は検索するチャンク数のデフォルト値
const DefaultTopK = 5

// Embedder はクエリの Embedding 生成インターフェース
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Retriever はベクトル検索インターフェース
type Retriever interface {
	// Query は vector に近い順に最大 k 件を返す
	Query(ctx context.Context, vector []float32, k int) ([]Match, error)
}

// ChatModel はチャットモデル通信インターフェース
type ChatModel interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// AskService は質問応答のビジネスロジックを提供する
// 呼び出し間で状態を持たず、ベクトルストアも変更しない
type AskService struct {
	embedder  Embedder
	retriever Retriever
	chat      ChatModel
	detector  *ChitChatDetector
	topK      int
	logger    *slog.Logger
}

type AskServiceOption func(*AskService)

// WithAskLogger は AskService にロガーを設定する
func WithAskLogger(logger *slog.Logger) AskServiceOption {
	return func(s *AskService) {
		s.logger = logger
	}
}

// WithTopK は検索するチャンク数を設定する
func WithTopK(k int) AskServiceOption {
	return func(s *AskService) {
		s.topK = k
	}
}

// WithChitChatDetector は雑談判定器を差し替える
func WithChitChatDetector(d *ChitChatDetector) AskServiceOption {
	return func(s *AskService) {
		s.detector = d
	}
}

// NewAskService は新しいAskServiceを作成する
func NewAskService(
	embedder Embedder,
	retriever Retriever,
	chat ChatModel,
	opts ...AskServiceOption,
) *AskService {
	svc := &AskService{
		embedder:  embedder,
		retriever: retriever,
		chat:      chat,
		topK:      DefaultTopK,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(svc)
	}

	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	if svc.detector == nil {
		svc.detector = NewChitChatDetector()
	}
	if svc.topK <= 0 {
		svc.topK = DefaultTopK
	}

	return svc
}

// Answer は質問に対して回答を返す
func (s *AskService) Answer(ctx context.Context, query string, history []ConversationTurn) (string, error) {
	result, err := s.Ask(ctx, query, history)
	if err != nil {
		return "", err
	}
	return result.Answer, nil
}

// Ask は質問に対してRAGベースで回答を生成し、参照したソースとともに返す
//
// 雑談と判定したクエリは検索せずそのままチャットモデルへ送る。
// 検索結果が0件でもプロンプトを構築して回答を生成する。
func (s *AskService) Ask(ctx context.Context, query string, history []ConversationTurn) (*AskResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	if s.detector.IsChitChat(query) {
		s.logger.Info("chit-chat detected, skipping retrieval")
		answer, err := s.chat.Chat(ctx, []Message{{Role: RoleUser, Content: query}})
		if err != nil {
			return nil, stageError(StageDirectChat, err)
		}
		return &AskResult{Answer: answer, DirectChat: true}, nil
	}

	retrieved, err := s.Retrieve(ctx, query)
	if err != nil {
		return nil, err
	}

	prompt := BuildPrompt(query, history, retrieved.Chunks)

	s.logger.Info("generating answer with LLM", "contextChunks", len(retrieved.Chunks), "historyTurns", len(history))
	answer, err := s.chat.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}})
	if err != nil {
		return nil, stageError(StageGenerate, err)
	}

	s.logger.Info("ask completed successfully",
		"answerLength", len(answer),
		"sources", len(retrieved.Metadata),
	)

	return &AskResult{
		Answer:  answer,
		Sources: retrieved.Metadata,
	}, nil
}

// Retrieve はクエリを Embedding 化し、類似度の高いチャンクを最大 topK 件返す
func (s *AskService) Retrieve(ctx context.Context, query string) (*RetrievalResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, stageError(StageEmbed, err)
	}
	if len(vector) == 0 {
		return nil, stageError(StageEmbed, ErrEmptyEmbedding)
	}

	matches, err := s.retriever.Query(ctx, vector, s.topK)
	if err != nil {
		return nil, stageError(StageRetrieve, err)
	}

	result := &RetrievalResult{
		Chunks:   make([]string, 0, len(matches)),
		Metadata: make([]Metadata, 0, len(matches)),
	}
	for _, m := range matches {
		result.Chunks = append(result.Chunks, m.Text)
		result.Metadata = append(result.Metadata, Metadata{ID: m.ID, Score: m.Score})
	}

	s.logger.Debug("retrieval completed", "topK", s.topK, "matches", len(matches))
	return result, nil
}
