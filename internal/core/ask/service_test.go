package ask_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/research-genie/internal/core/ask"
)

type stubEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (e *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	return e.vector, e.err
}

type stubRetriever struct {
	matches []ask.Match
	err     error
	calls   int
	lastK   int
}

func (r *stubRetriever) Query(ctx context.Context, vector []float32, k int) ([]ask.Match, error) {
	r.calls++
	r.lastK = k
	if r.err != nil {
		return nil, r.err
	}
	if k < len(r.matches) {
		return r.matches[:k], nil
	}
	return r.matches, nil
}

type stubChat struct {
	answer   string
	err      error
	messages [][]ask.Message
}

func (c *stubChat) Chat(ctx context.Context, messages []ask.Message) (string, error) {
	c.messages = append(c.messages, messages)
	return c.answer, c.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAskService_Answer_RetrievesAndGenerates(t *testing.T) {
	embedder := &stubEmbedder{vector: []float32{1, 0}}
	retriever := &stubRetriever{matches: []ask.Match{
		{ID: "attention_1", Text: "Transformers use self-attention.", Score: 0.9},
	}}
	chat := &stubChat{answer: "Self-attention relates positions of a sequence."}
	svc := ask.NewAskService(embedder, retriever, chat, ask.WithAskLogger(discardLogger()))

	answer, err := svc.Answer(context.Background(), "What is self-attention?", nil)
	require.NoError(t, err)

	assert.NotEmpty(t, answer)
	assert.Equal(t, 1, embedder.calls)
	assert.Equal(t, ask.DefaultTopK, retriever.lastK)
	require.Len(t, chat.messages, 1)
	require.Len(t, chat.messages[0], 1)
	assert.Equal(t, ask.RoleUser, chat.messages[0][0].Role)
	assert.Contains(t, chat.messages[0][0].Content, "Transformers use self-attention.")
	assert.Contains(t, chat.messages[0][0].Content, "User Query: What is self-attention?")
}

func TestAskService_Answer_ChitChatSkipsRetrieval(t *testing.T) {
	embedder := &stubEmbedder{vector: []float32{1}}
	retriever := &stubRetriever{}
	chat := &stubChat{answer: "Hello! How can I help?"}
	svc := ask.NewAskService(embedder, retriever, chat, ask.WithAskLogger(discardLogger()))

	result, err := svc.Ask(context.Background(), "hi, what is attention?", []ask.ConversationTurn{{User: "x", AI: "y"}})
	require.NoError(t, err)

	assert.True(t, result.DirectChat)
	assert.Equal(t, "Hello! How can I help?", result.Answer)
	assert.Empty(t, result.Sources)
	assert.Equal(t, 0, embedder.calls)
	assert.Equal(t, 0, retriever.calls)
	// 生のクエリをそのまま1メッセージで送る
	require.Len(t, chat.messages, 1)
	assert.Equal(t, []ask.Message{{Role: ask.RoleUser, Content: "hi, what is attention?"}}, chat.messages[0])
}

func TestAskService_Answer_EmptyStoreStillGenerates(t *testing.T) {
	chat := &stubChat{answer: "The context does not contain the answer."}
	svc := ask.NewAskService(&stubEmbedder{vector: []float32{1}}, &stubRetriever{}, chat, ask.WithAskLogger(discardLogger()))

	result, err := svc.Ask(context.Background(), "What is dropout?", nil)
	require.NoError(t, err)

	assert.Equal(t, "The context does not contain the answer.", result.Answer)
	assert.Empty(t, result.Sources)
	require.Len(t, chat.messages, 1)
	assert.Contains(t, chat.messages[0][0].Content, "Context:\n\n\n")
}

func TestAskService_Answer_IncludesHistory(t *testing.T) {
	chat := &stubChat{answer: "ok"}
	svc := ask.NewAskService(&stubEmbedder{vector: []float32{1}}, &stubRetriever{}, chat, ask.WithAskLogger(discardLogger()))

	history := []ask.ConversationTurn{{User: "What is BERT?", AI: "An encoder."}}
	_, err := svc.Answer(context.Background(), "Who introduced it?", history)
	require.NoError(t, err)

	assert.Contains(t, chat.messages[0][0].Content, "User: What is BERT?\nAI: An encoder.")
}

func TestAskService_Retrieve(t *testing.T) {
	retriever := &stubRetriever{matches: []ask.Match{
		{ID: "a_1", Text: "first", Score: 0.9},
		{ID: "b_2", Text: "second", Score: 0.8},
		{ID: "c_3", Text: "third", Score: 0.7},
	}}
	svc := ask.NewAskService(&stubEmbedder{vector: []float32{1}}, retriever, &stubChat{},
		ask.WithAskLogger(discardLogger()),
		ask.WithTopK(2))

	result, err := svc.Retrieve(context.Background(), "query")
	require.NoError(t, err)

	assert.Equal(t, 2, retriever.lastK)
	assert.Equal(t, []string{"first", "second"}, result.Chunks)
	assert.Equal(t, []ask.Metadata{{ID: "a_1", Score: 0.9}, {ID: "b_2", Score: 0.8}}, result.Metadata)
}

func TestAskService_Errors(t *testing.T) {
	boom := errors.New("connection refused")

	tests := []struct {
		name      string
		query     string
		embedder  *stubEmbedder
		retriever *stubRetriever
		chat      *stubChat
		stage     ask.Stage
	}{
		{
			name:      "雑談の応答失敗",
			query:     "hello",
			embedder:  &stubEmbedder{},
			retriever: &stubRetriever{},
			chat:      &stubChat{err: boom},
			stage:     ask.StageDirectChat,
		},
		{
			name:      "Embedding失敗",
			query:     "What is attention?",
			embedder:  &stubEmbedder{err: boom},
			retriever: &stubRetriever{},
			chat:      &stubChat{},
			stage:     ask.StageEmbed,
		},
		{
			name:      "検索失敗",
			query:     "What is attention?",
			embedder:  &stubEmbedder{vector: []float32{1}},
			retriever: &stubRetriever{err: boom},
			chat:      &stubChat{},
			stage:     ask.StageRetrieve,
		},
		{
			name:      "回答生成失敗",
			query:     "What is attention?",
			embedder:  &stubEmbedder{vector: []float32{1}},
			retriever: &stubRetriever{},
			chat:      &stubChat{err: boom},
			stage:     ask.StageGenerate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := ask.NewAskService(tt.embedder, tt.retriever, tt.chat, ask.WithAskLogger(discardLogger()))

			answer, err := svc.Answer(context.Background(), tt.query, nil)
			require.Error(t, err)
			assert.Empty(t, answer)
			assert.ErrorIs(t, err, boom)

			var stageErr *ask.StageError
			require.ErrorAs(t, err, &stageErr)
			assert.Equal(t, tt.stage, stageErr.Stage)
		})
	}
}

func TestAskService_EmptyQuery(t *testing.T) {
	svc := ask.NewAskService(&stubEmbedder{}, &stubRetriever{}, &stubChat{}, ask.WithAskLogger(discardLogger()))

	_, err := svc.Answer(context.Background(), "   ", nil)
	assert.ErrorIs(t, err, ask.ErrEmptyQuery)

	_, err = svc.Retrieve(context.Background(), "")
	assert.ErrorIs(t, err, ask.ErrEmptyQuery)
}

func TestAskService_EmptyEmbedding(t *testing.T) {
	retriever := &stubRetriever{matches: []ask.Match{{ID: "a_1", Text: "A.", Score: 1}}}
	chat := &stubChat{answer: "answer"}
	svc := ask.NewAskService(&stubEmbedder{vector: nil}, retriever, chat, ask.WithAskLogger(discardLogger()))

	answer, err := svc.Answer(context.Background(), "What is attention?", nil)
	require.Error(t, err)
	assert.Empty(t, answer)
	assert.ErrorIs(t, err, ask.ErrEmptyEmbedding)

	var stageErr *ask.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, ask.StageEmbed, stageErr.Stage)

	assert.Zero(t, retriever.calls)
	assert.Empty(t, chat.messages)
}
