package cli

import (
	"bytes"
	"context"
	"hash/fnv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreask "github.com/jinford/research-genie/internal/core/ask"
	"github.com/jinford/research-genie/internal/infra/memory"
	"github.com/jinford/research-genie/internal/platform/container"
)

var piecePattern = regexp.MustCompile(`\S+\s*|\s+`)

// pieceTokenizer は空白区切りの単語を1トークンとするテスト用 Tokenizer
type pieceTokenizer struct {
	vocab []string
	ids   map[string]int
}

func (p *pieceTokenizer) Encode(text string) []int {
	if p.ids == nil {
		p.ids = make(map[string]int)
	}
	var tokens []int
	for _, piece := range piecePattern.FindAllString(text, -1) {
		id, ok := p.ids[piece]
		if !ok {
			id = len(p.vocab)
			p.vocab = append(p.vocab, piece)
			p.ids[piece] = id
		}
		tokens = append(tokens, id)
	}
	return tokens
}

func (p *pieceTokenizer) Decode(tokens []int) string {
	var sb strings.Builder
	for _, t := range tokens {
		sb.WriteString(p.vocab[t])
	}
	return sb.String()
}

type hashEmbedder struct{}

func (hashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, 256)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(strings.Trim(word, ".,?!")))
		vec[h.Sum32()%256]++
	}
	return vec, nil
}

type fixedChat struct {
	prompts []string
}

func (c *fixedChat) Chat(ctx context.Context, messages []coreask.Message) (string, error) {
	c.prompts = append(c.prompts, messages[0].Content)
	return "answer", nil
}

type testEnv struct {
	root    string
	envFile string
	chat    *fixedChat
	opts    []container.ContainerOption
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	docs := filepath.Join(root, "documents")
	require.NoError(t, os.MkdirAll(docs, 0o755))

	t.Setenv("DOCUMENTS_DIR", docs)
	t.Setenv("CHUNKS_DIR", filepath.Join(root, "chunks"))
	t.Setenv("CHUNK_WINDOW_SIZE", "8")
	t.Setenv("CHUNK_OVERLAP", "2")
	t.Setenv("INDEX_BATCH_SIZE", "2")
	t.Setenv("VECTOR_STORE", "memory")
	t.Setenv("CURSOR_STORE", "file")
	t.Setenv("CURSOR_FILE", filepath.Join(root, "processed_batches.json"))
	t.Setenv("LOG_LEVEL", "error")

	require.NoError(t, os.WriteFile(filepath.Join(docs, "attention.json"),
		[]byte(`{"filename": "attention.pdf", "text": "Transformers use self-attention. Attention relates every token to every other token."}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "cnn.txt"),
		[]byte("Convolutional networks share weights. Pooling reduces resolution."), 0o644))

	chat := &fixedChat{}
	return &testEnv{
		root:    root,
		envFile: filepath.Join(root, "missing.env"),
		chat:    chat,
		opts: []container.ContainerOption{
			container.WithContainerLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
			container.WithContainerTokenizer(&pieceTokenizer{}),
			container.WithContainerEmbedder(hashEmbedder{}),
			container.WithContainerChatModel(chat),
			container.WithContainerVectorStore(memory.NewVectorStore()),
		},
	}
}

// run はコマンドを実行して標準出力の内容を返す
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := NewApp(NewCommands(&out, e.opts...))

	full := append([]string{"research-genie", args[0], "--env", e.envFile}, args[1:]...)
	if args[0] == "cursor" || args[0] == "db" {
		full = append([]string{"research-genie", args[0], args[1], "--env", e.envFile}, args[2:]...)
	}
	err := app.Run(context.Background(), full)
	return out.String(), err
}

func TestCommands_Pipeline(t *testing.T) {
	env := setupEnv(t)

	out, err := env.run(t, "chunk")
	require.NoError(t, err)
	assert.Contains(t, out, "チャンク総数")
	assert.FileExists(t, filepath.Join(env.root, "chunks", "attention.json"))
	assert.FileExists(t, filepath.Join(env.root, "chunks", "cnn.json"))

	out, err = env.run(t, "cursor", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "未完了")

	out, err = env.run(t, "index")
	require.NoError(t, err)
	assert.Contains(t, out, "インデックス済みチャンク")
	assert.NotContains(t, out, "スキップしたチャンク ---")

	cursorData, err := os.ReadFile(filepath.Join(env.root, "processed_batches.json"))
	require.NoError(t, err)
	assert.Contains(t, string(cursorData), "last_processed_batch")

	out, err = env.run(t, "cursor", "show")
	require.NoError(t, err)
	assert.NotContains(t, out, "未完了")

	out, err = env.run(t, "ask", "--show-sources", "What", "does", "self-attention", "relate?")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "answer\n"))
	assert.Contains(t, out, "attention_")
	require.Len(t, env.chat.prompts, 1)
	assert.Contains(t, env.chat.prompts[0], "User Query: What does self-attention relate?")

	out, err = env.run(t, "ask", "--show-sources", "hello there")
	require.NoError(t, err)
	assert.Contains(t, out, "雑談")
	require.Len(t, env.chat.prompts, 2)
	assert.Equal(t, "hello there", env.chat.prompts[1])

	out, err = env.run(t, "cursor", "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "リセットしました")
	assert.Contains(t, out, "file:"+filepath.Join(env.root, "processed_batches.json"))

	cursorData, err = os.ReadFile(filepath.Join(env.root, "processed_batches.json"))
	require.NoError(t, err)
	assert.Contains(t, string(cursorData), `"last_processed_batch":0`)
}

func TestCommands_FlagOverrides(t *testing.T) {
	env := setupEnv(t)
	out := filepath.Join(env.root, "custom-chunks")

	_, err := env.run(t, "chunk", "--out", out, "--window", "4", "--overlap", "1")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(out, "attention.json"))

	_, err = env.run(t, "chunk", "--window", "4", "--overlap", "4")
	assert.ErrorContains(t, err, "CHUNK_OVERLAP")

	_, err = env.run(t, "index", "--chunks", out, "--batch-size", "0")
	assert.ErrorContains(t, err, "INDEX_BATCH_SIZE")
}

func TestCommands_AskErrors(t *testing.T) {
	env := setupEnv(t)

	_, err := env.run(t, "ask")
	assert.ErrorContains(t, err, "質問文を指定してください")

	_, err = env.run(t, "ask", "--history", filepath.Join(env.root, "none.json"), "question")
	assert.ErrorContains(t, err, "会話履歴ファイルの読み込みに失敗")
}

func TestLoadHistory(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	tests := []struct {
		name    string
		path    string
		want    []coreask.ConversationTurn
		wantErr bool
	}{
		{
			name: "パス未指定は履歴なし",
			path: "",
			want: nil,
		},
		{
			name: "履歴を読み込む",
			path: write("history.json", `[{"user": "What is BERT?", "ai": "A language model."}]`),
			want: []coreask.ConversationTurn{{User: "What is BERT?", AI: "A language model."}},
		},
		{
			name:    "不正なJSON",
			path:    write("broken.json", `{"user":`),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := loadHistory(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
