package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared"

	"github.com/jinford/research-genie/internal/core/ask"
)

const (
	// DefaultModel はデフォルトで使用するチャットモデル
	DefaultModel = "gpt-4o-mini"

	// DefaultTimeout はAPI呼び出しのデフォルトタイムアウト
	DefaultTimeout = 60 * time.Second
)

var (
	// ErrAPIKeyNotSet はAPIキーが設定されていない場合のエラー
	ErrAPIKeyNotSet = errors.New("OpenAI API key not set: please set OPENAI_API_KEY environment variable")

	// ErrNoChoices はレスポンスに回答が含まれない場合のエラー
	ErrNoChoices = errors.New("no completion choices returned")
)

// ChatClient は OpenAI 互換 API を使用したチャットモデルクライアント
// 失敗時の再試行は行わない
type ChatClient struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

type chatOptions struct {
	model   string
	baseURL string
	timeout time.Duration
}

// ChatOption は ChatClient のオプション設定
type ChatOption func(*chatOptions)

// WithChatModel はモデル名を上書きする
func WithChatModel(model string) ChatOption {
	return func(o *chatOptions) {
		o.model = model
	}
}

// WithChatBaseURL は OpenAI 互換エンドポイントの URL を設定する
// 設定した場合はAPIキーが空でも作成できる
func WithChatBaseURL(baseURL string) ChatOption {
	return func(o *chatOptions) {
		o.baseURL = baseURL
	}
}

// WithChatTimeout はAPIコールのタイムアウトを設定する
func WithChatTimeout(timeout time.Duration) ChatOption {
	return func(o *chatOptions) {
		o.timeout = timeout
	}
}

// NewChatClient は新しい ChatClient を作成する
func NewChatClient(apiKey string, opts ...ChatOption) (*ChatClient, error) {
	options := chatOptions{
		model:   DefaultModel,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(&options)
	}

	if apiKey == "" && options.baseURL == "" {
		return nil, ErrAPIKeyNotSet
	}

	return &ChatClient{
		client:  openai.NewClient(requestOptions(apiKey, options.baseURL, 0)...),
		model:   options.model,
		timeout: options.timeout,
	}, nil
}

// ModelName はモデル名を返す
func (c *ChatClient) ModelName() string {
	return c.model
}

// Chat はメッセージ列を送信し、最初の回答の本文をそのまま返す
func (c *ChatClient) Chat(ctx context.Context, messages []ask.Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("no messages provided")
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(c.model),
		Messages: make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)),
	}
	for _, m := range messages {
		switch m.Role {
		case ask.RoleUser:
			params.Messages = append(params.Messages, openai.UserMessage(m.Content))
		default:
			return "", fmt.Errorf("unsupported message role: %q", m.Role)
		}
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("OpenAI API call failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", ErrNoChoices
	}

	return completion.Choices[0].Message.Content, nil
}

// インターフェース実装の確認
var _ ask.ChatModel = (*ChatClient)(nil)
