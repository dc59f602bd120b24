package openai

import (
	"strings"

	"github.com/openai/openai-go/v3/option"
)

// ollamaPlaceholderKey はAPIキー不要の互換エンドポイント向けのダミーキー
const ollamaPlaceholderKey = "ollama"

// requestOptions は Embedder と ChatClient 共通のクライアントオプションを組み立てる
func requestOptions(apiKey, baseURL string, maxRetries int) []option.RequestOption {
	if apiKey == "" {
		apiKey = ollamaPlaceholderKey
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(maxRetries),
	}
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return opts
}
