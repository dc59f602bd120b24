package ask

import (
	"fmt"
	"strings"
)

// BuildPrompt は検索結果と会話履歴から回答生成用のプロンプトを構築する
func BuildPrompt(query string, history []ConversationTurn, chunks []string) string {
	var sb strings.Builder

	sb.WriteString("You are an AI assistant. Use the following retrieved information to answer the user's query.\n")
	sb.WriteString("Answer only from the provided context. If the context does not contain the answer, say so.\n\n")

	sb.WriteString("Chat History:\n")
	sb.WriteString(formatHistory(history))
	sb.WriteString("\n\n")

	sb.WriteString("Context:\n")
	sb.WriteString(strings.Join(chunks, "\n\n"))
	sb.WriteString("\n\n")

	sb.WriteString("User Query: ")
	sb.WriteString(query)
	sb.WriteString("\n\n")

	sb.WriteString("Provide a well-structured answer based on the provided context.\n")

	return sb.String()
}

// formatHistory は会話履歴を "User: ...\nAI: ..." 形式で空行区切りに整形する
func formatHistory(history []ConversationTurn) string {
	turns := make([]string, 0, len(history))
	for _, turn := range history {
		turns = append(turns, fmt.Sprintf("User: %s\nAI: %s", turn.User, turn.AI))
	}
	return strings.Join(turns, "\n\n")
}
