package ask

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPrompt(t *testing.T) {
	history := []ConversationTurn{
		{User: "What is BERT?", AI: "A bidirectional encoder."},
		{User: "Who made it?", AI: "Google."},
	}
	chunks := []string{"Transformers use self-attention.", "Attention weights are softmax-normalized."}

	prompt := BuildPrompt("What is self-attention?", history, chunks)

	assert.Contains(t, prompt, "Chat History:\nUser: What is BERT?\nAI: A bidirectional encoder.\n\nUser: Who made it?\nAI: Google.\n\n")
	assert.Contains(t, prompt, "Context:\nTransformers use self-attention.\n\nAttention weights are softmax-normalized.\n\n")
	assert.Contains(t, prompt, "User Query: What is self-attention?")
	assert.Contains(t, prompt, "Answer only from the provided context.")
}

func TestBuildPrompt_EmptyBlocks(t *testing.T) {
	prompt := BuildPrompt("What is attention?", nil, nil)

	assert.Contains(t, prompt, "Chat History:\n\n\n")
	assert.Contains(t, prompt, "Context:\n\n\n")
	assert.Contains(t, prompt, "User Query: What is attention?")
}

func TestFormatHistory(t *testing.T) {
	assert.Equal(t, "", formatHistory(nil))
	assert.Equal(t, "User: a\nAI: b", formatHistory([]ConversationTurn{{User: "a", AI: "b"}}))
}
