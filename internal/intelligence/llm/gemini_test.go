package llm

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitConversation(t *testing.T) {
	system, history, last := splitConversation([]Message{
		System("你是审查助手"),
		User("第一问"),
		{Role: RoleAssistant, Content: "第一答"},
		System("只输出JSON"),
		User("第二问"),
	})
	assert.Equal(t, "你是审查助手\n\n只输出JSON", system)
	assert.Equal(t, "第二问", last)
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "model", history[1].Role)
	assert.Equal(t, genai.Text("第一答"), history[1].Parts[0])
}

func TestSplitConversation_SystemOnly(t *testing.T) {
	system, history, last := splitConversation([]Message{System("s")})
	assert.Equal(t, "s", system)
	assert.Nil(t, history)
	assert.Empty(t, last)
}

func TestResponseText(t *testing.T) {
	assert.Empty(t, responseText(nil))
	assert.Empty(t, responseText(&genai.GenerateContentResponse{}))

	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{genai.Text("公平"), genai.Blob{MIMEType: "image/png"}, genai.Text("竞争")}},
	}}}
	assert.Equal(t, "公平竞争", responseText(resp))
}

func TestNewGeminiClient_Validation(t *testing.T) {
	_, err := NewGeminiClient(t.Context(), GeminiConfig{Model: "gemini-pro"}, nil, nil)
	assert.Error(t, err)
}

//Personal.AI order the ending
