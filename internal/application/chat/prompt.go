package chat

import (
	"strings"

	"movie-gpt-api/internal/domain/entity"
)

// RetrievalUnavailable 检索失败降级时注入 prompt 的说明
const RetrievalUnavailable = "Movie data is unavailable right now because the movie search failed."

const groundednessInstruction = "Answer only from the movie data above. " +
	"If the movie data does not contain the answer, say that you could not find it in the IMDb data instead of guessing."

// PromptInput 构建 prompt 所需的全部输入
type PromptInput struct {
	Question       string
	Classification Classification
	// Retrieval 已渲染的检索文本，仅 InDomain 使用
	Retrieval            string
	RetrievalUnavailable bool
	History              []entity.ChatTurn
}

// PromptBuilder 生成发送给模型的单条 prompt，输出只由输入决定
type PromptBuilder struct {
	answerLanguage string
}

func NewPromptBuilder(answerLanguage string) *PromptBuilder {
	lang := strings.TrimSpace(answerLanguage)
	if lang == "" {
		lang = "Indonesian"
	}
	return &PromptBuilder{answerLanguage: lang}
}

func (b *PromptBuilder) Build(in PromptInput) string {
	if in.Classification != InDomain {
		return b.refusal()
	}

	var sb strings.Builder
	sb.WriteString("You are MovieGPT, an expert in IMDb movie data.\n")
	sb.WriteString("Answer in " + b.answerLanguage + ", in a concise and engaging way.\n")

	if h := formatHistory(in.History); h != "" {
		sb.WriteString("\nConversation so far:\n")
		sb.WriteString(h)
		sb.WriteString("\n")
	}

	sb.WriteString("\nUser question:\n")
	sb.WriteString(strings.TrimSpace(in.Question))
	sb.WriteString("\n\nRelevant movie data:\n")
	if in.RetrievalUnavailable {
		sb.WriteString(RetrievalUnavailable)
	} else {
		sb.WriteString(strings.TrimSpace(in.Retrieval))
	}
	sb.WriteString("\n\nInstructions:\n")
	sb.WriteString(groundednessInstruction)
	return sb.String()
}

// refusal 不包含用户原文
func (b *PromptBuilder) refusal() string {
	return "The user asked something unrelated to movies. " +
		"Politely refuse and explain that you can only help with movies, actors, directors, genres and IMDb ratings. " +
		"Answer in " + b.answerLanguage + "."
}

func formatHistory(turns []entity.ChatTurn) string {
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		content := strings.Join(strings.Fields(t.Content), " ")
		if content == "" {
			continue
		}
		lines = append(lines, string(t.Role)+": "+content)
	}
	return strings.Join(lines, "\n")
}
