package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"movie-gpt-api/internal/application/retrieval"
	"movie-gpt-api/internal/domain/entity"
)

func TestBuild_InDomain(t *testing.T) {
	b := NewPromptBuilder("Indonesian")
	rendered := "[1] Inception (2010) | Sci-Fi | Rating: 8.8 | Director: Christopher Nolan\n    Dream heist."

	p := b.Build(PromptInput{
		Question:       "Who directed Inception?",
		Classification: InDomain,
		Retrieval:      rendered,
	})

	assert.Contains(t, p, "MovieGPT")
	assert.Contains(t, p, "Answer in Indonesian")
	assert.Contains(t, p, "Who directed Inception?")
	assert.Contains(t, p, rendered)
	assert.Contains(t, p, groundednessInstruction)
	assert.NotContains(t, p, "Conversation so far")
	assert.Equal(t, p, b.Build(PromptInput{Question: "Who directed Inception?", Classification: InDomain, Retrieval: rendered}))
}

func TestBuild_EmptyRetrievalStillGrounded(t *testing.T) {
	p := NewPromptBuilder("").Build(PromptInput{
		Question:       "Top rated film about whales?",
		Classification: InDomain,
		Retrieval:      retrieval.Render(&retrieval.Result{}),
	})
	assert.Contains(t, p, retrieval.NoRelevantMovies)
	assert.Contains(t, p, groundednessInstruction)
	assert.Contains(t, p, "Answer in Indonesian")
}

func TestBuild_RetrievalUnavailable(t *testing.T) {
	p := NewPromptBuilder("English").Build(PromptInput{
		Question:             "best movie ever?",
		Classification:       InDomain,
		Retrieval:            "ignored",
		RetrievalUnavailable: true,
	})
	assert.Contains(t, p, RetrievalUnavailable)
	assert.NotContains(t, p, "ignored")
	assert.Contains(t, p, groundednessInstruction)
}

func TestBuild_History(t *testing.T) {
	p := NewPromptBuilder("English").Build(PromptInput{
		Question:       "and his latest film?",
		Classification: InDomain,
		Retrieval:      "x",
		History: []entity.ChatTurn{
			{Role: entity.RoleUser, Content: "who directed\nInception?"},
			{Role: entity.RoleAssistant, Content: "Christopher Nolan."},
			{Role: entity.RoleUser, Content: "   "},
		},
	})
	assert.Contains(t, p, "Conversation so far:\nuser: who directed Inception?\nassistant: Christopher Nolan.\n")
}

func TestBuild_OutOfDomainOmitsQuery(t *testing.T) {
	b := NewPromptBuilder("Indonesian")
	p := b.Build(PromptInput{
		Question:       "What's the weather today?",
		Classification: OutOfDomain,
		Retrieval:      "should not appear",
		History:        []entity.ChatTurn{{Role: entity.RoleUser, Content: "secret history"}},
	})
	assert.Contains(t, p, "unrelated to movies")
	assert.Contains(t, p, "Politely refuse")
	assert.NotContains(t, p, "weather")
	assert.NotContains(t, p, "should not appear")
	assert.NotContains(t, p, "secret history")
	assert.Equal(t, p, b.Build(PromptInput{Question: "other", Classification: OutOfDomain}))
}
