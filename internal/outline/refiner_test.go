package outline_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"research-backend/internal/domain"
	"research-backend/internal/llm"
	"research-backend/internal/outline"
)

func currentOutline() domain.Outline {
	return domain.Outline{
		Title: "Urban Beekeeping",
		Sections: []domain.Section{
			{Title: "History", Summary: "old"},
			{Title: "Regulation", Summary: "rules"},
		},
		Version: 1,
	}
}

func sampleTranscripts() []domain.Transcript {
	return []domain.Transcript{
		{
			Persona: domain.Persona{Name: "Riya", Role: "Ecologist"},
			Turns: []domain.Turn{
				{Question: "How do hives affect wild bees?", Answer: "Competition is documented [1]."},
			},
		},
	}
}

func TestParseReadsFencedOutline(t *testing.T) {
	reply := "Here is the revised outline.\n```json\n" + `{
		"title": "Urban Beekeeping",
		"sections": [
			{"title": "History", "summary": "s", "children": [
				{"title": "Ancient practice", "summary": ""}
			]},
			{"title": "Ecology", "summary": "impact on wild pollinators"}
		]
	}` + "\n```"

	o, err := outline.Parse(reply)

	require.NoError(t, err)
	assert.Equal(t, "Urban Beekeeping", o.Title)
	require.Len(t, o.Sections, 2)
	require.Len(t, o.Sections[0].Children, 1)
	assert.Equal(t, "Ancient practice", o.Sections[0].Children[0].Title)
}

func TestParseDropsUntitledSections(t *testing.T) {
	o, err := outline.Parse(`{"title": "T", "sections": [
		{"title": "  ", "summary": "ignored"},
		{"title": "Kept", "summary": ""}
	]}`)

	require.NoError(t, err)
	require.Len(t, o.Sections, 1)
	assert.Equal(t, "Kept", o.Sections[0].Title)
}

func TestParseRejectsRepliesWithoutSections(t *testing.T) {
	_, err := outline.Parse(`{"title": "T", "sections": []}`)
	assert.Error(t, err)

	_, err = outline.Parse("no structure here at all")
	assert.Error(t, err)
}

func TestRefineProducesNextVersion(t *testing.T) {
	client := llm.NewScriptedClient(llm.Text(`{
		"title": "Urban Beekeeping",
		"sections": [
			{"title": "History", "summary": "expanded"},
			{"title": "Regulation", "summary": "rules"},
			{"title": "Ecology", "summary": "new evidence"}
		]
	}`))
	r := outline.NewRefiner(client, zap.NewNop())
	topic := domain.NewTopic("urban beekeeping", "Urban Beekeeping", nil)

	next, err := r.Refine(context.Background(), topic, currentOutline(), sampleTranscripts())

	require.NoError(t, err)
	assert.Equal(t, 2, next.Version)
	assert.Equal(t, []string{"History", "Regulation", "Ecology"}, next.SectionTitles())
	assert.False(t, next.StructurallyEqual(currentOutline()))

	req := client.Calls()[0]
	assert.Contains(t, req.System, "## History", "the prompt carries the old outline")
	assert.Contains(t, req.User, "Interview with Riya", "the prompt carries the conversations")
}

func TestRefineKeepsCurrentOnUnusableReply(t *testing.T) {
	client := llm.NewScriptedClient(llm.Text("I would restructure everything, trust me."))
	r := outline.NewRefiner(client, zap.NewNop())
	topic := domain.NewTopic("urban beekeeping", "Urban Beekeeping", nil)
	cur := currentOutline()

	next, err := r.Refine(context.Background(), topic, cur, sampleTranscripts())

	require.NoError(t, err)
	assert.Equal(t, cur.Version, next.Version)
	assert.True(t, next.StructurallyEqual(cur))
}

func TestRefineKeepsCurrentWhenModelFails(t *testing.T) {
	client := llm.NewScriptedClient(llm.Fail(assert.AnError))
	r := outline.NewRefiner(client, zap.NewNop())
	topic := domain.NewTopic("urban beekeeping", "Urban Beekeeping", nil)
	cur := currentOutline()

	next, err := r.Refine(context.Background(), topic, cur, sampleTranscripts())

	require.NoError(t, err, "a failed round keeps the outline, it does not fail the run")
	assert.True(t, next.StructurallyEqual(cur))
}

func TestRefineInheritsTitleWhenReplyOmitsIt(t *testing.T) {
	client := llm.NewScriptedClient(llm.Text(`{"sections": [{"title": "Only section"}]}`))
	r := outline.NewRefiner(client, zap.NewNop())
	topic := domain.NewTopic("urban beekeeping", "Urban Beekeeping", nil)

	next, err := r.Refine(context.Background(), topic, currentOutline(), nil)

	require.NoError(t, err)
	assert.Equal(t, "Urban Beekeeping", next.Title)
	assert.Equal(t, 2, next.Version)
}

func TestRefineReturnsErrorOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := llm.NewScriptedClient(llm.Text("unused"))
	r := outline.NewRefiner(client, zap.NewNop())
	topic := domain.NewTopic("urban beekeeping", "Urban Beekeeping", nil)
	cur := currentOutline()

	next, err := r.Refine(ctx, topic, cur, nil)

	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, next.StructurallyEqual(cur), "the caller keeps what it had")
}
