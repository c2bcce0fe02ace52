package expert_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"research-backend/internal/domain"
	"research-backend/internal/expert"
	"research-backend/internal/llm"
	"research-backend/internal/search"
)

type searcherFunc func(ctx context.Context, query string, maxResults int) []search.Result

func (f searcherFunc) Search(ctx context.Context, query string, maxResults int) []search.Result {
	return f(ctx, query, maxResults)
}

func fixedResults(results []search.Result) expert.Searcher {
	return searcherFunc(func(context.Context, string, int) []search.Result {
		return results
	})
}

func twoSources() []search.Result {
	return []search.Result{
		{URL: "https://example.com/codes", Title: "Stabilizer codes", Content: "Codes protect qubits."},
		{URL: "https://example.com/decoders", Title: "Decoders", Content: "Decoders find errors."},
	}
}

func testContext() expert.Context {
	return expert.Context{
		Topic: domain.NewTopic("quantum error correction", "Quantum Error Correction", nil),
		Focus: "Hardware limits",
	}
}

func TestAnswerGroundsInSearchResults(t *testing.T) {
	client := llm.NewScriptedClient(
		llm.Text("Stabilizer codes protect qubits [1]. Decoder speed is the bottleneck [2]."),
	)
	resp := expert.NewResponder(fixedResults(twoSources()), client, expert.DefaultConfig(), zap.NewNop())

	ans, err := resp.Answer(context.Background(), "What limits current devices?", testContext())

	require.NoError(t, err)
	assert.True(t, ans.Grounded)
	assert.Equal(t, []string{"https://example.com/codes", "https://example.com/decoders"}, ans.CitedURLs())
	assert.Equal(t, "Stabilizer codes", ans.Cited[0].Title)

	require.Equal(t, 1, client.CallCount())
	req := client.Calls()[0]
	assert.Contains(t, req.System, "Quantum Error Correction")
	assert.Contains(t, req.System, "Hardware limits")
	assert.Contains(t, req.User, "[1] https://example.com/codes")
	assert.Contains(t, req.User, "[2] https://example.com/decoders")
	assert.Contains(t, req.User, "What limits current devices?")
}

func TestAnswerDropsOutOfRangeCitations(t *testing.T) {
	client := llm.NewScriptedClient(
		llm.Text("Only the first source is relevant [1], despite claims elsewhere [7]."),
	)
	resp := expert.NewResponder(fixedResults(twoSources()), client, expert.DefaultConfig(), zap.NewNop())

	ans, err := resp.Answer(context.Background(), "Which source matters?", testContext())

	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/codes"}, ans.CitedURLs())
}

func TestAnswerWithoutMarkersCitesAllSources(t *testing.T) {
	client := llm.NewScriptedClient(
		llm.Text("The field converged on surface codes over the last decade."),
	)
	resp := expert.NewResponder(fixedResults(twoSources()), client, expert.DefaultConfig(), zap.NewNop())

	ans, err := resp.Answer(context.Background(), "Where did the field converge?", testContext())

	require.NoError(t, err)
	assert.True(t, ans.Grounded)
	assert.Len(t, ans.Cited, 2)
}

func TestAnswerRetriesWithTopicAnchoredQuery(t *testing.T) {
	var queries []string
	searcher := searcherFunc(func(_ context.Context, query string, _ int) []search.Result {
		queries = append(queries, query)
		if strings.Contains(query, "Quantum Error Correction") {
			return twoSources()
		}
		return nil
	})
	client := llm.NewScriptedClient(llm.Text("Grounded after reformulation [1]."))
	resp := expert.NewResponder(searcher, client, expert.DefaultConfig(), zap.NewNop())

	ans, err := resp.Answer(context.Background(), "What about the second approach?", testContext())

	require.NoError(t, err)
	assert.True(t, ans.Grounded)
	require.Len(t, queries, 2)
	assert.Equal(t, "What about the second approach?", queries[0])
	assert.Equal(t, "What about the second approach? Quantum Error Correction", queries[1])
}

func TestAnswerFallsBackWhenRetrievalEmpty(t *testing.T) {
	client := llm.NewScriptedClient(
		llm.Text("Speaking generally, error rates remain the main obstacle."),
	)
	resp := expert.NewResponder(fixedResults(nil), client, expert.DefaultConfig(), zap.NewNop())

	ans, err := resp.Answer(context.Background(), "What is the main obstacle?", testContext())

	require.NoError(t, err)
	assert.False(t, ans.Grounded)
	assert.Empty(t, ans.Cited)
	assert.Equal(t, "Speaking generally, error rates remain the main obstacle.", ans.Text)
}

func TestAnswerUsesStockReplyWhenModelFails(t *testing.T) {
	client := llm.NewScriptedClient(llm.Fail(assert.AnError))
	resp := expert.NewResponder(fixedResults(nil), client, expert.DefaultConfig(), zap.NewNop())

	ans, err := resp.Answer(context.Background(), "Anything at all?", testContext())

	require.NoError(t, err, "a failing model must not kill the session")
	assert.False(t, ans.Grounded)
	assert.Empty(t, ans.Cited)
	assert.NotEmpty(t, ans.Text)
}

func TestAnswerReturnsErrorOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := llm.NewScriptedClient(llm.Text("unused"))
	resp := expert.NewResponder(fixedResults(twoSources()), client, expert.DefaultConfig(), zap.NewNop())

	_, err := resp.Answer(ctx, "Does cancellation propagate?", testContext())

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, client.CallCount())
}
