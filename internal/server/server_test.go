package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tonebot/internal/chat"
	"tonebot/internal/gif"
	"tonebot/internal/memory"
	"tonebot/internal/sentiment"
)

type fakeCompleter struct {
	reply string
	err   error
}

func (f *fakeCompleter) Complete(context.Context, []chat.Message) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakeClassifier struct {
	label sentiment.Label
}

func (f *fakeClassifier) Classify(context.Context, string) (sentiment.Label, error) {
	return f.label, nil
}

type fakeGifs struct {
	url string
}

func (f *fakeGifs) Fetch(context.Context, string) string { return f.url }

type serverFixture struct {
	server    *Server
	registry  *chat.Registry
	completer *fakeCompleter
	gifs      *fakeGifs
}

func newFixture() *serverFixture {
	f := &serverFixture{
		registry:  chat.NewRegistry(),
		completer: &fakeCompleter{reply: "assistant says hi"},
		gifs:      &fakeGifs{url: "https://media.tenor.com/real.gif"},
	}
	orchestrator := chat.NewOrchestrator(
		f.registry,
		memory.NewRegexExtractor(),
		&fakeClassifier{label: sentiment.Neutral},
		f.completer,
		f.gifs,
		nil,
	)
	f.server = New(orchestrator, f.registry, f.gifs)
	return f
}

func (f *serverFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewChat_DuplicateID(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodPost, "/chat/new", newChatRequest{ConversationID: "c1", Tone: "serious", Title: "Work"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[confirmationResponse](t, rec)
	assert.Equal(t, "Chat 'Work' created.", resp.Message)
	assert.Equal(t, "c1", resp.ConversationID)

	rec = f.do(t, http.MethodPost, "/chat/new", newChatRequest{ConversationID: "c1", Tone: "poetic", Title: "Other"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// First conversation unaffected
	conv, err := f.registry.Get("c1")
	require.NoError(t, err)
	assert.Equal(t, "serious", conv.CurrentTone)
	assert.Equal(t, "Work", conv.Title)
}

func TestNewChat_InvalidTone(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodPost, "/chat/new", newChatRequest{ConversationID: "c1", Tone: "bored"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChat_GifCommandEndToEnd(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodPost, "/chat/new", newChatRequest{ConversationID: "c1", Tone: "funny", Title: "Fun"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/chat", chatRequest{Message: "/gif cats", Role: "user", ConversationID: "c1"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[chatResponse](t, rec)
	assert.Equal(t, "https://media.tenor.com/real.gif", resp.Gif)
	assert.Contains(t, resp.Response, "![GIF]")

	rec = f.do(t, http.MethodGet, "/chat/history?conversationId=c1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[[]chat.HistoryEntry](t, rec)
	require.Len(t, history, 2)
	assert.Equal(t, chat.HistoryEntry{Sender: "user", Text: "/gif cats"}, history[0])
	assert.Equal(t, "assistant", history[1].Sender)
}

func TestChat_OnboardingBeforeToneSet(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodPost, "/chat", chatRequest{Message: "hello", Role: "user", ConversationID: "fresh"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[chatResponse](t, rec)
	assert.Contains(t, resp.Response, "Choose your tone")
	assert.Empty(t, resp.Gif)

	// Transcript unchanged: only the default tone's system prompt
	conv, err := f.registry.Get("fresh")
	require.NoError(t, err)
	assert.Len(t, conv.Messages, 1)
}

func TestChat_GeneratesConversationIDWhenMissing(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodPost, "/chat", chatRequest{Message: "hello", Role: "user"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[chatResponse](t, rec)
	assert.NotEmpty(t, resp.ConversationID)

	_, err := f.registry.Get(resp.ConversationID)
	assert.NoError(t, err)
}

func TestChat_FullPipeline(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodPost, "/chat/new", newChatRequest{ConversationID: "c1", Tone: "serious"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/chat", chatRequest{Message: "my name is alice", Role: "user", ConversationID: "c1"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[chatResponse](t, rec)
	assert.Equal(t, "assistant says hi", resp.Response)

	conv, err := f.registry.Get("c1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", conv.Memory["name"])
}

func TestChat_UpstreamFailure(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodPost, "/chat/new", newChatRequest{ConversationID: "c1", Tone: "serious"})
	require.Equal(t, http.StatusOK, rec.Code)

	f.completer.err = errors.New("over capacity")
	rec = f.do(t, http.MethodPost, "/chat", chatRequest{Message: "hello", Role: "user", ConversationID: "c1"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestChat_SessionEnded(t *testing.T) {
	f := newFixture()
	conv, err := f.registry.Create("c1", "serious", "X")
	require.NoError(t, err)
	conv.Active = false

	rec := f.do(t, http.MethodPost, "/chat", chatRequest{Message: "hello", Role: "user", ConversationID: "c1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteChat_NotFoundLeavesListUnchanged(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodPost, "/chat/new", newChatRequest{ConversationID: "keep", Tone: "funny"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodDelete, "/chat/delete/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/chat/list", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]chat.Summary](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "keep", list[0].ID)
}

func TestDeleteChat(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodPost, "/chat/new", newChatRequest{ConversationID: "c1", Tone: "funny"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodDelete, "/chat/delete/c1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[confirmationResponse](t, rec)
	assert.Equal(t, "Chat 'c1' deleted.", resp.Message)

	rec = f.do(t, http.MethodGet, "/chat/history?conversationId=c1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRenameChat(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodPost, "/chat/new", newChatRequest{ConversationID: "c1", Tone: "funny", Title: "Before"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPut, "/chat/rename", renameChatRequest{ConversationID: "c1", NewTitle: "After"})
	require.Equal(t, http.StatusOK, rec.Code)

	list := decode[[]chat.Summary](t, f.do(t, http.MethodGet, "/chat/list", nil))
	require.Len(t, list, 1)
	assert.Equal(t, "After", list[0].Title)

	rec = f.do(t, http.MethodPut, "/chat/rename", renameChatRequest{ConversationID: "ghost", NewTitle: "X"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGifEndpoint(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodGet, "/gifs/cats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[gifResponse](t, rec)
	assert.Equal(t, "cats", resp.Topic)
	assert.Equal(t, "https://media.tenor.com/real.gif", resp.GifURL)
	assert.Empty(t, resp.Message)
}

func TestGifEndpoint_FallbackCarriesMessage(t *testing.T) {
	f := newFixture()
	f.gifs.url = gif.FallbackGIF

	rec := f.do(t, http.MethodGet, "/gifs/cats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[gifResponse](t, rec)
	assert.Equal(t, gif.FallbackGIF, resp.GifURL)
	assert.Equal(t, gif.FallbackMessage, resp.Message)
}

func TestChatHistory_ExcludesSystemEntries(t *testing.T) {
	f := newFixture()
	rec := f.do(t, http.MethodPost, "/chat/new", newChatRequest{ConversationID: "c1", Tone: "serious"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/chat", chatRequest{Message: "hello", Role: "user", ConversationID: "c1"})
	require.Equal(t, http.StatusOK, rec.Code)

	history := decode[[]chat.HistoryEntry](t, f.do(t, http.MethodGet, "/chat/history?conversationId=c1", nil))
	require.Len(t, history, 2)
	for _, entry := range history {
		assert.NotEqual(t, "system", entry.Sender)
	}
}
