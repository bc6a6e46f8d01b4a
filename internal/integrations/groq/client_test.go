package groq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"localvibe/internal/domain"
)

type fakeSecrets struct {
	val    string
	err    error
	onCall func()
}

func (f *fakeSecrets) Fetch(_ context.Context, _ string) (string, error) {
	if f.onCall != nil {
		f.onCall()
	}
	return f.val, f.err
}

func TestChatURL(t *testing.T) {
	cases := []struct {
		base string
		want string
	}{
		{"https://api.groq.com/openai/v1", "https://api.groq.com/openai/v1/chat/completions"},
		{"https://api.groq.com/openai/v1/", "https://api.groq.com/openai/v1/chat/completions"},
		{"", "https://api.groq.com/openai/v1/chat/completions"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, chatURL(tc.base), "base=%q", tc.base)
	}
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(nil, "/localvibe")
	require.Error(t, err)

	_, err = NewClient(&fakeSecrets{}, "  ")
	require.Error(t, err)
}

func TestResolveAPIKey_CachedAfterFirstCall(t *testing.T) {
	calls := 0
	g := &fakeSecrets{val: "gsk-test", onCall: func() { calls++ }}
	c, err := NewClient(g, "/localvibe")
	require.NoError(t, err)

	key, err := c.resolveAPIKey(context.Background())
	require.NoError(t, err)
	require.Equal(t, "gsk-test", key)

	_, err = c.resolveAPIKey(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

func TestResolveAPIKey_EmptyKey(t *testing.T) {
	c, err := NewClient(&fakeSecrets{val: "  "}, "/localvibe")
	require.NoError(t, err)

	_, err = c.resolveAPIKey(context.Background())
	require.Error(t, err)
}

func TestChat_HappyPath(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotReq))
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":" salut "}}]}`)
	}))
	defer srv.Close()

	c, err := NewClient(&fakeSecrets{val: "gsk-test"}, "/localvibe", WithBaseURL(srv.URL))
	require.NoError(t, err)

	temp := 1.2
	seed := 42
	out, err := c.Chat(context.Background(), "llama-3.3-70b-versatile",
		[]domain.ChatMessage{{Role: "user", Content: "hi"}},
		Params{Temperature: &temp, MaxTokens: 150, Seed: &seed})
	require.NoError(t, err)
	require.Equal(t, "salut", out)

	require.Equal(t, "Bearer gsk-test", gotAuth)
	require.Equal(t, "llama-3.3-70b-versatile", gotReq.Model)
	require.NotNil(t, gotReq.Temperature)
	require.InDelta(t, 1.2, *gotReq.Temperature, 1e-9)
	require.Equal(t, 150, gotReq.MaxTokens)
	require.NotNil(t, gotReq.Seed)
	require.Equal(t, 42, *gotReq.Seed)
	require.False(t, gotReq.Stream)
}

func TestChat_UpstreamStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"rate limit reached"}}`)
	}))
	defer srv.Close()

	c, err := NewClient(&fakeSecrets{val: "gsk-test"}, "/localvibe", WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = c.Chat(context.Background(), "m", []domain.ChatMessage{{Role: "user", Content: "hi"}}, Params{})
	require.Error(t, err)

	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	require.Contains(t, statusErr.Message, "rate limit reached")
}

func TestChat_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	c, err := NewClient(&fakeSecrets{val: "gsk-test"}, "/localvibe", WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = c.Chat(context.Background(), "m", []domain.ChatMessage{{Role: "user", Content: "hi"}}, Params{})
	require.Error(t, err)
}

func TestChat_KeyFetchFailure(t *testing.T) {
	c, err := NewClient(&fakeSecrets{err: errors.New("ssm down")}, "/localvibe")
	require.NoError(t, err)

	_, err = c.Chat(context.Background(), "m", []domain.ChatMessage{{Role: "user", Content: "hi"}}, Params{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "ssm down")
}

func TestStreamChat_DeliversDeltasInOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &req))
		require.True(t, req.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Bu\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"nă\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	c, err := NewClient(&fakeSecrets{val: "gsk-test"}, "/localvibe", WithBaseURL(srv.URL))
	require.NoError(t, err)

	stream, err := c.StreamChat(context.Background(), "m", []domain.ChatMessage{{Role: "user", Content: "hi"}}, Params{})
	require.NoError(t, err)

	var deltas []string
	sawDone := false
	for chunk := range stream {
		require.NoError(t, chunk.Err)
		if chunk.Done {
			sawDone = true
			continue
		}
		deltas = append(deltas, chunk.Delta)
	}
	require.Equal(t, []string{"Bu", "nă"}, deltas)
	require.True(t, sawDone)
}

func TestStreamChat_FinishReasonEndsStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"ok\"},\"finish_reason\":\"stop\"}]}\n\n")
	}))
	defer srv.Close()

	c, err := NewClient(&fakeSecrets{val: "gsk-test"}, "/localvibe", WithBaseURL(srv.URL))
	require.NoError(t, err)

	stream, err := c.StreamChat(context.Background(), "m", []domain.ChatMessage{{Role: "user", Content: "hi"}}, Params{})
	require.NoError(t, err)

	var deltas []string
	for chunk := range stream {
		require.NoError(t, chunk.Err)
		if chunk.Delta != "" {
			deltas = append(deltas, chunk.Delta)
		}
	}
	require.Equal(t, []string{"ok"}, deltas)
}

func TestStreamChat_CancelReleasesStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for i := 0; i < 50; i++ {
			fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"x\"}}]}\n\n")
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	c, err := NewClient(&fakeSecrets{val: "gsk-test"}, "/localvibe", WithBaseURL(srv.URL))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, err := c.StreamChat(ctx, "m", []domain.ChatMessage{{Role: "user", Content: "hi"}}, Params{})
	require.NoError(t, err)

	// Take one chunk, then stop draining and cancel. The producer must shut
	// down and close the channel instead of blocking on the next send.
	<-stream
	cancel()

	require.Eventually(t, func() bool {
		for {
			select {
			case _, ok := <-stream:
				if !ok {
					return true
				}
			default:
				return false
			}
		}
	}, time.Second, 10*time.Millisecond)
}

func TestStreamChat_UpstreamStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":{"message":"backend exploded"}}`)
	}))
	defer srv.Close()

	c, err := NewClient(&fakeSecrets{val: "gsk-test"}, "/localvibe", WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = c.StreamChat(context.Background(), "m", []domain.ChatMessage{{Role: "user", Content: "hi"}}, Params{})
	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
}

func TestErrorMessage_FallsBackToRawBody(t *testing.T) {
	require.Equal(t, "plain text failure", errorMessage([]byte("plain text failure")))
	require.Equal(t, "structured", errorMessage([]byte(`{"error":{"message":"structured"}}`)))
}
