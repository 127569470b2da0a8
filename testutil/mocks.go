package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AltimetrikAI/propelus-taxonomy/internal/mapping"
)

// StubMatcher is a deterministic mapping.Matcher for exercising
// SemanticStrategy without a real vendor behind it. Answers is keyed by
// the query value; a miss returns an empty, low-confidence SemanticAnswer.
type StubMatcher struct {
	Answers map[string]mapping.SemanticAnswer
	Err     error
}

func (m StubMatcher) Match(_ context.Context, q mapping.SemanticQuery) (mapping.SemanticAnswer, error) {
	if m.Err != nil {
		return mapping.SemanticAnswer{}, m.Err
	}
	if answer, ok := m.Answers[q.Value]; ok {
		return answer, nil
	}
	return mapping.SemanticAnswer{Confidence: 0}, nil
}

var _ mapping.Matcher = StubMatcher{}

// SetupCallbackMock creates a mock HTTP server standing in for a caller's
// callback endpoint, recording every decoded payload it receives.
func SetupCallbackMock(t *testing.T, received *[]map[string]interface{}) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err == nil {
			*received = append(*received, payload)
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server
}

// SetupCustomMock creates a custom mock server with a provided handler.
func SetupCustomMock(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}
