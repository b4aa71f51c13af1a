package kernel_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/tailored-agentic-units/docchat/agent"
	"github.com/tailored-agentic-units/docchat/agent/mock"
	"github.com/tailored-agentic-units/docchat/core/protocol"
	"github.com/tailored-agentic-units/docchat/intent"
	"github.com/tailored-agentic-units/docchat/kernel"
	"github.com/tailored-agentic-units/docchat/observability"
	"github.com/tailored-agentic-units/docchat/orchestrate/state"
	"github.com/tailored-agentic-units/docchat/retrieval"
	"github.com/tailored-agentic-units/docchat/session"
)

// --- Test helpers ---

type searchCall struct {
	method string
	query  string
	k      int
	filter retrieval.Filter
}

// stubRetriever records searches and returns fixed documents.
type stubRetriever struct {
	mu    sync.Mutex
	calls []searchCall
	docs  []retrieval.Document
	err   error
}

func (r *stubRetriever) SimilaritySearch(_ context.Context, query string, k int, filter retrieval.Filter) ([]retrieval.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, searchCall{method: "similarity", query: query, k: k, filter: filter})
	return r.docs, r.err
}

func (r *stubRetriever) MMRSearch(_ context.Context, query string, k, _ int, _ float64) ([]retrieval.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, searchCall{method: "mmr", query: query, k: k})
	return r.docs, r.err
}

// script answers each catalog prompt by recognizing its instructions.
type script struct {
	isSummary   string
	summaryType string
	answer      mock.Reply
	summary     string
}

func (s script) agent() *mock.Agent {
	a := mock.New()
	a.Respond = func(msgs []protocol.Message) mock.Reply {
		prompt := msgs[len(msgs)-1].Content
		switch {
		case strings.Contains(prompt, "요약 요청이면"):
			return mock.Text(s.isSummary)
		case strings.Contains(prompt, "어떤 종류의 요약"):
			return mock.Text(s.summaryType)
		case strings.HasPrefix(prompt, "다음 대화를 요약해줘"):
			return mock.Text(s.summary)
		default:
			return s.answer
		}
	}
	return a
}

func newOrchestrator(t *testing.T, a agent.Agent, r retrieval.Retriever, mutate ...func(*kernel.Config)) *kernel.Orchestrator {
	t.Helper()
	cfg := kernel.DefaultConfig()
	for _, m := range mutate {
		m(&cfg)
	}

	k, err := kernel.New(&cfg,
		kernel.WithAgent(a),
		kernel.WithObserver(observability.NoOpObserver{}),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	orch, err := k.Build(r)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return orch
}

// --- Tests ---

func TestRun_KoreanResumeSummary(t *testing.T) {
	ctx := context.Background()
	llm := script{isSummary: "yes", summaryType: "resume", answer: mock.Text(" 홍길동은 5년 차 Go 백엔드 개발자입니다. ")}.agent()
	r := &stubRetriever{docs: []retrieval.Document{
		{Content: "홍길동 - Go 백엔드 5년", Metadata: map[string]string{"summary_type": "resume"}},
	}}
	orch := newOrchestrator(t, llm, r)

	got, err := orch.Run(ctx, "이력 요약을 보고 싶어요", "s1")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got != "홍길동은 5년 차 Go 백엔드 개발자입니다." {
		t.Errorf("got answer %q", got)
	}

	if len(r.calls) != 1 {
		t.Fatalf("got %d searches, want 1", len(r.calls))
	}
	c := r.calls[0]
	if c.method != "similarity" || c.k != 3 || c.filter["summary_type"] != "resume" || len(c.filter) != 1 {
		t.Errorf("search = %+v, want similarity k=3 filter summary_type=resume", c)
	}

	if n := len(llm.Calls()); n != 3 {
		t.Errorf("got %d model calls, want 3 (check, type, answer)", n)
	}
	if qa := llm.Prompts()[2]; !strings.Contains(qa, "홍길동 - Go 백엔드 5년") {
		t.Errorf("answer prompt missing retrieved context:\n%s", qa)
	}

	mem, ok := orch.Sessions().Lookup("s1")
	if !ok {
		t.Fatal("session s1 was not created")
	}
	msgs := mem.Messages()
	if len(msgs) != 2 || msgs[0].Content != "이력 요약을 보고 싶어요" || msgs[1].Content != got {
		t.Errorf("session messages = %v", msgs)
	}
}

func TestQuery_Routing(t *testing.T) {
	tests := []struct {
		name        string
		isSummary   string
		summaryType string
		wantMethod  string
		wantType    intent.SummaryType
		wantCalls   int
	}{
		{name: "general question", isSummary: "no", wantMethod: "mmr", wantType: intent.None, wantCalls: 2},
		{name: "korean affirmative", isSummary: "예", summaryType: "projects", wantMethod: "similarity", wantType: intent.Projects, wantCalls: 3},
		{name: "unknown type", isSummary: "yes", summaryType: "education", wantMethod: "mmr", wantType: intent.None, wantCalls: 3},
		{name: "all", isSummary: "Yes.", summaryType: " ALL ", wantMethod: "similarity", wantType: intent.All, wantCalls: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := script{isSummary: tt.isSummary, summaryType: tt.summaryType, answer: mock.Text("답변")}.agent()
			r := &stubRetriever{}
			orch := newOrchestrator(t, llm, r)

			final, err := orch.Query(context.Background(), "질문", "")
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}

			if final.SummaryType != tt.wantType {
				t.Errorf("got summary type %q, want %q", final.SummaryType, tt.wantType)
			}
			if final.SessionID != session.DefaultID {
				t.Errorf("got session %q, want default", final.SessionID)
			}
			if len(r.calls) != 1 || r.calls[0].method != tt.wantMethod {
				t.Errorf("searches = %+v, want one %s", r.calls, tt.wantMethod)
			}
			if n := len(llm.Calls()); n != tt.wantCalls {
				t.Errorf("got %d model calls, want %d", n, tt.wantCalls)
			}
		})
	}
}

func TestRun_ClassifierFailureFallsBackToGeneral(t *testing.T) {
	llm := mock.New()
	llm.Respond = func(msgs []protocol.Message) mock.Reply {
		if strings.Contains(msgs[0].Content, "요약 요청이면") {
			return mock.Fail(errors.New("model offline"))
		}
		return mock.Text("답변")
	}
	r := &stubRetriever{}

	got, err := newOrchestrator(t, llm, r).Run(context.Background(), "질문", "s1")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got != "답변" || r.calls[0].method != "mmr" {
		t.Errorf("got %q via %+v", got, r.calls)
	}
}

func TestRun_GeneratorFailureReturnsErrorMessage(t *testing.T) {
	llm := script{isSummary: "no", answer: mock.Fail(errors.New("context deadline exceeded"))}.agent()
	orch := newOrchestrator(t, llm, &stubRetriever{})

	got, err := orch.Run(context.Background(), "질문", "s1")
	if err != nil {
		t.Fatalf("Run returned error %v, want nil", err)
	}
	if !strings.HasPrefix(got, "오류가 발생했습니다: ") {
		t.Errorf("got %q, want error-indicating answer", got)
	}

	mem, _ := orch.Sessions().Lookup("s1")
	if mem != nil && len(mem.Messages()) != 0 {
		t.Errorf("failed turn was recorded: %v", mem.Messages())
	}
}

func TestRun_RetrievalFailure(t *testing.T) {
	inner := errors.New("index unavailable")
	llm := script{isSummary: "no"}.agent()
	orch := newOrchestrator(t, llm, &stubRetriever{err: inner})

	_, err := orch.Run(context.Background(), "질문", "s1")
	if !errors.Is(err, retrieval.ErrSearchFailed) || !errors.Is(err, inner) {
		t.Fatalf("got error %v, want ErrSearchFailed wrapping inner", err)
	}

	var execErr *state.ExecutionError
	if !errors.As(err, &execErr) || execErr.NodeName != kernel.NodeSearchGeneral {
		t.Errorf("got %v, want ExecutionError at %s", err, kernel.NodeSearchGeneral)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	llm := script{isSummary: "no", answer: mock.Text("답변")}.agent()
	r := &stubRetriever{}
	orch := newOrchestrator(t, llm, r)

	_, err := orch.Run(ctx, "질문", "s1")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got error %v, want context.Canceled", err)
	}
	if errors.Is(err, retrieval.ErrSearchFailed) {
		t.Errorf("cancellation reported as search failure: %v", err)
	}
	if len(r.calls) != 0 {
		t.Errorf("retriever called %d times after cancel", len(r.calls))
	}
	if mem, ok := orch.Sessions().Lookup("s1"); ok && len(mem.Messages()) != 0 {
		t.Errorf("cancelled run recorded %d messages", len(mem.Messages()))
	}
}

func TestRun_CompactsHistory(t *testing.T) {
	ctx := context.Background()
	llm := script{isSummary: "no", answer: mock.Text("답변"), summary: "요약된 대화"}.agent()
	orch := newOrchestrator(t, llm, &stubRetriever{}, func(c *kernel.Config) {
		c.Session.MaxRecentTurns = 2
	})

	for _, q := range []string{"첫째", "둘째", "셋째"} {
		if _, err := orch.Run(ctx, q, "s1"); err != nil {
			t.Fatalf("Run(%s) failed: %v", q, err)
		}
	}

	mem, _ := orch.Sessions().Lookup("s1")
	if n := len(mem.Messages()); n != 4 {
		t.Errorf("got %d retained messages, want 4", n)
	}
	if mem.Summary() != "요약된 대화" {
		t.Errorf("got summary %q", mem.Summary())
	}
	if !strings.HasPrefix(mem.LoadSummaryAndRecent(), "요약된 대화\n\nHuman: 둘째") {
		t.Errorf("history = %q", mem.LoadSummaryAndRecent())
	}
}

func TestResetMemory(t *testing.T) {
	ctx := context.Background()
	llm := script{isSummary: "no", answer: mock.Text("답변")}.agent()
	orch := newOrchestrator(t, llm, &stubRetriever{})

	for _, sid := range []string{"a", "b", ""} {
		if _, err := orch.Run(ctx, "질문", sid); err != nil {
			t.Fatal(err)
		}
	}

	orch.ResetMemory(ctx, "a")
	a, _ := orch.Sessions().Lookup("a")
	b, _ := orch.Sessions().Lookup("b")
	if len(a.Messages()) != 0 || len(b.Messages()) != 2 {
		t.Errorf("reset a: a=%d b=%d messages", len(a.Messages()), len(b.Messages()))
	}

	orch.ResetMemory(ctx, session.All)
	for _, id := range orch.Sessions().IDs() {
		mem, _ := orch.Sessions().Lookup(id)
		if len(mem.Messages()) != 0 {
			t.Errorf("session %s not cleared by reset all", id)
		}
	}
}

func TestRun_RoleAgents(t *testing.T) {
	classifier := script{isSummary: "yes", summaryType: "workstyle"}.agent()
	answerer := mock.New(mock.Text("역할 답변"))
	r := &stubRetriever{}

	cfg := kernel.DefaultConfig()
	reg := agent.NewRegistry()
	if err := reg.Put(kernel.AgentClassifier, classifier); err != nil {
		t.Fatal(err)
	}
	if err := reg.Put(kernel.AgentAnswer, answerer); err != nil {
		t.Fatal(err)
	}

	k, err := kernel.New(&cfg,
		kernel.WithAgent(mock.New(mock.Fail(errors.New("default agent should be unused")))),
		kernel.WithRegistry(reg),
		kernel.WithObserver(observability.NoOpObserver{}),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	orch, err := k.Build(r)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	got, err := orch.Run(context.Background(), "일하는 방식 요약", "s1")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got != "역할 답변" || r.calls[0].filter["summary_type"] != "workstyle" {
		t.Errorf("got %q via %+v", got, r.calls)
	}
	if len(classifier.Calls()) != 2 || len(answerer.Calls()) != 1 {
		t.Errorf("classifier calls %d, answer calls %d", len(classifier.Calls()), len(answerer.Calls()))
	}
}

func TestBuild_RequiresRetriever(t *testing.T) {
	cfg := kernel.DefaultConfig()
	k, err := kernel.New(&cfg, kernel.WithAgent(mock.New()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := k.Build(nil); !errors.Is(err, kernel.ErrRetrieverRequired) {
		t.Errorf("got %v, want ErrRetrieverRequired", err)
	}
}
