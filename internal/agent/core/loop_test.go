package core

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type scriptedDecider struct {
	mu        sync.Mutex
	decisions []string
	calls     int
	err       error
	seen      []Transcript
}

func (d *scriptedDecider) Decide(_ context.Context, t Transcript, _ []string) (RoutingDecision, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen = append(d.seen, t)
	d.calls++
	if d.err != nil {
		return RoutingDecision{}, d.err
	}
	if len(d.decisions) == 0 {
		return RoutingDecision{NextAction: Finish}, nil
	}
	next := d.decisions[0]
	if len(d.decisions) > 1 {
		d.decisions = d.decisions[1:]
	}
	return RoutingDecision{NextAction: next}, nil
}

type countingCloser struct {
	calls int
	reply string
	err   error
}

func (c *countingCloser) Respond(context.Context, Transcript) (string, error) {
	c.calls++
	return c.reply, c.err
}

type recordingReporter struct {
	events []string
}

func (r *recordingReporter) Report(_ context.Context, event string, _ error) {
	r.events = append(r.events, event)
}

type fixture struct {
	decider  *scriptedDecider
	closer   *countingCloser
	reporter *recordingReporter
	calls    map[string]int
	loop     *Loop
}

func newFixture(t *testing.T, decisions []string, maxIterations int) *fixture {
	t.Helper()
	f := &fixture{
		decider:  &scriptedDecider{decisions: decisions},
		closer:   &countingCloser{reply: "all done"},
		reporter: &recordingReporter{},
		calls:    map[string]int{},
	}
	reg, err := NewHandlerRegistry(DefaultDescriptors()...)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	handlers := map[string]Handler{}
	for _, d := range reg.Descriptors() {
		name := d.Name
		handlers[name] = HandlerFunc(func(context.Context, Transcript) (Message, error) {
			f.calls[name]++
			if name == WebResearcher {
				return Message{}, errors.New("search quota exhausted")
			}
			return Message{Content: name + " output"}, nil
		})
	}
	router, err := NewRouter(RouterConfig{
		Registry: reg,
		Handlers: handlers,
		Decider:  f.decider,
		Closer:   f.closer,
		Reporter: f.reporter,
	})
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	f.loop = NewLoop(router, WithMaxIterations(maxIterations))
	return f
}

func (f *fixture) dispatchCount() int {
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func TestRunInvalidDecisionAborts(t *testing.T) {
	f := newFixture(t, []string{"Astrologer"}, 0)
	res, err := f.loop.Run(context.Background(), Transcript{}, "read my stars")
	if !errors.Is(err, ErrRoutingContract) {
		t.Fatalf("expected routing contract error, got %v", err)
	}
	if res.Outcome != OutcomeAborted || res.Reply != Apology {
		t.Fatalf("unexpected result %+v", res)
	}
	if f.dispatchCount() != 0 || f.closer.calls != 0 {
		t.Fatalf("nothing may run after an invalid decision: %v closer=%d", f.calls, f.closer.calls)
	}
	if res.Transcript.Len() != 1 {
		t.Fatalf("transcript must keep the seeded utterance, got %d messages", res.Transcript.Len())
	}
	if len(f.reporter.events) != 1 || f.reporter.events[0] != EventTurnAborted {
		t.Fatalf("expected turn.aborted report, got %v", f.reporter.events)
	}
}

func TestRunDeciderErrorAborts(t *testing.T) {
	f := newFixture(t, nil, 0)
	f.decider.err = errors.New("connection refused")
	res, err := f.loop.Run(context.Background(), Transcript{}, "hello")
	if !errors.Is(err, ErrDeciderUnavailable) {
		t.Fatalf("expected decider unavailable, got %v", err)
	}
	if res.Outcome != OutcomeAborted || res.Reply != Apology {
		t.Fatalf("unexpected result %+v", res)
	}
	if f.decider.calls != 1 {
		t.Fatalf("decider errors must not be retried, calls=%d", f.decider.calls)
	}
}

func TestRunFinishInvokesOnlyCloser(t *testing.T) {
	f := newFixture(t, []string{Finish}, 0)
	prior := NewTranscript(UserMessage("summarize my resume"), HandlerMessage(ResumeAnalyzer, "skills: go"))
	res, err := f.loop.Run(context.Background(), prior, "")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if f.closer.calls != 1 || f.dispatchCount() != 0 {
		t.Fatalf("expected closer only, closer=%d handlers=%v", f.closer.calls, f.calls)
	}
	if res.Outcome != OutcomeFinished || res.Reply != "all done" {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Transcript.Len() != 3 {
		t.Fatalf("expected exactly one closing message appended, got %d", res.Transcript.Len())
	}
	if prior.Len() != 2 {
		t.Fatalf("prior transcript mutated")
	}
}

func TestRunCeilingStopsLoopingDecider(t *testing.T) {
	f := newFixture(t, []string{ChatBot}, 3)
	res, err := f.loop.Run(context.Background(), Transcript{}, "talk forever")
	if err != nil {
		t.Fatalf("ceiling must not error: %v", err)
	}
	if res.Outcome != OutcomeCeilingReached || res.Dispatches != 3 {
		t.Fatalf("unexpected result %+v", res)
	}
	if f.calls[ChatBot] != 3 || f.closer.calls != 0 {
		t.Fatalf("expected exactly 3 dispatches, got %v closer=%d", f.calls, f.closer.calls)
	}
	if res.Transcript.Len() != 4 {
		t.Fatalf("expected utterance plus 3 messages, got %d", res.Transcript.Len())
	}
}

func TestRunHandlersThenFinish(t *testing.T) {
	f := newFixture(t, []string{ResumeAnalyzer, JobSearcher, Finish}, 0)
	res, err := f.loop.Run(context.Background(), Transcript{}, "find roles for my resume")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	msgs := res.Transcript.Messages()
	if len(msgs) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(msgs))
	}
	if msgs[1].ProducedBy != ResumeAnalyzer || msgs[2].ProducedBy != JobSearcher || msgs[3].Role != RoleAssistant {
		t.Fatalf("unexpected attribution %+v", msgs)
	}
	if res.Dispatches != 2 {
		t.Fatalf("expected 2 dispatches, got %d", res.Dispatches)
	}
	if f.decider.seen[1].Len() != 2 || f.decider.seen[2].Len() != 3 {
		t.Fatalf("decider must see the growing transcript")
	}
}

func TestRunHandlerErrorBecomesMessage(t *testing.T) {
	f := newFixture(t, []string{WebResearcher, Finish}, 0)
	res, err := f.loop.Run(context.Background(), Transcript{}, "latest layoffs")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	msg, ok := res.Transcript.LastFrom(WebResearcher)
	if !ok || msg.Content == "" {
		t.Fatalf("expected explanatory message from WebResearcher")
	}
	if len(f.reporter.events) != 1 || f.reporter.events[0] != EventHandlerFailed {
		t.Fatalf("expected handler.failed report, got %v", f.reporter.events)
	}
}

func TestRunAppendsUtteranceToPriorTranscript(t *testing.T) {
	f := newFixture(t, []string{Finish}, 0)
	prior := NewTranscript(UserMessage("hi"), Message{Role: RoleAssistant, Content: "hello"})
	res, err := f.loop.Run(context.Background(), prior, "search jobs")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	first := f.decider.seen[0]
	last, _ := first.Last()
	if first.Len() != 3 || last.Content != "search jobs" || last.Role != RoleUser {
		t.Fatalf("decider saw %+v", first.Messages())
	}
	if res.Transcript.Len() != 4 {
		t.Fatalf("expected 4 messages, got %d", res.Transcript.Len())
	}
}

func TestNewRouterRequiresEveryHandler(t *testing.T) {
	reg, _ := NewHandlerRegistry(DefaultDescriptors()...)
	_, err := NewRouter(RouterConfig{
		Registry: reg,
		Handlers: map[string]Handler{ChatBot: HandlerFunc(func(context.Context, Transcript) (Message, error) { return Message{}, nil })},
		Decider:  &scriptedDecider{},
		Closer:   &countingCloser{},
	})
	if err == nil {
		t.Fatalf("expected missing handler error")
	}
}

func TestTurnStateTransitions(t *testing.T) {
	f := newFixture(t, []string{ChatBot, Finish}, 0)
	turn := f.loop.router.Begin(Transcript{}, "hi")
	if turn.State() != AwaitingDecision {
		t.Fatalf("state %s", turn.State())
	}
	if err := turn.Dispatch(context.Background()); err == nil {
		t.Fatalf("dispatch before a decision must fail")
	}
	if next, err := turn.Decide(context.Background()); err != nil || next != ChatBot || turn.State() != Dispatching {
		t.Fatalf("decide: %s %v %s", next, err, turn.State())
	}
	if err := turn.Dispatch(context.Background()); err != nil || turn.State() != AwaitingDecision {
		t.Fatalf("dispatch: %v %s", err, turn.State())
	}
	if _, err := turn.Decide(context.Background()); err != nil || turn.State() != Terminated {
		t.Fatalf("finish: %v %s", err, turn.State())
	}
	if _, err := turn.Decide(context.Background()); err == nil {
		t.Fatalf("terminated turn must not decide again")
	}
}
