package pipeline_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/JaimeStill/verdant/pkg/pipeline"
)

type testState struct {
	Payload []byte
	Flag    bool
	A       pipeline.Field[string]
	B       pipeline.Field[string]
	C       pipeline.Field[string]
	D       pipeline.Field[string]
	E       pipeline.Field[string]
}

func (s testState) Clone() testState {
	s.Payload = slices.Clone(s.Payload)
	return s
}

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)
}

func setter(rec *recorder, name string, field func(*testState) *pipeline.Field[string]) pipeline.Step[testState] {
	return pipeline.Step[testState]{
		Name: name,
		Run: func(_ context.Context, s testState) (testState, error) {
			rec.add(name)
			if err := field(&s).Set(name + "-done"); err != nil {
				return s, err
			}
			return s, nil
		},
	}
}

func fiveSteps(rec *recorder) []pipeline.Step[testState] {
	return []pipeline.Step[testState]{
		setter(rec, "A", func(s *testState) *pipeline.Field[string] { return &s.A }),
		setter(rec, "B", func(s *testState) *pipeline.Field[string] { return &s.B }),
		setter(rec, "C", func(s *testState) *pipeline.Field[string] { return &s.C }),
		setter(rec, "D", func(s *testState) *pipeline.Field[string] { return &s.D }),
		setter(rec, "E", func(s *testState) *pipeline.Field[string] { return &s.E }),
	}
}

func branchOnFlag(s testState) pipeline.Transition {
	if !s.Flag {
		return pipeline.Terminate()
	}
	return pipeline.Continue()
}

func TestNewValidation(t *testing.T) {
	run := func(_ context.Context, s testState) (testState, error) { return s, nil }

	tests := []struct {
		name  string
		steps []pipeline.Step[testState]
		want  error
	}{
		{"no steps", nil, pipeline.ErrNoSteps},
		{"empty name", []pipeline.Step[testState]{{Name: "", Run: run}}, pipeline.ErrEmptyStepName},
		{"nil run", []pipeline.Step[testState]{{Name: "a"}}, pipeline.ErrNilRun},
		{"duplicate", []pipeline.Step[testState]{{Name: "a", Run: run}, {Name: "a", Run: run}}, pipeline.ErrDuplicateStep},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pipeline.New(tt.steps)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSteps(t *testing.T) {
	p, err := pipeline.New(fiveSteps(&recorder{}))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	want := []string{"A", "B", "C", "D", "E"}
	if got := p.Steps(); !slices.Equal(got, want) {
		t.Errorf("steps = %v, want %v", got, want)
	}
}

func TestRunCompletesInOrder(t *testing.T) {
	rec := &recorder{}
	p, err := pipeline.New(fiveSteps(rec))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	final, outcome, err := p.Run(context.Background(), testState{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcome != pipeline.Completed {
		t.Errorf("outcome = %s, want completed", outcome)
	}

	if want := []string{"A", "B", "C", "D", "E"}; !slices.Equal(rec.calls, want) {
		t.Errorf("calls = %v, want %v", rec.calls, want)
	}

	for name, f := range map[string]pipeline.Field[string]{
		"A": final.A, "B": final.B, "C": final.C, "D": final.D, "E": final.E,
	} {
		if v, ok := f.Get(); !ok || v != name+"-done" {
			t.Errorf("field %s = %q (set=%v)", name, v, ok)
		}
	}
}

func TestRunBranch(t *testing.T) {
	tests := []struct {
		name      string
		flag      bool
		outcome   pipeline.Outcome
		wantCalls []string
	}{
		{"flag false terminates", false, pipeline.TerminatedEarly, []string{"A", "B", "C"}},
		{"flag true continues", true, pipeline.Completed, []string{"A", "B", "C", "D", "E"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			steps := fiveSteps(rec)
			steps[2].Next = branchOnFlag

			p, err := pipeline.New(steps)
			if err != nil {
				t.Fatalf("new: %v", err)
			}

			final, outcome, err := p.Run(context.Background(), testState{Flag: tt.flag})
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if outcome != tt.outcome {
				t.Errorf("outcome = %s, want %s", outcome, tt.outcome)
			}
			if !slices.Equal(rec.calls, tt.wantCalls) {
				t.Errorf("calls = %v, want %v", rec.calls, tt.wantCalls)
			}
			if !final.C.IsSet() {
				t.Error("branch step field should be set")
			}
			if !tt.flag && (final.D.IsSet() || final.E.IsSet()) {
				t.Error("fields after the branch should remain unset")
			}
		})
	}
}

func TestRunFailedStep(t *testing.T) {
	cause := errors.New("resource unobtainable")
	rec := &recorder{}
	steps := fiveSteps(rec)
	steps[0].Run = func(_ context.Context, s testState) (testState, error) {
		rec.add("A")
		return s, cause
	}

	p, err := pipeline.New(steps)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	final, outcome, err := p.Run(context.Background(), testState{})
	if outcome != pipeline.Failed {
		t.Errorf("outcome = %s, want failed", outcome)
	}
	if !errors.Is(err, cause) {
		t.Errorf("err = %v, want wrapping %v", err, cause)
	}
	if step, ok := pipeline.FailedStep(err); !ok || step != "A" {
		t.Errorf("failed step = %q, want A", step)
	}
	if want := []string{"A"}; !slices.Equal(rec.calls, want) {
		t.Errorf("calls = %v, want %v", rec.calls, want)
	}
	if final.A.IsSet() {
		t.Error("no field should be set after the first step fails")
	}
}

func TestRunFailedKeepsLastGoodState(t *testing.T) {
	rec := &recorder{}
	steps := fiveSteps(rec)
	steps[2].Run = func(_ context.Context, s testState) (testState, error) {
		s.Payload[0] = 'X'
		_ = s.C.Set("partial")
		return s, errors.New("boom")
	}

	p, err := pipeline.New(steps)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	final, outcome, err := p.Run(context.Background(), testState{Payload: []byte("abc")})
	if outcome != pipeline.Failed || err == nil {
		t.Fatalf("outcome = %s, err = %v", outcome, err)
	}
	if !final.A.IsSet() || !final.B.IsSet() {
		t.Error("fields from completed steps should be set")
	}
	if final.C.IsSet() {
		t.Error("failed step must not leak its partial write")
	}
	if string(final.Payload) != "abc" {
		t.Errorf("payload = %q, want abc", final.Payload)
	}
}

func TestRunSelectorPosition(t *testing.T) {
	tests := []struct {
		name      string
		at        int
		outcome   pipeline.Outcome
		wantCalls []string
	}{
		{"first step terminates", 0, pipeline.TerminatedEarly, []string{"A"}},
		{"last step terminates", 4, pipeline.TerminatedEarly, []string{"A", "B", "C", "D", "E"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			steps := fiveSteps(rec)
			steps[tt.at].Next = branchOnFlag

			p, err := pipeline.New(steps)
			if err != nil {
				t.Fatalf("new: %v", err)
			}

			_, outcome, err := p.Run(context.Background(), testState{})
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if outcome != tt.outcome {
				t.Errorf("outcome = %s, want %s", outcome, tt.outcome)
			}
			if !slices.Equal(rec.calls, tt.wantCalls) {
				t.Errorf("calls = %v, want %v", rec.calls, tt.wantCalls)
			}
		})
	}
}

func TestRunPanicBecomesFailure(t *testing.T) {
	steps := fiveSteps(&recorder{})
	steps[3].Run = func(context.Context, testState) (testState, error) {
		panic("unexpected")
	}

	p, err := pipeline.New(steps)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	final, outcome, err := p.Run(context.Background(), testState{})
	if outcome != pipeline.Failed {
		t.Errorf("outcome = %s, want failed", outcome)
	}
	if !errors.Is(err, pipeline.ErrStepPanic) {
		t.Errorf("err = %v, want ErrStepPanic", err)
	}
	if step, _ := pipeline.FailedStep(err); step != "D" {
		t.Errorf("failed step = %q, want D", step)
	}
	if !final.C.IsSet() {
		t.Error("state should reflect steps before the panic")
	}
}

type ctxKey struct{}

type eventObserver struct {
	events  []string
	outcome pipeline.Outcome
	ctxSeen bool
}

func (o *eventObserver) StepStarted(ctx context.Context, step string) context.Context {
	o.events = append(o.events, "start:"+step)
	return context.WithValue(ctx, ctxKey{}, step)
}

func (o *eventObserver) StepFinished(ctx context.Context, step string, _ time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "err"
	}
	o.events = append(o.events, "finish:"+step+":"+status)
}

func (o *eventObserver) RunFinished(_ context.Context, outcome pipeline.Outcome, _ error) {
	o.outcome = outcome
}

func TestObserver(t *testing.T) {
	obs := &eventObserver{}
	rec := &recorder{}
	steps := fiveSteps(rec)[:2]
	steps[1].Run = func(ctx context.Context, s testState) (testState, error) {
		obs.ctxSeen = ctx.Value(ctxKey{}) == "B"
		return s, errors.New("fail")
	}

	p, err := pipeline.New(steps, pipeline.WithObserver(obs), pipeline.WithObserver(nil))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	p.Run(context.Background(), testState{})

	want := []string{"start:A", "finish:A:ok", "start:B", "finish:B:err"}
	if !slices.Equal(obs.events, want) {
		t.Errorf("events = %v, want %v", obs.events, want)
	}
	if obs.outcome != pipeline.Failed {
		t.Errorf("observed outcome = %s, want failed", obs.outcome)
	}
	if !obs.ctxSeen {
		t.Error("step should receive the context returned by StepStarted")
	}
}

func TestOutcomeString(t *testing.T) {
	tests := map[pipeline.Outcome]string{
		pipeline.Completed:       "completed",
		pipeline.TerminatedEarly: "terminated_early",
		pipeline.Failed:          "failed",
		pipeline.Outcome(42):     "unknown",
	}
	for o, want := range tests {
		if got := o.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(o), got, want)
		}
	}
}
