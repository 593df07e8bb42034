package workflow_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/verdant/internal/workflow"
	"github.com/JaimeStill/verdant/pkg/pipeline"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{G: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// recorder collects the order in which collaborators are invoked.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

type fakeFetcher struct {
	mu         sync.Mutex
	rec        *recorder
	data       []byte
	ok         bool
	credential string
}

func (f *fakeFetcher) Fetch(_ context.Context, _, credential string) ([]byte, bool) {
	f.rec.add(workflow.StepFetch)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.credential = credential
	return f.data, f.ok
}

type fakeDescriber struct {
	rec  *recorder
	text string
}

func (f *fakeDescriber) Describe(context.Context, []byte) string {
	f.rec.add(workflow.StepDescribe)
	return f.text
}

type fakeClassifier struct {
	rec     *recorder
	isPlant bool
	err     error
}

func (f *fakeClassifier) Classify(context.Context, string) (bool, error) {
	f.rec.add(workflow.StepClassify)
	return f.isPlant, f.err
}

type fakeJudge struct {
	mu          sync.Mutex
	rec         *recorder
	judgment    workflow.Judgment
	err         error
	description string
	userText    string
}

func (f *fakeJudge) Judge(_ context.Context, description, userText string) (workflow.Judgment, error) {
	f.rec.add(workflow.StepJudge)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.description = description
	f.userText = userText
	return f.judgment, f.err
}

type fakePersister struct {
	mu    sync.Mutex
	rec   *recorder
	id    uuid.UUID
	err   error
	saved []workflow.State
}

func (f *fakePersister) Persist(_ context.Context, s workflow.State) (uuid.UUID, error) {
	f.rec.add(workflow.StepPersist)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return uuid.Nil, f.err
	}
	f.saved = append(f.saved, s)
	return f.id, nil
}

type fixture struct {
	rec       *recorder
	fetcher   *fakeFetcher
	describer *fakeDescriber
	classify  *fakeClassifier
	judge     *fakeJudge
	persister *fakePersister
}

func newFixture(t *testing.T) *fixture {
	rec := &recorder{}
	return &fixture{
		rec:       rec,
		fetcher:   &fakeFetcher{rec: rec, data: pngBytes(t), ok: true},
		describer: &fakeDescriber{rec: rec, text: "a wilting green plant"},
		classify:  &fakeClassifier{rec: rec, isPlant: true},
		judge: &fakeJudge{rec: rec, judgment: workflow.Judgment{
			Score:   4.5,
			Disease: "none",
			Advice:  "water regularly",
		}},
		persister: &fakePersister{rec: rec, id: uuid.New()},
	}
}

func (f *fixture) workflow(t *testing.T) *workflow.Workflow {
	t.Helper()
	w, err := workflow.New(&workflow.Runtime{
		Fetcher:    f.fetcher,
		Describer:  f.describer,
		Classifier: f.classify,
		Judge:      f.judge,
		Persister:  f.persister,
		Logger:     discardLogger(),
	})
	if err != nil {
		t.Fatalf("new workflow: %v", err)
	}
	return w
}

func initial() workflow.State {
	return workflow.NewState("img-1", "yellow leaves", "Bearer token", "user-1")
}

func TestExecutePlantCompletes(t *testing.T) {
	f := newFixture(t)
	w := f.workflow(t)

	final, outcome, err := w.Execute(context.Background(), initial())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if outcome != pipeline.Completed {
		t.Fatalf("outcome = %s, want completed", outcome)
	}

	want := []string{
		workflow.StepFetch,
		workflow.StepDescribe,
		workflow.StepClassify,
		workflow.StepJudge,
		workflow.StepPersist,
	}
	if got := f.rec.list(); !slices.Equal(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}

	if final.ImageID != "img-1" || final.UserText != "yellow leaves" {
		t.Errorf("identity changed: %q %q", final.ImageID, final.UserText)
	}
	if got := final.Description.Value(); got != "a wilting green plant" {
		t.Errorf("description = %q", got)
	}
	if !final.IsPlant.Value() {
		t.Error("is_plant not true")
	}
	if final.Score.Value() != 4.5 || final.Disease.Value() != "none" || final.Advice.Value() != "water regularly" {
		t.Errorf("judgment = %v %q %q", final.Score.Value(), final.Disease.Value(), final.Advice.Value())
	}
	if final.Format.Value() != "png" {
		t.Errorf("format = %q", final.Format.Value())
	}
	if final.DiagnosisID.Value() != f.persister.id {
		t.Errorf("diagnosis id = %s, want %s", final.DiagnosisID.Value(), f.persister.id)
	}

	if f.fetcher.credential != "Bearer token" {
		t.Errorf("credential = %q", f.fetcher.credential)
	}
	if f.judge.description != "a wilting green plant" || f.judge.userText != "yellow leaves" {
		t.Errorf("judge inputs = %q %q", f.judge.description, f.judge.userText)
	}
	if len(f.persister.saved) != 1 || f.persister.saved[0].Score.Value() != 4.5 {
		t.Errorf("persisted = %+v", f.persister.saved)
	}
}

func TestExecuteNotPlantTerminatesEarly(t *testing.T) {
	f := newFixture(t)
	f.classify.isPlant = false
	w := f.workflow(t)

	final, outcome, err := w.Execute(context.Background(), initial())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if outcome != pipeline.TerminatedEarly {
		t.Fatalf("outcome = %s, want terminated_early", outcome)
	}

	isPlant, ok := final.IsPlant.Get()
	if !ok || isPlant {
		t.Errorf("is_plant = %v (set %v), want false", isPlant, ok)
	}
	if final.Score.IsSet() || final.Disease.IsSet() || final.Advice.IsSet() || final.DiagnosisID.IsSet() {
		t.Error("judgment fields set after early termination")
	}

	want := []string{workflow.StepFetch, workflow.StepDescribe, workflow.StepClassify}
	if got := f.rec.list(); !slices.Equal(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
}

func TestExecuteStepFailures(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*fixture)
		step     string
		sentinel error
		calls    int
	}{
		{
			name:     "image unavailable",
			mutate:   func(f *fixture) { f.fetcher.ok = false },
			step:     workflow.StepFetch,
			sentinel: workflow.ErrImageUnavailable,
			calls:    1,
		},
		{
			name:     "invalid image",
			mutate:   func(f *fixture) { f.fetcher.data = []byte("not an image") },
			step:     workflow.StepFetch,
			sentinel: workflow.ErrInvalidImage,
			calls:    1,
		},
		{
			name:     "classifier error",
			mutate:   func(f *fixture) { f.classify.err = errors.New("model down") },
			step:     workflow.StepClassify,
			sentinel: workflow.ErrInferenceFailed,
			calls:    3,
		},
		{
			name:     "judge error",
			mutate:   func(f *fixture) { f.judge.err = workflow.ErrScoreRange },
			step:     workflow.StepJudge,
			sentinel: workflow.ErrInferenceFailed,
			calls:    4,
		},
		{
			name:     "persist error",
			mutate:   func(f *fixture) { f.persister.err = errors.New("db down") },
			step:     workflow.StepPersist,
			sentinel: workflow.ErrPersistFailed,
			calls:    5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.mutate(f)
			w := f.workflow(t)

			_, outcome, err := w.Execute(context.Background(), initial())
			if outcome != pipeline.Failed {
				t.Fatalf("outcome = %s, want failed", outcome)
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("err = %v, want %v", err, tt.sentinel)
			}

			step, ok := pipeline.FailedStep(err)
			if !ok || step != tt.step {
				t.Errorf("failed step = %q (%v), want %q", step, ok, tt.step)
			}
			if got := len(f.rec.list()); got != tt.calls {
				t.Errorf("calls = %v, want %d", f.rec.list(), tt.calls)
			}
		})
	}
}

func TestExecuteFetchFailureKeepsIdentity(t *testing.T) {
	f := newFixture(t)
	f.fetcher.ok = false
	w := f.workflow(t)

	final, _, _ := w.Execute(context.Background(), initial())
	if final.ImageID != "img-1" || final.Owner != "user-1" {
		t.Errorf("identity = %q %q", final.ImageID, final.Owner)
	}
	if final.Image.IsSet() || final.Description.IsSet() {
		t.Error("derived fields set after fetch failure")
	}
}

func TestExecuteMissingIdentity(t *testing.T) {
	f := newFixture(t)
	w := f.workflow(t)

	_, outcome, err := w.Execute(context.Background(), workflow.NewState("", "text", "", "user-1"))
	if outcome != pipeline.Failed || !errors.Is(err, workflow.ErrMissingIdentity) {
		t.Errorf("outcome = %s, err = %v", outcome, err)
	}
	if len(f.rec.list()) != 0 {
		t.Errorf("calls = %v, want none", f.rec.list())
	}
}

func TestExecuteConcurrentRunsIndependent(t *testing.T) {
	f := newFixture(t)
	w := f.workflow(t)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Go(func() {
			final, outcome, err := w.Execute(context.Background(), initial())
			if err != nil {
				errs <- err
				return
			}
			if outcome != pipeline.Completed || final.Score.Value() != 4.5 {
				errs <- errors.New("unexpected result")
			}
		})
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestStateCloneIsolatesImage(t *testing.T) {
	s := initial()
	if err := s.Image.Set([]byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}

	c := s.Clone()
	c.Image.Value()[0] = 9

	if s.Image.Value()[0] != 1 {
		t.Error("clone shares image bytes")
	}
	if c.ImageID != s.ImageID {
		t.Error("clone lost identity")
	}
}

func TestCategory(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "none"},
		{workflow.ErrImageUnavailable, "image_unavailable"},
		{&pipeline.StepError{Step: "fetch", Err: workflow.ErrInvalidImage}, "invalid_image"},
		{workflow.ErrInferenceFailed, "inference"},
		{workflow.ErrPersistFailed, "persistence"},
		{errors.New("other"), "internal"},
	}

	for _, tt := range tests {
		if got := workflow.Category(tt.err); got != tt.want {
			t.Errorf("Category(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
