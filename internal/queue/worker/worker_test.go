package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/tourhub/internal/jobs"
	"github.com/geocoder89/tourhub/internal/notifications"
	"github.com/geocoder89/tourhub/internal/queue"
)

type fakeSource struct {
	mu      sync.Mutex
	ready   []jobs.Job
	retried []jobs.Job
	delays  []time.Duration
	dead    []jobs.Job
}

func (f *fakeSource) Dequeue(ctx context.Context, timeout time.Duration) (jobs.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.ready) == 0 {
		return jobs.Job{}, queue.ErrEmpty
	}
	j := f.ready[0]
	f.ready = f.ready[1:]
	return j, nil
}

func (f *fakeSource) Retry(ctx context.Context, j jobs.Job, delay time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retried = append(f.retried, j)
	f.delays = append(f.delays, delay)
	return nil
}

func (f *fakeSource) DeadLetter(ctx context.Context, j jobs.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dead = append(f.dead, j)
	return nil
}

func (f *fakeSource) PromoteDue(ctx context.Context) (int, error) { return 0, nil }

type recordingMailer struct {
	mu   sync.Mutex
	sent []notifications.Message
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, msg notifications.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func newTestWorker(src Source, mailer notifications.Mailer) *Worker {
	w := New(Config{WorkerID: "test", AppURL: "http://tourhub.test"}, src, mailer,
		slog.New(slog.NewTextHandler(io.Discard, nil)), nil, nil)
	w.backoff = func(attempt int) time.Duration { return time.Duration(attempt+1) * time.Second }
	return w
}

func mustJob(t *testing.T, typ jobs.JobType, payload any) jobs.Job {
	t.Helper()
	j, err := jobs.New(typ, payload)
	if err != nil {
		t.Fatalf("jobs.New: %v", err)
	}
	return j
}

func TestProcessOne_SendsWelcomeEmail(t *testing.T) {
	src := &fakeSource{ready: []jobs.Job{
		mustJob(t, jobs.JobSendWelcomeEmail, jobs.WelcomeEmailPayload{UserID: "u1", Email: "ada@example.com", Name: "Ada Lovelace"}),
	}}
	mailer := &recordingMailer{}
	w := newTestWorker(src, mailer)

	took, err := w.ProcessOne(context.Background(), context.Background())
	if err != nil || !took {
		t.Fatalf("took=%v err=%v", took, err)
	}

	if len(mailer.sent) != 1 {
		t.Fatalf("expected 1 mail, got %d", len(mailer.sent))
	}
	msg := mailer.sent[0]
	if msg.To != "ada@example.com" || msg.Template != notifications.TemplateWelcome {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if msg.Data["URL"] != "http://tourhub.test/me" {
		t.Fatalf("expected default url, got %v", msg.Data["URL"])
	}

	snap := w.Metrics()
	if snap.Dequeued != 1 || snap.Done != 1 {
		t.Fatalf("unexpected metrics: %+v", snap)
	}
}

func TestProcessOne_EmptyQueue(t *testing.T) {
	w := newTestWorker(&fakeSource{}, &recordingMailer{})

	took, err := w.ProcessOne(context.Background(), context.Background())
	if err != nil || took {
		t.Fatalf("took=%v err=%v", took, err)
	}
}

func TestProcessOne_RetriesThenDeadLetters(t *testing.T) {
	j := mustJob(t, jobs.JobSendPasswordChanged, jobs.PasswordChangedPayload{
		UserID: "u1", Email: "ada@example.com", Name: "Ada", ChangedAt: time.Now(),
	})
	j.MaxAttempts = 2

	src := &fakeSource{ready: []jobs.Job{j}}
	w := newTestWorker(src, &recordingMailer{err: errors.New("relay down")})

	if _, err := w.ProcessOne(context.Background(), context.Background()); err != nil {
		t.Fatalf("ProcessOne: %v", err)
	}
	if len(src.retried) != 1 || src.retried[0].Attempts != 1 || src.delays[0] != time.Second {
		t.Fatalf("expected one retry after 1s, got %+v %v", src.retried, src.delays)
	}
	if src.retried[0].LastError != "relay down" {
		t.Fatalf("last error not recorded: %q", src.retried[0].LastError)
	}

	// the retried job comes back and fails its last attempt
	src.ready = append(src.ready, src.retried[0])
	if _, err := w.ProcessOne(context.Background(), context.Background()); err != nil {
		t.Fatalf("ProcessOne: %v", err)
	}
	if len(src.dead) != 1 || src.dead[0].Attempts != 2 {
		t.Fatalf("expected dead letter after 2 attempts, got %+v", src.dead)
	}

	snap := w.Metrics()
	if snap.Retried != 1 || snap.DeadLettered != 1 {
		t.Fatalf("unexpected metrics: %+v", snap)
	}
}

func TestProcessOne_BadPayloadIsDeadLetteredImmediately(t *testing.T) {
	src := &fakeSource{ready: []jobs.Job{{ID: "j1", Type: jobs.JobSendWelcomeEmail, Payload: []byte(`{"userId":""}`), MaxAttempts: 5}}}
	w := newTestWorker(src, &recordingMailer{})

	if _, err := w.ProcessOne(context.Background(), context.Background()); err != nil {
		t.Fatalf("ProcessOne: %v", err)
	}
	if len(src.dead) != 1 || len(src.retried) != 0 {
		t.Fatalf("expected immediate dead letter, dead=%d retried=%d", len(src.dead), len(src.retried))
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	w := newTestWorker(&fakeSource{}, &recordingMailer{})
	w.cfg.PollTimeout = 10 * time.Millisecond
	w.cfg.PromoteEvery = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	deadline := time.Now().Add(time.Second)
	for !w.Ready() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	rec := httptest.NewRecorder()
	w.HealthHandler(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected ready, got %d", rec.Code)
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop")
	}

	if w.Ready() {
		t.Fatalf("worker should not be ready after shutdown")
	}
}

func TestInline_SendsImmediately(t *testing.T) {
	mailer := &recordingMailer{}
	in := NewInline(mailer, "http://tourhub.test")

	changed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	j := mustJob(t, jobs.JobSendPasswordChanged, jobs.PasswordChangedPayload{UserID: "u1", Email: "ada@example.com", Name: "Ada", ChangedAt: changed})

	if err := in.Enqueue(context.Background(), j); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if len(mailer.sent) != 1 || mailer.sent[0].To != "ada@example.com" {
		t.Fatalf("unexpected mails: %+v", mailer.sent)
	}

	mailer.err = errors.New("relay down")
	if err := in.Enqueue(context.Background(), j); err == nil {
		t.Fatal("expected the mailer error to surface")
	}
}

func TestBackoffDoublesUpToMax(t *testing.T) {
	b := Backoff{Base: time.Second, Max: 10 * time.Second}

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 10 * time.Second, 10 * time.Second}
	for attempt, w := range want {
		if got := b.Delay(attempt); got != w {
			t.Fatalf("Delay(%d) = %s, want %s", attempt, got, w)
		}
	}

	jittered := Backoff{Base: time.Second, Max: time.Minute, Jitter: 100 * time.Millisecond}
	for i := 0; i < 20; i++ {
		got := jittered.Delay(0)
		if got < time.Second || got >= time.Second+100*time.Millisecond {
			t.Fatalf("jittered delay %s out of range", got)
		}
	}
}
