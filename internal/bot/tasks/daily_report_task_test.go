package tasks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/edgard/morningbot/internal/config"
	"github.com/edgard/morningbot/internal/database"
	"github.com/edgard/morningbot/internal/errlog"
	"github.com/edgard/morningbot/internal/report"
	"github.com/edgard/morningbot/internal/telegram"
	"github.com/edgard/morningbot/internal/traffic"
	"github.com/edgard/morningbot/internal/weather"
)

type fakeWeather struct {
	failFor map[string]bool
}

func (f fakeWeather) Current(_ context.Context, city string) (*weather.Current, error) {
	if f.failFor[city] {
		return nil, &weather.APIError{Status: http.StatusServiceUnavailable, Message: "down"}
	}
	return &weather.Current{City: city, Temp: 12.4, FeelsLike: 10.6, Description: "light rain"}, nil
}

type fakeTraffic struct{}

func (fakeTraffic) Get(context.Context, string) traffic.Result {
	return traffic.Result{Status: http.StatusOK, Level: 4, Description: "Light traffic", Source: traffic.SourceRoute}
}

type sentMessage struct {
	chatID int64
	text   string
}

type fakeSender struct {
	mu          sync.Mutex
	sent        []sentMessage
	unreachable map[int64]bool
	transient   map[int64]bool
	// afterSend runs after every successful delivery.
	afterSend func()
}

func (f *fakeSender) Send(_ context.Context, chatID int64, text string) error {
	if f.afterSend != nil {
		defer f.afterSend()
	}
	switch {
	case f.unreachable[chatID]:
		return &telegram.DeliveryError{ChatID: chatID, Kind: telegram.DeliveryUnreachable, Err: errors.New("forbidden: bot was blocked by the user")}
	case f.transient[chatID]:
		return &telegram.DeliveryError{ChatID: chatID, Kind: telegram.DeliveryTransient, Err: errors.New("connection reset")}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func (f *fakeSender) reset() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.sent
	f.sent = nil
	return out
}

type countingSink struct {
	mu sync.Mutex
	n  int
}

func (c *countingSink) Record(error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
}

func (c *countingSink) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

type fixture struct {
	deps   TaskDeps
	store  database.Store
	sender *fakeSender
	sink   *countingSink
}

func newFixture(t *testing.T, w fakeWeather) *fixture {
	t.Helper()
	db, err := database.NewDB(database.DriverSQLite, filepath.Join(t.TempDir(), "tasks.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { database.CloseDB(db) })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := database.NewStore(db, logger, errlog.Nop())
	sender := &fakeSender{unreachable: map[int64]bool{}, transient: map[int64]bool{}}
	sink := &countingSink{}

	cfg := &config.Config{}
	cfg.Report.Concurrency = 3
	cfg.Database.Driver = database.DriverSQLite

	return &fixture{
		deps: TaskDeps{
			Logger:    logger,
			Store:     store,
			Reports:   report.NewBuilder(w, fakeTraffic{}, time.Second, time.UTC, logger),
			Sender:    sender,
			ErrorSink: sink,
			Config:    cfg,
		},
		store:  store,
		sender: sender,
		sink:   sink,
	}
}

func TestPausedChatIsSkippedUntilResumed(t *testing.T) {
	t.Parallel()
	f := newFixture(t, fakeWeather{})
	ctx := context.Background()

	if _, err := f.store.UpsertChat(ctx, 100, "private", "Moscow"); err != nil {
		t.Fatalf("UpsertChat: %v", err)
	}
	if err := f.store.SetCity(ctx, 100, "Krasnodar"); err != nil {
		t.Fatalf("SetCity: %v", err)
	}
	if err := f.store.SetReportsEnabled(ctx, 100, false); err != nil {
		t.Fatalf("pause: %v", err)
	}

	summary, err := RunDailyReport(ctx, f.deps)
	if err != nil {
		t.Fatalf("RunDailyReport: %v", err)
	}
	if summary.Total != 0 || len(f.sender.reset()) != 0 {
		t.Fatalf("paused chat received a report: %+v", summary)
	}

	if err := f.store.SetReportsEnabled(ctx, 100, true); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if _, err := RunDailyReport(ctx, f.deps); err != nil {
		t.Fatalf("RunDailyReport: %v", err)
	}
	sent := f.sender.reset()
	if len(sent) != 1 {
		t.Fatalf("got %d messages after resume, want 1", len(sent))
	}
	if sent[0].chatID != 100 || !strings.Contains(sent[0].text, "Krasnodar") {
		t.Errorf("unexpected message %+v", sent[0])
	}
}

func TestWeatherFailureDegradesReport(t *testing.T) {
	t.Parallel()
	f := newFixture(t, fakeWeather{failFor: map[string]bool{"Sochi": true}})
	ctx := context.Background()

	if _, err := f.store.UpsertChat(ctx, 200, "group", "Sochi"); err != nil {
		t.Fatalf("UpsertChat: %v", err)
	}

	summary, err := RunDailyReport(ctx, f.deps)
	if err != nil {
		t.Fatalf("RunDailyReport: %v", err)
	}
	if summary.Sent != 1 {
		t.Fatalf("summary = %+v, want one sent", summary)
	}
	sent := f.sender.reset()
	if len(sent) != 1 {
		t.Fatalf("got %d messages, want 1", len(sent))
	}
	if !strings.Contains(sent[0].text, "Weather: "+report.Unavailable) {
		t.Errorf("weather section not marked unavailable:\n%s", sent[0].text)
	}
	if !strings.Contains(sent[0].text, "Traffic: 4/10 Light traffic") {
		t.Errorf("traffic section missing:\n%s", sent[0].text)
	}
}

func TestUnreachableChatIsDeactivated(t *testing.T) {
	t.Parallel()
	f := newFixture(t, fakeWeather{})
	ctx := context.Background()

	for _, id := range []int64{100, 200, 300} {
		if _, err := f.store.UpsertChat(ctx, id, "private", "Moscow"); err != nil {
			t.Fatalf("UpsertChat(%d): %v", id, err)
		}
	}
	f.sender.unreachable[300] = true

	summary, err := RunDailyReport(ctx, f.deps)
	if err != nil {
		t.Fatalf("RunDailyReport: %v", err)
	}
	want := Summary{Total: 3, Sent: 2, Failed: 1, Deactivated: 1}
	if summary != want {
		t.Errorf("summary = %+v, want %+v", summary, want)
	}

	active, err := f.store.IsActive(ctx, 300)
	if err != nil || active {
		t.Fatalf("IsActive(300) = %v, %v; want false, nil", active, err)
	}
	targets, err := f.store.ListBroadcastTargets(ctx)
	if err != nil {
		t.Fatalf("ListBroadcastTargets: %v", err)
	}
	for _, c := range targets {
		if c.ChatID == 300 {
			t.Fatalf("chat 300 still a broadcast target")
		}
	}
	if len(targets) != 2 {
		t.Errorf("got %d targets, want 2", len(targets))
	}
}

func TestTransientFailureKeepsChatActive(t *testing.T) {
	t.Parallel()
	f := newFixture(t, fakeWeather{})
	ctx := context.Background()

	for _, id := range []int64{1, 2} {
		if _, err := f.store.UpsertChat(ctx, id, "private", "Moscow"); err != nil {
			t.Fatalf("UpsertChat(%d): %v", id, err)
		}
	}
	f.sender.transient[1] = true

	summary, err := RunDailyReport(ctx, f.deps)
	if err != nil {
		t.Fatalf("RunDailyReport: %v", err)
	}
	want := Summary{Total: 2, Sent: 1, Failed: 1}
	if summary != want {
		t.Errorf("summary = %+v, want %+v", summary, want)
	}
	if active, _ := f.store.IsActive(ctx, 1); !active {
		t.Error("transient failure must not deactivate the chat")
	}
	if f.sink.count() != 1 {
		t.Errorf("sink recorded %d errors, want 1", f.sink.count())
	}
}

func TestRegisterAllTasks(t *testing.T) {
	t.Parallel()
	f := newFixture(t, fakeWeather{})

	tasks := RegisterAllTasks(f.deps)
	for _, name := range []string{config.TaskDailyReport, config.TaskSQLMaintenance} {
		if tasks[name] == nil {
			t.Errorf("task %q not registered", name)
		}
	}
	if err := tasks[config.TaskSQLMaintenance](context.Background()); err != nil {
		t.Errorf("sql maintenance: %v", err)
	}
}

func TestCancelledBroadcastCountsSkippedChats(t *testing.T) {
	t.Parallel()
	f := newFixture(t, fakeWeather{})
	f.deps.Config.Report.Concurrency = 1
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, id := range []int64{1, 2, 3} {
		if _, err := f.store.UpsertChat(ctx, id, "private", "Moscow"); err != nil {
			t.Fatalf("UpsertChat(%d): %v", id, err)
		}
	}
	f.sender.afterSend = cancel

	summary, err := RunDailyReport(ctx, f.deps)
	if err != nil {
		t.Fatalf("RunDailyReport: %v", err)
	}
	want := Summary{Total: 3, Sent: 1, Skipped: 2}
	if summary != want {
		t.Errorf("summary = %+v, want %+v", summary, want)
	}
	if got := summary.Sent + summary.Failed + summary.Skipped; got != summary.Total {
		t.Errorf("sent+failed+skipped = %d, want total %d", got, summary.Total)
	}
}
