package monitor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"pricing-service/internal/database"
	"pricing-service/internal/metrics"
	"pricing-service/internal/models"
	"pricing-service/internal/notify"
	"pricing-service/internal/scraper"
	"pricing-service/internal/service"
)

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (r *recordingDispatcher) Send(ctx context.Context, msg notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

// shop serve páginas cujo HTML pode ser trocado durante o teste.
type shop struct {
	mu    sync.Mutex
	pages map[string]string
}

func (s *shop) set(path, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[path] = body
}

func (s *shop) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	body, ok := s.pages[r.URL.Path]
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	io.WriteString(w, body)
}

type env struct {
	db         *database.DB
	logger     *slog.Logger
	shop       *shop
	server     *httptest.Server
	dispatcher *recordingDispatcher
	users      *service.Users
	alerts     *service.Alerts
	items      *service.Items
	monitor    *Monitor
	user       *models.User
}

func page(price string) string {
	return `<html><body><h1>Headphones</h1><span class="price">` + price + `</span></body></html>`
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "monitor.db"))
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s := &shop{pages: map[string]string{}}
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repos := service.NewRepos(db)
	stores := service.NewStores(repos)
	items := service.NewItems(repos, scraper.NewFetcher(srv.Client(), 0))
	users := service.NewUsers(repos, time.Hour)
	alerts := service.NewAlerts(repos, stores, items, service.AlertsConfig{AllowPrivateURLs: true}, logger)
	dispatcher := &recordingDispatcher{}

	ctx := context.Background()
	if _, err := stores.Create(ctx, service.StoreInput{
		Name: "Shop", Domain: srv.URL + "/", TagName: "span", Attributes: map[string]string{"class": "price"},
	}); err != nil {
		t.Fatalf("Stores.Create() error = %v", err)
	}
	user, err := users.Register(ctx, "jane@example.com", "pw")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	return &env{
		db:         db,
		logger:     logger,
		shop:       s,
		server:     srv,
		dispatcher: dispatcher,
		users:      users,
		alerts:     alerts,
		items:      items,
		monitor:    New(alerts, items, users, NewEvaluator(dispatcher), nil, logger, time.Hour),
		user:       user,
	}
}

// rebuild troca o despachante e o gravador de métricas do monitor.
func (e *env) rebuild(d notify.Dispatcher, rec *recordingMetrics) {
	e.monitor = New(e.alerts, e.items, e.users, NewEvaluator(d), rec, e.logger, time.Hour)
}

type recordingMetrics struct {
	metrics.Nop
	notifications []string
}

func (r *recordingMetrics) RecordNotification(result string) {
	r.notifications = append(r.notifications, result)
}

func (e *env) createAlert(t *testing.T, name, path, floor string) *service.AlertDetail {
	t.Helper()
	d, err := e.alerts.Create(context.Background(), e.user.ID, name, e.server.URL+path, decimal.RequireFromString(floor))
	if err != nil {
		t.Fatalf("Alerts.Create() error = %v", err)
	}
	return d
}

func TestRunOnce_PriceBelowFloorNotifies(t *testing.T) {
	e := newEnv(t)
	e.shop.set("/p/1", page("$120.00"))
	d := e.createAlert(t, "Headphones", "/p/1", "90.00")

	e.shop.set("/p/1", page("$89.99"))
	outcomes, err := e.monitor.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Err != nil || !outcomes[0].Notified {
		t.Fatalf("outcomes = %+v", outcomes)
	}

	item, err := e.items.Get(context.Background(), d.Item.ID)
	if err != nil {
		t.Fatalf("Items.Get() error = %v", err)
	}
	if item.Price == nil || item.Price.StringFixed(2) != "89.99" {
		t.Errorf("stored price = %v, want 89.99", item.Price)
	}

	if len(e.dispatcher.sent) != 1 {
		t.Fatalf("dispatched %d messages, want 1", len(e.dispatcher.sent))
	}
	msg := e.dispatcher.sent[0]
	if len(msg.Recipients) != 1 || msg.Recipients[0] != "jane@example.com" {
		t.Errorf("Recipients = %v", msg.Recipients)
	}
	for _, want := range []string{"Headphones", "90.00", "89.99"} {
		if !strings.Contains(msg.Text, want) {
			t.Errorf("Text %q missing %q", msg.Text, want)
		}
	}
	if !strings.Contains(msg.Subject, "Headphones") {
		t.Errorf("Subject = %q", msg.Subject)
	}
}

func TestRunOnce_ElementMissingContinues(t *testing.T) {
	e := newEnv(t)
	e.shop.set("/broken", page("$50.00"))
	e.shop.set("/ok", page("$10.00"))
	broken := e.createAlert(t, "Broken", "/broken", "20.00")
	e.createAlert(t, "Working", "/ok", "20.00")

	e.shop.set("/broken", `<html><body><span class="sold-out">Sold out</span></body></html>`)
	outcomes, err := e.monitor.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("got %d outcomes, want 2", len(outcomes))
	}

	var notFound *scraper.ElementNotFoundError
	if !errors.As(outcomes[0].Err, &notFound) {
		t.Errorf("first outcome err = %v, want ElementNotFoundError", outcomes[0].Err)
	}
	if outcomes[0].Notified {
		t.Error("broken alert notified")
	}
	if outcomes[1].Err != nil || !outcomes[1].Notified {
		t.Errorf("second outcome = %+v, want notified", outcomes[1])
	}

	item, _ := e.items.Get(context.Background(), broken.Item.ID)
	if item.Price == nil || item.Price.StringFixed(2) != "50.00" {
		t.Errorf("broken item price = %v, want unchanged 50.00", item.Price)
	}
}

func TestRunOnce_EqualPriceDoesNotNotify(t *testing.T) {
	e := newEnv(t)
	e.shop.set("/p/1", page("$100.00"))
	e.createAlert(t, "Headphones", "/p/1", "100.00")

	outcomes, err := e.monitor.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if outcomes[0].Notified || len(e.dispatcher.sent) != 0 {
		t.Errorf("equal price notified: %+v", outcomes[0])
	}
}

func TestRunOnce_RepeatsNotification(t *testing.T) {
	e := newEnv(t)
	e.shop.set("/p/1", page("$5.00"))
	e.createAlert(t, "Cable", "/p/1", "10.00")

	for i := 0; i < 2; i++ {
		if _, err := e.monitor.RunOnce(context.Background()); err != nil {
			t.Fatalf("RunOnce() error = %v", err)
		}
	}
	if len(e.dispatcher.sent) != 2 {
		t.Errorf("dispatched %d messages, want 2", len(e.dispatcher.sent))
	}
}

func TestRunOnce_DispatchFailureRecorded(t *testing.T) {
	e := newEnv(t)
	e.shop.set("/p/1", page("$5.00"))
	e.createAlert(t, "Cable", "/p/1", "10.00")
	e.dispatcher.err = errors.New("mail down")

	outcomes, err := e.monitor.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if outcomes[0].Err == nil || outcomes[0].Notified || !outcomes[0].Triggered {
		t.Errorf("outcome = %+v, want triggered with dispatch error", outcomes[0])
	}
	if outcomes[0].Price == nil || outcomes[0].Price.StringFixed(2) != "5.00" {
		t.Errorf("price = %v, want 5.00", outcomes[0].Price)
	}
}

func TestRunOnce_UnreadableDocumentsDoNotAbort(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.shop.set("/ok", page("$5.00"))

	if err := e.db.Upsert(ctx, models.ItemsCollection, database.ByID("bad-item"), database.Document{
		"url": e.server.URL + "/ok", "price": "not-a-price",
	}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	stale := models.NewAlert("Stale", "bad-item", decimal.RequireFromString("10.00"), e.user.ID)
	if err := service.NewRepos(e.db).Alerts.Save(ctx, stale); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := e.db.Upsert(ctx, models.AlertsCollection, database.ByID("broken-alert"), database.Document{
		"name": "Broken", "item_id": "bad-item", "price_limit": "x", "user_id": e.user.ID,
	}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	healthy := e.createAlert(t, "Cable", "/ok", "10.00")

	outcomes, err := e.monitor.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("got %d outcomes, want 2 (unreadable alert skipped)", len(outcomes))
	}
	if outcomes[0].AlertID != stale.ID || outcomes[0].Err == nil || errors.Is(outcomes[0].Err, ErrDanglingItem) {
		t.Errorf("first outcome = %+v, want item load error", outcomes[0])
	}
	if outcomes[1].AlertID != healthy.Alert.ID || outcomes[1].Err != nil || !outcomes[1].Notified {
		t.Errorf("second outcome = %+v, want notified", outcomes[1])
	}
	if len(e.dispatcher.sent) != 1 {
		t.Errorf("dispatched %d messages, want 1", len(e.dispatcher.sent))
	}
}

func TestRunOnce_DanglingItem(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ghost := models.NewAlert("Ghost", "missing-item", decimal.RequireFromString("10.00"), e.user.ID)
	if err := service.NewRepos(e.db).Alerts.Save(ctx, ghost); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	outcomes, err := e.monitor.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if len(outcomes) != 1 || !errors.Is(outcomes[0].Err, ErrDanglingItem) {
		t.Errorf("outcomes = %+v, want dangling item", outcomes)
	}
}

func TestRunOnce_NoChannelsIsSkipped(t *testing.T) {
	e := newEnv(t)
	e.shop.set("/p/1", page("$5.00"))
	e.createAlert(t, "Cable", "/p/1", "10.00")
	rec := &recordingMetrics{}
	e.rebuild(notify.Multi{}, rec)

	outcomes, err := e.monitor.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	out := outcomes[0]
	if !out.Triggered || out.Notified || out.Err != nil {
		t.Errorf("outcome = %+v, want triggered, not notified, no error", out)
	}
	if len(rec.notifications) != 1 || rec.notifications[0] != "skipped" {
		t.Errorf("notifications = %v, want [skipped]", rec.notifications)
	}
}

func TestRunOnce_PartialDeliveryNotifies(t *testing.T) {
	e := newEnv(t)
	e.shop.set("/p/1", page("$5.00"))
	e.createAlert(t, "Cable", "/p/1", "10.00")
	failing := &recordingDispatcher{err: errors.New("telegram down")}
	rec := &recordingMetrics{}
	e.rebuild(notify.Multi{failing, e.dispatcher}, rec)

	outcomes, err := e.monitor.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	out := outcomes[0]
	if !out.Triggered || !out.Notified || out.Err != nil {
		t.Errorf("outcome = %+v, want notified without error", out)
	}
	if len(e.dispatcher.sent) != 1 {
		t.Errorf("email dispatched %d messages, want 1", len(e.dispatcher.sent))
	}
	if len(rec.notifications) != 1 || rec.notifications[0] != "partial" {
		t.Errorf("notifications = %v, want [partial]", rec.notifications)
	}
}

func TestRunOnce_KeepsFloorPrecision(t *testing.T) {
	e := newEnv(t)
	e.shop.set("/p/1", page("$100.00"))
	d := e.createAlert(t, "Cable", "/p/1", "89.994")

	stored, err := e.alerts.Get(context.Background(), d.Alert.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.PriceFloor.String() != "89.994" {
		t.Fatalf("stored floor = %s, want 89.994", stored.PriceFloor)
	}

	e.shop.set("/p/1", page("$89.99"))
	outcomes, err := e.monitor.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if !outcomes[0].Notified {
		t.Errorf("outcome = %+v, want 89.99 below 89.994 to notify", outcomes[0])
	}
}

func TestCheckAlert(t *testing.T) {
	e := newEnv(t)
	e.shop.set("/p/1", page("$5.00"))
	d := e.createAlert(t, "Cable", "/p/1", "10.00")

	out, err := e.monitor.CheckAlert(context.Background(), d.Alert.ID)
	if err != nil {
		t.Fatalf("CheckAlert() error = %v", err)
	}
	if !out.Notified {
		t.Errorf("outcome = %+v", out)
	}

	if _, err := e.monitor.CheckAlert(context.Background(), "missing"); !errors.Is(err, service.ErrAlertNotFound) {
		t.Errorf("missing alert err = %v", err)
	}
}

func TestStart_StopsOnCancel(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.monitor.Start(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after cancel")
	}
}
