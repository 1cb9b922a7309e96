package contentstore_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/contentstore"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/testutil"
	"github.com/redis/go-redis/v9"
)

type recorder struct {
	mu        sync.Mutex
	snapshots []contentstore.Snapshot
}

func (recorder *recorder) listen(snapshot contentstore.Snapshot) {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	recorder.snapshots = append(recorder.snapshots, snapshot)
}

func (recorder *recorder) count() int {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	return len(recorder.snapshots)
}

func (recorder *recorder) last() contentstore.Snapshot {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	if len(recorder.snapshots) == 0 {
		return contentstore.Snapshot{}
	}
	return recorder.snapshots[len(recorder.snapshots)-1]
}

func decodeString(t *testing.T, snapshot contentstore.Snapshot) string {
	t.Helper()
	var value string
	if err := snapshot.Decode(&value); err != nil {
		t.Fatalf("decoding %s: %v", snapshot.Path, err)
	}
	return value
}

func TestSQLiteStore_SetAndGetNested(t *testing.T) {
	store := testutil.NewTestStore(t)
	ctx := context.Background()

	err := store.Set(ctx, "settings", map[string]any{
		"cafeName": "Kahve Durağı",
		"widgets": map[string]any{
			"gallery": map[string]any{"enabled": true, "interval": 7},
		},
	})
	if err != nil {
		t.Fatalf("setting settings: %v", err)
	}

	snapshot, err := store.Get(ctx, "settings/cafeName")
	if err != nil {
		t.Fatalf("getting cafe name: %v", err)
	}
	if got := decodeString(t, snapshot); got != "Kahve Durağı" {
		t.Errorf("expected cafe name, got %q", got)
	}

	var gallery struct {
		Enabled  bool `json:"enabled"`
		Interval int  `json:"interval"`
	}
	snapshot, err = store.Get(ctx, "settings/widgets/gallery")
	if err != nil {
		t.Fatalf("getting gallery: %v", err)
	}
	if err := snapshot.Decode(&gallery); err != nil {
		t.Fatalf("decoding gallery: %v", err)
	}
	if !gallery.Enabled || gallery.Interval != 7 {
		t.Errorf("unexpected gallery config %+v", gallery)
	}
}

func TestSQLiteStore_SetReplacesWholeNode(t *testing.T) {
	store := testutil.NewTestStore(t)
	ctx := context.Background()

	store.Set(ctx, "content/events/a", map[string]any{"title": "Canlı Müzik", "icon": "🎸"})
	store.Set(ctx, "content/events/a", map[string]any{"title": "Şiir Gecesi"})

	snapshot, err := store.Get(ctx, "content/events/a")
	if err != nil {
		t.Fatalf("getting event: %v", err)
	}
	object := snapshot.Value.(map[string]any)
	if _, ok := object["icon"]; ok {
		t.Error("expected icon to be removed by set")
	}
	if object["title"] != "Şiir Gecesi" {
		t.Errorf("unexpected title %v", object["title"])
	}
}

func TestSQLiteStore_SetBeneathLeafReplacesLeaf(t *testing.T) {
	store := testutil.NewTestStore(t)
	ctx := context.Background()

	store.Set(ctx, "settings/widgets", "broken")
	if err := store.Set(ctx, "settings/widgets/clock/enabled", false); err != nil {
		t.Fatalf("setting beneath leaf: %v", err)
	}

	snapshot, _ := store.Get(ctx, "settings/widgets")
	object, ok := snapshot.Value.(map[string]any)
	if !ok {
		t.Fatalf("expected object, got %#v", snapshot.Value)
	}
	clock := object["clock"].(map[string]any)
	if clock["enabled"] != false {
		t.Errorf("expected enabled false, got %v", clock["enabled"])
	}
}

func TestSQLiteStore_UpdateMergesFields(t *testing.T) {
	store := testutil.NewTestStore(t)
	ctx := context.Background()

	store.Set(ctx, "content/menuItems/x", map[string]any{"name": "Latte", "price": "₺85", "available": true})
	if err := store.Update(ctx, "content/menuItems/x", map[string]any{"price": "₺90"}); err != nil {
		t.Fatalf("updating: %v", err)
	}

	snapshot, _ := store.Get(ctx, "content/menuItems/x")
	object := snapshot.Value.(map[string]any)
	if object["name"] != "Latte" || object["price"] != "₺90" || object["available"] != true {
		t.Errorf("unexpected record after merge: %v", object)
	}
}

func TestSQLiteStore_UpdateMultiLocation(t *testing.T) {
	store := testutil.NewTestStore(t)
	ctx := context.Background()

	store.Set(ctx, "content/photos/a", map[string]any{"url": "https://a", "order": 0})
	store.Set(ctx, "content/photos/b", map[string]any{"url": "https://b", "order": 1})

	err := store.Update(ctx, "", map[string]any{
		"content/photos/a/order": 1,
		"content/photos/b/order": 0,
	})
	if err != nil {
		t.Fatalf("multi-location update: %v", err)
	}

	var photo struct {
		URL   string `json:"url"`
		Order int    `json:"order"`
	}
	snapshot, _ := store.Get(ctx, "content/photos/a")
	snapshot.Decode(&photo)
	if photo.URL != "https://a" || photo.Order != 1 {
		t.Errorf("unexpected photo a %+v", photo)
	}
	snapshot, _ = store.Get(ctx, "content/photos/b")
	snapshot.Decode(&photo)
	if photo.Order != 0 {
		t.Errorf("expected photo b order 0, got %d", photo.Order)
	}
}

func TestSQLiteStore_UpdateRejectsOverlappingPaths(t *testing.T) {
	store := testutil.NewTestStore(t)

	err := store.Update(context.Background(), "settings", map[string]any{
		"widgets":               map[string]any{},
		"widgets/clock/enabled": true,
	})
	if !errors.Is(err, contentstore.ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath, got %v", err)
	}
}

func TestSQLiteStore_RemoveAndMissing(t *testing.T) {
	store := testutil.NewTestStore(t)
	ctx := context.Background()

	store.Set(ctx, "content/announcements/a", map[string]any{"text": "Bugün kapalıyız"})
	if err := store.Remove(ctx, "content/announcements/a"); err != nil {
		t.Fatalf("removing: %v", err)
	}

	snapshot, err := store.Get(ctx, "content/announcements/a")
	if err != nil {
		t.Fatalf("getting removed node: %v", err)
	}
	if snapshot.Exists() {
		t.Errorf("expected removed node to be missing, got %v", snapshot.Value)
	}
}

func TestSQLiteStore_RejectsScalarRoot(t *testing.T) {
	store := testutil.NewTestStore(t)

	if err := store.Set(context.Background(), "", "value"); !errors.Is(err, contentstore.ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath, got %v", err)
	}
}

func TestSQLiteStore_PushGeneratesOrderedKeys(t *testing.T) {
	store := testutil.NewTestStore(t)
	ctx := context.Background()

	first, err := store.Push(ctx, "content/events", map[string]any{"title": "A"})
	if err != nil {
		t.Fatalf("pushing: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	second, _ := store.Push(ctx, "content/events", map[string]any{"title": "B"})

	if first == "" || first == second {
		t.Fatalf("expected distinct keys, got %q and %q", first, second)
	}
	if first >= second {
		t.Errorf("expected time ordered keys, got %q then %q", first, second)
	}

	snapshot, _ := store.Get(ctx, "content/events")
	children := snapshot.Children()
	if len(children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(children))
	}
	if children[0].Key() != first {
		t.Errorf("expected first child %q, got %q", first, children[0].Key())
	}
}

func TestSQLiteStore_SubscribeDeliversInitialAndChanges(t *testing.T) {
	store := testutil.NewTestStore(t)
	ctx := context.Background()
	store.Set(ctx, "settings/theme", "light")

	var events recorder
	subscription, err := store.Subscribe("settings", events.listen)
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	defer subscription.Close()

	testutil.WaitFor(t, "initial delivery", func() bool { return events.count() >= 1 })

	store.Set(ctx, "settings/theme", "dark")
	testutil.WaitFor(t, "theme change", func() bool {
		object, ok := events.last().Value.(map[string]any)
		return ok && object["theme"] == "dark"
	})
}

func TestSQLiteStore_SubscribeIgnoresUnrelatedPaths(t *testing.T) {
	store := testutil.NewTestStore(t)
	ctx := context.Background()

	var photos recorder
	subscription, _ := store.Subscribe("content/photos", photos.listen)
	defer subscription.Close()
	testutil.WaitFor(t, "initial delivery", func() bool { return photos.count() == 1 })

	store.Set(ctx, "content/events/a", map[string]any{"title": "A"})
	store.Set(ctx, "content/photos/a", map[string]any{"url": "https://a"})
	testutil.WaitFor(t, "photo delivery", func() bool { return photos.last().Exists() })

	time.Sleep(50 * time.Millisecond)
	if photos.count() != 2 {
		t.Errorf("expected 2 deliveries, got %d", photos.count())
	}
}

func TestSQLiteStore_CloseStopsDelivery(t *testing.T) {
	store := testutil.NewTestStore(t)
	ctx := context.Background()

	var events recorder
	subscription, _ := store.Subscribe("content/events", events.listen)
	testutil.WaitFor(t, "initial delivery", func() bool { return events.count() == 1 })

	subscription.Close()
	subscription.Close()

	store.Set(ctx, "content/events/a", map[string]any{"title": "A"})
	time.Sleep(50 * time.Millisecond)
	if events.count() != 1 {
		t.Errorf("expected no delivery after close, got %d", events.count())
	}
}

func TestRedisNotifier_FansOutAcrossStores(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })

	db := testutil.NewTestDatabase(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	writer := contentstore.NewSQLiteStore(db, contentstore.NewRedisNotifier(client, "kafepano:test"))
	reader := contentstore.NewSQLiteStore(db, contentstore.NewRedisNotifier(client, "kafepano:test"))
	if err := writer.Start(ctx); err != nil {
		t.Fatalf("starting writer: %v", err)
	}
	if err := reader.Start(ctx); err != nil {
		t.Fatalf("starting reader: %v", err)
	}

	var settings recorder
	subscription, _ := reader.Subscribe("settings", settings.listen)
	defer subscription.Close()
	testutil.WaitFor(t, "initial delivery", func() bool { return settings.count() == 1 })

	if err := writer.Set(ctx, "settings/cafeName", "Köşe Kafe"); err != nil {
		t.Fatalf("writing: %v", err)
	}
	testutil.WaitFor(t, "cross-store delivery", func() bool {
		object, ok := settings.last().Value.(map[string]any)
		return ok && object["cafeName"] == "Köşe Kafe"
	})
}

func TestLocalNotifier_ListenerStopsWithContext(t *testing.T) {
	notifier := contentstore.NewLocalNotifier()
	ctx, cancel := context.WithCancel(context.Background())

	changes, _ := notifier.Listen(ctx)
	if err := notifier.Publish(context.Background(), "settings"); err != nil {
		t.Fatalf("publishing: %v", err)
	}
	if got := <-changes; got != "settings" {
		t.Errorf("expected settings, got %q", got)
	}

	cancel()
	for range changes {
	}
	if err := notifier.Publish(context.Background(), "settings"); err != nil {
		t.Errorf("publishing after listener left: %v", err)
	}
}

// cancellingNotifier cancels the writer's context right before publishing,
// as a client disconnecting after the commit would.
type cancellingNotifier struct {
	*contentstore.LocalNotifier
	cancel context.CancelFunc
}

func (notifier *cancellingNotifier) Publish(ctx context.Context, path string) error {
	notifier.cancel()
	return notifier.LocalNotifier.Publish(ctx, path)
}

func TestSQLiteStore_PublishesAfterCallerCancels(t *testing.T) {
	notifier := &cancellingNotifier{LocalNotifier: contentstore.NewLocalNotifier()}
	store := contentstore.NewSQLiteStore(testutil.NewTestDatabase(t), notifier)

	listenCtx, stop := context.WithCancel(context.Background())
	t.Cleanup(stop)
	changes, err := notifier.Listen(listenCtx)
	if err != nil {
		t.Fatalf("listening: %v", err)
	}

	const writes = 40
	for i := 0; i < writes; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		notifier.cancel = cancel
		if err := store.Set(ctx, "settings/cafeName", "Kafe"); err != nil {
			t.Fatalf("writing: %v", err)
		}
	}

	received := 0
	for received < writes {
		select {
		case <-changes:
			received++
		case <-time.After(time.Second):
			t.Fatalf("expected %d change notices, got %d", writes, received)
		}
	}
}
