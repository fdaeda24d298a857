package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/bnt-kitchen/internal/constants"
	"github.com/bnt-kitchen/internal/models"
)

func phoBo() Product {
	return Product{
		ID:    "12",
		Slug:  "pho-bo",
		Name:  "Phở bò",
		Price: models.NewMoney(50000),
		Image: "/uploads/menu/pho-bo.jpg",
		SizeDeltas: map[string]models.Money{
			"S": models.NewMoney(-5000),
			"L": models.NewMoney(15000),
		},
	}
}

func traSua() Product {
	return Product{ID: "31", Slug: "tra-sua", Name: "Trà sữa", Price: models.NewMoney(35000)}
}

type failingStorage struct {
	mu    sync.Mutex
	calls int
}

var errStorageDown = errors.New("storage unavailable")

func (s *failingStorage) Get(context.Context, string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return "", false, errStorageDown
}

func (s *failingStorage) Set(context.Context, string, string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return errStorageDown
}

func (s *failingStorage) Remove(context.Context, string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return errStorageDown
}

func TestAddItemAccumulatesSameIdentity(t *testing.T) {
	ctx := context.Background()
	m := New(ctx, NewMemoryStorage())
	defer m.Close()

	m.AddItem(ctx, phoBo(), 1, "M")
	m.AddItem(ctx, phoBo(), 2, "m")
	m.AddItem(ctx, phoBo(), 4, "M")

	items := m.Items()
	if len(items) != 1 {
		t.Fatalf("same product+size should be one line, got %d", len(items))
	}
	if items[0].ID != "12__M" {
		t.Fatalf("unexpected composite id: %s", items[0].ID)
	}
	if items[0].Quantity != 7 {
		t.Fatalf("quantity want 7 got %d", items[0].Quantity)
	}
}

func TestAddItemSizesAreDistinctLines(t *testing.T) {
	ctx := context.Background()
	m := New(ctx, NewMemoryStorage())

	m.AddItem(ctx, phoBo(), 1, "S")
	m.AddItem(ctx, phoBo(), 1, "L")
	m.AddItem(ctx, traSua(), 0, "")

	items := m.Items()
	if len(items) != 3 {
		t.Fatalf("want 3 lines got %d", len(items))
	}
	if items[0].Price.Int64() != 45000 || items[1].Price.Int64() != 65000 {
		t.Fatalf("size adjusted price mismatch: %s %s", items[0].Price, items[1].Price)
	}
	if items[2].ID != "31" || items[2].Quantity != 1 {
		t.Fatalf("no-size line should use product id and default quantity 1, got %+v", items[2])
	}
	if items[0].Product.Price.Int64() != 50000 || items[0].Product.Slug != "pho-bo" {
		t.Fatalf("back reference should keep base product: %+v", items[0].Product)
	}
}

func TestUpdateQuantityNonPositiveRemoves(t *testing.T) {
	ctx := context.Background()
	for _, quantity := range []int{0, -1} {
		m := New(ctx, NewMemoryStorage())
		m.AddItem(ctx, phoBo(), 2, "M")
		m.AddItem(ctx, traSua(), 1, "")

		m.UpdateQuantity(ctx, "12", quantity, "M")

		if _, ok := m.Item("12", "M"); ok {
			t.Fatalf("quantity %d should remove the line", quantity)
		}
		if m.ItemCount() != 1 {
			t.Fatalf("remaining count want 1 got %d", m.ItemCount())
		}
	}
}

func TestUpdateQuantityReplacesInPlace(t *testing.T) {
	ctx := context.Background()
	m := New(ctx, NewMemoryStorage())
	m.AddItem(ctx, phoBo(), 2, "M")
	m.AddItem(ctx, traSua(), 1, "")

	m.UpdateQuantity(ctx, "12", 5, "M")
	m.UpdateQuantity(ctx, "missing", 5, "")

	items := m.Items()
	if items[0].ID != "12__M" || items[0].Quantity != 5 {
		t.Fatalf("quantity should be replaced in place, got %+v", items[0])
	}
	if len(items) != 2 {
		t.Fatalf("updating a missing line must not add it")
	}
}

func TestRemoveMissingItemIsNoop(t *testing.T) {
	ctx := context.Background()
	recorder := &Recorder{}
	m := New(ctx, NewMemoryStorage(), WithNotifier(recorder))
	m.AddItem(ctx, traSua(), 1, "")

	m.RemoveItem(ctx, "does-not-exist", "XL")

	if m.ItemCount() != 1 {
		t.Fatalf("remove of missing id should not change cart")
	}
	if len(recorder.Events) != 1 || recorder.Events[0].Type != EventItemAdded {
		t.Fatalf("only the add event should be recorded, got %+v", recorder.Events)
	}
}

func TestSubtotalRecomputedAfterMutations(t *testing.T) {
	ctx := context.Background()
	m := New(ctx, NewMemoryStorage())

	m.AddItem(ctx, phoBo(), 2, "L") // 2 x 65000
	m.AddItem(ctx, traSua(), 3, "") // 3 x 35000
	if got := m.Subtotal().Int64(); got != 235000 {
		t.Fatalf("subtotal want 235000 got %d", got)
	}

	m.UpdateQuantity(ctx, "31", 1, "")
	if got := m.Subtotal().Int64(); got != 165000 {
		t.Fatalf("subtotal after update want 165000 got %d", got)
	}

	m.RemoveItem(ctx, "12", "L")
	snapshot := m.Snapshot()
	if snapshot.Subtotal.Int64() != 35000 || snapshot.ItemCount != 1 {
		t.Fatalf("snapshot totals mismatch: %+v", snapshot)
	}
}

func TestClearCartIsIdempotent(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	m := New(ctx, storage)
	m.AddItem(ctx, phoBo(), 1, "M")

	m.ClearCart(ctx)
	m.ClearCart(ctx)

	if m.ItemCount() != 0 || len(m.Items()) != 0 {
		t.Fatalf("cart should be empty after clear")
	}
	if _, ok, _ := storage.Get(ctx, constants.CartItemsStorageKey); ok {
		t.Fatalf("persisted items key should be removed")
	}
	if _, ok, _ := storage.Get(ctx, constants.CartIDStorageKey); !ok {
		t.Fatalf("session id should survive clear")
	}
}

func TestPersistAndReloadRoundTrip(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	first := New(ctx, storage)
	first.AddItem(ctx, phoBo(), 2, "S")
	first.AddItem(ctx, traSua(), 1, "")
	first.AddItem(ctx, phoBo(), 1, "L")
	want := first.Items()
	wantID := first.ID()
	_ = first.Close()

	second := New(ctx, storage)
	got := second.Items()
	if second.ID() != wantID {
		t.Fatalf("session id should be reused, want %s got %s", wantID, second.ID())
	}
	if len(got) != len(want) {
		t.Fatalf("reload length mismatch: want %d got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].Quantity != want[i].Quantity || got[i].Price.Int64() != want[i].Price.Int64() {
			t.Fatalf("line %d mismatch: want %+v got %+v", i, want[i], got[i])
		}
	}
}

func TestPersistedFormatIsItemArray(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	m := New(ctx, storage)
	m.AddItem(ctx, traSua(), 2, "")

	raw, ok, err := storage.Get(ctx, constants.CartItemsStorageKey)
	if err != nil || !ok {
		t.Fatalf("items should be persisted: ok=%v err=%v", ok, err)
	}
	var decoded []map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		t.Fatalf("persisted items should be a json array: %v", err)
	}
	if decoded[0]["id"] != "31" || decoded[0]["quantity"] != float64(2) || decoded[0]["price"] != float64(35000) {
		t.Fatalf("unexpected persisted line: %v", decoded[0])
	}
}

func TestStorageFailuresAreSwallowed(t *testing.T) {
	ctx := context.Background()
	storage := &failingStorage{}
	m := New(ctx, storage, WithSessionID("fixed-session"))

	m.AddItem(ctx, phoBo(), 1, "M")
	m.UpdateQuantity(ctx, "12", 3, "M")
	m.ClearCart(ctx)
	m.AddItem(ctx, traSua(), 1, "")

	if m.ID() != "fixed-session" {
		t.Fatalf("seeded session id should be used, got %s", m.ID())
	}
	if m.ItemCount() != 1 {
		t.Fatalf("memory state should stay authoritative, count=%d", m.ItemCount())
	}
	if storage.calls == 0 {
		t.Fatalf("storage should have been attempted")
	}
}

func TestCorruptPersistedItemsStartEmpty(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	_ = storage.Set(ctx, constants.CartItemsStorageKey, "{not json")

	m := New(ctx, storage)
	if m.ItemCount() != 0 {
		t.Fatalf("corrupt payload should be ignored")
	}
}

func TestMutationsAfterCloseAreIgnored(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	m := New(ctx, storage)
	m.AddItem(ctx, traSua(), 1, "")
	if err := m.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	m.AddItem(ctx, phoBo(), 1, "M")
	m.ClearCart(ctx)

	if m.ItemCount() != 1 {
		t.Fatalf("closed cart should not change, count=%d", m.ItemCount())
	}
}

func TestConcurrentAddItemSerialised(t *testing.T) {
	ctx := context.Background()
	m := New(ctx, NewMemoryStorage())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.AddItem(ctx, phoBo(), 1, "M")
		}()
	}
	wg.Wait()

	if got := m.ItemCount(); got != 50 {
		t.Fatalf("concurrent adds want 50 got %d", got)
	}
}

func TestAddItemEmitsNotification(t *testing.T) {
	ctx := context.Background()
	var events []Event
	m := New(ctx, NewMemoryStorage(), WithNotifier(NotifierFunc(func(event Event) {
		events = append(events, event)
	})))

	m.AddItem(ctx, phoBo(), 2, "M")
	m.AddItem(ctx, phoBo(), 1, "M")

	if len(events) != 2 {
		t.Fatalf("want 2 events got %d", len(events))
	}
	if events[1].Type != EventItemAdded || events[1].Quantity != 3 || events[1].Name != "Phở bò" {
		t.Fatalf("unexpected event: %+v", events[1])
	}
}
