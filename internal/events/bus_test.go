package events

import (
	"sync"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestBusDeliversToSubscriber(t *testing.T) {
	bus, err := NewBus(2)
	if err != nil {
		t.Fatalf("new bus: %v", err)
	}
	defer bus.Close()

	var mu sync.Mutex
	var got []map[string]interface{}
	err = bus.Subscribe("catalog:product", func(topic string, payload map[string]interface{}) {
		mu.Lock()
		got = append(got, payload)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	bus.Publish("catalog:product", map[string]interface{}{"op": "create", "id": int64(7)})

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	})

	mu.Lock()
	defer mu.Unlock()
	if got[0]["op"] != "create" || got[0]["id"] != int64(7) {
		t.Fatalf("payload = %v", got[0])
	}
}

func TestBusTopicsAreIsolated(t *testing.T) {
	bus, err := NewBus(2)
	if err != nil {
		t.Fatalf("new bus: %v", err)
	}
	defer bus.Close()

	var mu sync.Mutex
	counts := map[string]int{}
	record := func(topic string, payload map[string]interface{}) {
		mu.Lock()
		counts[topic]++
		mu.Unlock()
	}
	if err := bus.SubscribeTopics(record, "catalog:variant", "store:status"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	bus.Publish("catalog:variant", map[string]interface{}{"op": "update"})
	bus.Publish("store:status", map[string]interface{}{"op": "update"})
	bus.Publish("catalog:category", map[string]interface{}{"op": "delete"})

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return counts["catalog:variant"] == 1 && counts["store:status"] == 1
	})

	mu.Lock()
	defer mu.Unlock()
	if counts["catalog:category"] != 0 {
		t.Fatalf("unsubscribed topic delivered: %v", counts)
	}
}

func TestBusConcurrentPublish(t *testing.T) {
	bus, err := NewBus(4)
	if err != nil {
		t.Fatalf("new bus: %v", err)
	}
	defer bus.Close()

	var mu sync.Mutex
	delivered := 0
	err = bus.Subscribe("catalog:product", func(topic string, payload map[string]interface{}) {
		mu.Lock()
		delivered++
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			bus.Publish("catalog:product", map[string]interface{}{"op": "update", "id": int64(i)})
		}(i)
	}
	wg.Wait()

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return delivered == n
	})
}
