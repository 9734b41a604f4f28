package kvtest

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/penpenguin/PetaTas-sub000/lib/kv"
)

// BackendFactory is a function that creates a new instance of a kv.Backend
// implementation with the given quota envelope.
type BackendFactory func(limits kv.Limits) kv.Backend

// looseLimits returns a quota envelope wide enough that none of the
// functional tests trip quota enforcement by accident.
func looseLimits() kv.Limits {
	return kv.Limits{
		QuotaBytes:                  1 << 20,
		QuotaBytesPerItem:           1 << 16,
		MaxWriteOperationsPerMinute: 100000,
	}
}

// RunBackendTests runs a conformance test suite for a kv.Backend
// implementation.
func RunBackendTests(t *testing.T, name string, factory BackendFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Set&Get", func(t *testing.T) {
			testSetGet(t, factory(looseLimits()))
		})

		t.Run("GetMany", func(t *testing.T) {
			testGetMany(t, factory(looseLimits()))
		})

		t.Run("FullScan", func(t *testing.T) {
			testFullScan(t, factory(looseLimits()))
		})

		t.Run("Remove", func(t *testing.T) {
			testRemove(t, factory(looseLimits()))
		})

		t.Run("BytesInUse", func(t *testing.T) {
			testBytesInUse(t, factory(looseLimits()))
		})

		t.Run("PerItemQuota", func(t *testing.T) {
			testPerItemQuota(t, factory)
		})

		t.Run("TotalQuota", func(t *testing.T) {
			testTotalQuota(t, factory)
		})

		t.Run("WriteRate", func(t *testing.T) {
			testWriteRate(t, factory)
		})
	})
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSetGet(t *testing.T, backend kv.Backend) {
	defer backend.Close()
	ctx := context.Background()

	testKey := "test-key"
	testValue1 := []byte("test-value1")
	testValue2 := []byte("test-value2")

	if err := backend.Set(ctx, map[string][]byte{testKey: testValue1}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	result, err := backend.Get(ctx, []string{testKey})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(result[testKey], testValue1) {
		t.Errorf("Expected value %s, got %s", testValue1, result[testKey])
	}

	// Overwrite
	if err := backend.Set(ctx, map[string][]byte{testKey: testValue2}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	result, _ = backend.Get(ctx, []string{testKey})
	if !bytes.Equal(result[testKey], testValue2) {
		t.Errorf("Expected value %s, got %s", testValue2, result[testKey])
	}

	// Missing keys are absent, not an error
	result, err = backend.Get(ctx, []string{"nonexistent-key"})
	if err != nil {
		t.Fatalf("Get of missing key failed: %v", err)
	}
	if _, ok := result["nonexistent-key"]; ok {
		t.Errorf("Expected nonexistent key to be absent from result")
	}

	// Get must return a copy, not a reference to the stored value
	retrieved, _ := backend.Get(ctx, []string{testKey})
	retrieved[testKey][0] = 'X'
	original, _ := backend.Get(ctx, []string{testKey})
	if bytes.Equal(retrieved[testKey], original[testKey]) {
		t.Errorf("Get should return a copy, not a reference to the stored value")
	}
}

func testGetMany(t *testing.T, backend kv.Backend) {
	defer backend.Close()
	ctx := context.Background()

	items := map[string][]byte{
		"key-a": []byte("a"),
		"key-b": []byte("b"),
		"key-c": []byte("c"),
	}
	if err := backend.Set(ctx, items); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	result, err := backend.Get(ctx, []string{"key-a", "key-c", "key-missing"})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(result) != 2 {
		t.Errorf("Expected 2 results, got %d", len(result))
	}
	if !bytes.Equal(result["key-a"], []byte("a")) || !bytes.Equal(result["key-c"], []byte("c")) {
		t.Errorf("Unexpected result: %v", result)
	}
}

func testFullScan(t *testing.T, backend kv.Backend) {
	defer backend.Close()
	ctx := context.Background()

	// Empty backend scans to an empty map
	result, err := backend.Get(ctx, nil)
	if err != nil {
		t.Fatalf("Full scan failed: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("Expected empty scan, got %d items", len(result))
	}

	items := map[string][]byte{}
	for i := 0; i < 10; i++ {
		items[fmt.Sprintf("scan-key-%d", i)] = []byte(fmt.Sprintf("value-%d", i))
	}
	if err := backend.Set(ctx, items); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	result, err = backend.Get(ctx, nil)
	if err != nil {
		t.Fatalf("Full scan failed: %v", err)
	}
	if len(result) != len(items) {
		t.Errorf("Expected %d items, got %d", len(items), len(result))
	}
	for key, want := range items {
		if !bytes.Equal(result[key], want) {
			t.Errorf("Key %s: expected %s, got %s", key, want, result[key])
		}
	}
}

func testRemove(t *testing.T, backend kv.Backend) {
	defer backend.Close()
	ctx := context.Background()

	if err := backend.Set(ctx, map[string][]byte{
		"rm-a": []byte("a"),
		"rm-b": []byte("b"),
	}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if err := backend.Remove(ctx, []string{"rm-a", "rm-missing"}); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	result, _ := backend.Get(ctx, nil)
	if _, ok := result["rm-a"]; ok {
		t.Errorf("Expected rm-a to be removed")
	}
	if _, ok := result["rm-b"]; !ok {
		t.Errorf("Expected rm-b to survive")
	}

	// Removing an already-removed key is a no-op
	if err := backend.Remove(ctx, []string{"rm-a"}); err != nil {
		t.Errorf("Second remove failed: %v", err)
	}
}

func testBytesInUse(t *testing.T, backend kv.Backend) {
	defer backend.Close()
	ctx := context.Background()

	used, err := backend.BytesInUse(ctx)
	if err != nil {
		t.Fatalf("BytesInUse failed: %v", err)
	}
	if used != 0 {
		t.Errorf("Expected 0 bytes in use, got %d", used)
	}

	key := "usage-key"
	value := []byte("0123456789")
	if err := backend.Set(ctx, map[string][]byte{key: value}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	used, _ = backend.BytesInUse(ctx)
	if want := kv.ItemSize(key, value); used != want {
		t.Errorf("Expected %d bytes in use, got %d", want, used)
	}

	// Overwriting must not double-count
	if err := backend.Set(ctx, map[string][]byte{key: value}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	used, _ = backend.BytesInUse(ctx)
	if want := kv.ItemSize(key, value); used != want {
		t.Errorf("Expected %d bytes in use after overwrite, got %d", want, used)
	}

	if err := backend.Remove(ctx, []string{key}); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	used, _ = backend.BytesInUse(ctx)
	if used != 0 {
		t.Errorf("Expected 0 bytes in use after remove, got %d", used)
	}
}

func testPerItemQuota(t *testing.T, factory BackendFactory) {
	limits := looseLimits()
	limits.QuotaBytesPerItem = 64
	backend := factory(limits)
	defer backend.Close()
	ctx := context.Background()

	err := backend.Set(ctx, map[string][]byte{"big": make([]byte, 128)})
	if err == nil {
		t.Fatalf("Expected per-item quota error")
	}
	if !kv.IsQuotaError(err) {
		t.Errorf("Expected a quota error, got %v", err)
	}

	// Nothing must have been stored
	result, _ := backend.Get(ctx, nil)
	if len(result) != 0 {
		t.Errorf("Expected no stored items after rejected batch, got %d", len(result))
	}
}

func testTotalQuota(t *testing.T, factory BackendFactory) {
	limits := looseLimits()
	limits.QuotaBytes = 100
	backend := factory(limits)
	defer backend.Close()
	ctx := context.Background()

	if err := backend.Set(ctx, map[string][]byte{"a": make([]byte, 40)}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	err := backend.Set(ctx, map[string][]byte{"b": make([]byte, 80)})
	if err == nil {
		t.Fatalf("Expected total quota error")
	}
	if !kv.IsQuotaError(err) {
		t.Errorf("Expected a quota error, got %v", err)
	}

	// The earlier item must be untouched
	result, _ := backend.Get(ctx, []string{"a"})
	if len(result["a"]) != 40 {
		t.Errorf("Expected earlier item to survive rejected batch")
	}
}

func testWriteRate(t *testing.T, factory BackendFactory) {
	limits := looseLimits()
	limits.MaxWriteOperationsPerMinute = 5
	backend := factory(limits)
	defer backend.Close()
	ctx := context.Background()

	var err error
	for i := 0; i < limits.MaxWriteOperationsPerMinute+1; i++ {
		err = backend.Set(ctx, map[string][]byte{"rate-key": []byte("v")})
		if err != nil {
			break
		}
	}
	if err == nil {
		t.Fatalf("Expected write-rate error after %d writes", limits.MaxWriteOperationsPerMinute+1)
	}
	if !kv.IsRateLimitError(err) {
		t.Errorf("Expected a rate-limit error, got %v", err)
	}

	// Reads stay unaffected
	if _, err := backend.Get(ctx, []string{"rate-key"}); err != nil {
		t.Errorf("Get failed while rate limited: %v", err)
	}
}
