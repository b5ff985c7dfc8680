package store

import (
	"errors"
	"testing"
)

func setupTestDB(t *testing.T) Storage {
	db, err := NewStorage(&Option{
		Dir:     t.TempDir(),
		Buckets: []string{BucketPredictions, "default"},
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPutGetDelete(t *testing.T) {
	db := setupTestDB(t)

	key := []byte("test_key")
	if err := db.Put("default", key, []byte("value1")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := db.Put("default", key, []byte("value2")); err != nil {
		t.Fatalf("Second Put failed: %v", err)
	}

	retrieved, err := db.Get("default", key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(retrieved) != "value2" {
		t.Errorf("Expected value2, got %s", retrieved)
	}

	missing, err := db.Get("default", []byte("non_existent"))
	if err != nil {
		t.Fatalf("Get non-existent key failed: %v", err)
	}
	if missing != nil {
		t.Errorf("Expected nil for non-existent key, got %v", missing)
	}

	if err := db.Delete("default", key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := db.Delete("default", key); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestGenIncrIDs(t *testing.T) {
	db := setupTestDB(t)

	ids1, err := db.GenIncrIDs("default", 5)
	if err != nil {
		t.Fatalf("GenIncrIDs failed: %v", err)
	}
	for i, id := range ids1 {
		if id != uint64(i+1) {
			t.Errorf("Expected ID %d, got %d", i+1, id)
		}
	}

	ids2, err := db.GenIncrIDs("default", 3)
	if err != nil {
		t.Fatalf("Second GenIncrIDs failed: %v", err)
	}
	for i, id := range ids2 {
		if id != uint64(6+i) {
			t.Errorf("Expected ID %d, got %d", 6+i, id)
		}
	}
}

func TestGenIncrIDsConcurrency(t *testing.T) {
	db := setupTestDB(t)

	const numGoroutines = 10
	const idsPerGoroutine = 10

	results := make(chan []uint64, numGoroutines)
	errs := make(chan error, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			ids, err := db.GenIncrIDs("default", idsPerGoroutine)
			if err != nil {
				errs <- err
				return
			}
			results <- ids
		}()
	}

	allIDs := make(map[uint64]bool)
	for i := 0; i < numGoroutines; i++ {
		select {
		case err := <-errs:
			t.Fatalf("Concurrent GenIncrIDs failed: %v", err)
		case ids := <-results:
			for _, id := range ids {
				if allIDs[id] {
					t.Errorf("Duplicate ID generated: %d", id)
				}
				allIDs[id] = true
			}
		}
	}
	if len(allIDs) != numGoroutines*idsPerGoroutine {
		t.Errorf("Expected %d unique IDs, got %d", numGoroutines*idsPerGoroutine, len(allIDs))
	}
}

func TestIteratorSkipsCounter(t *testing.T) {
	db := setupTestDB(t)

	it, err := db.Iterator("default")
	if err != nil {
		t.Fatalf("Iterator on fresh bucket failed: %v", err)
	}
	for pair := range it {
		t.Errorf("Unexpected entry in fresh bucket: %s", pair.Key)
	}

	testData := map[string]string{"key1": "value1", "key2": "value2", "key3": "value3"}
	for k, v := range testData {
		if err := db.Put("default", []byte(k), []byte(v)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}
	if _, err := db.GenIncrIDs("default", 4); err != nil {
		t.Fatalf("GenIncrIDs failed: %v", err)
	}

	it, err = db.Iterator("default")
	if err != nil {
		t.Fatalf("Iterator creation failed: %v", err)
	}
	found := make(map[string]string)
	for pair := range it {
		found[string(pair.Key)] = string(pair.Value)
	}
	if len(found) != len(testData) {
		t.Errorf("Expected %d entries, got %d: %v", len(testData), len(found), found)
	}
	for k, v := range testData {
		if found[k] != v {
			t.Errorf("Key %s: expected %s, got %s", k, v, found[k])
		}
	}
}

func TestEncodeDecodeID(t *testing.T) {
	for _, id := range []uint64{0, 1, 255, 1 << 40} {
		if got := DecodeID(EncodeID(id)); got != id {
			t.Errorf("Expected %d, got %d", id, got)
		}
	}
	if DecodeID([]byte{1, 2}) != 0 {
		t.Errorf("Expected 0 for short key")
	}
}
