package jupyterkit

import (
	"sync"
	"testing"
)

// TestBufferPoolConcurrent tests that BufferPool is safe for concurrent access.
func TestBufferPoolConcurrent(t *testing.T) {
	pool := NewBufferPool(1024, 10)

	var wg sync.WaitGroup
	numGoroutines := 100
	numOps := 100

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < numOps; j++ {
				buf := pool.Get()
				if len(buf) != 1024 {
					t.Errorf("Expected buffer length 1024, got %d", len(buf))
				}
				buf[0] = byte(j)
				pool.Put(buf)
			}
		}()
	}

	wg.Wait()
}

// TestBufferPoolWrongSizeBuffer tests that buffers with wrong capacity are discarded.
func TestBufferPoolWrongSizeBuffer(t *testing.T) {
	pool := NewBufferPool(1024, 2)

	// A foreign buffer with the wrong capacity must not enter the pool.
	pool.Put(make([]byte, 512))

	buf := pool.Get()
	if cap(buf) != 1024 {
		t.Errorf("Expected capacity 1024, got %d", cap(buf))
	}
}

// TestBufferPoolExhaustion tests that Get allocates when the pool is drained.
func TestBufferPoolExhaustion(t *testing.T) {
	pool := NewBufferPool(256, 1)

	first := pool.Get()
	second := pool.Get()
	if len(first) != 256 || len(second) != 256 {
		t.Error("Expected all buffers to have the configured size")
	}
	pool.Put(first)
	pool.Put(second) // pool full, discarded
}
