package gxpacket

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerialExecutor_FIFO(t *testing.T) {
	e := NewSerialExecutor()
	var got []int
	var wg sync.WaitGroup
	wg.Add(100)
	for i := 0; i < 100; i++ {
		i := i
		e.Submit(func() {
			got = append(got, i)
			wg.Done()
		})
	}
	wg.Wait()
	for i, v := range got {
		require.Equal(t, i, v)
	}
	e.Close()
	select {
	case <-e.Done():
	case <-time.After(time.Second):
		require.FailNow(t, "executor did not stop")
	}
}

func TestSerialExecutor_NeverConcurrent(t *testing.T) {
	e := NewSerialExecutor()
	defer e.Close()
	var mu sync.Mutex
	active, maxActive := 0, 0
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				wg.Add(1)
				e.Submit(func() {
					defer wg.Done()
					mu.Lock()
					active++
					if active > maxActive {
						maxActive = active
					}
					mu.Unlock()
					time.Sleep(100 * time.Microsecond)
					mu.Lock()
					active--
					mu.Unlock()
				})
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxActive)
}

func TestSerialExecutor_CloseDrainsQueue(t *testing.T) {
	e := NewSerialExecutor()
	release := make(chan struct{})
	ran := make(chan int, 3)
	e.Submit(func() { <-release })
	e.Submit(func() { ran <- 1 })
	e.Submit(func() { ran <- 2 })
	e.Close()
	e.Submit(func() { ran <- 3 })
	close(release)
	<-e.Done()
	close(ran)
	var got []int
	for v := range ran {
		got = append(got, v)
	}
	assert.Equal(t, []int{1, 2}, got)
}

func TestExecutorFunc(t *testing.T) {
	called := false
	ExecutorFunc(func(task func()) { task() }).Submit(func() { called = true })
	assert.True(t, called)
}
