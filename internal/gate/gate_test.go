package gate

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_ReadersShareAccess(t *testing.T) {
	g := New(4)
	ctx := context.Background()

	var active int32
	var peak int32
	var wg sync.WaitGroup

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := g.Read(ctx)
			require.NoError(t, err)
			defer release()

			n := atomic.AddInt32(&active, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()

	assert.Greater(t, atomic.LoadInt32(&peak), int32(1), "readers should overlap")
}

func TestGate_WriterExcludesReaders(t *testing.T) {
	g := New(4)
	ctx := context.Background()

	release, err := g.Write(ctx)
	require.NoError(t, err)

	readCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()

	_, err = g.Read(readCtx)
	assert.Error(t, err, "reader should block while writer holds the gate")

	release()

	readRelease, err := g.Read(ctx)
	require.NoError(t, err)
	readRelease()
}

func TestGate_WriteRespectsCancellation(t *testing.T) {
	g := New(1)
	ctx := context.Background()

	release, err := g.Write(ctx)
	require.NoError(t, err)
	defer release()

	cancelled, cancel := context.WithCancel(ctx)
	cancel()

	_, err = g.Write(cancelled)
	assert.ErrorIs(t, err, context.Canceled)
}
