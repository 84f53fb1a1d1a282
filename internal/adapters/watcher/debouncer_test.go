package watcher_test

import (
	"context"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/keel/internal/adapters/watcher"
)

func TestDebouncer_CoalescesBurst(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		d := watcher.NewDebouncer(100 * time.Millisecond)

		d.Add("/ws/b.c")
		time.Sleep(50 * time.Millisecond)
		d.Add("/ws/a.c")
		d.Add("/ws/b.c")

		start := time.Now()
		paths, err := d.Next(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"/ws/a.c", "/ws/b.c"}, paths)
		assert.Equal(t, 100*time.Millisecond, time.Since(start))
	})
}

func TestDebouncer_AccumulatesWhileBusy(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		d := watcher.NewDebouncer(10 * time.Millisecond)

		d.Add("/ws/one")
		time.Sleep(20 * time.Millisecond)
		d.Add("/ws/two")
		time.Sleep(20 * time.Millisecond)

		paths, err := d.Next(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"/ws/one", "/ws/two"}, paths)
	})
}

func TestDebouncer_Flush(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		d := watcher.NewDebouncer(time.Hour)
		d.Add("/ws/main.c")
		d.Flush()

		paths, err := d.Next(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"/ws/main.c"}, paths)

		// Nothing pending: a flush does not release an empty batch.
		d.Flush()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_, err = d.Next(ctx)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestIndex_Affected(t *testing.T) {
	x := watcher.NewIndex()
	x.Add("/src/hello", "hello")
	x.Add("/src/hello/", "hello-docs")
	x.Add("/src/zlib", "zlib")

	assert.Equal(t, []string{"/src/hello", "/src/zlib"}, x.Dirs())
	assert.Equal(t, []string{"hello", "hello-docs"}, x.Affected([]string{"/src/hello/main.c"}))
	assert.Equal(t, []string{"zlib"}, x.Affected([]string{"/src/zlib"}))
	assert.Empty(t, x.Affected([]string{"/src/hello-world/x", "/other"}))
}
