package quota

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicpulse/civicpulse/clog"
)

func newTestTracker(t *testing.T, cfg *Config) *tracker {
	t.Helper()
	cfg.setDefaults()
	return newTracker(cfg, clog.Discard(), nil)
}

func TestTryReserve(t *testing.T) {
	ctx := context.Background()

	t.Run("预算内预约成功", func(t *testing.T) {
		tr := newTestTracker(t, &Config{
			Default: Budget{Calls: 3, Window: time.Hour},
		})

		for i := 0; i < 3; i++ {
			require.NoError(t, tr.TryReserve(ctx, "legiscan"))
		}
		assert.Equal(t, 3, tr.Usage("legiscan").Used)
	})

	t.Run("耗尽后返回 ErrQuotaExceeded 且不再递增", func(t *testing.T) {
		tr := newTestTracker(t, &Config{
			Default: Budget{Calls: 2, Window: time.Hour},
		})

		require.NoError(t, tr.TryReserve(ctx, "legiscan"))
		require.NoError(t, tr.TryReserve(ctx, "legiscan"))

		for i := 0; i < 5; i++ {
			err := tr.TryReserve(ctx, "legiscan")
			assert.True(t, IsExceeded(err))
		}

		u := tr.Usage("legiscan")
		assert.Equal(t, 2, u.Used)
		assert.Equal(t, 0, u.Remaining())
	})

	t.Run("窗口到期后计数归零", func(t *testing.T) {
		tr := newTestTracker(t, &Config{
			Default: Budget{Calls: 1, Window: time.Hour},
		})

		base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
		now := base
		tr.now = func() time.Time { return now }

		require.NoError(t, tr.TryReserve(ctx, "legiscan"))
		assert.True(t, IsExceeded(tr.TryReserve(ctx, "legiscan")))

		now = base.Add(time.Hour + time.Minute)
		require.NoError(t, tr.TryReserve(ctx, "legiscan"))

		u := tr.Usage("legiscan")
		assert.Equal(t, 1, u.Used)
		assert.Equal(t, now.Add(time.Hour), u.ResetsAt)
	})

	t.Run("各上游独立计数", func(t *testing.T) {
		tr := newTestTracker(t, &Config{
			Default: Budget{Calls: 1, Window: time.Hour},
			Budgets: map[string]Budget{
				"geocodio": {Calls: 2, Window: time.Hour},
			},
		})

		require.NoError(t, tr.TryReserve(ctx, "legiscan"))
		assert.True(t, IsExceeded(tr.TryReserve(ctx, "legiscan")))

		require.NoError(t, tr.TryReserve(ctx, "geocodio"))
		require.NoError(t, tr.TryReserve(ctx, "geocodio"))
		assert.True(t, IsExceeded(tr.TryReserve(ctx, "geocodio")))
	})

	t.Run("零预算表示不设限", func(t *testing.T) {
		tr := newTestTracker(t, &Config{})

		for i := 0; i < 100; i++ {
			require.NoError(t, tr.TryReserve(ctx, "unmetered"))
		}
	})

	t.Run("并发预约不超出预算", func(t *testing.T) {
		const budget = 50
		tr := newTestTracker(t, &Config{
			Default: Budget{Calls: budget, Window: time.Hour},
		})

		var wg sync.WaitGroup
		var mu sync.Mutex
		allowed := 0

		for i := 0; i < 200; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if tr.TryReserve(ctx, "legiscan") == nil {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, budget, allowed)
		assert.Equal(t, budget, tr.Usage("legiscan").Used)
	})
}

func TestUsage(t *testing.T) {
	t.Run("剩余量不为负", func(t *testing.T) {
		u := Usage{Used: 10, Budget: 5}
		assert.Equal(t, 0, u.Remaining())
	})

	t.Run("默认窗口为 30 天", func(t *testing.T) {
		cfg := &Config{Budgets: map[string]Budget{"legiscan": {Calls: 100}}}
		cfg.setDefaults()

		assert.Equal(t, 30*24*time.Hour, cfg.Default.Window)
		assert.Equal(t, 30*24*time.Hour, cfg.Budgets["legiscan"].Window)
	})
}
