package throttle

import (
	"context"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBands() []Band {
	return []Band{
		{Name: "fast", Values: [2]int{0, 0}},
		{Name: "slow", Values: [2]int{20, 40}},
		{Name: "slow", Values: [2]int{500, 900}},
	}
}

func TestController_ToggleByName(t *testing.T) {
	c := New(testBands())

	_, ok := c.Current()
	assert.False(t, ok, "no band is active initially")

	b, ok := c.ToggleByName("slow")
	require.True(t, ok)
	assert.Equal(t, [2]int{20, 40}, b.Values, "first band with the name wins")

	cur, ok := c.Current()
	require.True(t, ok)
	assert.Equal(t, "slow", cur.Name)

	_, ok = c.ToggleByName("slow")
	require.True(t, ok)
	cur, ok = c.Current()
	require.True(t, ok, "the active name again keeps the band")
	assert.Equal(t, "slow", cur.Name)

	_, ok = c.ToggleByName("unknown")
	assert.False(t, ok)
	_, ok = c.Current()
	assert.False(t, ok, "unknown name turns throttling off")

	c.ToggleByName("fast")
	c.ToggleByName("")
	_, ok = c.Current()
	assert.False(t, ok, "empty name turns throttling off")
}

func TestController_ToggleIsCaseSensitive(t *testing.T) {
	c := New(testBands())
	_, ok := c.ToggleByName("Slow")
	assert.False(t, ok)
}

func TestController_Bands(t *testing.T) {
	bands := testBands()
	c := New(bands)

	got := c.Bands()
	assert.Equal(t, bands, got)

	got[0].Name = "changed"
	assert.Equal(t, "fast", c.Bands()[0].Name)
}

func TestController_DelayWithinBand(t *testing.T) {
	c := New(testBands(), WithRand(rand.New(rand.NewSource(42))))

	assert.Zero(t, c.Delay(), "no delay when throttling is off")

	c.ToggleByName("slow")
	for range 200 {
		d := c.Delay()
		assert.GreaterOrEqual(t, d, 20*time.Millisecond)
		assert.LessOrEqual(t, d, 40*time.Millisecond)
	}

	c.ToggleByName("fast")
	assert.Zero(t, c.Delay())
}

func TestBand_Bounds(t *testing.T) {
	lo, hi := Band{Values: [2]int{300, 100}}.Bounds()
	assert.Equal(t, 100*time.Millisecond, lo)
	assert.Equal(t, 300*time.Millisecond, hi)

	lo, hi = Band{Values: [2]int{-5, 10}}.Bounds()
	assert.Zero(t, lo)
	assert.Equal(t, 10*time.Millisecond, hi)
}

func TestController_WaitHonoursCancellation(t *testing.T) {
	c := New([]Band{{Name: "stall", Values: [2]int{5000, 5000}}})
	c.ToggleByName("stall")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := c.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestController_Middleware(t *testing.T) {
	c := New([]Band{{Name: "short", Values: [2]int{15, 15}}})
	h := c.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	c.ToggleByName("short")
	start := time.Now()
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}

func TestController_Concurrent(t *testing.T) {
	c := New(testBands())
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				c.ToggleByName("fast")
			} else {
				c.ToggleByName("")
			}
			_ = c.Delay()
		}()
	}
	wg.Wait()
}

func TestController_Observer(t *testing.T) {
	var observed []time.Duration
	c := New([]Band{{Name: "fixed", Values: [2]int{5, 5}}}, WithObserver(func(d time.Duration) {
		observed = append(observed, d)
	}))

	require.NoError(t, c.Wait(context.Background()))
	assert.Empty(t, observed, "no band, no delay")

	c.ToggleByName("fixed")
	require.NoError(t, c.Wait(context.Background()))
	assert.Equal(t, []time.Duration{5 * time.Millisecond}, observed)
}
