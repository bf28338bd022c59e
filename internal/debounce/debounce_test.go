package debounce

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
	done  chan struct{}
}

func newRecorder() *recorder { return &recorder{done: make(chan struct{}, 16)} }

func (r *recorder) record(v string) {
	r.mu.Lock()
	r.calls = append(r.calls, v)
	r.mu.Unlock()
	r.done <- struct{}{}
}

func (r *recorder) got() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func TestOnlyLastValueFires(t *testing.T) {
	rec := newRecorder()
	d := New(40*time.Millisecond, rec.record)

	d.Trigger("a")
	d.Trigger("ab")
	d.Trigger("abc")

	select {
	case <-rec.done:
	case <-time.After(time.Second):
		t.Fatal("debounced callback never fired")
	}
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, []string{"abc"}, rec.got())
	assert.False(t, d.Pending())
}

func TestSeparatedTriggersFireTwice(t *testing.T) {
	rec := newRecorder()
	d := New(20*time.Millisecond, rec.record)

	d.Trigger("ab")
	<-rec.done
	d.Trigger("abc")
	<-rec.done
	assert.Equal(t, []string{"ab", "abc"}, rec.got())
}

func TestFlushAndStop(t *testing.T) {
	rec := newRecorder()
	d := New(time.Hour, rec.record)

	d.Trigger("now")
	require.True(t, d.Pending())
	d.Flush()
	assert.Equal(t, []string{"now"}, rec.got())

	d.Trigger("never")
	d.Stop()
	d.Flush()
	assert.Equal(t, []string{"now"}, rec.got())
	assert.False(t, d.Pending())
}

func TestDefaultDelay(t *testing.T) {
	d := New(0, func(string) {})
	assert.Equal(t, DefaultDelay, d.delay)
}
