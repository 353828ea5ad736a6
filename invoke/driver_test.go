package invoke

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	cerrors "github.com/wippyai/trigger-call/errors"
	"github.com/wippyai/trigger-call/value"
)

type testHandle struct{ name string }

func (h *testHandle) Name() string { return h.name }

// fakeHost runs fn for every call.
type fakeHost struct {
	fn         func(ctx context.Context, args []value.Value, results *Results) error
	concurrent bool
}

func (f *fakeHost) FuncType(string, string) (value.FuncType, error) {
	return value.FuncType{}, nil
}

func (f *fakeHost) Handle(_ context.Context, _, name string) (Handle, error) {
	return &testHandle{name: name}, nil
}

func (f *fakeHost) Call(ctx context.Context, _ Handle, args []value.Value, results *Results) error {
	return f.fn(ctx, args, results)
}

type concurrentHost struct{ *fakeHost }

func (c concurrentHost) Concurrent() bool { return c.concurrent }

func TestInvoke_Success(t *testing.T) {
	host := &fakeHost{fn: func(_ context.Context, args []value.Value, r *Results) error {
		sum := args[0].(value.U32) + args[1].(value.U32)
		return r.Set(0, sum)
	}}
	d := NewDriver(host)

	out, err := d.Invoke(context.Background(), &testHandle{"add"},
		[]value.Value{value.U32(2), value.U32(3)}, []value.Type{value.PrimU32})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0] != value.U32(5) {
		t.Errorf("results = %v, want [5]", out)
	}
}

func TestInvoke_NoResults(t *testing.T) {
	d := NewDriver(&fakeHost{fn: func(context.Context, []value.Value, *Results) error { return nil }})
	out, err := d.Invoke(context.Background(), &testHandle{"run"}, nil, nil)
	if err != nil || len(out) != 0 {
		t.Errorf("Invoke = %v, %v", out, err)
	}
}

func TestInvoke_UnwrittenSlot(t *testing.T) {
	// Reports success after writing only the first of two slots.
	host := &fakeHost{fn: func(_ context.Context, _ []value.Value, r *Results) error {
		return r.Set(0, value.U32(0))
	}}
	d := NewDriver(host)

	out, err := d.Invoke(context.Background(), &testHandle{"pair"}, nil,
		[]value.Type{value.PrimU32, value.PrimU32})
	if !errors.Is(err, cerrors.ErrProtocolViolation) {
		t.Fatalf("error = %v, want protocol violation", err)
	}
	if out != nil {
		t.Errorf("results = %v, want none", out)
	}
}

func TestInvoke_IllTypedSlot(t *testing.T) {
	host := &fakeHost{fn: func(_ context.Context, _ []value.Value, r *Results) error {
		return r.Set(0, value.String("five"))
	}}
	_, err := NewDriver(host).Invoke(context.Background(), &testHandle{"f"}, nil, []value.Type{value.PrimU32})
	if !errors.Is(err, cerrors.ErrProtocolViolation) {
		t.Fatalf("error = %v, want protocol violation", err)
	}
}

func TestInvoke_DoubleWriteIgnoredByHost(t *testing.T) {
	// The host drops the error of its second write and reports success.
	host := &fakeHost{fn: func(_ context.Context, _ []value.Value, r *Results) error {
		_ = r.Set(0, value.U32(1))
		_ = r.Set(0, value.U32(2))
		return nil
	}}
	out, err := NewDriver(host).Invoke(context.Background(), &testHandle{"twice"}, nil, []value.Type{value.PrimU32})
	if !errors.Is(err, cerrors.ErrProtocolViolation) {
		t.Fatalf("error = %v, want protocol violation", err)
	}
	if !strings.Contains(err.Error(), "written twice") {
		t.Errorf("error %q does not name the double write", err)
	}
	if out != nil {
		t.Errorf("results = %v, want none", out)
	}
}

func TestInvoke_OutOfRangeWriteIgnoredByHost(t *testing.T) {
	host := &fakeHost{fn: func(_ context.Context, _ []value.Value, r *Results) error {
		_ = r.Set(1, value.U32(7))
		return r.Set(0, value.U32(1))
	}}
	_, err := NewDriver(host).Invoke(context.Background(), &testHandle{"f"}, nil, []value.Type{value.PrimU32})
	if !errors.Is(err, cerrors.ErrProtocolViolation) {
		t.Fatalf("error = %v, want protocol violation", err)
	}
}

func TestInvoke_HostFailure(t *testing.T) {
	boom := errors.New("trap: unreachable")
	host := &fakeHost{fn: func(context.Context, []value.Value, *Results) error { return boom }}

	_, err := NewDriver(host).Invoke(context.Background(), &testHandle{"crash"}, nil, []value.Type{value.PrimU32})
	if !errors.Is(err, cerrors.ErrHostFailure) {
		t.Fatalf("error = %v, want host failure", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("error %v does not wrap the host error", err)
	}
}

func TestInvoke_Canceled(t *testing.T) {
	called := false
	host := &fakeHost{fn: func(context.Context, []value.Value, *Results) error {
		called = true
		return nil
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDriver(host).Invoke(ctx, &testHandle{"f"}, nil, nil)
	if !errors.Is(err, cerrors.ErrHostFailure) || !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want host failure caused by cancellation", err)
	}
	if called {
		t.Error("host called with canceled context")
	}
}

func TestInvoke_SerializedPerHandle(t *testing.T) {
	var active, maxActive int32
	host := &fakeHost{fn: func(context.Context, []value.Value, *Results) error {
		n := atomic.AddInt32(&active, 1)
		for {
			m := atomic.LoadInt32(&maxActive)
			if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		atomic.AddInt32(&active, -1)
		return nil
	}}
	d := NewDriver(host)
	h := &testHandle{"f"}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := d.Invoke(context.Background(), h, nil, nil); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Errorf("max concurrent calls = %d, want 1", maxActive)
	}
}

func TestInvoke_ConcurrentHostNotSerialized(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	host := concurrentHost{&fakeHost{concurrent: true, fn: func(context.Context, []value.Value, *Results) error {
		started <- struct{}{}
		<-release
		return nil
	}}}
	d := NewDriver(host)
	h := &testHandle{"f"}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = d.Invoke(context.Background(), h, nil, nil)
		}()
	}
	// Both calls must be inside the host at the same time.
	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(5 * time.Second):
			t.Fatal("calls were serialized")
		}
	}
	close(release)
	wg.Wait()
}

func TestResults_Set(t *testing.T) {
	r := NewResults([]value.Type{value.PrimU8, value.PrimU8})

	if err := r.Set(2, value.U8(1)); err == nil {
		t.Error("out of range write succeeded")
	}
	if err := r.Set(-1, value.U8(1)); err == nil {
		t.Error("negative index write succeeded")
	}
	if r.Written(0) {
		t.Error("slot 0 written before Set")
	}
	if err := r.Set(0, value.U8(1)); err != nil {
		t.Fatal(err)
	}
	if err := r.Set(0, value.U8(2)); err == nil {
		t.Error("double write succeeded")
	}
	if v, ok := r.Get(0); !ok || v != value.U8(1) {
		t.Errorf("Get(0) = %v, %v", v, ok)
	}
	if _, ok := r.Get(1); ok {
		t.Error("Get(1) reports written")
	}
	if r.Len() != 2 {
		t.Errorf("Len = %d", r.Len())
	}
	if err := r.Err(); err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Errorf("Err = %v, want the first rejected write", err)
	}
}
