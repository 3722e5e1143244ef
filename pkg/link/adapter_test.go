// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/marron9999/sc3-mbitmart/pkg/mbituart"
	"github.com/rs/zerolog"
)

type fakeTransport struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeTransport) Send(p []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, string(p))
	return nil
}

func (f *fakeTransport) Sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

// fakeClock advances only when the adapter sleeps.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

func newTestAdapter(t *testing.T, opts ...Option) (*Adapter, *fakeTransport, *fakeClock) {
	t.Helper()
	tr := &fakeTransport{}
	clock := newFakeClock()
	opts = append([]Option{WithLogger(zerolog.Nop()), WithClock(clock.Now, clock.Sleep)}, opts...)
	a := New(tr, opts...)
	t.Cleanup(func() { a.Close() })
	return a, tr, clock
}

func TestIssueSendsAndWaits(t *testing.T) {
	a, tr, clock := newTestAdapter(t)

	if err := a.DisplayText(context.Background(), "Hi"); err != nil {
		t.Fatalf("DisplayText: %v", err)
	}
	if got := tr.Sent(); len(got) != 1 || got[0] != "CTHi" {
		t.Errorf("sent = %q, want [CTHi]", got)
	}
	if got := clock.Sleeps(); len(got) != 1 || got[0] != 2160*time.Millisecond {
		t.Errorf("sleeps = %v, want [2.16s]", got)
	}

	if err := a.SetSensors(context.Background(), true); err != nil {
		t.Fatalf("SetSensors: %v", err)
	}
	if got := clock.Sleeps(); len(got) != 2 || got[1] != 100*time.Millisecond {
		t.Errorf("sleeps = %v, want second 100ms", got)
	}
}

func TestIssueInvalidSendsNothing(t *testing.T) {
	a, tr, _ := newTestAdapter(t)

	err := a.WritePin(context.Background(), 0, 5000)
	if !errors.Is(err, mbituart.ErrInvalidPayload) {
		t.Fatalf("WritePin error = %v, want ErrInvalidPayload", err)
	}
	err = a.Issue(context.Background(), mbituart.Message{Command: "ZZ"})
	if !errors.Is(err, mbituart.ErrUnknownCommand) {
		t.Fatalf("Issue(ZZ) error = %v, want ErrUnknownCommand", err)
	}
	if got := tr.Sent(); len(got) != 0 {
		t.Errorf("sent = %q, want nothing", got)
	}
}

func TestIssueCancelledWaitStillSpacesNextCommand(t *testing.T) {
	a, tr, clock := newTestAdapter(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The command goes out but the caller stops waiting.
	err := a.Issue(ctx, mbituart.NewSensorEnable(true))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Issue error = %v, want context.Canceled", err)
	}
	if len(tr.Sent()) != 1 {
		t.Fatalf("sent = %q, want one command", tr.Sent())
	}
	if len(clock.Sleeps()) != 0 {
		t.Fatalf("clock advanced during cancelled wait")
	}

	if err := a.SetSensors(context.Background(), false); err != nil {
		t.Fatalf("SetSensors: %v", err)
	}
	sleeps := clock.Sleeps()
	if len(sleeps) != 2 || sleeps[0] != 100*time.Millisecond {
		t.Errorf("sleeps = %v, want the remaining 100ms before the second send", sleeps)
	}
	if got := tr.Sent(); len(got) != 2 || got[1] != "RM0" {
		t.Errorf("sent = %q", got)
	}
}

func TestIssueTransportError(t *testing.T) {
	a, tr, clock := newTestAdapter(t)
	tr.err = errors.New("disconnected")

	err := a.DisplayClear(context.Background())
	if err == nil || !strings.Contains(err.Error(), "disconnected") {
		t.Fatalf("DisplayClear error = %v", err)
	}
	if len(clock.Sleeps()) != 0 {
		t.Errorf("adapter waited after failed send")
	}
	if c := a.Statistics().Counts(); c.SendErrors != 1 || c.CommandsSent != 0 {
		t.Errorf("counts = %+v", c)
	}
}

func TestIssueAsync(t *testing.T) {
	a, tr, _ := newTestAdapter(t)

	done := a.IssueAsync(context.Background(), mbituart.NewDisplayClear())
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("IssueAsync: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("IssueAsync did not complete")
	}
	if got := tr.Sent(); len(got) != 1 || got[0] != "CT" {
		t.Errorf("sent = %q", got)
	}
}

func TestDisplaySymbolUpdatesMatrix(t *testing.T) {
	a, tr, _ := newTestAdapter(t)

	if err := a.DisplaySymbol(context.Background(), "11111 00000 11111 00000 11111"); err != nil {
		t.Fatalf("DisplaySymbol: %v", err)
	}
	if got := a.State().LEDMatrix(); got != [5]byte{31, 0, 31, 0, 31} {
		t.Errorf("LEDMatrix = %v", got)
	}
	if got := tr.Sent(); got[0] != "CMV0V0V" {
		t.Errorf("sent = %q", got)
	}
}

func TestIssueLEDPatternUpdatesMatrix(t *testing.T) {
	a, tr, _ := newTestAdapter(t)

	msg := mbituart.Message{Command: mbituart.CmdDisplayLED, Payload: "00100 00100 11111 00100 00100"}
	if err := a.Issue(context.Background(), msg); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if got := tr.Sent(); len(got) != 1 || got[0] != "CM44V44" {
		t.Errorf("sent = %q, want [CM44V44]", got)
	}
	if got := a.State().LEDMatrix(); got != [5]byte{4, 4, 31, 4, 4} {
		t.Errorf("LEDMatrix = %v", got)
	}
}

func TestCommandMethods(t *testing.T) {
	a, tr, _ := newTestAdapter(t)
	ctx := context.Background()

	steps := []error{
		a.PlayTone(ctx, mbituart.Length8, mbituart.LevelMid, mbituart.NoteLa),
		a.PlayExpression(ctx, "hello"),
		a.SetPinMode(ctx, 2, mbituart.PinModeOnOff),
		a.WritePin(ctx, 1, 1023),
		a.Defaults(ctx),
	}
	for i, err := range steps {
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	want := []string{"T8440", "TThello", "R21", "P11023", "RF10", "RG10", "RR10", "RP5"}
	got := tr.Sent()
	if len(got) != len(want) {
		t.Fatalf("sent = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sent[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRunAppliesLines(t *testing.T) {
	a, _, _ := newTestAdapter(t, WithVectorPolicy(mbituart.VectorRetain))

	all := a.Subscribe(TopicAll)
	rejected := a.Subscribe(TopicRejected)

	input := "BA1\r\nT:-5\nF03E8FFFF07D0\nzz\nF0001\n"
	if err := a.Run(context.Background(), strings.NewReader(input)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	s := a.State()
	if s.ButtonA() != 1 || s.Temperature() != -5 {
		t.Errorf("state = %+v", s.Snapshot())
	}
	if got := s.MagneticForce(); got != [3]int32{1, -1, 2000} {
		t.Errorf("MagneticForce = %v, want retained axes", got)
	}

	for i := 0; i < 4; i++ {
		select {
		case ev := <-all:
			if _, ok := ev.(Event); !ok {
				t.Fatalf("event %d is %T", i, ev)
			}
		case <-time.After(time.Second):
			t.Fatalf("missing event %d", i)
		}
	}
	select {
	case ev := <-rejected:
		r, ok := ev.(Rejection)
		if !ok || r.Line != "zz" {
			t.Errorf("rejection = %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("missing rejection")
	}

	c := a.Statistics().Counts()
	if c.TotalLines != 5 || c.Rejected != 1 || c.ShortVectors != 1 {
		t.Errorf("counts = %+v", c)
	}
}

func TestRunFieldTopic(t *testing.T) {
	a, _, _ := newTestAdapter(t)
	gestures := a.Subscribe(mbituart.FieldGesture.String())

	if err := a.Run(context.Background(), strings.NewReader("BA1\nG:shake\n")); err != nil {
		t.Fatalf("Run: %v", err)
	}
	select {
	case ev := <-gestures:
		e := ev.(Event)
		if e.Reading.Text != "shake" {
			t.Errorf("gesture = %q", e.Reading.Text)
		}
	case <-time.After(time.Second):
		t.Fatal("missing gesture event")
	}
}

type errReader struct{ err error }

func (r errReader) Read(p []byte) (int, error) { return 0, r.err }

func TestRunReadError(t *testing.T) {
	a, _, _ := newTestAdapter(t)
	want := errors.New("port gone")
	if err := a.Run(context.Background(), errReader{want}); !errors.Is(err, want) {
		t.Errorf("Run error = %v, want %v", err, want)
	}
}

func TestRunContextCancel(t *testing.T) {
	a, _, _ := newTestAdapter(t)
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx, pr) }()

	if _, err := pw.Write([]byte("V:77\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	deadline := time.Now().Add(time.Second)
	for a.State().LightLevel() != 77 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if a.State().LightLevel() != 77 {
		t.Fatal("line not applied")
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestCloseResetsState(t *testing.T) {
	a, _, _ := newTestAdapter(t)
	a.HandleLine("BA1")
	sub := a.Subscribe(TopicAll)

	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if a.State().ButtonA() != 0 {
		t.Error("state not reset")
	}
	if err := a.SetSensors(context.Background(), true); !errors.Is(err, ErrClosed) {
		t.Errorf("Issue after Close = %v, want ErrClosed", err)
	}
	if a.HandleLine("BB1") != true {
		t.Error("HandleLine after Close should still decode")
	}

	// pubsub closes subscriber channels on shutdown
	select {
	case _, ok := <-sub:
		if ok {
			t.Error("expected closed subscription")
		}
	case <-time.After(time.Second):
		t.Fatal("subscription not closed")
	}
	if err := a.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestStalledSubscriberDoesNotBlock(t *testing.T) {
	a, _, _ := newTestAdapter(t)
	stalled := a.Subscribe(TopicAll, TopicRejected)

	within := func(name string, fn func()) {
		t.Helper()
		done := make(chan struct{})
		go func() {
			fn()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("%s blocked", name)
		}
	}

	within("HandleLine", func() {
		for i := 0; i < 3*eventCapacity; i++ {
			a.HandleLine("BA1")
			a.HandleLine("??")
		}
	})
	if a.State().ButtonA() != 1 {
		t.Error("lines not applied")
	}
	if got := len(stalled); got != eventCapacity {
		t.Errorf("buffered events = %d, want %d", got, eventCapacity)
	}

	within("Unsubscribe", func() { a.Unsubscribe(stalled) })
	within("Close", func() { a.Close() })
}

// stampTransport records the clock reading at every send.
type stampTransport struct {
	mu    sync.Mutex
	clock *fakeClock
	at    []time.Time
}

func (s *stampTransport) Send(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.at = append(s.at, s.clock.Now())
	return nil
}

func TestConcurrentIssueKeepsSpacing(t *testing.T) {
	clock := newFakeClock()
	tr := &stampTransport{clock: clock}
	a := New(tr, WithLogger(zerolog.Nop()), WithClock(clock.Now, clock.Sleep))
	defer a.Close()

	write, err := mbituart.NewPinWrite(1, 512)
	if err != nil {
		t.Fatalf("NewPinWrite: %v", err)
	}
	ctx := context.Background()
	first := a.IssueAsync(ctx, mbituart.NewSensorEnable(true))
	second := a.IssueAsync(ctx, write)
	for _, done := range []<-chan error{first, second} {
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("IssueAsync: %v", err)
			}
		case <-time.After(time.Second):
			t.Fatal("IssueAsync did not complete")
		}
	}

	tr.mu.Lock()
	at := append([]time.Time(nil), tr.at...)
	tr.mu.Unlock()
	if len(at) != 2 {
		t.Fatalf("sends = %d, want 2", len(at))
	}
	if gap := at[1].Sub(at[0]); gap < 100*time.Millisecond {
		t.Errorf("second send %v after the first, want at least 100ms", gap)
	}

	sleeps := clock.Sleeps()
	if len(sleeps) < 2 {
		t.Fatalf("sleeps = %v, want both settle delays", sleeps)
	}
	for _, d := range sleeps {
		if d != 100*time.Millisecond {
			t.Errorf("sleeps = %v, want only 100ms waits", sleeps)
			break
		}
	}
}
