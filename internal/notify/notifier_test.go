package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSender struct {
	sent chan string
	err  error
}

func newCaptureSender(err error) *captureSender {
	return &captureSender{sent: make(chan string, 8), err: err}
}

func (s *captureSender) Send(_ context.Context, phone, message string) error {
	s.sent <- phone + "|" + message
	return s.err
}

func TestScheduler_FiresAfterDelay(t *testing.T) {
	sender := newCaptureSender(nil)
	sched := NewScheduler(sender, 50*time.Millisecond, nil)

	start := time.Now()
	sched.Schedule("9999999999", "you have been checked out")
	require.Less(t, time.Since(start), 50*time.Millisecond, "Schedule must not block on the send")

	select {
	case got := <-sender.sent:
		assert.Equal(t, "9999999999|you have been checked out", got)
	case <-time.After(2 * time.Second):
		t.Fatal("deferred notification never fired")
	}
}

func TestScheduler_IndependentNotificationsAllFire(t *testing.T) {
	sender := newCaptureSender(nil)
	sched := NewScheduler(sender, 5*time.Millisecond, nil)

	sched.Schedule("1111111111", "m1")
	sched.Schedule("2222222222", "m2")
	sched.Schedule("3333333333", "m3")

	for i := 0; i < 3; i++ {
		select {
		case <-sender.sent:
		case <-time.After(2 * time.Second):
			t.Fatalf("notification %d never fired", i+1)
		}
	}
}

func TestScheduler_SendFailureIsSwallowed(t *testing.T) {
	sender := newCaptureSender(errors.New("gateway down"))
	sched := NewScheduler(sender, 5*time.Millisecond, nil)

	sched.Schedule("9999999999", "m")

	select {
	case <-sender.sent:
	case <-time.After(2 * time.Second):
		t.Fatal("deferred notification never attempted")
	}
	// Nothing to assert beyond the attempt: the failure is logged and dropped.
}

func TestScheduler_DefaultDelay(t *testing.T) {
	sched := NewScheduler(LogSender{}, 0, nil)
	assert.Equal(t, 10*time.Second, sched.delay)
}

func TestGatewaySender_PostsPayload(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := NewGatewaySender(srv.URL)
	require.NoError(t, sender.Send(context.Background(), "9999999999", "hello"))
	assert.Equal(t, "9999999999", got["phone"])
	assert.Equal(t, "hello", got["message"])
}

func TestGatewaySender_RejectionIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no credit", http.StatusPaymentRequired)
	}))
	defer srv.Close()

	err := NewGatewaySender(srv.URL).Send(context.Background(), "9999999999", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "402")
}
