package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_SendWithoutListeners(t *testing.T) {
	assert.NoError(t, NewHub().Send(context.Background(), Event{ProfessionalID: 1}))
}

func TestHub_PushesToProfessional(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r, 7)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Connections(7) == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Send(context.Background(), Event{Type: EventAppointmentCreated, ProfessionalID: 7, AppointmentID: 3}))
	require.NoError(t, hub.Send(context.Background(), Event{Type: EventAppointmentCreated, ProfessionalID: 8}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var got Event
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, uint(3), got.AppointmentID)
	assert.Equal(t, EventAppointmentCreated, got.Type)
}

type fakeWriter struct {
	msgs []kafka.Message
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaSink_KeysByProfessional(t *testing.T) {
	w := &fakeWriter{}
	sink := &KafkaSink{writer: w}

	require.NoError(t, sink.Send(context.Background(), Event{Type: EventAppointmentReminder, ProfessionalID: 42}))

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "42", string(w.msgs[0].Key))
	assert.Equal(t, "event_type", w.msgs[0].Headers[0].Key)
	assert.Equal(t, EventAppointmentReminder, string(w.msgs[0].Headers[0].Value))
	assert.Equal(t, "kafka", sink.Name())
}
