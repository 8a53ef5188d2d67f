package control

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eegstream/eegstream/internal/sink/broadcast"
)

type fakeCommands struct {
	startChannels []string
	startErr      error
	stopCalled    bool
	quitCalled    bool
}

func (f *fakeCommands) Start(_ context.Context, channels []string) error {
	f.startChannels = channels
	return f.startErr
}

func (f *fakeCommands) Stop(_ context.Context) error {
	f.stopCalled = true
	return nil
}

func (f *fakeCommands) Quit(_ context.Context) error {
	f.quitCalled = true
	return nil
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	t.Cleanup(func() { conn.Close() })

	return conn
}

func TestStartCommandSendsAckThenSuccessAndInvokesCommands(t *testing.T) {
	cmds := &fakeCommands{}
	s := New(cmds, nil, nil)

	srv := httptest.NewServer(s)
	defer srv.Close()

	conn := dial(t, srv)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"command": "start", "channels": []string{"Cz", "Pz"}}))

	var ack, result map[string]interface{}
	require.NoError(t, conn.ReadJSON(&ack))
	require.NoError(t, conn.ReadJSON(&result))

	assert.Equal(t, "log", ack["address"])
	assert.Equal(t, "success", result["status"])
	assert.Equal(t, []string{"Cz", "Pz"}, cmds.startChannels)
}

func TestUnknownCommandGetsAckThenError(t *testing.T) {
	cmds := &fakeCommands{}
	s := New(cmds, nil, nil)

	srv := httptest.NewServer(s)
	defer srv.Close()

	conn := dial(t, srv)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"command": "foo"}))

	var ack, result map[string]interface{}
	require.NoError(t, conn.ReadJSON(&ack))
	require.NoError(t, conn.ReadJSON(&result))

	assert.Equal(t, "error", result["status"])
	assert.False(t, cmds.stopCalled)
}

func TestQuitCommandInvokesOnQuit(t *testing.T) {
	cmds := &fakeCommands{}

	quit := make(chan struct{})
	s := New(cmds, func() { close(quit) }, nil)

	srv := httptest.NewServer(s)
	defer srv.Close()

	conn := dial(t, srv)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"command": "quit"}))

	select {
	case <-quit:
	case <-time.After(time.Second):
		t.Fatal("onQuit was not invoked")
	}

	assert.True(t, cmds.quitCalled)
}

func TestStartCommandAckAndResultReachAllConnectedClients(t *testing.T) {
	cmds := &fakeCommands{}
	s := New(cmds, nil, nil)

	srv := httptest.NewServer(s)
	defer srv.Close()

	issuer := dial(t, srv)
	observer := dial(t, srv)

	// Give the server a moment to register both clients before the
	// issuer sends its command.
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, issuer.WriteJSON(map[string]interface{}{"command": "start", "channels": []string{"Cz"}}))

	for _, conn := range []*websocket.Conn{issuer, observer} {
		var ack, result map[string]interface{}
		require.NoError(t, conn.ReadJSON(&ack))
		require.NoError(t, conn.ReadJSON(&result))

		assert.Equal(t, "log", ack["address"])
		assert.Equal(t, "success", result["status"])
	}
}

func TestPublishEEGReachesConnectedClients(t *testing.T) {
	cmds := &fakeCommands{}
	s := New(cmds, nil, nil)

	srv := httptest.NewServer(s)
	defer srv.Close()

	conn := dial(t, srv)

	// Give the server a moment to register the client before publishing.
	time.Sleep(20 * time.Millisecond)

	s.PublishEEG(broadcast.Envelope{Address: "eeg"})

	var msg map[string]interface{}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "eeg", msg["address"])
}
