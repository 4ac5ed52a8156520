package notify

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/dappforge/walletbridge/config"
	"github.com/dappforge/walletbridge/types"
)

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, time.Second, 5*time.Millisecond)
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame Frame
	require.NoError(t, json.Unmarshal(data, &frame))
	return frame
}

func TestHub(t *testing.T) {
	ui := config.DefaultConfig().UI
	account := types.NewAccount("0xabcd006e4b5ed41ddaf25c60f0f1bbbe7690ef01")

	t.Run("button frame carries truncated label and selectors", func(t *testing.T) {
		hub := NewHub(ui)
		defer hub.Close()
		conn := dialHub(t, hub)

		hub.UpdateWalletButton(account)
		frame := readFrame(t, conn)
		require.Equal(t, "button", frame.Type)
		require.True(t, frame.Connected)
		require.Equal(t, account, frame.Account)
		require.Equal(t, "0xabcd…ef01", frame.Label)
		require.Equal(t, "#connect-wallet", frame.ButtonTarget)
	})

	t.Run("disconnected button falls back to the connect label", func(t *testing.T) {
		hub := NewHub(ui)
		defer hub.Close()
		conn := dialHub(t, hub)

		hub.UpdateWalletButton(types.NoAccount)
		frame := readFrame(t, conn)
		require.Equal(t, "button", frame.Type)
		require.False(t, frame.Connected)
		require.Equal(t, "Connect Wallet", frame.Label)
	})

	t.Run("notification and reload frames", func(t *testing.T) {
		hub := NewHub(ui)
		defer hub.Close()
		conn := dialHub(t, hub)

		hub.ShowNotification("Wallet connected", types.SeveritySuccess)
		frame := readFrame(t, conn)
		require.Equal(t, "notification", frame.Type)
		require.Equal(t, "Wallet connected", frame.Message)
		require.Equal(t, types.SeveritySuccess, frame.Severity)

		hub.RequestReload("network changed")
		frame = readFrame(t, conn)
		require.Equal(t, "reload", frame.Type)
		require.Equal(t, "network changed", frame.Reason)
	})

	t.Run("install frame", func(t *testing.T) {
		hub := NewHub(ui)
		defer hub.Close()
		conn := dialHub(t, hub)

		hub.PromptInstall(types.InstallPrompt{InstallURL: ui.InstallURL})
		frame := readFrame(t, conn)
		require.Equal(t, "install", frame.Type)
		require.NotNil(t, frame.Install)
		require.Equal(t, ui.InstallURL, frame.Install.InstallURL)
	})

	t.Run("peer close detaches the client", func(t *testing.T) {
		hub := NewHub(ui)
		defer hub.Close()
		conn := dialHub(t, hub)

		require.NoError(t, conn.Close())
		require.Eventually(t, func() bool {
			return hub.ClientCount() == 0
		}, time.Second, 5*time.Millisecond)
	})
}

func TestMultiSink(t *testing.T) {
	var calls []string
	record := recordFn(&calls)

	multi := Multi{record, record}
	multi.ShowNotification("hello", types.SeverityInfo)
	multi.RequestReload("network changed")
	require.Equal(t, []string{"notify", "notify", "reload", "reload"}, calls)
}

type fnSink struct {
	onNotify func()
	onReload func()
}

func recordFn(calls *[]string) *fnSink {
	return &fnSink{
		onNotify: func() { *calls = append(*calls, "notify") },
		onReload: func() { *calls = append(*calls, "reload") },
	}
}

func (s *fnSink) UpdateWalletButton(types.Account) {}

func (s *fnSink) ShowNotification(string, types.Severity) { s.onNotify() }

func (s *fnSink) PromptInstall(types.InstallPrompt) {}

func (s *fnSink) RequestReload(string) { s.onReload() }
