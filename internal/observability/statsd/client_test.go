package statsd

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTags(t *testing.T) {
	t.Parallel()

	global := map[string]string{
		"env":       "prod",
		" service ": " idpguard ",
	}
	local := map[string]string{
		"backend": " oidc ",
		"":        "ignored",
		"env":     "stage",
	}

	assert.Equal(t, "|#backend:oidc,env:stage,service:idpguard", formatTags(global, local))
	assert.Empty(t, formatTags(nil, nil))
}

func TestClient_Line(t *testing.T) {
	t.Parallel()

	c, err := NewClient(Config{Prefix: " .idpguard. "})
	require.NoError(t, err)
	assert.False(t, c.Enabled())

	assert.Equal(t,
		"idpguard.session.restricted.expired:1|c|#backend:oidc",
		c.Line("session.restricted.expired", "1|c", map[string]string{"backend": "oidc"}),
	)
	assert.Equal(t, "idpguard.http_request:5|ms", c.Line(" http/request ", "5|ms", nil))
	assert.Empty(t, c.Line("  ", "1|c", nil))
}

func TestClient_DisabledAndNilAreNoops(t *testing.T) {
	t.Parallel()

	var nilClient *Client
	assert.NotPanics(t, func() {
		nilClient.Count("x", 1, nil)
		nilClient.Timing("x", time.Second, nil)
		require.NoError(t, nilClient.Close())
	})

	c, err := NewClient(Config{Enabled: false, Address: "127.0.0.1:8125"})
	require.NoError(t, err)
	assert.False(t, c.Enabled())
	c.Count("x", 1, nil)
	require.NoError(t, c.Close())
}

func TestClient_EmitsOverUDP(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = pc.Close() })

	c, err := NewClient(Config{
		Enabled:    true,
		Address:    pc.LocalAddr().String(),
		Prefix:     "idpguard",
		GlobalTags: map[string]string{"env": "test"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	require.True(t, c.Enabled())

	c.Count("oidc.bearer_error", 1, map[string]string{"code": "invalid_token"})

	buf := make([]byte, 512)
	require.NoError(t, pc.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, _, err := pc.ReadFrom(buf)
	require.NoError(t, err)

	got := strings.TrimSpace(string(buf[:n]))
	assert.Equal(t, "idpguard.oidc.bearer_error:1|c|#code:invalid_token,env:test", got)
}
