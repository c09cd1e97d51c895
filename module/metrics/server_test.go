package metrics

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/rollup-node/module/irrecoverable"
	"github.com/onflow/rollup-node/utils/unittest"
)

func freePort(t *testing.T) uint {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())
	return uint(port)
}

func TestServerServesMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewRunnerCollector(registry)
	collector.BlockApplied(7, time.Millisecond)

	port := freePort(t)
	server := NewServer(unittest.Logger(), port, registry)

	ctx, cancel := irrecoverable.NewMockSignalerContextWithCancel(t, context.Background())
	stopped := make(chan struct{})
	go func() {
		server.Start(ctx)
		close(stopped)
	}()

	url := fmt.Sprintf("http://127.0.0.1:%d/metrics", port)
	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return false
		}
		body = string(data)
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 10*time.Millisecond)
	assert.Contains(t, body, "rollup_runner_tip_height 7")

	cancel()
	unittest.RequireCloseBefore(t, stopped, 5*time.Second, "metrics server did not stop")
}
