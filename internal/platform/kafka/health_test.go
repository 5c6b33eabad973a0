package kafka

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthChecker(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	assert.NoError(t, NewHealthChecker(" , "+ln.Addr().String()).Check(context.Background()))
	assert.Error(t, NewHealthChecker("").Check(context.Background()))
	assert.Equal(t, "kafka", NewHealthChecker("x:1").Name())
}
