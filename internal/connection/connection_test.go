package connection

import (
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arboracle/graphbolt/internal/boltlog"
	"github.com/arboracle/graphbolt/internal/codec/fakecodec"
	"github.com/arboracle/graphbolt/internal/netaddr"
)

func newTestConnection(t *testing.T) (*Connection, net.Conn) {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() { _ = client.Close(); _ = server.Close() })

	go io.Copy(io.Discard, server) // drain whatever the Connection writes

	conn := Wrap("test-conn", netaddr.New("localhost", 7687), fakecodec.Codec{}, client, boltlog.NoOp{})
	return conn, server
}

func TestAppendSendFetch_PipelinesInOrder(t *testing.T) {
	conn, server := newTestConnection(t)

	var firstDone, secondDone bool
	r1 := &Response{OnSuccess: func(map[string]any) { firstDone = true }}
	r2 := &Response{OnSuccess: func(map[string]any) { secondDone = true }}

	require.NoError(t, conn.Append(OpRun, "RETURN 1", nil, r1))
	require.NoError(t, conn.Append(OpPullAll, "", nil, r2))
	require.NoError(t, conn.Send())

	require.NoError(t, fakecodec.WriteSuccess(server, map[string]any{"fields": []any{"n"}}))
	_, err := conn.Fetch()
	require.NoError(t, err)
	assert.True(t, firstDone)
	assert.False(t, secondDone, "second response must not complete before its own terminal frame arrives")

	require.NoError(t, fakecodec.WriteSuccess(server, map[string]any{}))
	_, err = conn.Fetch()
	require.NoError(t, err)
	assert.True(t, secondDone)
}

func TestFetch_RecordLeavesHeadInPlace(t *testing.T) {
	conn, server := newTestConnection(t)

	var records [][]any
	completed := false
	resp := &Response{
		OnRecord:  func(values []any) { records = append(records, values) },
		OnSuccess: func(map[string]any) { completed = true },
	}
	require.NoError(t, conn.Append(OpPullAll, "", nil, resp))
	require.NoError(t, conn.Send())

	require.NoError(t, fakecodec.WriteRecord(server, []any{float64(1)}))
	require.NoError(t, fakecodec.WriteRecord(server, []any{float64(2)}))
	require.NoError(t, fakecodec.WriteSuccess(server, map[string]any{}))

	for i := 0; i < 3; i++ {
		_, err := conn.Fetch()
		require.NoError(t, err)
	}

	assert.Len(t, records, 2)
	assert.True(t, completed)
}

func TestFetchAll_DrainsQueue(t *testing.T) {
	conn, server := newTestConnection(t)

	r1 := &Response{}
	r2 := &Response{}
	require.NoError(t, conn.Append(OpRun, "RETURN 1", nil, r1))
	require.NoError(t, conn.Append(OpPullAll, "", nil, r2))
	require.NoError(t, conn.Send())

	require.NoError(t, fakecodec.WriteSuccess(server, nil))
	require.NoError(t, fakecodec.WriteSuccess(server, nil))

	require.NoError(t, conn.FetchAll())
	assert.True(t, r1.Complete)
	assert.True(t, r2.Complete)
}

func TestFetch_TransportFailureMarksDefunctAndFailsPending(t *testing.T) {
	conn, server := newTestConnection(t)

	failed := false
	var meta map[string]any
	resp := &Response{OnFailure: func(m map[string]any) { failed = true; meta = m }}
	require.NoError(t, conn.Append(OpRun, "RETURN 1", nil, resp))
	require.NoError(t, conn.Send())

	_ = server.Close() // simulate transport death

	_, err := conn.Fetch()
	require.Error(t, err)
	assert.True(t, IsTransportError(err))
	assert.True(t, conn.Defunct())
	assert.True(t, conn.Closed())
	assert.True(t, failed)
	assert.Equal(t, "TransportError", meta["code"])
}

func TestReset_DrainsUntilComplete(t *testing.T) {
	conn, server := newTestConnection(t)

	done := make(chan error, 1)
	go func() { done <- conn.Reset() }()

	require.NoError(t, fakecodec.WriteSuccess(server, nil))
	require.NoError(t, <-done)
}

func TestClose_IsIdempotent(t *testing.T) {
	conn, _ := newTestConnection(t)
	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())
	assert.True(t, conn.Closed())
}

func TestAcquireReleaseFlags(t *testing.T) {
	conn, _ := newTestConnection(t)
	assert.False(t, conn.InUse())
	conn.SetInUse(true)
	assert.True(t, conn.InUse())
	conn.SetInUse(false)
	assert.False(t, conn.InUse())
}
