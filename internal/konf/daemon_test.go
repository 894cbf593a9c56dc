package konf

import (
	"bufio"
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDaemonSetDumpRoundTrip(t *testing.T) {
	dir := t.TempDir()
	sock := filepath.Join(dir, "konfd.sock")

	d := NewDaemon(New(), nil)
	require.NoError(t, d.ListenRW(sock))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Serve(ctx)

	conn, err := net.Dial("unix", sock)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("-s -l \"hostname foo\" -p 0x0100\n"))
	require.NoError(t, err)

	r := bufio.NewReader(conn)
	reply, err := r.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "-o\n", reply)

	_, err = conn.Write([]byte("-d\n"))
	require.NoError(t, err)

	header, err := r.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "-t\n", header)

	body, err := r.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "hostname foo\n", body)
}

func TestDaemonROSocketRejectsSet(t *testing.T) {
	dir := t.TempDir()
	sock := filepath.Join(dir, "konfd-ro.sock")

	d := NewDaemon(New(), nil)
	require.NoError(t, d.ListenRO(sock))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Serve(ctx)
	time.Sleep(10 * time.Millisecond)

	conn, err := net.Dial("unix", sock)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("-s -l \"x\" -p 0x0100\n"))
	require.NoError(t, err)

	r := bufio.NewReader(conn)
	reply, err := r.ReadString('\n')
	require.NoError(t, err)
	require.Contains(t, reply, "-e")
}

func TestPIDFileWriteRemove(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "konfd.pid")
	require.NoError(t, WritePIDFile(path))
	_, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, RemovePIDFile(path))
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
}
