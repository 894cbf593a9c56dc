package konfclient

import (
	"bufio"
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeDaemon accepts one connection and scripts a fixed reply sequence,
// enough to exercise the client's query/recvAnswer path without pulling
// in the real daemon.
func fakeDaemon(t *testing.T, sock string, reply string) {
	t.Helper()
	l, err := net.Listen("unix", sock)
	require.NoError(t, err)
	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		defer l.Close()
		r := bufio.NewReader(conn)
		_, _ = r.ReadString('\n')
		conn.Write([]byte(reply))
	}()
}

func TestClientSetOK(t *testing.T) {
	dir := t.TempDir()
	sock := filepath.Join(dir, "konfd.sock")
	fakeDaemon(t, sock, "-o\n")

	c := New(sock)
	defer c.Close()
	require.NoError(t, c.Set(nil, 0x0100, "", "hostname foo", 0, true))
}

func TestClientDumpStream(t *testing.T) {
	dir := t.TempDir()
	sock := filepath.Join(dir, "konfd.sock")
	fakeDaemon(t, sock, "-t\nhostname foo\n\n-o\n")

	c := New(sock)
	defer c.Close()
	out, err := c.Dump(nil, "", 0, "")
	require.NoError(t, err)
	require.Equal(t, "hostname foo\n", out)
}

func TestClientErrorReply(t *testing.T) {
	dir := t.TempDir()
	sock := filepath.Join(dir, "konfd.sock")
	fakeDaemon(t, sock, "-e bad pattern\n")

	c := New(sock)
	defer c.Close()
	err := c.Unset(nil, "[", 0, 0)
	require.Error(t, err)
}
