package uds

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func socketPath(t *testing.T) string {
	t.Helper()
	// unix socket paths are limited to ~100 bytes, t.TempDir can be longer
	dir, err := os.MkdirTemp("", "uds")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return filepath.Join(dir, "admin.sock")
}

func TestService(t *testing.T) {
	commands := CommandStore{
		"stats": {Desc: "document counts", Fn: func(_ context.Context, _ []string, w io.Writer) error {
			_, err := fmt.Fprintln(w, "documents: 3")
			return err
		}},
		"purge": {Desc: "remove expired documents", Usage: "purge [now]", Fn: func(context.Context, []string, io.Writer) error {
			return errors.New("store down")
		}},
	}
	path := socketPath(t)
	s := NewService(context.Background(), path, commands, zap.NewNop())
	require.NoError(t, s.Start())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	conn, err := net.Dial("unix", path)
	require.NoError(t, err)
	r := bufio.NewReader(conn)
	readLine := func() string {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		return strings.TrimSpace(line)
	}

	_, _ = fmt.Fprintln(conn, "stats")
	assert.Equal(t, "documents: 3", readLine())

	_, _ = fmt.Fprintln(conn, "purge")
	assert.Equal(t, "error: store down", readLine())

	_, _ = fmt.Fprintln(conn, "bogus")
	assert.Equal(t, "unknown command: bogus", readLine())

	_, _ = fmt.Fprintln(conn, "help")
	assert.Equal(t, "", readLine())
	assert.Contains(t, readLine(), "help")
	assert.Contains(t, readLine(), "quit")
	assert.Contains(t, readLine(), "purge [now]")
	assert.Contains(t, readLine(), "document counts")
	assert.Equal(t, "", readLine(), "help ends with a blank line")

	_, _ = fmt.Fprintln(conn, "quit")
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, err = r.ReadString('\n')
	assert.ErrorIs(t, err, io.EOF)
	_ = conn.Close()

	s.Stop()
	select {
	case err := <-s.Done():
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("service did not stop")
	}
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "socket file removed")
}

func TestCommandStoreKeys(t *testing.T) {
	cs := CommandStore{"stats": {}, "purge": {}, "reload-company": {}}
	assert.Equal(t, []string{"purge", "reload-company", "stats"}, cs.Keys())
}
