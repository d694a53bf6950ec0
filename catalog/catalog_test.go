package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadEmbedded(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Len(t, c.Users, 12)
	assert.Len(t, c.Chemicals, 8)
	assert.Len(t, c.BulkCustomers, 15)
	assert.Len(t, c.InfoLabels, 30)
	assert.Equal(t, []string{"DDE", "TDA", "CVD", "JFI", "FCO", "DTH", "JPE"}, c.StatsOperators)
	assert.Equal(t, []string{"CVD", "DDS", "DTH", "EDG", "FCO", "FVW", "JFI", "TDA"}, c.WorkOperators)
}

func TestParseRejectsBadDocuments(t *testing.T) {
	_, err := Parse([]byte("users: []\n"))
	assert.ErrorContains(t, err, "no users")

	_, err = Parse([]byte("users:\n  - {code: jfi, name: A, pin: '1'}\n  - {code: JFI, name: B, pin: '2'}\n"))
	assert.ErrorContains(t, err, "twice")

	_, err = Parse([]byte("users:\n  - {code: JFI, name: A, pin: '1'}\nshoeSizes: [42]\n"))
	assert.Error(t, err)
}

func TestParseNormalizesCodes(t *testing.T) {
	c, err := Parse([]byte("users:\n  - {code: ' jfi ', name: Jan, pin: '1'}\n"))
	require.NoError(t, err)
	assert.Equal(t, "JFI", c.Users[0].Code)
}

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("users:\n  - {code: JFI, name: Jan, pin: '1'}\n"), 0o644))

	first, err := Load(path)
	require.NoError(t, err)
	store := NewStore(first)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	reloaded := make(chan *Catalog, 1)
	go func() {
		done <- store.Watch(ctx, path, zap.NewNop(), func(c *Catalog) error {
			select {
			case reloaded <- c:
			default:
			}
			return nil
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("users:\n  - {code: JFI, name: Jan, pin: '1'}\n  - {code: FCO, name: Florian, pin: '2'}\n"), 0o644))

	select {
	case c := <-reloaded:
		assert.Len(t, c.Users, 2)
	case <-time.After(5 * time.Second):
		t.Fatal("catalog was not reloaded")
	}
	assert.Eventually(t, func() bool { return len(store.Get().Users) == 2 }, 2*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
