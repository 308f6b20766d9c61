package history

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStorageAppendAndList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	store, err := NewStorage(path)
	require.NoError(t, err)
	require.Empty(t, store.List())

	err = store.Append(Record{
		TxHash:     "0xabc",
		Symbols:    []string{"TKA", "TKB"},
		MinReceive: "900000",
		Status:     "submitted",
	})
	require.NoError(t, err)

	// Reopen from disk.
	reopened, err := NewStorage(path)
	require.NoError(t, err)
	records := reopened.List()
	require.Len(t, records, 1)
	require.Equal(t, "0xabc", records[0].TxHash)
	require.Equal(t, "submitted", records[0].Status)
	require.False(t, records[0].Timestamp.IsZero())
}

func TestStorageUpdateStatus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	store, err := NewStorage(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(Record{TxHash: "0xabc", Status: "submitted"}))

	require.NoError(t, store.UpdateStatus("0xabc", "confirmed"))
	require.Equal(t, "confirmed", store.List()[0].Status)

	require.Error(t, store.UpdateStatus("0xmissing", "confirmed"))
}

func TestStorageCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0600))

	_, err := NewStorage(path)
	require.Error(t, err)
}
