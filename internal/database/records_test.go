package historydb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initTestDB(t *testing.T) {
	t.Helper()
	require.NoError(t, InitDB(filepath.Join(t.TempDir(), "history.db")))
	t.Cleanup(func() { DB = nil })
}

func TestSaveAndListMessageRecords(t *testing.T) {
	initTestDB(t)

	for _, rec := range []*MessageRecord{
		{TxID: "aa11", Network: "regtest", Payload: "68656c6c6f", Fee: 203, Outcome: "success"},
		{TxID: "bb22", Network: "regtest", Payload: "776f726c64", Fee: 351, Outcome: "timeout"},
	} {
		require.NoError(t, SaveMessageRecord(rec))
	}

	records, err := ListMessageRecords(10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, rec := range records {
		assert.NotZero(t, rec.ID)
		assert.NotZero(t, rec.CreatedAt)
	}
}

func TestListMessageRecordsHonorsLimit(t *testing.T) {
	initTestDB(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, SaveMessageRecord(&MessageRecord{TxID: "tx", Network: "regtest", Outcome: "success"}))
	}

	records, err := ListMessageRecords(3)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestRecordsRequireInitializedDB(t *testing.T) {
	DB = nil
	assert.Error(t, SaveMessageRecord(&MessageRecord{}))
	_, err := ListMessageRecords(1)
	assert.Error(t, err)
}
