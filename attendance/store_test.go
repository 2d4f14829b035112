package attendance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaceLeavesOtherKidsOnSameDate(t *testing.T) {
	conn := newTestDB(t)
	store := NewStore(conn)

	date := "2024-01-05"
	require.NoError(t, store.ReplaceForDateAndScope(date, []string{"a1", "a2"}, []Record{
		{Date: date, KidID: "a1", Present: true, Program: "Football", MarkedBy: "leaderA", Timestamp: "2024-01-05T10:00:00Z"},
		{Date: date, KidID: "a2", Present: false, Program: "Football", MarkedBy: "leaderA", Timestamp: "2024-01-05T10:00:00Z"},
	}))
	require.NoError(t, store.ReplaceForDateAndScope(date, []string{"b1"}, []Record{
		{Date: date, KidID: "b1", Present: true, Program: "Art", MarkedBy: "leaderB", Timestamp: "2024-01-05T11:00:00Z"},
	}))

	// leader A re-marks; leader B's record must survive
	require.NoError(t, store.ReplaceForDateAndScope(date, []string{"a1", "a2"}, []Record{
		{Date: date, KidID: "a1", Present: false, Note: "sick", Program: "Football", MarkedBy: "leaderA", Timestamp: "2024-01-05T12:00:00Z"},
	}))

	records, err := store.Find(date, nil)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a1", records[0].KidID)
	assert.False(t, records[0].Present)
	assert.Equal(t, "sick", records[0].Note)
	assert.Equal(t, "b1", records[1].KidID)
	assert.Equal(t, "leaderB", records[1].MarkedBy)
}

func TestReplaceKeepsOtherDates(t *testing.T) {
	conn := newTestDB(t)
	store := NewStore(conn)

	require.NoError(t, store.ReplaceForDateAndScope("2024-01-05", []string{"a1"}, []Record{
		{Date: "2024-01-05", KidID: "a1", Present: true, Program: "Football", MarkedBy: "leaderA", Timestamp: "t"},
	}))
	require.NoError(t, store.ReplaceForDateAndScope("2024-01-06", []string{"a1"}, []Record{
		{Date: "2024-01-06", KidID: "a1", Present: false, Program: "Football", MarkedBy: "leaderA", Timestamp: "t"},
	}))

	records, err := store.Find("2024-01-05", nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].Present)
}

func TestReplaceWithEmptyRecordsClearsScope(t *testing.T) {
	conn := newTestDB(t)
	store := NewStore(conn)

	date := "2024-01-05"
	require.NoError(t, store.ReplaceForDateAndScope(date, []string{"a1", "a2"}, []Record{
		{Date: date, KidID: "a1", Present: true, Program: "Football", MarkedBy: "leaderA", Timestamp: "t"},
		{Date: date, KidID: "a2", Present: true, Program: "Football", MarkedBy: "leaderA", Timestamp: "t"},
	}))

	require.NoError(t, store.ReplaceForDateAndScope(date, []string{"a1", "a2"}, nil))

	records, err := store.Find(date, nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestAtMostOneRecordPerDateAndKid(t *testing.T) {
	conn := newTestDB(t)
	store := NewStore(conn)

	date := "2024-01-05"
	for i := 0; i < 3; i++ {
		require.NoError(t, store.ReplaceForDateAndScope(date, []string{"a1"}, []Record{
			{Date: date, KidID: "a1", Present: i%2 == 0, Program: "Football", MarkedBy: "leaderA", Timestamp: "t"},
		}))
	}

	var count int
	require.NoError(t, conn.QueryRow(
		"SELECT COUNT(*) FROM attendance WHERE date = ? AND kid_id = 'a1'", date,
	).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestReplaceFailureLeavesPriorState(t *testing.T) {
	conn := newTestDB(t)
	store := NewStore(conn)

	date := "2024-01-05"
	require.NoError(t, store.ReplaceForDateAndScope(date, []string{"a1"}, []Record{
		{Date: date, KidID: "a1", Present: true, Program: "Football", MarkedBy: "leaderA", Timestamp: "t"},
	}))

	// duplicate kid id in the batch trips the unique index mid-insert;
	// the whole transaction must roll back
	err := store.ReplaceForDateAndScope(date, []string{"a1"}, []Record{
		{Date: date, KidID: "a1", Present: false, Program: "Football", MarkedBy: "leaderA", Timestamp: "t"},
		{Date: date, KidID: "a1", Present: true, Program: "Football", MarkedBy: "leaderA", Timestamp: "t"},
	})
	require.Error(t, err)

	records, findErr := store.Find(date, nil)
	require.NoError(t, findErr)
	require.Len(t, records, 1)
	assert.True(t, records[0].Present)
}

func TestFindFiltersByKidIDs(t *testing.T) {
	conn := newTestDB(t)
	store := NewStore(conn)

	date := "2024-01-05"
	require.NoError(t, store.ReplaceForDateAndScope(date, []string{"a1", "b1"}, []Record{
		{Date: date, KidID: "a1", Present: true, Program: "Football", MarkedBy: "leaderA", Timestamp: "t"},
		{Date: date, KidID: "b1", Present: true, Program: "Art", MarkedBy: "leaderA", Timestamp: "t"},
	}))

	records, err := store.Find(date, []string{"b1"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "b1", records[0].KidID)
}

func TestFindRange(t *testing.T) {
	conn := newTestDB(t)
	store := NewStore(conn)

	for _, date := range []string{"2024-01-05", "2024-01-06", "2024-01-10"} {
		require.NoError(t, store.ReplaceForDateAndScope(date, []string{"a1"}, []Record{
			{Date: date, KidID: "a1", Present: true, Program: "Football", MarkedBy: "leaderA", Timestamp: "t"},
		}))
	}

	records, err := store.FindRange("2024-01-06", "2024-01-10", nil)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2024-01-06", records[0].Date)
	assert.Equal(t, "2024-01-10", records[1].Date)

	records, err = store.FindRange("", "2024-01-05", nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
}
