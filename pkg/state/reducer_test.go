package state

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/kcaldas/devconsole/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stateWithMax(max int) types.State {
	return types.InitialState(types.ConfigPatch{MaxLogs: types.Ptr(max)})
}

func messages(logs []types.Entry) []string {
	out := make([]string, len(logs))
	for i, e := range logs {
		out[i] = e.Message
	}
	return out
}

func TestReduce_AddLog_TruncatesOldest(t *testing.T) {
	s := stateWithMax(2)
	for _, msg := range []string{"Test 1", "Test 2", "Test 3"} {
		s = Reduce(s, AddLog{Entry: types.NewDebug(msg, "")})
	}

	assert.Equal(t, []string{"Test 3", "Test 2"}, messages(s.Logs))
	assert.Equal(t, 3, s.UnreadCount)
}

func TestReduce_AddLog_BoundAndOrderProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 50; run++ {
		max := rng.Intn(10) + 1
		n := rng.Intn(30)
		s := stateWithMax(max)

		for i := 0; i < n; i++ {
			s = Reduce(s, AddLog{Entry: types.NewDebug(fmt.Sprintf("%d", i), "")})
			require.LessOrEqual(t, len(s.Logs), max)

			// newest-first by call order
			for j := 1; j < len(s.Logs); j++ {
				var a, b int
				fmt.Sscanf(s.Logs[j-1].Message, "%d", &a)
				fmt.Sscanf(s.Logs[j].Message, "%d", &b)
				require.Equal(t, a-1, b)
			}
			require.Equal(t, fmt.Sprintf("%d", i), s.Logs[0].Message)
		}
		assert.Equal(t, n, s.UnreadCount)
	}
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	s := stateWithMax(3)
	s = Reduce(s, AddLog{Entry: types.NewDebug("a", "")})
	s = Reduce(s, AddLog{Entry: types.NewDebug("b", "")})

	before := append([]types.Entry(nil), s.Logs...)
	_ = Reduce(s, AddLog{Entry: types.NewDebug("c", "")})
	_ = Reduce(s, SetLogs{Entries: []types.Entry{types.NewDebug("d", "")}})
	_ = Reduce(s, ClearLogs{})

	assert.Equal(t, before, s.Logs)
	assert.Equal(t, 2, s.UnreadCount)
}

func TestReduce_Deterministic(t *testing.T) {
	s := stateWithMax(5)
	e := types.NewDebug("same", "")

	assert.Equal(t, Reduce(s, AddLog{Entry: e}), Reduce(s, AddLog{Entry: e}))
}

func TestReduce_SetLogs_AppendsAtEnd(t *testing.T) {
	s := stateWithMax(3)
	s = Reduce(s, AddLog{Entry: types.NewDebug("live", "")})

	loaded := []types.Entry{
		types.NewDebug("stored 1", ""),
		types.NewDebug("stored 2", ""),
		types.NewDebug("stored 3", ""),
	}
	s = Reduce(s, SetLogs{Entries: loaded})

	assert.Equal(t, []string{"live", "stored 1", "stored 2"}, messages(s.Logs))
	assert.Equal(t, 4, s.UnreadCount, "unread grows by the number of entries given")
}

func TestReduce_ClearLogs(t *testing.T) {
	s := stateWithMax(10)
	for i := 0; i < 5; i++ {
		s = Reduce(s, AddLog{Entry: types.NewDebug("x", "")})
	}
	s = Reduce(s, ClearLogs{})

	assert.Empty(t, s.Logs)
	assert.NotNil(t, s.Logs)
	assert.Equal(t, 0, s.UnreadCount)

	// idempotent on an empty state
	s = Reduce(s, ClearLogs{})
	assert.Empty(t, s.Logs)
	assert.Equal(t, 0, s.UnreadCount)
}

func TestReduce_SetConfig_NoRetroactiveTruncation(t *testing.T) {
	s := stateWithMax(5)
	for i := 0; i < 5; i++ {
		s = Reduce(s, AddLog{Entry: types.NewDebug(fmt.Sprintf("%d", i), "")})
	}

	s = Reduce(s, SetConfig{Patch: types.ConfigPatch{MaxLogs: types.Ptr(2)}})
	assert.Len(t, s.Logs, 5)
	assert.Equal(t, 2, s.Config.MaxLogs)
	assert.True(t, s.Config.Enabled)

	s = Reduce(s, AddLog{Entry: types.NewDebug("next", "")})
	assert.Equal(t, []string{"next", "4"}, messages(s.Logs))
}

func TestReduce_UnreadCounters(t *testing.T) {
	s := stateWithMax(5)
	s = Reduce(s, IncrementUnread{})
	s = Reduce(s, IncrementUnread{})
	assert.Equal(t, 2, s.UnreadCount)

	s = Reduce(s, ResetUnread{})
	assert.Equal(t, 0, s.UnreadCount)
}

func TestName(t *testing.T) {
	assert.Equal(t, "ADD_LOG", Name(AddLog{}))
	assert.Equal(t, "SET_CONFIG", Name(SetConfig{}))
	assert.Equal(t, "", Name(nil))
	assert.True(t, ChangesLogs(ClearLogs{}))
	assert.False(t, ChangesLogs(ResetUnread{}))
}
