package stores

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Traces(t *testing.T) {
	s := NewMemoryStore()

	require.NoError(t, s.SaveTrace(&TurnTrace{SessionID: "a", MessageID: "m1", Kind: "greeting", Mode: "online", Outcome: "greeting"}))
	require.NoError(t, s.SaveTrace(&TurnTrace{SessionID: "b", MessageID: "m2", Kind: "turn", Mode: "offline", Outcome: "offline"}))
	require.NoError(t, s.SaveTrace(&TurnTrace{SessionID: "a", MessageID: "m3", Kind: "turn", Mode: "online", Outcome: "reply", ActionPath: "/contact"}))

	traces, err := s.GetTracesBySession("a")
	require.NoError(t, err)
	require.Len(t, traces, 2)
	assert.Equal(t, "m1", traces[0].MessageID)
	assert.Equal(t, "m3", traces[1].MessageID)
	assert.Equal(t, "/contact", traces[1].ActionPath)
	assert.False(t, traces[0].CreatedAt.IsZero())

	// Returned traces are copies.
	traces[0].Outcome = "changed"
	again, _ := s.GetTracesBySession("a")
	assert.Equal(t, "greeting", again[0].Outcome)

	require.NoError(t, s.DeleteTracesBySession("a"))
	traces, err = s.GetTracesBySession("a")
	require.NoError(t, err)
	assert.Empty(t, traces)

	traces, err = s.GetTracesBySession("b")
	require.NoError(t, err)
	assert.Len(t, traces, 1)
}

func TestMemoryStore_Inquiries(t *testing.T) {
	s := NewMemoryStore()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	first := &ContactInquiry{Name: "Ada", Email: "ada@example.com", Message: "Audit please"}
	second := &ContactInquiry{Name: "Obi", Email: "obi@example.com", Service: "IoT Defense", Message: "Firmware review"}
	require.NoError(t, s.SaveInquiry(first))
	require.NoError(t, s.SaveInquiry(second))

	assert.NotZero(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.True(t, second.CreatedAt.After(first.CreatedAt))

	all, err := s.ListInquiries(0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Obi", all[0].Name)
	assert.Equal(t, "Ada", all[1].Name)

	latest, err := s.ListInquiries(1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "Obi", latest[0].Name)
}

func TestNewStore(t *testing.T) {
	store, err := NewStore(NewStoreConfig("memory", ""))
	require.NoError(t, err)
	assert.NoError(t, store.Ping())
	assert.IsType(t, &MemoryStore{}, store)

	_, err = NewStore(NewStoreConfig("mysql", "dsn"))
	assert.ErrorContains(t, err, "unsupported store type")

	_, err = NewSQLiteStore(NewStoreConfig("postgres", "x"))
	assert.Error(t, err)
}

func TestStoreConfig_WithOption(t *testing.T) {
	cfg := NewStoreConfig("postgres", "dsn").WithOption("max_open_conns", "10")
	assert.Equal(t, "10", cfg.Options["max_open_conns"])
}
