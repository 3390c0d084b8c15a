package security

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-journal/internal/errors"
)

func readEvents(t *testing.T, dir string) []AuditEvent {
	t.Helper()
	f, err := os.Open(AuditPath(dir))
	require.NoError(t, err)
	defer f.Close()

	var events []AuditEvent
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var ev AuditEvent
		require.NoError(t, json.Unmarshal(sc.Bytes(), &ev))
		events = append(events, ev)
	}
	require.NoError(t, sc.Err())
	return events
}

func TestAuditLogger_WritesJSONLines(t *testing.T) {
	dir := t.TempDir()
	al, err := NewAuditLogger(AuditConfig{LogDir: dir, MaxSize: 1})
	require.NoError(t, err)
	fixed := time.Date(2024, time.June, 15, 12, 0, 0, 0, time.FixedZone("IST", 19800))
	al.now = func() time.Time { return fixed }

	ctx := WithSource(context.Background(), "api")
	require.NoError(t, al.LogTradeAdded(ctx, "abc", "BTC/USDT", "Long", 141.45, nil))
	require.NoError(t, al.LogTradesImported(ctx, 3, 5, errors.ErrDatabaseError))
	require.NoError(t, al.Close())

	events := readEvents(t, dir)
	require.Len(t, events, 2)

	assert.Equal(t, AuditTradeAdded, events[0].EventType)
	assert.Equal(t, "abc", events[0].TradeID)
	assert.Equal(t, "api", events[0].Source)
	assert.True(t, events[0].Success)
	assert.True(t, events[0].Timestamp.Equal(fixed))
	assert.Equal(t, time.UTC, events[0].Timestamp.Location())
	assert.NotEmpty(t, events[0].SessionID)
	assert.Equal(t, events[0].SessionID, events[1].SessionID)

	assert.False(t, events[1].Success)
	assert.Equal(t, errors.ErrDatabaseError.Error(), events[1].ErrorMsg)
	assert.EqualValues(t, 3, events[1].Details["saved"])
}

func TestAuditLogger_NilDiscards(t *testing.T) {
	var al *AuditLogger
	assert.NoError(t, al.LogSampleSeeded(context.Background(), 2))
	assert.NoError(t, al.Close())
}

func TestAccessController(t *testing.T) {
	dir := t.TempDir()
	al, err := NewAuditLogger(AuditConfig{LogDir: dir, MaxSize: 1})
	require.NoError(t, err)
	ctx := context.Background()

	assert.NoError(t, NewAccessController(false, al).CheckPermission(ctx, OpAddTrade))

	ac := NewAccessController(true, al)
	assert.True(t, ac.IsReadOnly())
	assert.NoError(t, ac.CheckPermission(ctx, OpRead))

	for _, op := range []OperationType{OpAddTrade, OpDeleteTrade, OpImport, OpSeed} {
		err := ac.CheckPermission(ctx, op)
		var roe *ReadOnlyError
		require.True(t, errors.As(err, &roe), op)
		assert.Equal(t, op, roe.Operation)
		assert.True(t, errors.Is(err, errors.ErrReadOnly))
	}
	require.NoError(t, al.Close())

	events := readEvents(t, dir)
	require.Len(t, events, 4)
	assert.Equal(t, AuditReadOnlyViolation, events[0].EventType)
	assert.Equal(t, string(OpAddTrade), events[0].Action)
}

func TestAccessController_NilAllows(t *testing.T) {
	var ac *AccessController
	assert.False(t, ac.IsReadOnly())
	assert.NoError(t, ac.CheckPermission(context.Background(), OpDeleteTrade))
}

func TestReadOnlyError_Message(t *testing.T) {
	err := &ReadOnlyError{Operation: OpImport}
	assert.Equal(t, "Import trades blocked: read-only mode is enabled", err.Error())
}
