package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeWithInput(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(input))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSession_RecordsUntilEOF(t *testing.T) {
	db := testDB(t)
	input := "DAILY_GM\n# warm up\n\nSWAP\nsettle\nstatus\nNOPE\n"

	out, err := executeWithInput(t, input, "--db", db, "--format", "json", "session")
	require.NoError(t, err)

	var summary sessionSummary
	resp := decodeResponse(t, out, &summary)
	assert.Equal(t, "local", resp.Profile)
	assert.Equal(t, 5, summary.Lines)
	assert.Equal(t, 2, summary.Recorded)
	assert.Equal(t, 1, summary.NoOps)
	assert.False(t, summary.Interrupted)
	require.Len(t, summary.Settlements, 1)
	assert.Equal(t, 60, summary.Settlements[0].Settled)
	assert.Equal(t, 60, summary.Profile.SettledXP)
	assert.Zero(t, summary.Profile.PendingXP)

	a := openTestApp(t, db)
	ctx := context.Background()
	history, err := a.store.ReadHistory(ctx, "local")
	require.NoError(t, err)
	assert.Len(t, history, 2)
	ledger, err := a.store.ListSettlements(ctx, "local")
	require.NoError(t, err)
	assert.Len(t, ledger, 1)
}

func TestSession_TextOutput(t *testing.T) {
	out, err := executeWithInput(t, "daily_gm\nsettle\nstatus\n", "--db", testDB(t), "session")
	require.NoError(t, err)

	assert.Contains(t, out, "✨ DAILY GM +10 XP")
	assert.Contains(t, out, "Claimed 10 XP")
	assert.Contains(t, out, "10 settled, 0 pending")
	assert.Contains(t, out, "Session ended: 1 recorded, 0 ignored, 1 settlements.")
}

func TestSession_EmptyInputSavesProfile(t *testing.T) {
	db := testDB(t)
	out, err := executeWithInput(t, "", "--db", db, "--format", "json", "session")
	require.NoError(t, err)

	var summary sessionSummary
	decodeResponse(t, out, &summary)
	assert.Zero(t, summary.Lines)
	assert.NotNil(t, summary.Settlements)

	_, err = openTestApp(t, db).store.LoadProfile(context.Background(), "local")
	assert.NoError(t, err)
}

func TestReadLines_StopsOnCancel(t *testing.T) {
	pr, pw := io.Pipe()
	t.Cleanup(func() { pw.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	lines, errc := readLines(ctx, pr)

	_, err := pw.Write([]byte("SWAP\n"))
	require.NoError(t, err)
	assert.Equal(t, "SWAP", <-lines)

	cancel()
	go func() { _, _ = pw.Write([]byte("DAILY_GM\n")) }()
	assert.NoError(t, <-errc, "reader exits without delivering the pending line")
	_, ok := <-lines
	assert.False(t, ok)
}

func TestSession_InterruptSavesProfile(t *testing.T) {
	db := testDB(t)
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)

	a, err := openApp(cmd, &RootOptions{Format: "json", Database: db})
	require.NoError(t, err)
	t.Cleanup(a.Close)
	parent := context.Background()
	require.NoError(t, a.loadCurrent(parent))

	pr, pw := io.Pipe()
	t.Cleanup(func() { pw.Close() })

	ctx, cancel := context.WithCancel(parent)
	done := make(chan error, 1)
	go func() { done <- a.session(parent, ctx, pr, out) }()

	// Each write returns once the reader has taken it, so after the
	// trailing comment "settle" has reached the session loop.
	for _, line := range []string{"BUY_ALPHA\n", "settle\n", "# waiting\n"} {
		_, err := pw.Write([]byte(line))
		require.NoError(t, err)
	}
	cancel()
	require.NoError(t, <-done)

	var summary sessionSummary
	decodeResponse(t, out.String(), &summary)
	assert.True(t, summary.Interrupted)
	assert.Equal(t, 2, summary.Lines)
	assert.Equal(t, 1, summary.Recorded)
	require.Len(t, summary.Settlements, 1)
	assert.Equal(t, 100, summary.Profile.SettledXP)

	snap, err := a.store.LoadProfile(parent, "local")
	require.NoError(t, err)
	assert.Equal(t, 100, snap.Settled)
	ledger, err := a.store.ListSettlements(parent, "local")
	require.NoError(t, err)
	assert.Len(t, ledger, 1)
}
