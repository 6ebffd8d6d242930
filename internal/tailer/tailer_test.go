package tailer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Geun-Oh/ngmon/internal/source"
	"github.com/Geun-Oh/ngmon/internal/stats"
)

const (
	testPoll    = 10 * time.Millisecond
	testBackoff = 20 * time.Millisecond
	waitFor     = 3 * time.Second
	tick        = 10 * time.Millisecond
)

func accessLine(client, path string, status string) string {
	return client + ` - - [10/Oct/2024:13:55:36 +0000] "GET ` + path + ` HTTP/1.1" ` + status + " 128\n"
}

// startTailer runs a tailer with short test intervals until cleanup.
func startTailer(t *testing.T, src source.LogSource) (*stats.SourceStats, func()) {
	t.Helper()

	st := stats.New(src)
	tl := New(src, st)
	tl.pollInterval = testPoll
	tl.backoff = testBackoff

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		tl.Run(ctx)
	}()

	stop := func() {
		cancel()
		<-done
	}
	t.Cleanup(stop)
	return st, stop
}

func appendLine(t *testing.T, path, line string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	defer f.Close()
	_, err = f.WriteString(line)
	require.NoError(t, err)
}

func TestTailerEmitsOnlyNewLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.log")
	require.NoError(t, os.WriteFile(path, []byte(accessLine("9.9.9.9", "/old", "200")), 0o644))

	st, _ := startTailer(t, source.LogSource{Path: path, Server: "test", Kind: source.Access})

	require.Eventually(t, func() bool {
		return st.Snapshot().FilePresent
	}, waitFor, tick)

	appendLine(t, path, accessLine("1.1.1.1", "/new", "200"))

	require.Eventually(t, func() bool {
		return st.Snapshot().Total.Requests == 1
	}, waitFor, tick, "appended line should be counted")

	snap := st.Snapshot()
	assert.Contains(t, snap.Total.Clients, "1.1.1.1")
	assert.NotContains(t, snap.Total.Clients, "9.9.9.9", "historical content must not be replayed")
}

func TestTailerDropsUnparseableLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.log")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	st, _ := startTailer(t, source.LogSource{Path: path, Server: "test", Kind: source.Access})
	require.Eventually(t, func() bool { return st.Snapshot().FilePresent }, waitFor, tick)

	appendLine(t, path, "garbage not a log line\n")
	appendLine(t, path, accessLine("1.1.1.1", "/ok", "200"))

	require.Eventually(t, func() bool {
		return st.Snapshot().Total.Requests == 1
	}, waitFor, tick)

	// The garbage line caused no mutation at all.
	time.Sleep(5 * testPoll)
	assert.Equal(t, 1, st.Snapshot().Total.Requests)
}

func TestTailerErrorKind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "error.log")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	st, _ := startTailer(t, source.LogSource{Path: path, Server: "test", Kind: source.Error})
	require.Eventually(t, func() bool { return st.Snapshot().FilePresent }, waitFor, tick)

	appendLine(t, path, "2024/10/10 13:55:36 [error] 1#0: upstream timed out\n")

	require.Eventually(t, func() bool {
		return st.Snapshot().Total.Errors == 1
	}, waitFor, tick)

	snap := st.Snapshot()
	require.Len(t, snap.Recent, 1)
	assert.Contains(t, snap.Recent[0].Text, "[error]")
}

func TestTailerAbsentFileMarksNotPresent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "late.log")

	st, _ := startTailer(t, source.LogSource{Path: path, Server: "test", Kind: source.Access})

	require.Eventually(t, func() bool {
		return !st.Snapshot().FilePresent
	}, waitFor, tick)

	// The file appearing later is picked up without intervention.
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	require.Eventually(t, func() bool {
		return st.Snapshot().FilePresent
	}, waitFor, tick)

	appendLine(t, path, accessLine("1.1.1.1", "/late", "200"))
	require.Eventually(t, func() bool {
		return st.Snapshot().Total.Requests == 1
	}, waitFor, tick)
}

func TestTailerDetectsRotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "access.log")
	require.NoError(t, os.WriteFile(path, []byte(accessLine("9.9.9.9", "/pre", "200")), 0o644))

	st, _ := startTailer(t, source.LogSource{Path: path, Server: "test", Kind: source.Access})
	require.Eventually(t, func() bool { return st.Snapshot().FilePresent }, waitFor, tick)

	appendLine(t, path, accessLine("1.1.1.1", "/before", "200"))
	require.Eventually(t, func() bool {
		return st.Snapshot().Total.Requests == 1
	}, waitFor, tick)

	// Rotate: write the replacement elsewhere and rename it over the old
	// path, so the tailer atomically sees a complete new file with a new
	// identity and never a missing path.
	replacement := filepath.Join(dir, "access.log.new")
	require.NoError(t, os.WriteFile(replacement, []byte(accessLine("2.2.2.2", "/after", "200")), 0o644))
	require.NoError(t, os.Rename(replacement, path))

	// The rotated file is fresh, so its content is read from the start.
	require.Eventually(t, func() bool {
		return st.Snapshot().Total.Requests == 2
	}, waitFor, tick, "line in rotated file should be counted")

	snap := st.Snapshot()
	assert.Contains(t, snap.Total.Clients, "2.2.2.2")

	// Nothing from the pre-rotation file is re-emitted.
	time.Sleep(10 * testPoll)
	snap = st.Snapshot()
	assert.Equal(t, 2, snap.Total.Requests)
	assert.NotContains(t, snap.Total.Clients, "9.9.9.9")
}

func TestTailerBuffersPartialLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.log")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	st, _ := startTailer(t, source.LogSource{Path: path, Server: "test", Kind: source.Access})
	require.Eventually(t, func() bool { return st.Snapshot().FilePresent }, waitFor, tick)

	full := accessLine("1.1.1.1", "/split", "200")
	half := len(full) / 2
	appendLine(t, path, full[:half])
	time.Sleep(5 * testPoll)
	assert.Equal(t, 0, st.Snapshot().Total.Requests, "half a line must not be emitted")

	appendLine(t, path, full[half:])
	require.Eventually(t, func() bool {
		return st.Snapshot().Total.Requests == 1
	}, waitFor, tick)
	assert.Contains(t, st.Snapshot().Total.Clients, "1.1.1.1")
}

func TestTailerStopsWithinPollInterval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.log")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	st, stop := startTailer(t, source.LogSource{Path: path, Server: "test", Kind: source.Access})
	require.Eventually(t, func() bool { return st.Snapshot().FilePresent }, waitFor, tick)

	start := time.Now()
	stop()
	assert.Less(t, time.Since(start), time.Second, "stop must be observed within poll granularity")
}

func TestTailerStopsMidDrain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "access.log")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	st, stop := startTailer(t, source.LogSource{Path: path, Server: "test", Kind: source.Access})
	require.Eventually(t, func() bool { return st.Snapshot().FilePresent }, waitFor, tick)

	// Rotate in a file large enough that draining it takes far longer than
	// the poll interval, then cancel while lines are still streaming in.
	var big strings.Builder
	line := accessLine("1.1.1.1", "/bulk", "200")
	for i := 0; i < 500_000; i++ {
		big.WriteString(line)
	}
	replacement := filepath.Join(dir, "access.log.new")
	require.NoError(t, os.WriteFile(replacement, []byte(big.String()), 0o644))
	require.NoError(t, os.Rename(replacement, path))

	require.Eventually(t, func() bool {
		return st.Snapshot().Total.Requests > 1000
	}, waitFor, tick, "tailer should be mid-drain")

	start := time.Now()
	stop()
	assert.Less(t, time.Since(start), time.Second,
		"stop must interrupt a stream of complete lines, not wait for EOF")

	snap := st.Snapshot()
	assert.Less(t, snap.Total.Requests, 500_000, "drain should have been cut short")
}
