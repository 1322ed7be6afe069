package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		out = append(out, m)
	}
	return out
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	loc := time.FixedZone("WIB", 7*3600)
	l := New(&buf, loc)

	l.Info("server_started", Fields{"port": "8080"})
	l.Error("blob_delete_failed", errors.New("disk gone"), Fields{"stored_name": "x"})
	l.Log(Fields{"event": "raw", "error": "boom"})

	got := lines(t, &buf)
	require.Len(t, got, 3)

	assert.Equal(t, "info", got[0]["level"])
	assert.Equal(t, "server_started", got[0]["msg"])
	assert.Equal(t, "8080", got[0]["port"])
	ts, err := time.Parse(time.RFC3339Nano, got[0]["ts"].(string))
	require.NoError(t, err)
	_, offset := ts.Zone()
	assert.Equal(t, 7*3600, offset)

	assert.Equal(t, "error", got[1]["level"])
	assert.Equal(t, "disk gone", got[1]["error"])
	assert.Equal(t, "x", got[1]["stored_name"])

	assert.Equal(t, "error", got[2]["level"])
}

func TestLogger_DoesNotMutateFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, nil)

	f := Fields{"k": "v"}
	l.Info("msg", f)

	assert.Equal(t, Fields{"k": "v"}, f)
}
