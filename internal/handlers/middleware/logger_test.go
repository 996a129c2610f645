package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type logRecord struct {
	msg  string
	args []any
}

type recordingLogger struct {
	records []logRecord
}

func (l *recordingLogger) Info(msg string, args ...any) {
	l.records = append(l.records, logRecord{msg: msg, args: args})
}

func TestLogger(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	})

	l := &recordingLogger{}

	srv := httptest.NewServer(Logger(l)(handler))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/teapot")
	require.NoError(t, err)
	defer resp.Body.Close() // nolint:errcheck

	require.Equal(t, http.StatusTeapot, resp.StatusCode)
	require.Len(t, l.records, 1, "one record per request expected")

	record := l.records[0]
	require.Equal(t, "got HTTP request", record.msg)

	// args come in key-value pairs
	kv := map[string]any{}
	for i := 0; i+1 < len(record.args); i += 2 {
		kv[record.args[i].(string)] = record.args[i+1]
	}

	require.Equal(t, http.MethodGet, kv["method"])
	require.Equal(t, "/teapot", kv["uri"])
	require.Equal(t, http.StatusTeapot, kv["status"])
	require.Equal(t, len("short and stout"), kv["size"])
}
