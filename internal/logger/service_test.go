package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    slog.Level
		wantErr bool
	}{
		{name: "debug", input: "debug", want: slog.LevelDebug},
		{name: "upper case", input: "WARN", want: slog.LevelWarn},
		{name: "padded", input: " error ", want: slog.LevelError},
		{name: "unknown", input: "chatty", want: slog.LevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, tt.want, got)
		})
	}
}

func TestNamedAddsComponentName(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var buf bytes.Buffer
	InitializeWithWriter(&buf, slog.LevelInfo)

	Named("contracts_deployer").Info("deployed", "contract", "UniswapV2Factory")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "contracts_deployer", entry["name"])
	require.Equal(t, "UniswapV2Factory", entry["contract"])
	require.Equal(t, "deployed", entry["msg"])
}

func TestOutput(t *testing.T) {
	w, err := Output("")
	require.NoError(t, err)
	require.Equal(t, os.Stdout, w)

	w, err = Output("STDERR")
	require.NoError(t, err)
	require.Equal(t, os.Stderr, w)

	_, err = Output("syslog")
	require.ErrorContains(t, err, "unknown log output")
}
