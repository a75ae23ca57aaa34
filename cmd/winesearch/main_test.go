// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/poiesic/winesearch/dataset"
	"github.com/poiesic/winesearch/ingestion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func findCommand(t *testing.T, cmds []*cli.Command, name string) *cli.Command {
	t.Helper()
	for _, cmd := range cmds {
		if cmd.Name == name {
			return cmd
		}
	}
	t.Fatalf("command %q not found", name)
	return nil
}

func findFlag[T cli.Flag](t *testing.T, cmd *cli.Command, name string) T {
	t.Helper()
	for _, flag := range cmd.Flags {
		if f, ok := flag.(T); ok && flag.Names()[0] == name {
			return f
		}
	}
	var zero T
	t.Fatalf("flag %q not found on %s", name, cmd.Name)
	return zero
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := parseLevel("verbose")
	assert.Error(t, err)
}

func TestFlags_BindEnvironment(t *testing.T) {
	app := newApp()
	var backend *cli.StringFlag
	for _, flag := range app.Flags {
		if f, ok := flag.(*cli.StringFlag); ok && f.Name == "backend" {
			backend = f
		}
	}
	require.NotNil(t, backend)
	assert.Equal(t, []string{"WINESEARCH_BACKEND"}, backend.EnvVars)

	serve := findCommand(t, app.Commands, "serve")
	assert.Equal(t, []string{"API_HOST"}, findFlag[*cli.StringFlag](t, serve, "host").EnvVars)
	assert.Equal(t, []string{"API_PORT"}, findFlag[*cli.IntFlag](t, serve, "port").EnvVars)
}

func TestApp_InvalidLogLevel(t *testing.T) {
	err := newApp().Run([]string{"winesearch", "--log-level", "loud", "query"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestIndexCommand_Flags(t *testing.T) {
	cmd := findCommand(t, newApp().Commands, "index")

	t.Run("chunksize defaults to 1000", func(t *testing.T) {
		assert.Equal(t, ingestion.DefaultChunkSize, findFlag[*cli.IntFlag](t, cmd, "chunksize").Value)
	})

	t.Run("workers defaults to 4", func(t *testing.T) {
		assert.Equal(t, 4, findFlag[*cli.IntFlag](t, cmd, "workers").Value)
	})

	t.Run("limit defaults to all records", func(t *testing.T) {
		assert.Zero(t, findFlag[*cli.IntFlag](t, cmd, "limit").Value)
	})

	t.Run("filename defaults to the dataset archive", func(t *testing.T) {
		assert.Equal(t, dataset.DefaultFilename, findFlag[*cli.StringFlag](t, cmd, "filename").Value)
	})

	t.Run("reset defaults to true", func(t *testing.T) {
		assert.True(t, findFlag[*cli.BoolFlag](t, cmd, "reset").Value)
	})

	t.Run("max-retries defaults to a single attempt", func(t *testing.T) {
		assert.Equal(t, 1, findFlag[*cli.IntFlag](t, cmd, "max-retries").Value)
	})
}

func TestReembedCommand(t *testing.T) {
	cmd := findCommand(t, newApp().Commands, "reembed")
	assert.Equal(t, ingestion.DefaultChunkSize, findFlag[*cli.IntFlag](t, cmd, "batch-size").Value)

	err := newApp().Run([]string{"winesearch", "reembed", "--batch-size", "0"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch-size")
}

func TestBenchCommands_Flags(t *testing.T) {
	benchCmd := findCommand(t, newApp().Commands, "bench")
	for _, name := range []string{"concurrent", "serial"} {
		t.Run(name, func(t *testing.T) {
			cmd := findCommand(t, benchCmd.Subcommands, name)
			assert.Equal(t, "fts", findFlag[*cli.StringFlag](t, cmd, "search").Value)
			assert.Equal(t, 10, findFlag[*cli.IntFlag](t, cmd, "limit").Value)
			assert.Equal(t, int64(37), findFlag[*cli.Int64Flag](t, cmd, "seed").Value)
		})
	}
}

func TestIndexCommand_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing dataset file", func(t *testing.T) {
		err := newApp().Run([]string{"winesearch", "index", "--data-dir", dir})
		require.Error(t, err)
		assert.ErrorIs(t, err, dataset.ErrFileNotFound)
	})

	t.Run("invalid chunksize", func(t *testing.T) {
		err := newApp().Run([]string{"winesearch", "index", "--chunksize", "0"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "chunksize")
	})

	t.Run("malformed record", func(t *testing.T) {
		path := filepath.Join(dir, "bad.jsonl.gz")
		f, err := os.Create(path)
		require.NoError(t, err)
		zw := gzip.NewWriter(f)
		_, err = zw.Write([]byte("{\"id\": 1, \"points\": 90, \"title\": \"ok\"}\nnot json\n"))
		require.NoError(t, err)
		require.NoError(t, zw.Close())
		require.NoError(t, f.Close())

		err = newApp().Run([]string{"winesearch", "index", "--data-dir", dir, "--filename", "bad.jsonl.gz"})
		require.Error(t, err)
		assert.ErrorIs(t, err, dataset.ErrMalformedLine)
	})
}

func TestIndexAndBenchSerial_LocalBackend(t *testing.T) {
	if testing.Short() {
		t.Skip("requires an embedding server")
	}
	if os.Getenv("EMBEDDING_HOST") == "" {
		t.Skip("EMBEDDING_HOST not set")
	}

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wines.jsonl"),
		[]byte("{\"id\": 1, \"points\": 90, \"title\": \"Crisp Riesling\", \"description\": \"Lime and slate.\"}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keyword_terms.txt"), []byte("riesling\n"), 0o644))
	t.Setenv("LOCAL_DB_PATH", filepath.Join(dir, "db"))

	err := newApp().Run([]string{"winesearch", "--backend", "local", "index", "--data-dir", dir, "--filename", "wines.jsonl"})
	require.NoError(t, err)

	err = newApp().Run([]string{"winesearch", "--backend", "local", "bench", "serial", "--queries-dir", dir, "--limit", "3"})
	require.NoError(t, err)
}

func TestBenchCommands_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("invalid search type", func(t *testing.T) {
		err := newApp().Run([]string{"winesearch", "bench", "concurrent", "--search", "bm25", "--queries-dir", dir})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "valid search type")
	})

	t.Run("missing terms file", func(t *testing.T) {
		err := newApp().Run([]string{"winesearch", "bench", "concurrent", "--search", "vector", "--queries-dir", dir})
		require.Error(t, err)
		assert.ErrorIs(t, err, dataset.ErrInvalidTermsFile)
	})

	t.Run("query needs both terms files", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "keyword_terms.txt"), []byte("merlot\n"), 0o644))
		err := newApp().Run([]string{"winesearch", "query", "--queries-dir", dir})
		require.Error(t, err)
		assert.ErrorIs(t, err, dataset.ErrInvalidTermsFile)
	})
}
