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


package dataset

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/winesearch/core"
)

const sampleLines = `{"id": 0, "points": 87, "title": "Nicosia 2013 Vulkà Bianco  (Etna)", "variety": "White Blend", "country": "Italy"}
{"id": 1, "points": 87, "title": "Quinta dos Avidagos 2011 Avidagos Red (Douro)", "price": 15.0, "country": "Portugal"}

{"id": 2, "points": 87, "title": "Rainstorm 2013 Pinot Gris (Willamette Valley)", "price": 14.0, "country": "US"}
`

func writeGzip(t *testing.T, path, content string) {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	t.Run("gzip file", func(t *testing.T) {
		writeGzip(t, filepath.Join(dir, DefaultFilename), sampleLines)
		f, err := Open(dir, DefaultFilename)
		require.NoError(t, err)
		defer f.Close()

		wines, err := ReadAll(f, 0)
		require.NoError(t, err)
		require.Len(t, wines, 3)
		assert.Equal(t, int64(2), *wines[2].ID)
	})

	t.Run("plain jsonl", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "wines.jsonl"), []byte(sampleLines), 0o644))
		f, err := Open(dir, "wines.jsonl")
		require.NoError(t, err)
		defer f.Close()

		wines, err := ReadAll(f, 2)
		require.NoError(t, err)
		assert.Len(t, wines, 2)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Open(dir, "missing.jsonl.gz")
		assert.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("corrupt gzip", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.jsonl.gz"), []byte("not gzip"), 0o644))
		_, err := Open(dir, "bad.jsonl.gz")
		assert.Error(t, err)
	})
}

func TestScan(t *testing.T) {
	t.Run("line numbers skip blanks", func(t *testing.T) {
		var lines []int
		err := Scan(strings.NewReader(sampleLines), 0, func(line int, raw core.RawWine) error {
			lines = append(lines, line)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 4}, lines)
	})

	t.Run("malformed line", func(t *testing.T) {
		_, err := ReadAll(strings.NewReader("{\"id\": 1}\n{oops\n"), 0)
		assert.ErrorIs(t, err, ErrMalformedLine)
		assert.Contains(t, err.Error(), "line 2")
	})

	t.Run("decoded records validate", func(t *testing.T) {
		wines, err := ReadAll(strings.NewReader(sampleLines), 1)
		require.NoError(t, err)
		w, err := core.ValidateWine(&wines[0])
		require.NoError(t, err)
		assert.Equal(t, "White Blend Nicosia 2013 Vulkà Bianco  (Etna)", w.ToVectorize)
	})
}

func TestReadQueryTerms(t *testing.T) {
	dir := t.TempDir()

	t.Run("trims and drops blank lines", func(t *testing.T) {
		path := filepath.Join(dir, KeywordTermsFile)
		require.NoError(t, os.WriteFile(path, []byte("  tuscan red \n\nsparkling rose\n"), 0o644))
		terms, err := ReadQueryTerms(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"tuscan red", "sparkling rose"}, terms)
	})

	t.Run("wrong extension", func(t *testing.T) {
		_, err := ReadQueryTerms(filepath.Join(dir, "terms.csv"))
		assert.ErrorIs(t, err, ErrInvalidTermsFile)
	})

	t.Run("empty file", func(t *testing.T) {
		path := filepath.Join(dir, "empty.txt")
		require.NoError(t, os.WriteFile(path, []byte("\n  \n"), 0o644))
		_, err := ReadQueryTerms(path)
		assert.ErrorIs(t, err, ErrInvalidTermsFile)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ReadQueryTerms(filepath.Join(dir, "nope.txt"))
		assert.ErrorIs(t, err, ErrInvalidTermsFile)
	})
}
