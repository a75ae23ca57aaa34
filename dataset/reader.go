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
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/poiesic/winesearch/core"
)

// DefaultFilename is the wine reviews dataset shipped with the project.
const DefaultFilename = "winemag-data-130k-v2.jsonl.gz"

const maxLineSize = 1 << 20

// File is an open dataset file. Gzip-compressed files are decompressed
// transparently.
type File struct {
	path string
	f    *os.File
	gz   *gzip.Reader
	r    io.Reader
}

// Open opens dir/filename. Files ending in .gz are read through gzip.
func Open(dir, filename string) (*File, error) {
	path := filepath.Join(dir, filename)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("%w in %q: %s", ErrFileNotFound, dir, filename)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	file := &File{path: path, f: f, r: f}
	if strings.HasSuffix(filename, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: %s: %w", ErrMalformedLine, path, err)
		}
		file.gz = gz
		file.r = gz
	}
	return file, nil
}

// Read implements io.Reader over the decompressed content.
func (f *File) Read(p []byte) (int, error) {
	return f.r.Read(p)
}

// Path returns the file path.
func (f *File) Path() string {
	return f.path
}

// Close closes the file.
func (f *File) Close() error {
	if f.gz != nil {
		f.gz.Close()
	}
	return f.f.Close()
}

// ReadAll decodes up to limit JSON lines from r. A limit of zero or less reads
// every line. Blank lines are skipped.
func ReadAll(r io.Reader, limit int) ([]core.RawWine, error) {
	var wines []core.RawWine
	err := Scan(r, limit, func(_ int, raw core.RawWine) error {
		wines = append(wines, raw)
		return nil
	})
	return wines, err
}

// Scan decodes JSON lines from r and calls fn with the 1-based line number
// of each record. It stops after limit records when limit is positive.
func Scan(r io.Reader, limit int, fn func(line int, raw core.RawWine) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	line, count := 0, 0
	for scanner.Scan() {
		line++
		data := scanner.Bytes()
		if len(strings.TrimSpace(string(data))) == 0 {
			continue
		}
		var raw core.RawWine
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("%w: line %d: %w", ErrMalformedLine, line, err)
		}
		if err := fn(line, raw); err != nil {
			return err
		}
		count++
		if limit > 0 && count >= limit {
			return nil
		}
	}
	return scanner.Err()
}
