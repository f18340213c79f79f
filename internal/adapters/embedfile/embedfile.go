// Package embedfile reads 2D embedding point files: one "x y" pair per line,
// separated by whitespace, tabs or a comma. Blank lines are skipped.
package embedfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// Ext is the extension embedding files are listed by.
const Ext = ".tsv"

// Read parses points from r.
func Read(r io.Reader) ([]mgl64.Vec2, error) {
	var points []mgl64.Vec2
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.FieldsFunc(sc.Text(), isSeparator)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: line %d: want 2 values, got %d", ErrMalformed, line, len(fields))
		}
		var p mgl64.Vec2
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %q is not a number", ErrMalformed, line, f)
			}
			p[i] = v
		}
		points = append(points, p)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read embedding: %w", err)
	}
	return points, nil
}

// Load parses the embedding file at path.
func Load(path string) ([]mgl64.Vec2, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open embedding: %w", err)
	}
	defer f.Close()

	points, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return points, nil
}

// List returns the embedding files in dir, sorted by name.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list embeddings: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), Ext) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func isSeparator(r rune) bool {
	return r == ' ' || r == '\t' || r == ',' || r == '\r'
}
