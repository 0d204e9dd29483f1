package charmap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"unicode/utf8"

	"kanaset/internal/fsutil"
)

const (
	ForwardFile = "character_map.json"
	ReverseFile = "reverse_character_map.json"
)

// Map is a finished id<->character table. Chars[id] is the character of id.
type Map struct {
	Chars []rune
}

func (m *Map) Len() int { return len(m.Chars) }

// Lookup returns the id of ch.
func (m *Map) Lookup(ch rune) (int, bool) {
	for id, c := range m.Chars {
		if c == ch {
			return id, true
		}
	}
	return 0, false
}

// Save writes both map files into dir, each atomically.
func Save(dir string, m *Map) error {
	fwd, rev, err := encode(m)
	if err != nil {
		return err
	}
	files := []struct {
		name string
		data []byte
	}{{ForwardFile, fwd}, {ReverseFile, rev}}
	for _, f := range files {
		err := fsutil.WriteAtomic(filepath.Join(dir, f.name), 0o644, func(w io.Writer) error {
			_, err := w.Write(f.data)
			return err
		})
		if err != nil {
			return fmt.Errorf("write %s: %w", f.name, err)
		}
	}
	return nil
}

// encode renders both files with keys in id order, UTF-8 unescaped.
// A character may appear only once.
func encode(m *Map) ([]byte, []byte, error) {
	var fwd, rev bytes.Buffer
	fwd.WriteString("{")
	rev.WriteString("{")
	seen := make(map[rune]int, len(m.Chars))
	for id, ch := range m.Chars {
		if prev, ok := seen[ch]; ok {
			return nil, nil, fmt.Errorf("character %q mapped to both %d and %d", ch, prev, id)
		}
		seen[ch] = id
		s, err := marshalString(string(ch))
		if err != nil {
			return nil, nil, err
		}
		sep := ","
		if id == 0 {
			sep = ""
		}
		fmt.Fprintf(&fwd, "%s\n  %q: %s", sep, strconv.Itoa(id), s)
		fmt.Fprintf(&rev, "%s\n  %s: %d", sep, s, id)
	}
	if len(m.Chars) > 0 {
		fwd.WriteString("\n")
		rev.WriteString("\n")
	}
	fwd.WriteString("}\n")
	rev.WriteString("}\n")
	return fwd.Bytes(), rev.Bytes(), nil
}

func marshalString(s string) (string, error) {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(b.Bytes(), "\n")), nil
}

// Load reads both files from dir and checks that they are exact inverses
// with ids 0..n-1.
func Load(dir string) (*Map, error) {
	var fwd map[string]string
	var rev map[string]int
	if err := readJSON(filepath.Join(dir, ForwardFile), &fwd); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, ReverseFile), &rev); err != nil {
		return nil, err
	}
	if len(fwd) != len(rev) {
		return nil, fmt.Errorf("character maps disagree: %d ids, %d characters", len(fwd), len(rev))
	}
	m := &Map{Chars: make([]rune, len(fwd))}
	seen := make([]bool, len(fwd))
	for k, s := range fwd {
		id, err := strconv.Atoi(k)
		if err != nil || id < 0 || id >= len(fwd) || seen[id] {
			return nil, fmt.Errorf("character map has invalid id %q", k)
		}
		ch, size := utf8.DecodeRuneInString(s)
		if ch == utf8.RuneError || size != len(s) {
			return nil, fmt.Errorf("character map id %d is not a single character: %q", id, s)
		}
		if back, ok := rev[s]; !ok || back != id {
			return nil, fmt.Errorf("character maps disagree on %q", s)
		}
		seen[id] = true
		m.Chars[id] = ch
	}
	return m, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
