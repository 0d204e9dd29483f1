package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"kanaset/internal/domain"
)

// Discover lists the source files in dir whose names start with prefix,
// sorted lexicographically by name. Class ids depend on this order.
func Discover(dir, prefix string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &domain.MissingCorpusError{Dir: dir, Reason: "directory does not exist"}
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, &domain.MissingCorpusError{Dir: dir, Reason: "not a directory"}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		reason := "directory is empty"
		if len(entries) > 0 {
			reason = fmt.Sprintf("no files matching %q", prefix+"*")
		}
		return nil, &domain.MissingCorpusError{Dir: dir, Reason: reason}
	}
	sort.Strings(names)
	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(dir, n)
	}
	return paths, nil
}

// MissingETL9G returns the names in ETL9G_33..ETL9G_50 (the sheets that
// carry kana) that are absent from paths.
func MissingETL9G(paths []string) []string {
	have := make(map[string]bool, len(paths))
	for _, p := range paths {
		have[filepath.Base(p)] = true
	}
	var missing []string
	for i := 33; i <= 50; i++ {
		name := fmt.Sprintf("ETL9G_%02d", i)
		if !have[name] {
			missing = append(missing, name)
		}
	}
	return missing
}
