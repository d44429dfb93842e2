package pipeline

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rasterandstate/majestic-canon/internal/edition"
)

// CollectFiles expands directories in paths to the .json files beneath them,
// sorted. Plain file arguments are kept as given.
func CollectFiles(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		var found []string
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".json") {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", p, err)
		}
		sort.Strings(found)
		out = append(out, found...)
	}
	return out, nil
}

// ReadInputs decodes each file. Read and decode failures are carried on the
// input rather than aborting the batch.
func ReadInputs(files []string) []Input {
	inputs := make([]Input, 0, len(files))
	for _, path := range files {
		in := Input{Record: path}
		data, err := os.ReadFile(path)
		if err != nil {
			in.Err = fmt.Errorf("read record: %w", err)
		} else if in.Edition, err = edition.Decode(data); err != nil {
			in.Err = err
		}
		inputs = append(inputs, in)
	}
	return inputs
}
