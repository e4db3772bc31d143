package publish

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

type WriteOptions struct {
	Overwrite bool
}

type WriteResult struct {
	Written []string `json:"written"`
}

// WriteDaily writes <day>.md and <day>-timesheet.csv into toDir.
func WriteDaily(d Daily, toDir string, opt WriteOptions) (WriteResult, error) {
	toDir = strings.TrimSpace(toDir)
	if toDir == "" {
		return WriteResult{}, errors.New("missing --to")
	}
	if strings.TrimSpace(d.Day) == "" {
		return WriteResult{}, errors.New("missing report day")
	}
	toDir = filepath.Clean(toDir)
	if err := os.MkdirAll(toDir, 0o755); err != nil {
		return WriteResult{}, err
	}

	mdPath := filepath.Join(toDir, d.Day+".md")
	if err := writeFile(mdPath, []byte(RenderDailyMarkdown(d)), opt.Overwrite); err != nil {
		return WriteResult{}, err
	}
	csvPath := filepath.Join(toDir, d.Day+"-timesheet.csv")
	if err := writeFile(csvPath, []byte(d.Timesheet.CSV()), opt.Overwrite); err != nil {
		return WriteResult{}, err
	}
	return WriteResult{Written: []string{mdPath, csvPath}}, nil
}

func writeFile(path string, b []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.New("file exists (use --overwrite): " + path)
		}
	}
	return os.WriteFile(path, b, 0o644)
}
