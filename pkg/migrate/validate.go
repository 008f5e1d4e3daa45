package migrate

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
)

var migrationName = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// ValidateDir checks the migrations on disk, e.g. before committing a new one.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	return ValidateFS(os.DirFS(dir))
}

// ValidateFS requires timestamped, unique filenames and an Up annotation
// followed by a Down annotation in every .sql file.
func ValidateFS(fsys fs.FS) error {
	if _, err := fs.ReadDir(fsys, "."); err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	files, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return err
	}

	versions := make(map[string]string, len(files))
	for _, name := range files {
		m := migrationName.FindStringSubmatch(name)
		if m == nil {
			return fmt.Errorf("%s: expected YYYYMMDDHHMMSS_name.sql", name)
		}
		if other, dup := versions[m[1]]; dup {
			return fmt.Errorf("version %s used by both %s and %s", m[1], other, name)
		}
		versions[m[1]] = name

		if err := checkAnnotations(fsys, name); err != nil {
			return err
		}
	}
	return nil
}

func checkAnnotations(fsys fs.FS, name string) error {
	f, err := fsys.Open(name)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	var up, down bool
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		switch strings.TrimSpace(scanner.Text()) {
		case "-- +goose Up":
			up = true
		case "-- +goose Down":
			down = up
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if !up {
		return fmt.Errorf("%s: missing -- +goose Up", name)
	}
	if !down {
		return fmt.Errorf("%s: missing -- +goose Down", name)
	}
	return nil
}
