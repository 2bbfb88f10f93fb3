package scanner

import (
	"context"
	"os"
	"path/filepath"
	"regexp"

	"github.com/viant/afs"
	"golang.org/x/mod/modfile"
)

// Project describes the workspace a scan is rooted in.
type Project struct {
	Name     string
	Type     string
	RootPath string
}

// rootMarkers maps marker files to project types, in probe order.
var rootMarkers = []struct {
	file string
	kind string
}{
	{"package.json", "javascript"},
	{"pyproject.toml", "python"},
	{"requirements.txt", "python"},
	{"go.mod", "go"},
	{"Cargo.toml", "rust"},
	{".git", "git"},
}

// DetectProject walks up from path to the nearest directory carrying a
// project marker. With no marker found, the starting directory itself is the
// workspace.
func DetectProject(path string) (*Project, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	dir := absPath
	if info, err := os.Stat(absPath); err != nil {
		return nil, err
	} else if !info.IsDir() {
		dir = filepath.Dir(absPath)
	}

	for {
		for _, marker := range rootMarkers {
			if _, err := os.Stat(filepath.Join(dir, marker.file)); err == nil {
				return &Project{
					Name:     projectName(dir, marker.kind),
					Type:     marker.kind,
					RootPath: dir,
				}, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return &Project{Name: filepath.Base(absPath), Type: "unknown", RootPath: absPath}, nil
}

var packageNameRe = regexp.MustCompile(`"name"\s*:\s*"([^"]+)"`)
var pyProjectNameRe = regexp.MustCompile(`(?m)^name\s*=\s*["']([^"']+)["']`)

func projectName(rootPath, kind string) string {
	switch kind {
	case "go":
		return goModuleName(filepath.Join(rootPath, "go.mod"))
	case "javascript":
		if data, err := os.ReadFile(filepath.Join(rootPath, "package.json")); err == nil {
			if m := packageNameRe.FindSubmatch(data); len(m) == 2 {
				return string(m[1])
			}
		}
	case "python":
		if data, err := os.ReadFile(filepath.Join(rootPath, "pyproject.toml")); err == nil {
			if m := pyProjectNameRe.FindSubmatch(data); len(m) == 2 {
				return string(m[1])
			}
		}
	}
	return filepath.Base(rootPath)
}

func goModuleName(goModPath string) string {
	fs := afs.New()
	content, err := fs.DownloadWithURL(context.Background(), goModPath)
	if err != nil || len(content) == 0 {
		return filepath.Base(filepath.Dir(goModPath))
	}
	mod, err := modfile.Parse(goModPath, content, nil)
	if err != nil || mod.Module == nil {
		return filepath.Base(filepath.Dir(goModPath))
	}
	return mod.Module.Mod.Path
}
