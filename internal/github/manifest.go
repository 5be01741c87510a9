package github

import (
	"encoding/json"
	"strings"
)

// Well-known manifest paths probed during profiling, mapped to the
// ecosystem label their dependencies are recorded under.
var manifestPaths = []struct {
	path      string
	ecosystem string
	parse     func(string) map[string]string
}{
	{path: "package.json", ecosystem: "node", parse: parsePackageJSON},
	{path: "requirements.txt", ecosystem: "python", parse: parseRequirements},
}

type packageJSON struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// parsePackageJSON merges dependencies and devDependencies into one mapping.
// Unparseable content yields nil; the caller skips the ecosystem.
func parsePackageJSON(content string) map[string]string {
	var manifest packageJSON
	if err := json.Unmarshal([]byte(content), &manifest); err != nil {
		return nil
	}

	if len(manifest.Dependencies) == 0 && len(manifest.DevDependencies) == 0 {
		return nil
	}

	deps := make(map[string]string, len(manifest.Dependencies)+len(manifest.DevDependencies))
	for name, version := range manifest.Dependencies {
		deps[name] = version
	}
	for name, version := range manifest.DevDependencies {
		deps[name] = version
	}
	return deps
}

// parseRequirements reads a pip requirements list leniently: blank lines and
// comments are skipped, pins split on "==", unpinned entries get "latest".
func parseRequirements(content string) map[string]string {
	deps := make(map[string]string)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "==", 2)
		if len(parts) == 2 {
			deps[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		} else {
			deps[line] = "latest"
		}
	}

	if len(deps) == 0 {
		return nil
	}
	return deps
}
