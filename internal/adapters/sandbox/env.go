package sandbox

import (
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
)

// Variables exported to every sandbox command.
const (
	EnvRoot    = "KEEL_ROOT"
	EnvBuild   = "KEEL_BUILD_DIR"
	EnvInstall = "KEEL_INSTALL_DIR"
	EnvElement = "KEEL_ELEMENT"
)

// allowListedEnvVars are the host variables a build inherits. Everything else
// comes from the element so builds stay reproducible.
var allowListedEnvVars = map[string]struct{}{
	"HOME": {},
	"TERM": {},
	"USER": {},
	"PATH": {},
}

// resolveEnvironment merges the allow-listed host variables, the sandbox
// variables and the element environment, in increasing priority. A PATH set
// by the element is prepended to the host PATH.
func resolveEnvironment(sysEnv []string, sandboxEnv, elementEnv map[string]string) []string {
	envMap := filterSystemEnv(sysEnv)
	for k, v := range sandboxEnv {
		envMap[k] = v
	}
	for k, v := range elementEnv {
		if k == "PATH" {
			if sysPath := envMap["PATH"]; sysPath != "" {
				v = v + string(os.PathListSeparator) + sysPath
			}
		}
		envMap[k] = v
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	slices.Sort(result)
	return result
}

func filterSystemEnv(sysEnv []string) map[string]string {
	envMap := make(map[string]string)
	for _, entry := range sysEnv {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if _, allowed := allowListedEnvVars[k]; allowed {
			envMap[k] = v
		}
	}
	return envMap
}

// lookPath searches the PATH of env rather than the PATH of this process.
func lookPath(file string, env []string) (string, error) {
	if filepath.IsAbs(file) {
		return file, findExecutable(file)
	}

	var path string
	for _, e := range env {
		if p, ok := strings.CutPrefix(e, "PATH="); ok {
			path = p
			break
		}
	}
	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
