package sandbox

var (
	ResolveEnvironment = resolveEnvironment
	LookPath           = lookPath
)

// SetEnviron replaces the host environment the sandbox inherits from.
func (s *Sandbox) SetEnviron(env []string) {
	s.environ = func() []string { return env }
}
