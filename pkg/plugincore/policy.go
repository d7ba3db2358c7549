package plugincore

import (
	"path/filepath"
	"strings"
	"sync"
)

// PathPolicy decides whether a plugin path may be loaded.
type PathPolicy func(path string) bool

// Guard holds the active PathPolicy. The zero value allows every path.
type Guard struct {
	mu     sync.RWMutex
	policy PathPolicy
}

// SetPolicy installs p; nil removes any restriction.
func (g *Guard) SetPolicy(p PathPolicy) {
	g.mu.Lock()
	g.policy = p
	g.mu.Unlock()
}

// Allowed evaluates the active policy for path.
func (g *Guard) Allowed(path string) bool {
	g.mu.RLock()
	p := g.policy
	g.mu.RUnlock()

	if p == nil {
		return true
	}

	return p(path)
}

// RootPolicy allows root itself and anything below it. Both root and path are
// cleaned first, so dot-dot elements cannot climb out of root and a trailing
// separator on root is ignored. A root of /a/b does not match /a/bc. An empty
// root denies every path.
func RootPolicy(root string) PathPolicy {
	if root == "" {
		return func(string) bool { return false }
	}
	root = filepath.Clean(root)

	return func(path string) bool {
		if path == "" {
			return false
		}
		path = filepath.Clean(path)
		if path == root {
			return true
		}
		if !strings.HasPrefix(path, root) {
			return false
		}
		if isSeparator(root[len(root)-1]) {
			return true
		}

		return isSeparator(path[len(root)])
	}
}

func isSeparator(c byte) bool {
	return c == '/' || c == '\\'
}
