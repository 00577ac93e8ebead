package data

import (
	"fmt"
	"strings"

	"github.com/agentstation/dsplugin/pkg/errors"
)

// Scope is the first segment of a live channel address.
type Scope string

// Channel scopes.
const (
	ScopeDatasource Scope = "ds"
	ScopePlugin     Scope = "plugin"
	ScopeGrafana    Scope = "grafana"
	ScopeStream     Scope = "stream"
)

// Channel is a live channel address: scope/namespace/path.
type Channel struct {
	Scope     Scope
	Namespace string
	Path      string
}

// DatasourceChannel returns the channel ds/<uid>/<path>.
func DatasourceChannel(uid, path string) Channel {
	return Channel{Scope: ScopeDatasource, Namespace: uid, Path: path}
}

// String formats the channel as scope/namespace/path.
func (c Channel) String() string {
	return fmt.Sprintf("%s/%s/%s", c.Scope, c.Namespace, c.Path)
}

// ParseChannel parses scope/namespace/path. The path may contain slashes.
func ParseChannel(s string) (Channel, error) {
	parts := strings.SplitN(s, "/", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Channel{}, errors.NewValidationError("channel", s, "expected scope/namespace/path")
	}
	scope := Scope(parts[0])
	switch scope {
	case ScopeDatasource, ScopePlugin, ScopeGrafana, ScopeStream:
	default:
		return Channel{}, errors.NewValidationError("channel", s, fmt.Sprintf("unknown scope %q", parts[0]))
	}
	return Channel{Scope: scope, Namespace: parts[1], Path: parts[2]}, nil
}
