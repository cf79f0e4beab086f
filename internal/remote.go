package internal

import (
	"fmt"
	"net/url"
	"regexp"
)

// AllowedRemoteHosts is the set of forges a store may publish to.
var AllowedRemoteHosts = map[string]bool{
	"github.com":   true,
	"gitlab.com":   true,
	"codeberg.org": true,
}

var remotePathPattern = regexp.MustCompile(`^/[A-Za-z0-9._-]+/[A-Za-z0-9._-]+(\.git)?$`)

// ValidateRemote checks that raw is a well-formed remote reference: a
// secure scheme, an allow-listed host, and an owner/repo[.git] path.
// Anything else never reaches the version-control layer.
func ValidateRemote(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: empty", ErrInvalidRemote)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRemote, err)
	}
	if u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q is not https", ErrInvalidRemote, u.Scheme)
	}
	if !AllowedRemoteHosts[u.Hostname()] {
		return fmt.Errorf("%w: host %q is not allow-listed", ErrInvalidRemote, u.Hostname())
	}
	if !remotePathPattern.MatchString(u.Path) {
		return fmt.Errorf("%w: path %q is not owner/repo", ErrInvalidRemote, u.Path)
	}

	return nil
}
