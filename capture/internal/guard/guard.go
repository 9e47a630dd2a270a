// Package guard provides the safety checks for capture inputs: URL
// validation with SSRF prevention, and path traversal guards for
// artifact file names.
package guard

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"strings"
)

// ErrSchemeNotAllowed is returned when a URL uses a non-HTTP(S) scheme.
var ErrSchemeNotAllowed = errors.New("guard: only http and https schemes are allowed")

// ErrPrivateAddress is returned when a URL targets a private, loopback,
// or link-local address and private targets are not allowed.
var ErrPrivateAddress = errors.New("guard: URL targets a private or loopback address")

// ErrNoHost is returned when a URL has no hostname.
var ErrNoHost = errors.New("guard: URL has no host")

// ErrUserinfo is returned when a URL carries credentials.
var ErrUserinfo = errors.New("guard: URL must not contain userinfo")

// ErrUnsafePath is returned when a file name escapes its base directory.
var ErrUnsafePath = errors.New("guard: path traversal detected")

// ValidateURL checks that rawURL uses http/https, carries no credentials,
// has a hostname, and does not resolve to a private or loopback IP.
// allowPrivate skips the address check for captures of local dev servers.
// DNS resolution is performed to catch internal hostnames; a DNS failure
// lets the URL through, since the navigation will fail on its own anyway.
func ValidateURL(rawURL string, allowPrivate bool) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("guard: invalid URL: %w", err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return ErrSchemeNotAllowed
	}
	if u.User != nil {
		return ErrUserinfo
	}
	host := u.Hostname()
	if host == "" {
		return ErrNoHost
	}
	if allowPrivate {
		return nil
	}

	// Check literal IP first.
	if ip := net.ParseIP(host); ip != nil {
		if isPrivateIP(ip) {
			return ErrPrivateAddress
		}
		return nil
	}

	addrs, err := net.LookupHost(host)
	if err != nil {
		return nil
	}
	for _, a := range addrs {
		if ip := net.ParseIP(a); ip != nil && isPrivateIP(ip) {
			return ErrPrivateAddress
		}
	}
	return nil
}

// SafePath validates that joining base and name does not escape base.
// Returns the cleaned absolute path or ErrUnsafePath.
func SafePath(base, name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrUnsafePath
	}
	cleaned := filepath.Join(base, filepath.Clean("/"+name))
	if !strings.HasPrefix(cleaned, filepath.Clean(base)+string(filepath.Separator)) &&
		cleaned != filepath.Clean(base) {
		return "", ErrUnsafePath
	}
	return cleaned, nil
}

func isPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsUnspecified() {
		return true
	}
	if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return true
	}
	privateRanges := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"fc00::/7",
		"169.254.0.0/16",
		"::1/128",
	}
	for _, pr := range privateRanges {
		_, cidr, err := net.ParseCIDR(pr)
		if err != nil {
			continue
		}
		if cidr.Contains(ip) {
			return true
		}
	}
	return false
}
