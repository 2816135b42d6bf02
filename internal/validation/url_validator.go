// Package validation guards the one untrusted boundary a scenario file
// crosses into the rest of the system: the base_url and headers an
// operator writes into YAML become the actual destination and request
// shape thousands of virtual users will hammer, so a typo or a
// copy-pasted internal address deserves a validation error, not a
// run that quietly floods a service the operator never meant to
// target.
package validation

import (
	"errors"
	"net"
	"net/url"
	"strings"
)

var (
	ErrInvalidURL          = errors.New("invalid URL format")
	ErrUnsupportedScheme   = errors.New("unsupported URL scheme, only http and https are allowed")
	ErrPrivateIPNotAllowed = errors.New("target resolves to a private/internal IP address; set allow_localhost to target it intentionally")
	ErrLocalhostNotAllowed = errors.New("localhost targets are not allowed unless allow_localhost is set")
	ErrInvalidHost         = errors.New("invalid or empty host")
	ErrMetadataEndpoint    = errors.New("target is a cloud instance-metadata endpoint, which cannot be load tested")
)

// cloudMetadataHosts are the well-known instance-metadata endpoints
// across AWS/GCP/Azure/DigitalOcean. They resolve to ordinary-looking
// link-local or private addresses, so a scenario author could point a
// run at one by accident (or malice) even with private IPs otherwise
// disallowed; they're never a legitimate load-test target.
var cloudMetadataHosts = map[string]struct{}{
	"169.254.169.254":          {},
	"metadata.google.internal": {},
	"metadata.goog":            {},
}

// URLValidator validates a scenario's target URL before any virtual
// user is allowed to issue requests against it.
type URLValidator struct {
	allowPrivateIPs bool
	allowLocalhost  bool
	allowedSchemes  []string
}

// NewURLValidator creates a validator with production defaults: no
// private IPs, no localhost, http/https only.
func NewURLValidator() *URLValidator {
	return &URLValidator{
		allowPrivateIPs: false,
		allowLocalhost:  false,
		allowedSchemes:  []string{"http", "https"},
	}
}

// NewURLValidatorDev creates a validator for local scenario
// development, where targeting a service on localhost is the point.
func NewURLValidatorDev() *URLValidator {
	return &URLValidator{
		allowPrivateIPs: true,
		allowLocalhost:  true,
		allowedSchemes:  []string{"http", "https"},
	}
}

// WithAllowPrivateIPs allows or disallows private/internal IP targets.
func (v *URLValidator) WithAllowPrivateIPs(allow bool) *URLValidator {
	v.allowPrivateIPs = allow
	return v
}

// WithAllowLocalhost allows or disallows localhost targets.
func (v *URLValidator) WithAllowLocalhost(allow bool) *URLValidator {
	v.allowLocalhost = allow
	return v
}

// WithAllowedSchemes overrides the default http/https scheme allow-list.
func (v *URLValidator) WithAllowedSchemes(schemes []string) *URLValidator {
	v.allowedSchemes = schemes
	return v
}

// ValidateURL checks a scenario's base_url against the scheme,
// localhost, private-IP, and cloud-metadata rules this validator was
// configured with, and returns the parsed URL on success.
func (v *URLValidator) ValidateURL(rawURL string) (*url.URL, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, ErrInvalidURL
	}
	if strings.ContainsAny(rawURL, "\x00\r\n") {
		return nil, ErrInvalidURL
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, ErrInvalidURL
	}

	if !v.isSchemeAllowed(parsedURL.Scheme) {
		return nil, ErrUnsupportedScheme
	}

	host := parsedURL.Hostname()
	if host == "" {
		return nil, ErrInvalidHost
	}

	if _, blocked := cloudMetadataHosts[strings.ToLower(host)]; blocked {
		return nil, ErrMetadataEndpoint
	}

	if isLocalhost(host) && !v.allowLocalhost {
		return nil, ErrLocalhostNotAllowed
	}

	if ip := net.ParseIP(host); ip != nil {
		if _, blocked := cloudMetadataHosts[ip.String()]; blocked {
			return nil, ErrMetadataEndpoint
		}
		if isPrivateIP(ip) && !v.allowPrivateIPs {
			return nil, ErrPrivateIPNotAllowed
		}
	} else if !v.allowPrivateIPs {
		// A hostname can still resolve to a private address (an
		// internal DNS entry, or an operator's /etc/hosts override);
		// catch that before the first virtual user ever dials it.
		addrs, err := net.LookupHost(host)
		if err == nil {
			for _, addr := range addrs {
				if resolved := net.ParseIP(addr); resolved != nil && isPrivateIP(resolved) {
					return nil, ErrPrivateIPNotAllowed
				}
			}
		}
	}

	return parsedURL, nil
}

// ValidateURLs validates every URL in urls, partitioning them into the
// ones that passed and the errors collected along the way.
func (v *URLValidator) ValidateURLs(urls []string) ([]*url.URL, []error) {
	validURLs := make([]*url.URL, 0, len(urls))
	errs := make([]error, 0)

	for _, rawURL := range urls {
		parsedURL, err := v.ValidateURL(rawURL)
		if err != nil {
			errs = append(errs, err)
		} else {
			validURLs = append(validURLs, parsedURL)
		}
	}

	return validURLs, errs
}

func (v *URLValidator) isSchemeAllowed(scheme string) bool {
	scheme = strings.ToLower(scheme)
	for _, allowed := range v.allowedSchemes {
		if scheme == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

func isLocalhost(host string) bool {
	host = strings.ToLower(host)
	return host == "localhost" ||
		host == "127.0.0.1" ||
		host == "::1" ||
		host == "[::1]"
}

// isPrivateIP reports whether ip falls in RFC 1918 / link-local /
// loopback space, none of which should be reachable from wherever
// LoadForge's fleet runs unless the operator opted in explicitly.
func isPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return true
	}

	if ip4 := ip.To4(); ip4 != nil {
		// 169.254.0.0/16: IsLinkLocalUnicast already covers this, kept
		// explicit since it's also the cloud metadata range.
		if ip4[0] == 169 && ip4[1] == 254 {
			return true
		}
	}

	return false
}

// SanitizeHeader strips CRLF from a header key or value so a scenario
// file can't smuggle an extra header or split the response into the
// request a virtual user sends.
func SanitizeHeader(value string) string {
	value = strings.ReplaceAll(value, "\r", "")
	value = strings.ReplaceAll(value, "\n", "")
	return strings.TrimSpace(value)
}

// SanitizeHeaders applies SanitizeHeader to every key and value in
// headers, dropping any entry whose key sanitizes to empty.
func SanitizeHeaders(headers map[string]string) map[string]string {
	sanitized := make(map[string]string, len(headers))
	for key, value := range headers {
		sanitizedKey := SanitizeHeader(key)
		sanitizedValue := SanitizeHeader(value)
		if sanitizedKey != "" {
			sanitized[sanitizedKey] = sanitizedValue
		}
	}
	return sanitized
}

// ValidateScenarioName checks that a scenario or run name is non-empty,
// at most 200 characters, and uses only letters, digits, space, '-',
// '_' and '.'.
func ValidateScenarioName(name string) error {
	if name == "" {
		return errors.New("scenario name cannot be empty")
	}
	if len(name) > 200 {
		return errors.New("scenario name too long (max 200 characters)")
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == ' ' || r == '-' || r == '_' || r == '.':
		default:
			return errors.New("scenario name contains invalid characters")
		}
	}
	return nil
}

// ValidateRequestBody rejects a request body longer than maxSize bytes.
// Scenario loading does not call it.
func ValidateRequestBody(body string, maxSize int) error {
	if len(body) > maxSize {
		return errors.New("request body exceeds maximum size")
	}
	return nil
}
