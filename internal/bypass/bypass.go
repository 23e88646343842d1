// Package bypass evaluates system proxy bypass lists.
package bypass

import (
	"net"
	"net/netip"
	"strings"
)

// LocalToken is the Windows entry matching host names without a dot.
const LocalToken = "<local>"

// List is a parsed bypass list. The zero value matches nothing.
type List struct {
	entries  []string
	domains  []domainPattern
	prefixes []netip.Prefix
	all      bool
	local    bool
}

type domainPattern struct {
	labels   []string
	wildcard bool // "*.example.com", subdomains only
	suffix   bool // ".example.com", the domain and its subdomains
	glob     bool // a label contains '*', e.g. "sf-*.example.com"
	open     bool // last label is '*', e.g. "10.*" or "192.168.*"
}

// Parse parses a bypass list. Entries are separated by commas or semicolons,
// so both the gsettings/networksetup form and the Windows ProxyOverride form
// are accepted. Entries may be host patterns, IP addresses, CIDR prefixes,
// "*" or "<local>".
func Parse(list string) *List {
	l := &List{}
	fields := strings.FieldsFunc(list, func(r rune) bool { return r == ',' || r == ';' })
	for _, f := range fields {
		l.add(f)
	}
	return l
}

func (l *List) add(entry string) {
	entry = strings.ToLower(strings.TrimSpace(entry))
	entry = strings.Trim(entry, `'"`)
	if entry == "" {
		return
	}
	l.entries = append(l.entries, entry)

	switch {
	case entry == "*":
		l.all = true
		return
	case entry == LocalToken:
		l.local = true
		return
	}

	if prefix, err := netip.ParsePrefix(entry); err == nil {
		l.prefixes = append(l.prefixes, prefix.Masked())
		return
	}
	if addr, err := netip.ParseAddr(strings.Trim(entry, "[]")); err == nil {
		addr = addr.Unmap()
		l.prefixes = append(l.prefixes, netip.PrefixFrom(addr, addr.BitLen()))
		return
	}

	var pat domainPattern
	switch {
	case strings.HasPrefix(entry, "*."):
		pat.wildcard = true
		entry = entry[2:]
	case strings.HasPrefix(entry, "."):
		pat.suffix = true
		entry = entry[1:]
	}
	pat.labels = strings.Split(entry, ".")
	pat.glob = strings.Contains(entry, "*")
	pat.open = !pat.wildcard && !pat.suffix && len(pat.labels) > 1 && pat.labels[len(pat.labels)-1] == "*"
	l.domains = append(l.domains, pat)
}

// Entries returns the normalized entries in list order.
func (l *List) Entries() []string {
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *List) Len() int {
	return len(l.entries)
}

// Match reports whether host, optionally with a port, bypasses the proxy.
func (l *List) Match(host string) bool {
	host = normalizeHost(host)
	if host == "" {
		return false
	}
	if l.all {
		return true
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		addr = addr.Unmap()
		for _, p := range l.prefixes {
			if p.Contains(addr) {
				return true
			}
		}
		if !addr.Is4() {
			return false
		}
		// Dotted IPv4 hosts still match label patterns such as "10.*".
		host = addr.String()
	}

	if l.local && !strings.Contains(host, ".") {
		return true
	}

	labels := strings.Split(host, ".")
	for _, pat := range l.domains {
		if pat.match(labels) {
			return true
		}
	}
	return false
}

func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	return strings.TrimSuffix(host, ".")
}

func (p domainPattern) match(labels []string) bool {
	switch {
	case p.suffix:
		return len(labels) >= len(p.labels) && p.matchTail(labels)
	case p.wildcard:
		return len(labels) > len(p.labels) && p.matchTail(labels)
	case p.open:
		return len(labels) >= len(p.labels) && p.matchHead(labels)
	default:
		return len(labels) == len(p.labels) && p.matchTail(labels)
	}
}

// matchTail compares the pattern labels against the last labels of the host.
func (p domainPattern) matchTail(labels []string) bool {
	offset := len(labels) - len(p.labels)
	for i, want := range p.labels {
		got := labels[offset+i]
		if p.glob {
			if !globMatch(want, got) {
				return false
			}
		} else if want != got {
			return false
		}
	}
	return true
}

// matchHead compares the pattern labels, except the final '*', against the
// first labels of the host.
func (p domainPattern) matchHead(labels []string) bool {
	for i, want := range p.labels[:len(p.labels)-1] {
		if !globMatch(want, labels[i]) {
			return false
		}
	}
	return true
}

// globMatch matches a single label against a pattern where '*' stands for
// any run of characters, e.g. "sf-*" or "*-api".
func globMatch(pattern, value string) bool {
	if !strings.Contains(pattern, "*") {
		return pattern == value
	}

	segments := strings.Split(pattern, "*")
	first, last := segments[0], segments[len(segments)-1]
	if !strings.HasPrefix(value, first) {
		return false
	}
	pos := len(first)

	for _, seg := range segments[1 : len(segments)-1] {
		idx := strings.Index(value[pos:], seg)
		if idx < 0 {
			return false
		}
		pos += idx + len(seg)
	}

	return len(value)-pos >= len(last) && strings.HasSuffix(value, last)
}
