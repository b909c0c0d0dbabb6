package monitor

import (
	"fmt"
	"math"
	stdnet "net"
	"net/netip"
	"strings"
	"time"
)

const gib = 1 << 30

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func toGiB(b uint64) float64 { return round2(float64(b) / gib) }

// formatUptime renders d as "D days, H hours, M minutes".
func formatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Minute)
	days := total / (24 * 60)
	hours := (total / 60) % 24
	minutes := total % 60
	return fmt.Sprintf("%d days, %d hours, %d minutes", days, hours, minutes)
}

// describeAddr converts a CIDR string as reported by the OS into an Address.
// Entries without a prefix length are returned without a netmask.
func describeAddr(cidr string) (Address, bool) {
	if i := strings.IndexByte(cidr, '%'); i >= 0 {
		rest := cidr[i:]
		zoneEnd := strings.IndexByte(rest, '/')
		if zoneEnd < 0 {
			zoneEnd = len(rest)
		}
		cidr = cidr[:i] + rest[zoneEnd:]
	}
	p, err := netip.ParsePrefix(cidr)
	if err != nil {
		a, aerr := netip.ParseAddr(cidr)
		if aerr != nil {
			return Address{}, false
		}
		p = netip.PrefixFrom(a, -1)
	}
	addr := p.Addr()
	out := Address{Address: addr.String()}
	if addr.Is4() {
		out.Family = FamilyIPv4
		if p.Bits() >= 0 {
			mask := stdnet.CIDRMask(p.Bits(), 32)
			out.Netmask = stdnet.IP(mask).String()
			if p.Bits() < 31 {
				ip := addr.As4()
				for i := range ip {
					ip[i] |= ^mask[i]
				}
				out.Broadcast = netip.AddrFrom4(ip).String()
			}
		}
		return out, true
	}
	out.Family = FamilyIPv6
	if p.Bits() >= 0 {
		out.Netmask = stdnet.IP(stdnet.CIDRMask(p.Bits(), 128)).String()
	}
	return out, true
}
