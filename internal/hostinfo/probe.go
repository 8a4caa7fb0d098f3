package hostinfo

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/netip"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultTimeout bounds every external probe.
const DefaultTimeout = 5 * time.Second

// BridgePrefix marks bridges created for domains; they are excluded from
// host subnet detection so a domain never collides with itself.
const BridgePrefix = "net-"

// Resources is the host capacity available to instances.
type Resources struct {
	CPUs        int
	MemoryBytes uint64
}

// Prober answers read-only questions about the host. Implementations must
// degrade to "unknown" instead of failing.
type Prober interface {
	// Resources returns host capacity and whether it could be determined.
	Resources(ctx context.Context) (Resources, bool)
	// Subnets returns IPv4 prefixes configured on host interfaces.
	Subnets(ctx context.Context) []netip.Prefix
}

// Runner executes an external command and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// SystemProber queries the live system through external tools.
type SystemProber struct {
	Timeout  time.Duration
	Run      Runner
	ReadFile func(name string) ([]byte, error)
}

// NewSystemProber returns a prober backed by os/exec and the real /proc.
func NewSystemProber(timeout time.Duration) *SystemProber {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &SystemProber{Timeout: timeout, Run: runCommand, ReadFile: os.ReadFile}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, err
	}
	return exec.CommandContext(ctx, name, args...).Output()
}

func (p *SystemProber) Resources(ctx context.Context) (Resources, bool) {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	out, err := p.Run(ctx, "nproc")
	if err != nil {
		log.Debug().Err(err).Msg("nproc probe failed")
		return Resources{}, false
	}
	cpus, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil || cpus <= 0 {
		log.Debug().Str("output", string(out)).Msg("unexpected nproc output")
		return Resources{}, false
	}

	data, err := p.ReadFile("/proc/meminfo")
	if err != nil {
		log.Debug().Err(err).Msg("meminfo probe failed")
		return Resources{}, false
	}
	mem, ok := parseMemTotal(data)
	if !ok {
		log.Debug().Msg("MemTotal missing from meminfo")
		return Resources{}, false
	}
	return Resources{CPUs: cpus, MemoryBytes: mem}, true
}

// parseMemTotal extracts MemTotal (reported in kB) from /proc/meminfo.
func parseMemTotal(data []byte) (uint64, bool) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 || fields[0] != "MemTotal:" {
			continue
		}
		kb, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return 0, false
		}
		return kb * 1024, true
	}
	return 0, false
}

// ipAddr mirrors the subset of `ip -j addr` output we read.
type ipAddr struct {
	IfName   string `json:"ifname"`
	AddrInfo []struct {
		Family    string `json:"family"`
		Local     string `json:"local"`
		PrefixLen int    `json:"prefixlen"`
	} `json:"addr_info"`
}

func (p *SystemProber) Subnets(ctx context.Context) []netip.Prefix {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	out, err := p.Run(ctx, "ip", "-j", "-4", "addr", "show")
	if err != nil {
		log.Debug().Err(err).Msg("ip addr probe failed")
		return nil
	}
	return parseSubnets(out)
}

func parseSubnets(data []byte) []netip.Prefix {
	var ifaces []ipAddr
	if err := json.Unmarshal(data, &ifaces); err != nil {
		log.Debug().Err(err).Msg("malformed ip addr output")
		return nil
	}

	var out []netip.Prefix
	seen := make(map[netip.Prefix]bool)
	for _, iface := range ifaces {
		if iface.IfName == "lo" || strings.HasPrefix(iface.IfName, BridgePrefix) {
			continue
		}
		for _, a := range iface.AddrInfo {
			if a.Family != "inet" {
				continue
			}
			addr, err := netip.ParseAddr(a.Local)
			if err != nil || !addr.Is4() {
				continue
			}
			prefix, err := addr.Prefix(a.PrefixLen)
			if err != nil || seen[prefix] {
				continue
			}
			seen[prefix] = true
			out = append(out, prefix)
		}
	}
	return out
}

// StaticProber returns fixed answers. A nil Host means resources are unknown.
type StaticProber struct {
	Host     *Resources
	Prefixes []netip.Prefix
}

func (s StaticProber) Resources(context.Context) (Resources, bool) {
	if s.Host == nil {
		return Resources{}, false
	}
	return *s.Host, true
}

func (s StaticProber) Subnets(context.Context) []netip.Prefix {
	return s.Prefixes
}
