package tool

import (
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// QuickICMPProbe sends a single unprivileged echo to host and reports whether
// a reply arrived within timeout.
func QuickICMPProbe(host string, timeout time.Duration) bool {
	if host == "" {
		return false
	}
	pinger, err := probing.NewPinger(host)
	if err != nil {
		DefaultLogger.Debugf("QuickICMPProbe: resolve %s: %v", host, err)
		return false
	}
	pinger.SetPrivileged(false)
	pinger.Count = 1
	pinger.Timeout = timeout
	if err := pinger.Run(); err != nil {
		DefaultLogger.Debugf("QuickICMPProbe: ping %s: %v", host, err)
		return false
	}
	return pinger.Statistics().PacketsRecv > 0
}
