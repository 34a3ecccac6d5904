// Package perfmon queries the CUCM perfmon SOAP service for per-device
// counters and folds the extracted samples into one ordered total per device.
package perfmon

import (
	"fmt"
	"regexp"
)

// CounterType identifies a device class that can be queried on the perfmon service.
type CounterType int

const (
	SipTrunk CounterType = iota + 1
	MgcpGateway
	MgcpPriDevice
)

type counterSpec struct {
	label   string
	suffix  string
	pattern *regexp.Regexp
}

func newCounterSpec(label, suffix string) counterSpec {
	return counterSpec{
		label:  label,
		suffix: suffix,
		// \\host\Cisco SIP(trunk01)\CallsInProgress -> trunk01
		pattern: regexp.MustCompile(`^.*` + regexp.QuoteMeta(label) + `\((.*)\)\\` + regexp.QuoteMeta(suffix) + `$`),
	}
}

// catalog is indexed by CounterType and never written after init.
var catalog = [...]counterSpec{
	SipTrunk:      newCounterSpec("Cisco SIP", "CallsInProgress"),
	MgcpGateway:   newCounterSpec("Cisco MGCP Gateways", "PRIChannelsActive"),
	MgcpPriDevice: newCounterSpec("Cisco MGCP PRI Device", "CallsActive"),
}

// CounterTypes 按目录顺序返回全部已知计数器类型
func CounterTypes() []CounterType {
	return []CounterType{SipTrunk, MgcpGateway, MgcpPriDevice}
}

// LookupClass maps a configured class label to its counter type.
func LookupClass(label string) (CounterType, bool) {
	for _, ct := range CounterTypes() {
		if catalog[ct].label == label {
			return ct, true
		}
	}
	return 0, false
}

func (c CounterType) valid() bool {
	return c >= SipTrunk && c <= MgcpPriDevice
}

// Label is the perfmon object name sent in the query, e.g. "Cisco SIP".
func (c CounterType) Label() string {
	if !c.valid() {
		return ""
	}
	return catalog[c].label
}

// Suffix is the metric name the device value is read from.
func (c CounterType) Suffix() string {
	if !c.valid() {
		return ""
	}
	return catalog[c].suffix
}

// Match extracts the device id from a counter name. Names that belong to
// other metrics of the same object do not match.
func (c CounterType) Match(name string) (string, bool) {
	if !c.valid() {
		return "", false
	}
	m := catalog[c].pattern.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func (c CounterType) String() string {
	if !c.valid() {
		return fmt.Sprintf("CounterType(%d)", int(c))
	}
	return c.Label() + `\` + c.Suffix()
}
