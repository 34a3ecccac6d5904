package perfmon

import "sort"

// DeviceTotal is one entry of an aggregated result.
type DeviceTotal struct {
	Device string
	Value  int64
}

// Result is the per-device total of one cycle, ordered by device name.
// It only holds devices that had at least one sample.
type Result struct {
	entries []DeviceTotal
	index   map[string]int
}

// Aggregate 按设备名分组求和，并按设备名字典序排序。
// The same multiset of samples always yields the same Result. A device seen
// under several counter types or servers gets the sum of all of them.
func Aggregate(samples []Sample) Result {
	totals := make(map[string]int64)
	for _, s := range samples {
		totals[s.Device] += s.Value
	}

	entries := make([]DeviceTotal, 0, len(totals))
	for device, value := range totals {
		entries = append(entries, DeviceTotal{Device: device, Value: value})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Device < entries[j].Device })

	index := make(map[string]int, len(entries))
	for i, e := range entries {
		index[e.Device] = i
	}
	return Result{entries: entries, index: index}
}

// Len returns the number of devices in the result.
func (r Result) Len() int { return len(r.entries) }

// Value returns the total for device and whether it is present.
func (r Result) Value(device string) (int64, bool) {
	i, ok := r.index[device]
	if !ok {
		return 0, false
	}
	return r.entries[i].Value, true
}

// Devices returns the device names in ascending order.
func (r Result) Devices() []string {
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.Device
	}
	return names
}

// Entries returns a copy of the ordered totals.
func (r Result) Entries() []DeviceTotal {
	out := make([]DeviceTotal, len(r.entries))
	copy(out, r.entries)
	return out
}
