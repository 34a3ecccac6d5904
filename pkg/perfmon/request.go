package perfmon

// CounterSet returns the distinct counter types referenced by the devices, in
// catalog order. Devices with an unknown class label are returned separately
// so the caller can report them; they are never queried.
func CounterSet(devices []Device) (types []CounterType, unknown []Device) {
	seen := make(map[CounterType]bool)
	for _, d := range devices {
		ct, ok := LookupClass(d.Class)
		if !ok {
			unknown = append(unknown, d)
			continue
		}
		seen[ct] = true
	}
	for _, ct := range CounterTypes() {
		if seen[ct] {
			types = append(types, ct)
		}
	}
	return types, unknown
}

// BuildRequests 构建请求：计数器类型 × 服务器 的笛卡尔积。
// Every counter is asked of every server, publisher first, because each node
// reports only the devices it currently hosts.
func BuildRequests(types []CounterType, servers []Server) []Request {
	reqs := make([]Request, 0, len(types)*len(servers))
	for _, ct := range types {
		for _, srv := range servers {
			reqs = append(reqs, Request{Server: srv, Counter: ct})
		}
	}
	return reqs
}
