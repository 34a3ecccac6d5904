package perfmon

import "time"

// Device 配置中的设备（名称唯一）
type Device struct {
	Name  string
	Class string
}

// Server is one node of the cluster. The first configured server is the publisher.
type Server struct {
	Address string
}

// Credentials for basic authentication against the perfmon service.
type Credentials struct {
	Username string
	Password string
}

// Request is one unit of work: query one counter type on one server.
type Request struct {
	Server  Server
	Counter CounterType
}

// Sample is a single device value extracted from one response.
type Sample struct {
	Device  string
	Value   int64
	Server  string
	Counter CounterType
}

// RequestResult records the outcome of a single request. Err is nil on success.
type RequestResult struct {
	Request  Request
	Samples  int
	Duration time.Duration
	Err      error
}

// OK reports whether the request completed without error.
func (r RequestResult) OK() bool { return r.Err == nil }
