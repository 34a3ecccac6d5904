package agent

import (
	"github.com/spf13/cobra"
)

func initPollFlags(root *cobra.Command) {
	f := root.Flags()

	f.Duration("poll.interval", defaultCfg.Poll.Interval, "-> Sleep between two cycles in loop mode (轮询间隔)")
	f.Int("poll.concurrency", defaultCfg.Poll.Concurrency, "-> Devices persisted or rendered at once (并发设备数)")
	f.Duration("poll.exec-timeout", defaultCfg.Poll.ExecTimeout, "-> Timeout of one rrdtool run (rrdtool 超时)")
	f.Duration("poll.lock-timeout", defaultCfg.Poll.LockTimeout, "-> Wait for a device file lock (文件锁等待)")
	f.Uint64("poll.min-free-bytes", defaultCfg.Poll.MinFreeBytes, "-> Warn when the database filesystem has less free space, 0 disables (最小剩余空间)")

	f.Duration("perfmon.timeout", defaultCfg.Perfmon.Timeout, "-> Timeout of one perfmon request (请求超时)")
	f.Int("perfmon.concurrency", defaultCfg.Perfmon.Concurrency, "-> Perfmon requests in flight (并发请求数)")
	f.Bool("perfmon.insecure-skip-verify", defaultCfg.Perfmon.InsecureSkipVerify, "-> Skip TLS certificate verification, insecure (跳过证书校验)")
	f.String("perfmon.ca-file", defaultCfg.Perfmon.CAFile, "-> PEM bundle trusted for the perfmon service (自定义 CA)")
}
