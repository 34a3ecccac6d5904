package agent

import (
	"github.com/spf13/cobra"
)

func initServerFlags(root *cobra.Command) {
	f := root.Flags()

	f.Bool("server.enable", defaultCfg.Server.Enable, "-> Serve /metrics, /health and /dashboard/ in loop mode (启用HTTP服务)")
	f.String("server.addr", defaultCfg.Server.Addr, "-> HTTP listening address (HTTP监听地址)")
	f.Duration("server.read-timeout", defaultCfg.Server.ReadTimeout, "-> Read timeout duration (读取超时时间)")
	f.Duration("server.write-timeout", defaultCfg.Server.WriteTimeout, "-> Write timeout duration (写入超时时间)")
	f.Duration("server.idle-timeout", defaultCfg.Server.IdleTimeout, "-> Idle connection timeout duration (空闲连接超时时间)")
}
