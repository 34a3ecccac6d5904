package config

// SampleConfig returns a commented example configuration in YAML.
func SampleConfig() string {
	return sampleConfig
}

const sampleConfig = `# tg-collector configuration
# Every key can be overridden with an environment variable, e.g.
# TG_AUTH_PASSWORD, TG_POLL_INTERVAL=30s, TG_SERVERS=cucm-pub,cucm-sub1

# Credentials for the perfmon SOAP service (required)
auth:
  username: perfmon-user
  password: change-me

# Cluster nodes, publisher first (required)
servers:
  - cucm-pub.example.com
  - cucm-sub1.example.com

# Devices to graph (required). class is one of:
#   Cisco SIP, Cisco MGCP Gateways, Cisco MGCP PRI Device
devices:
  - name: SIP_Trunk_PSTN
    class: Cisco SIP
  - name: gw-branch.example.com
    class: Cisco MGCP Gateways

paths:
  rrdtool: /usr/bin/rrdtool   # required
  databases: databases
  images: images

html:
  company_name: World, INC
  company_logo: image.png     # relative to the images directory

perfmon:
  timeout: 30s
  concurrency: 4
  # ca_file: /etc/tg-collector/cucm-ca.pem
  # Disables certificate verification. Only for lab clusters.
  insecure_skip_verify: false

poll:
  interval: 60s
  concurrency: 4
  exec_timeout: 30s
  lock_timeout: 10s
  min_free_bytes: 104857600

# HTTP endpoint in --loop mode: /metrics, /health, /dashboard/
server:
  enable: false
  addr: 0.0.0.0:8080
  read_timeout: 30s
  write_timeout: 30s
  idle_timeout: 60s

log:
  level: info
  format: json
  path: ./logs
  max_size: 100
  max_backup: 30   # keep this many files; 0 keeps max_age days instead
  max_age: 7
`
