package config

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

// loadINI reads the legacy settings.ini layout:
//
//	[auth]       username, password
//	[cmservers]  publisher = host, then one key per subscriber
//	[devices]    <device name> = <class label>
//	[paths]      rrdtool (and optionally databases, images)
//	[html]       companyname, companylogo
//
// Any other section is copied as is, so perfmon, poll, server and log can be
// set from the same file.
func loadINI(path string) (map[string]any, error) {
	f, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment: true,
		// device ids may contain ':' and '='
		KeyValueDelimiters: "=",
	}, path)
	if err != nil {
		return nil, fmt.Errorf("read legacy config %s: %w", path, err)
	}

	m := make(map[string]any)
	for _, sec := range f.Sections() {
		if sec.Name() == ini.DefaultSection {
			continue
		}
		name := strings.ToLower(sec.Name())
		switch name {
		case "cmservers":
			m["servers"] = iniServers(sec)
		case "devices":
			m["devices"] = iniDevices(sec)
		case "html":
			m["html"] = map[string]any{
				"company_name": sec.Key("companyname").String(),
				"company_logo": sec.Key("companylogo").String(),
			}
		default:
			values := make(map[string]any, len(sec.Keys()))
			for _, k := range sec.Keys() {
				values[strings.ToLower(k.Name())] = k.String()
			}
			m[name] = values
		}
	}
	return m, nil
}

// iniServers puts the publisher first and keeps file order for the rest.
func iniServers(sec *ini.Section) []any {
	var servers []any
	if sec.HasKey("publisher") {
		servers = append(servers, strings.TrimSpace(sec.Key("publisher").String()))
	}
	for _, k := range sec.Keys() {
		if k.Name() == "publisher" {
			continue
		}
		servers = append(servers, strings.TrimSpace(k.String()))
	}
	return servers
}

func iniDevices(sec *ini.Section) []any {
	devices := make([]any, 0, len(sec.Keys()))
	for _, k := range sec.Keys() {
		devices = append(devices, map[string]any{
			"name":  k.Name(),
			"class": strings.TrimSpace(k.String()),
		})
	}
	return devices
}
