package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Template returns a starter config in the format implied by path's extension.
func Template(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yamlTemplate
	default:
		return tomlTemplate
	}
}

func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(Template(path)), 0o600)
}

const tomlTemplate = `address = "tcp://127.0.0.1:5555"
bind_delay = "100ms"
ready_delay = "1.5s"
send_timeout = "5s"
linger = "500ms"
capture = ""

[launch]
command = "python3"
args = ["plot_server.py"]

[server]
addr = ":9300"
node = "plotwire"
cors_origins = ["http://localhost:3000"]
token = ""
`

const yamlTemplate = `address: tcp://127.0.0.1:5555
bind_delay: 100ms
ready_delay: 1.5s
send_timeout: 5s
linger: 500ms
capture: ""
launch:
  command: python3
  args: [plot_server.py]
server:
  addr: ":9300"
  node: plotwire
  cors_origins: ["http://localhost:3000"]
  token: ""
`
