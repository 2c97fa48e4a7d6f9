package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "store":
		return storeTemplate, nil
	case "host", "stored":
		return hostTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const storeTemplate = `name = "/ExampleStore"

[[variable]]
name = "/number"
type = "int32"
init = 42

[[variable]]
name = "/fraction"
type = "double"
init = 3.14

[[variable]]
name = "/flag"
type = "bool"
init = true

[[variable]]
name = "/text"
type = "string"
size = 16
init = "hello"

[[variable]]
name = "/group/a"
type = "uint16"

[[variable]]
name = "/group/b"
type = "uint16"
init = "0xbeef"

[[function]]
name = "/rand"
type = "int32"
`

const hostTemplate = `identification = "storedbg"
version = "0.1.0"
log_level = "info"

[stack]
escape = true
terminal = true
print = false

[http]
addr = "127.0.0.1:2020"
cors_origins = ["http://localhost:3000"]

[[store]]
path = "store.toml"
`
