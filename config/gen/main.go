package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/brensch/counterbot/config"
	"gopkg.in/yaml.v3"
)

// Writes a blank AppConfig as YAML so operators can see every key.
func main() {
	out := flag.String("out", "./demo.conf", "destination file")
	flag.Parse()

	slog.Info("generating empty config", "out", *out)
	var emptyConf config.AppConfig

	confYAML, err := yaml.Marshal(emptyConf)
	if err != nil {
		slog.Error("failed to marshal empty yaml", "err", err)
		os.Exit(1)
	}

	err = os.WriteFile(*out, confYAML, 0644)
	if err != nil {
		slog.Error("failed to write blank conf to file", "err", err)
		os.Exit(1)
	}
}
