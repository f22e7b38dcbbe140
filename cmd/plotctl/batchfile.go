package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/plotwire/internal/server"
)

type batchFile struct {
	Commands []string        `toml:"commands"`
	Raw      string          `toml:"raw"`
	Data     []batchFileData `toml:"data"`
}

type batchFileData struct {
	Name   string    `toml:"name"`
	Type   string    `toml:"type"`
	Shape  []int     `toml:"shape"`
	Values []float64 `toml:"values"`
}

// loadBatchFile reads a TOML batch description. Unknown keys are rejected so
// typos do not silently drop data.
func loadBatchFile(path string) (server.BatchRequest, error) {
	var raw batchFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return server.BatchRequest{}, fmt.Errorf("load batch file: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return server.BatchRequest{}, fmt.Errorf("batch file %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	req := server.BatchRequest{}
	if meta.IsDefined("commands") {
		req.Commands = raw.Commands
	}
	if meta.IsDefined("raw") {
		req.Raw = raw.Raw
	}
	for _, d := range raw.Data {
		typ := strings.TrimSpace(d.Type)
		if typ == "" {
			typ = "d"
		}
		req.Data = append(req.Data, server.DataRequest{
			Name:   strings.TrimSpace(d.Name),
			Type:   typ,
			Shape:  d.Shape,
			Values: d.Values,
		})
	}
	return req, nil
}
