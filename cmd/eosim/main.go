// Package main is the single-binary entrypoint for eosim: a launcher that
// starts one network element (manager, agent, environment, or monitor) per
// process, per spec.md §6.
package main

import "github.com/eosim/eosim/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
