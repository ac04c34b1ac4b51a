// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/Kavirubc
// Created: 2026-02-02
// Last Modified: 2026-03-12

// Package main is the entry point for the Simili Triage CLI.
package main

import (
	"github.com/similigh/simili-triage/cmd/simili/commands"
)

func main() {
	commands.Execute()
}
