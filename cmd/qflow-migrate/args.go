package main

import (
	"strings"

	"github.com/spf13/pflag"
)

// flagAliases maps accepted alternative names onto the registered flag names.
var flagAliases = map[string]string{
	"toolchain_path": "qflow_path",
}

// normalizeArgs rewrites single-dash long options ("-project_path=/x") to the
// double-dash form cobra expects. Single-letter flags and everything after
// "--" are left alone.
func normalizeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i, arg := range args {
		if arg == "--" {
			return append(out, args[i:]...)
		}
		if isSingleDashLong(arg) {
			arg = "-" + arg
		}
		out = append(out, arg)
	}
	return out
}

// isSingleDashLong matches "-name" and "-name=value" where name is longer
// than one character.
func isSingleDashLong(arg string) bool {
	if len(arg) < 2 || arg[0] != '-' || arg[1] == '-' {
		return false
	}
	name, _, _ := strings.Cut(arg[1:], "=")
	return len(name) > 1
}

// normalizeFlagName accepts dashes in place of underscores and resolves aliases.
func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	name = strings.ReplaceAll(name, "-", "_")
	if alias, ok := flagAliases[name]; ok {
		name = alias
	}
	return pflag.NormalizedName(name)
}
