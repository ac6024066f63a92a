// Command depsplit is the CLI front end for the dependency-discovery
// engine: it reads the target module's own go.mod to find the tracked
// root, drives the Driver, and prints discovery output as JSON.
package main

import "os"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
