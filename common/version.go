// Package common holds process-level helpers shared by all commands:
// logger setup and build identification.
package common

// PackageName is the default service tag on log lines.
const PackageName = "commitment-registry"

// Version is set through ldflags at build time.
var Version = "dev"
