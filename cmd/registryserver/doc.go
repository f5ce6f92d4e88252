// Command registryserver serves the phased commitment registry over HTTP.
//
// The registry configuration (treasury, controller, minimum phase duration,
// registration fee) is fixed at startup and immutable for the process
// lifetime. Snapshot persistence is enabled by passing one or more
// --snapshot-store URIs; --restore loads the latest snapshot on startup.
package main
