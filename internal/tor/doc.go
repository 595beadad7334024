// Package tor routes probes through a SOCKS5 proxy, typically a Tor daemon.
//
// A Client validates the proxy address, builds a SOCKS5 dialer with
// golang.org/x/net/proxy and hands out HTTP clients whose every connection
// goes through the proxy. EmbeddedTor starts a private Tor daemon with
// tornago for the --tor flag, so no system Tor installation is needed.
//
// The package is designed to be used with dependency injection - create a
// Client and pass its HTTP client to the fetcher rather than using global
// state.
package tor
