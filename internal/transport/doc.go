// Package transport builds the HTTP client shared by the search client and
// the page fetcher.
//
// By default requests go out directly. When a SOCKS5 proxy address is
// configured (for example a local Tor daemon on 127.0.0.1:9050), every
// connection is dialed through it, including DNS resolution of the target
// host. CheckProxy performs a SOCKS5 greeting so that a misconfigured proxy
// is reported before a crawl silently finds nothing.
package transport
