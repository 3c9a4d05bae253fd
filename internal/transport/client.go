package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/net/proxy"
)

const (
	// DefaultTimeout bounds a whole request, including reading the body.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxRedirects is the number of redirects followed per request.
	DefaultMaxRedirects = 10

	checkProxyTimeout = 2 * time.Second
)

// Options configures the HTTP client.
type Options struct {
	// ProxyAddress is a SOCKS5 proxy as host:port. Empty means direct.
	ProxyAddress string

	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration

	// MaxRedirects limits redirect chains. Zero means DefaultMaxRedirects.
	MaxRedirects int
}

// NewHTTPClient creates an HTTP client according to opts.
func NewHTTPClient(opts Options) (*http.Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = DefaultMaxRedirects
	}

	transport := &http.Transport{
		Proxy:               nil, // environment proxies are ignored
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: opts.Timeout,
	}

	if opts.ProxyAddress != "" {
		dial, err := socks5DialContext(opts.ProxyAddress)
		if err != nil {
			return nil, err
		}
		transport.DialContext = dial
	} else {
		dialer := &net.Dialer{Timeout: opts.Timeout, KeepAlive: 30 * time.Second}
		transport.DialContext = dialer.DialContext
	}

	maxRedirects := opts.MaxRedirects
	return &http.Client{
		Transport: transport,
		Timeout:   opts.Timeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			// via holds every request already sent, the original included.
			if len(via) > maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}, nil
}

// socks5DialContext returns a dial function that tunnels through the proxy.
func socks5DialContext(address string) (func(ctx context.Context, network, addr string) (net.Conn, error), error) {
	if !isValidProxyAddress(address) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProxyAddress, address)
	}

	dialer, err := proxy.SOCKS5("tcp", address, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}

	if cd, ok := dialer.(proxy.ContextDialer); ok {
		return cd.DialContext, nil
	}
	return func(_ context.Context, network, addr string) (net.Conn, error) {
		return dialer.Dial(network, addr)
	}, nil
}

// isValidProxyAddress reports whether address is host:port with a usable port.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	return n >= 1 && n <= 65535
}

// SOCKS5 greeting constants.
const (
	socks5Version      = 0x05
	socks5AuthNone     = 0x00
	socks5AuthNoAccept = 0xFF
)

// CheckProxy verifies that address is a SOCKS5 proxy accepting
// unauthenticated clients. It only performs the method negotiation and
// does not open a tunnel.
func CheckProxy(ctx context.Context, address string) ProxyStatus {
	if !isValidProxyAddress(address) {
		return ProxyStatusCannotConnect
	}

	ctx, cancel := context.WithTimeout(ctx, checkProxyTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ProxyStatusTimeout
		}
		return ProxyStatusCannotConnect
	}
	defer conn.Close()

	deadline, _ := ctx.Deadline()
	if err := conn.SetDeadline(deadline); err != nil {
		return ProxyStatusCannotConnect
	}

	if _, err := conn.Write([]byte{socks5Version, 0x01, socks5AuthNone}); err != nil {
		return ProxyStatusCannotConnect
	}

	// Past the dial, a silent or malformed peer is not speaking SOCKS5.
	// An HTTP server, for one, waits for a request line and never answers.
	resp := make([]byte, 2)
	if _, err := io.ReadFull(conn, resp); err != nil {
		return ProxyStatusWrongType
	}

	if resp[0] != socks5Version || resp[1] == socks5AuthNoAccept || resp[1] != socks5AuthNone {
		return ProxyStatusWrongType
	}
	return ProxyStatusOK
}
