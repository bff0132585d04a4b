package client

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"

	"github.com/gloriamundo/gloriamundo/internal/model"
	"github.com/gloriamundo/gloriamundo/internal/op"
	"golang.org/x/net/proxy"
)

var (
	directClient *http.Client
	proxyClient  *http.Client
	proxyURL     string
	clientLock   sync.RWMutex
)

// Upstream returns a cached client for OpenRouter traffic. It goes through
// the proxy_url setting when one is configured and connects directly
// otherwise. No client timeout is set: streams are bounded by the request
// context.
func Upstream() (*http.Client, error) {
	current, err := op.SettingGetString(model.SettingKeyProxyURL)
	if err != nil || current == "" {
		return direct()
	}

	clientLock.RLock()
	if proxyClient != nil && proxyURL == current {
		defer clientLock.RUnlock()
		return proxyClient, nil
	}
	clientLock.RUnlock()

	clientLock.Lock()
	defer clientLock.Unlock()
	if proxyClient != nil && proxyURL == current {
		return proxyClient, nil
	}
	c, err := NewWithProxy(current)
	if err != nil {
		return nil, err
	}
	proxyClient = c
	proxyURL = current
	return proxyClient, nil
}

func direct() (*http.Client, error) {
	clientLock.RLock()
	if directClient != nil {
		defer clientLock.RUnlock()
		return directClient, nil
	}
	clientLock.RUnlock()

	clientLock.Lock()
	defer clientLock.Unlock()
	if directClient != nil {
		return directClient, nil
	}
	transport, err := clonedDefaultTransport()
	if err != nil {
		return nil, err
	}
	transport.Proxy = nil
	directClient = &http.Client{Transport: transport}
	return directClient, nil
}

// NewWithProxy builds an uncached client. Supported schemes: http, https,
// socks, socks5.
func NewWithProxy(raw string) (*http.Client, error) {
	if raw == "" {
		return nil, fmt.Errorf("proxy url is empty")
	}
	transport, err := clonedDefaultTransport()
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy url: %w", err)
	}

	switch u.Scheme {
	case "http", "https":
		transport.Proxy = http.ProxyURL(u)
	case "socks", "socks5":
		if u.Scheme == "socks" {
			u.Scheme = "socks5"
		}
		dialer, err := proxy.FromURL(u, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("invalid socks proxy: %w", err)
		}
		transport.Proxy = nil
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			transport.DialContext = cd.DialContext
		} else {
			transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		}
	default:
		return nil, fmt.Errorf("unsupported proxy scheme: %s", u.Scheme)
	}
	return &http.Client{Transport: transport}, nil
}

func clonedDefaultTransport() (*http.Transport, error) {
	transport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return nil, fmt.Errorf("default transport is not *http.Transport")
	}
	return transport.Clone(), nil
}
