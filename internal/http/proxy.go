// Package http builds the proxy-aware HTTP clients shared by the IRIDA API
// client and the cloud listing backends.
package http

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	nethttp "net/http"
	"net/url"
	"strings"
	"time"

	ntlmssp "github.com/Azure/go-ntlmssp"
	"golang.org/x/net/http/httpproxy"

	"github.com/mariellemanlulu/irida-uploader/internal/config"
	"github.com/mariellemanlulu/irida-uploader/internal/constants"
)

// ConfigureHTTPClient configures an HTTP client with the proxy settings
// from the [proxy] config section.
func ConfigureHTTPClient(cfg *config.Config) (*nethttp.Client, error) {
	transport := &nethttp.Transport{
		DialContext: (&net.Dialer{
			Timeout:   constants.HTTPDialTimeout,
			KeepAlive: constants.HTTPDialKeepAlive,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       constants.HTTPIdleConnTimeout,
		TLSHandshakeTimeout:   constants.HTTPTLSHandshakeTimeout,
		ExpectContinueTimeout: constants.HTTPExpectContinueTimeout,
	}

	switch strings.ToLower(cfg.Proxy.Mode) {
	case "no-proxy", "":
		transport.Proxy = nil

	case "system":
		transport.Proxy = nethttp.ProxyFromEnvironment

	case "ntlm":
		if cfg.Proxy.Host == "" {
			return nil, fmt.Errorf("proxy mode is ntlm but no proxy host is configured")
		}
		proxyURL := buildProxyURL(&cfg.Proxy)
		transport.Proxy = proxyFuncWithBypass(proxyURL, cfg.Proxy.NoProxy)

		client := &nethttp.Client{
			Transport: ntlmssp.Negotiator{
				RoundTripper: transport,
			},
		}
		if cfg.Proxy.Warmup {
			if err := warmupProxy(client, cfg); err != nil {
				return nil, fmt.Errorf("proxy warmup failed: %w", err)
			}
		}
		return client, nil

	case "basic":
		if cfg.Proxy.Host == "" {
			return nil, fmt.Errorf("proxy mode is basic but no proxy host is configured")
		}
		proxyURL := buildProxyURL(&cfg.Proxy)
		transport.Proxy = proxyFuncWithBypass(proxyURL, cfg.Proxy.NoProxy)

	default:
		return nil, fmt.Errorf("unsupported proxy mode: %s", cfg.Proxy.Mode)
	}

	client := &nethttp.Client{Transport: transport}

	if cfg.Proxy.Warmup && cfg.Proxy.Mode != "no-proxy" && cfg.Proxy.Mode != "" {
		if err := warmupProxy(client, cfg); err != nil {
			return nil, fmt.Errorf("proxy warmup failed: %w", err)
		}
	}

	return client, nil
}

// buildProxyURL constructs a proxy URL from config. Credentials are only
// embedded when both user and password are set; an empty password in the
// URL confuses some proxies.
func buildProxyURL(p *config.ProxyConfig) *url.URL {
	port := p.Port
	if port == 0 {
		port = 8080
	}

	proxyURL := &url.URL{
		Scheme: "http",
		Host:   fmt.Sprintf("%s:%d", p.Host, port),
	}
	if p.User != "" && p.Password != "" {
		proxyURL.User = url.UserPassword(p.User, p.Password)
	}
	return proxyURL
}

// proxyFuncWithBypass returns a proxy function that respects the no_proxy
// bypass list. With an empty list it behaves identically to
// nethttp.ProxyURL.
func proxyFuncWithBypass(proxyURL *url.URL, noProxy string) func(*nethttp.Request) (*url.URL, error) {
	if noProxy == "" {
		return nethttp.ProxyURL(proxyURL)
	}
	cfg := httpproxy.Config{
		HTTPProxy:  proxyURL.String(),
		HTTPSProxy: proxyURL.String(),
		NoProxy:    noProxy,
	}
	proxyFunc := cfg.ProxyFunc()
	return func(req *nethttp.Request) (*url.URL, error) {
		return proxyFunc(req.URL)
	}
}

// warmupProxy performs one lightweight request through the proxy so auth
// or reachability problems surface before an upload starts.
func warmupProxy(client *nethttp.Client, cfg *config.Config) error {
	target := cfg.BaseURL
	if target == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	req, err := nethttp.NewRequestWithContext(ctx, "GET", target, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("warmup request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("warmup request returned server error: %d", resp.StatusCode)
	}
	return nil
}
