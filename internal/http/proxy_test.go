package http

import (
	nethttp "net/http"
	"net/url"
	"testing"

	"github.com/mariellemanlulu/irida-uploader/internal/config"
)

func TestConfigureHTTPClientNoProxy(t *testing.T) {
	cfg := config.Default()

	client, err := ConfigureHTTPClient(cfg)
	if err != nil {
		t.Fatalf("ConfigureHTTPClient() error = %v", err)
	}

	tr, ok := client.Transport.(*nethttp.Transport)
	if !ok {
		t.Fatalf("transport type = %T, want *http.Transport", client.Transport)
	}
	if tr.Proxy != nil {
		t.Error("no-proxy mode should not set a proxy func")
	}
}

func TestConfigureHTTPClientBasicRequiresHost(t *testing.T) {
	cfg := config.Default()
	cfg.Proxy.Mode = "basic"

	if _, err := ConfigureHTTPClient(cfg); err == nil {
		t.Fatal("expected error for basic proxy without host")
	}
}

func TestConfigureHTTPClientUnknownMode(t *testing.T) {
	cfg := config.Default()
	cfg.Proxy.Mode = "socks5"

	if _, err := ConfigureHTTPClient(cfg); err == nil {
		t.Fatal("expected error for unsupported proxy mode")
	}
}

func TestBuildProxyURL(t *testing.T) {
	tests := []struct {
		name  string
		proxy config.ProxyConfig
		want  string
	}{
		{
			"default port",
			config.ProxyConfig{Host: "proxy.example.org"},
			"http://proxy.example.org:8080",
		},
		{
			"explicit port",
			config.ProxyConfig{Host: "proxy.example.org", Port: 3128},
			"http://proxy.example.org:3128",
		},
		{
			"credentials embedded only when complete",
			config.ProxyConfig{Host: "p", Port: 80, User: "u"},
			"http://p:80",
		},
		{
			"user and password",
			config.ProxyConfig{Host: "p", Port: 80, User: "u", Password: "s"},
			"http://u:s@p:80",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildProxyURL(&tt.proxy).String()
			if got != tt.want {
				t.Errorf("buildProxyURL() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestProxyFuncWithBypass(t *testing.T) {
	proxyURL, _ := url.Parse("http://proxy.example.org:3128")
	fn := proxyFuncWithBypass(proxyURL, "internal.example.org")

	direct, _ := nethttp.NewRequest("GET", "https://internal.example.org/api", nil)
	if got, err := fn(direct); err != nil || got != nil {
		t.Errorf("bypass host should go direct, got %v, %v", got, err)
	}

	proxied, _ := nethttp.NewRequest("GET", "https://irida.example.org/api", nil)
	got, err := fn(proxied)
	if err != nil || got == nil || got.Host != "proxy.example.org:3128" {
		t.Errorf("external host should be proxied, got %v, %v", got, err)
	}
}
