package http

import (
	"crypto/tls"
	nethttp "net/http"
	"os"

	"golang.org/x/net/http2"
)

// CreateTransferClient creates an HTTP client tuned for large sequence
// file transfers, layered on the proxy configuration of base.
//
// Compression is disabled because fastq.gz payloads are already
// compressed, and HTTP/2 is enabled unless the DISABLE_HTTP2 environment
// variable forces HTTP/1.1.
func CreateTransferClient(base *nethttp.Client) *nethttp.Client {
	tr, ok := base.Transport.(*nethttp.Transport)
	if !ok {
		// NTLM proxy mode wraps the transport in a negotiator; the
		// tuned settings cannot be applied through the wrapper.
		base.Timeout = 0
		return base
	}

	tr = tr.Clone()
	tr.MaxIdleConns = 128
	tr.MaxIdleConnsPerHost = 16
	tr.DisableCompression = true
	tr.ForceAttemptHTTP2 = true

	_ = http2.ConfigureTransport(tr)

	if os.Getenv("DISABLE_HTTP2") == "true" {
		tr.ForceAttemptHTTP2 = false
		tr.TLSNextProto = make(map[string]func(string, *tls.Conn) nethttp.RoundTripper)
	}

	return &nethttp.Client{Transport: tr}
}
