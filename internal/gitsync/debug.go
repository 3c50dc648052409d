package gitsync

import (
	"net/http"
	"net/http/httputil"

	"github.com/go-git/go-git/v5/plumbing/transport/client"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/confsync/confsync/internal/logging"
)

// LoggingTransport is an http.RoundTripper that logs requests and responses.
// Only headers are dumped; pack data would flood the log. The Authorization
// header is redacted.
type LoggingTransport struct {
	Transport http.RoundTripper
	Logger    *logging.Logger
}

// NewLoggingTransport creates a new LoggingTransport. If transport is nil,
// http.DefaultTransport is used.
func NewLoggingTransport(transport http.RoundTripper, logger *logging.Logger) *LoggingTransport {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &LoggingTransport{
		Transport: transport,
		Logger:    logger,
	}
}

// RoundTrip executes a single HTTP transaction, logging the request and response.
func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	logged := req.Clone(req.Context())
	if logged.Header.Get("Authorization") != "" {
		logged.Header.Set("Authorization", "<redacted>")
	}

	reqDump, err := httputil.DumpRequestOut(logged, false)
	if err != nil {
		t.Logger.Debugf("error dumping request: %v", err)
	} else {
		t.Logger.Debugf("request:\n%s", reqDump)
	}

	resp, err := t.Transport.RoundTrip(req)
	if err != nil {
		t.Logger.Debugf("error making request: %v", err)
		return resp, err // Return the response and error, even if the response is nil.
	}

	respDump, err := httputil.DumpResponse(resp, false)
	if err != nil {
		t.Logger.Debugf("error dumping response: %v", err)
	} else {
		t.Logger.Debugf("response:\n%s", respDump)
	}

	return resp, nil
}

// InstallDebugTransport routes go-git's HTTP and HTTPS traffic through a
// LoggingTransport. It affects the whole process.
func InstallDebugTransport(logger *logging.Logger) {
	c := githttp.NewClient(&http.Client{Transport: NewLoggingTransport(nil, logger)})
	client.InstallProtocol("http", c)
	client.InstallProtocol("https", c)
}
