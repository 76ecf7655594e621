package apiclient

import (
	"net/http"
	"strings"

	"shorts-web/internal/common/errors"
	"shorts-web/internal/session"
)

// bearerTransport attaches the session credential to backend requests and
// guarantees that object storage hosts never see an Authorization header.
type bearerTransport struct {
	next         http.RoundTripper
	store        session.Store
	storageHosts []string
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if IsObjectStorageHost(t.storageHosts, req.URL.Hostname()) {
		if req.Header.Get("Authorization") != "" {
			req = req.Clone(req.Context())
			req.Header.Del("Authorization")
		}
		return t.next.RoundTrip(req)
	}

	if t.store == nil {
		return t.next.RoundTrip(req)
	}

	cred, found, err := t.store.Get(req.Context())
	if err != nil {
		closeBody(req)
		return nil, errors.AuthError("failed to read session credential").WithCode("credential_unavailable")
	}
	if !found {
		return t.next.RoundTrip(req)
	}

	authorized := req.Clone(req.Context())
	authorized.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	return t.next.RoundTrip(authorized)
}

func closeBody(req *http.Request) {
	if req.Body != nil {
		req.Body.Close()
	}
}

// IsObjectStorageHost reports whether host equals or is a subdomain of one of
// hosts. The S3Host entry also matches regional, dualstack, website and access
// point S3 endpoints, but no other amazonaws.com service.
func IsObjectStorageHost(hosts []string, host string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	for _, entry := range hosts {
		entry = strings.ToLower(entry)
		if host == entry || strings.HasSuffix(host, "."+entry) {
			return true
		}
		if entry == S3Host && isS3Endpoint(host) {
			return true
		}
	}
	return false
}

// isS3Endpoint matches hosts such as bucket.s3.ap-northeast-2.amazonaws.com,
// s3.dualstack.us-east-1.amazonaws.com or s3-us-west-2.amazonaws.com. An
// "s3-" label only counts when at most a region follows it, so an ELB named
// s3-proxy (s3-proxy-1.us-east-1.elb.amazonaws.com) stays a backend host.
func isS3Endpoint(host string) bool {
	var rest string
	switch {
	case strings.HasSuffix(host, ".amazonaws.com"):
		rest = strings.TrimSuffix(host, ".amazonaws.com")
	case strings.HasSuffix(host, ".amazonaws.com.cn"):
		rest = strings.TrimSuffix(host, ".amazonaws.com.cn")
	default:
		return false
	}

	labels := strings.Split(rest, ".")
	for i, label := range labels {
		if label == "s3" {
			return true
		}
		if strings.HasPrefix(label, "s3-") && len(labels)-i <= 2 {
			return true
		}
	}
	return false
}
