package blueprint

import (
	"net/http"
	"net/netip"

	"golang.org/x/net/http/httpguts"

	"github.com/hanpama/httpgraph/internal/config"
	"github.com/hanpama/httpgraph/internal/valid"
)

const (
	DefaultHostname = "127.0.0.1"
	DefaultPort     = 8000
)

func (b *builder) buildServer() valid.Valid[*Server] {
	s := b.cfg.Server

	hostname := validateHostname(s.Hostname).Trace("hostname")

	port := valid.Succeed(DefaultPort)
	if s.Port != 0 {
		port = valid.Succeed(s.Port)
		if s.Port < 0 || s.Port > 65535 {
			port = violationInvalidPort[int](s.Port).Trace("port")
		}
	}

	timeout := valid.Succeed(s.Timeout)
	if s.Timeout < 0 {
		timeout = violationNegativeTimeout[int](s.Timeout).Trace("timeout")
	}

	headers := responseHeaders(s.ResponseHeaders).Trace("headers", "custom")

	return valid.Map(
		valid.Zip(valid.Zip(hostname, port), valid.Zip(timeout, headers)),
		func(p valid.Pair[valid.Pair[string, int], valid.Pair[int, map[string]string]]) *Server {
			return &Server{
				Hostname:        p.First.First,
				Port:            p.First.Second,
				TimeoutMillis:   p.Second.First,
				ResponseHeaders: p.Second.Second,
			}
		},
	).Trace("schema", "@server")
}

func validateHostname(hostname string) valid.Valid[string] {
	switch hostname {
	case "":
		return valid.Succeed(DefaultHostname)
	case "localhost":
		return valid.Succeed("127.0.0.1")
	}
	addr, err := netip.ParseAddr(hostname)
	if err != nil {
		return violationInvalidHostname[string](hostname)
	}
	return valid.Succeed(addr.String())
}

func responseHeaders(kvs []config.KeyValue) valid.Valid[map[string]string] {
	checked := valid.Traverse(kvs, func(kv config.KeyValue) valid.Valid[config.KeyValue] {
		var checks []valid.Valid[valid.Unit]
		if !httpguts.ValidHeaderFieldName(kv.Key) {
			checks = append(checks, violationInvalidHeaderName[valid.Unit](kv.Key))
		}
		if !httpguts.ValidHeaderFieldValue(kv.Value) {
			checks = append(checks, violationInvalidHeaderValue[valid.Unit](kv.Key))
		}
		return valid.Keep(valid.Succeed(kv), valid.All(checks...))
	})
	return valid.Map(checked, func(kvs []config.KeyValue) map[string]string {
		if len(kvs) == 0 {
			return nil
		}
		out := make(map[string]string, len(kvs))
		for _, kv := range kvs {
			out[http.CanonicalHeaderKey(kv.Key)] = kv.Value
		}
		return out
	})
}
