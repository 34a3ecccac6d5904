package perfmon

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tg-collector/pkg/metrics"
)

const (
	testUser = "axl"
	testPass = "s3cret"
)

func responseFor(name, value string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/"><soapenv:Body>
<ns1:perfmonCollectCounterDataResponse xmlns:ns1="http://schemas.cisco.com/ast/soap/">
<ArrayOfCounterInfo><item><Name>` + name + `</Name><Value>` + value + `</Value><CStatus>1</CStatus></item></ArrayOfCounterInfo>
</ns1:perfmonCollectCounterDataResponse></soapenv:Body></soapenv:Envelope>`
}

// newPerfmonServer answers every request with body after checking the
// protocol details every real request must carry.
func newPerfmonServer(t *testing.T, body string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, servicePath, r.URL.Path)
		assert.Equal(t, soapAction, r.Header.Get("SOAPAction"))
		user, pass, ok := r.BasicAuth()
		if !ok || user != testUser || pass != testPass {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		reqBody, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(reqBody), "<soap:Object>")
		w.Header().Set("Content-Type", "text/xml")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func addr(srv *httptest.Server) Server {
	return Server{Address: srv.Listener.Addr().String()}
}

func newTestCollector(t *testing.T, client *http.Client, devices []Device) *Collector {
	t.Helper()
	mf, _ := metrics.NewTestFactory()
	return NewCollector(Config{
		Credentials: Credentials{Username: testUser, Password: testPass},
		Devices:     devices,
		Timeout:     2 * time.Second,
		Concurrency: 4,
	}, client, zap.NewNop(), mf)
}

func TestCollectExtractsConfiguredDevices(t *testing.T) {
	fixture, err := os.ReadFile("testdata/sip_response.xml")
	require.NoError(t, err)
	srv := newPerfmonServer(t, string(fixture), nil)

	c := newTestCollector(t, srv.Client(), []Device{
		{Name: "trunk01", Class: "Cisco SIP"},
		{Name: "trunk02", Class: "Cisco SIP"},
		{Name: "trunk03", Class: "Cisco SIP"},
	})

	samples, err := c.Collect(context.Background(), Request{Server: addr(srv), Counter: SipTrunk})
	require.NoError(t, err)

	// CallsAttempted does not match, not-configured is filtered, trunk03 has no numeric value.
	require.Len(t, samples, 2)
	assert.Equal(t, "trunk01", samples[0].Device)
	assert.Equal(t, int64(5), samples[0].Value)
	assert.Equal(t, SipTrunk, samples[0].Counter)
	assert.Equal(t, addr(srv).Address, samples[0].Server)
	assert.Equal(t, "trunk02", samples[1].Device)
	assert.Equal(t, int64(3), samples[1].Value)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.requestsTotal.WithLabelValues(addr(srv).Address, "Cisco SIP", "ok")))
}

func TestCollectHTTPError(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestCollector(t, srv.Client(), []Device{{Name: "trunk01", Class: "Cisco SIP"}})
	samples, err := c.Collect(context.Background(), Request{Server: addr(srv), Counter: SipTrunk})

	require.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Empty(t, samples)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requestsTotal.WithLabelValues(addr(srv).Address, "Cisco SIP", "error")))
}

func TestCollectRejectsUntrustedCertificate(t *testing.T) {
	srv := newPerfmonServer(t, responseFor(`\\pub\Cisco SIP(trunk01)\CallsInProgress`, "1"), nil)

	client, err := NewHTTPClient(ClientConfig{Timeout: time.Second})
	require.NoError(t, err)

	c := newTestCollector(t, client, []Device{{Name: "trunk01", Class: "Cisco SIP"}})
	_, err = c.Collect(context.Background(), Request{Server: addr(srv), Counter: SipTrunk})
	require.Error(t, err, "self-signed certificate must not be trusted by default")

	insecure, err := NewHTTPClient(ClientConfig{Timeout: time.Second, InsecureSkipVerify: true})
	require.NoError(t, err)
	c = newTestCollector(t, insecure, []Device{{Name: "trunk01", Class: "Cisco SIP"}})
	samples, err := c.Collect(context.Background(), Request{Server: addr(srv), Counter: SipTrunk})
	require.NoError(t, err)
	assert.Len(t, samples, 1)
}

func TestCollectTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewTLSServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	mf, _ := metrics.NewTestFactory()
	c := NewCollector(Config{
		Credentials: Credentials{Username: testUser, Password: testPass},
		Devices:     []Device{{Name: "trunk01", Class: "Cisco SIP"}},
		Timeout:     100 * time.Millisecond,
	}, srv.Client(), zap.NewNop(), mf)

	start := time.Now()
	_, err := c.Collect(context.Background(), Request{Server: addr(srv), Counter: SipTrunk})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

// Two servers report the same trunk, a third fails: the failure is recorded
// and the surviving values are summed.
func TestCollectAllSumsAcrossServers(t *testing.T) {
	name := `\\node\Cisco SIP(trunk01)\CallsInProgress`
	var hits atomic.Int32
	pub := newPerfmonServer(t, responseFor(name, "5"), &hits)
	sub := newPerfmonServer(t, responseFor(name, "7"), &hits)
	broken := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer broken.Close()

	// all three test servers share the httptest certificate
	c := newTestCollector(t, pub.Client(), []Device{{Name: "trunk01", Class: "Cisco SIP"}})

	reqs := BuildRequests([]CounterType{SipTrunk}, []Server{addr(pub), addr(broken), addr(sub)})
	samples, results := c.CollectAll(context.Background(), reqs)

	require.Len(t, results, 3)
	assert.True(t, results[0].OK())
	assert.False(t, results[1].OK())
	assert.ErrorIs(t, results[1].Err, ErrUnexpectedStatus)
	assert.Equal(t, addr(broken), results[1].Request.Server)
	assert.True(t, results[2].OK())
	assert.Equal(t, 1, results[2].Samples)
	assert.EqualValues(t, 2, hits.Load())

	got := Aggregate(samples)
	v, ok := got.Value("trunk01")
	require.True(t, ok)
	assert.Equal(t, int64(12), v)
}

func TestCollectAllEmpty(t *testing.T) {
	c := newTestCollector(t, http.DefaultClient, nil)
	samples, results := c.CollectAll(context.Background(), nil)
	assert.Empty(t, samples)
	assert.Empty(t, results)
}

func TestEndpoint(t *testing.T) {
	got := endpoint(Server{Address: "10.0.0.1"})
	assert.Equal(t, "https://10.0.0.1/perfmonservice/services/PerfmonPort", got)
	assert.True(t, strings.HasPrefix(endpoint(Server{Address: "cucm:8443"}), "https://cucm:8443/"))
}
