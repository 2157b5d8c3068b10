package storage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/n6g7/dnstable/internal/config"
	"github.com/n6g7/dnstable/internal/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slices"
)

type fakePihole struct {
	mu       sync.Mutex
	password string
	csrf     string
	hosts    []string
	logins   int
	calls    []string
}

func (f *fakePihole) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.URL.Path == "/api/auth" && r.Method == http.MethodPost {
		var req loginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		resp := loginResponse{}
		if req.Password == f.password {
			f.logins++
			f.csrf = "token"
			resp.Session.Valid = true
			resp.Session.Csrf = f.csrf
		}
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	if f.csrf == "" || r.Header.Get("X-CSRF-TOKEN") != f.csrf {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == piholeHostsPath:
		out := hostsResult{}
		out.Config.DNS.Hosts = f.hosts
		_ = json.NewEncoder(w).Encode(out)
	case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, piholeHostsPath+"/"):
		entry := strings.TrimPrefix(r.URL.Path, piholeHostsPath+"/")
		f.calls = append(f.calls, "PUT "+entry)
		f.hosts = append(f.hosts, entry)
		w.WriteHeader(http.StatusCreated)
	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, piholeHostsPath+"/"):
		entry := strings.TrimPrefix(r.URL.Path, piholeHostsPath+"/")
		idx := slices.Index(f.hosts, entry)
		if idx < 0 {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}
		f.calls = append(f.calls, "DELETE "+entry)
		f.hosts = slices.Delete(f.hosts, idx, idx+1)
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

func newPiholeBackend(t *testing.T, fake *fakePihole) *PiholeBackend {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	backend := NewPiholeBackend(testLogger, config.PiholeConf{URL: server.URL + "/", Password: fake.password})
	require.NoError(t, backend.Init(context.Background()))
	return backend
}

func TestPiholeBackend_InitBadPassword(t *testing.T) {
	fake := &fakePihole{password: "secret"}
	server := httptest.NewServer(fake)
	defer server.Close()

	backend := NewPiholeBackend(testLogger, config.PiholeConf{URL: server.URL, Password: "wrong"})
	assert.Error(t, backend.Init(context.Background()))
}

func TestPiholeBackend_Load(t *testing.T) {
	fake := &fakePihole{
		password: "secret",
		hosts:    []string{"1.1.1.1 a.lan b.lan", "2.2.2.2 C.lan", "garbage", "3.3.3.3 bad_host"},
	}
	backend := newPiholeBackend(t, fake)

	records, err := backend.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Records{
		record.MustDomainName("a.lan"): record.MustIPAddress("1.1.1.1"),
		record.MustDomainName("b.lan"): record.MustIPAddress("1.1.1.1"),
		record.MustDomainName("c.lan"): record.MustIPAddress("2.2.2.2"),
	}, records)
}

func TestPiholeBackend_Save(t *testing.T) {
	fake := &fakePihole{
		password: "secret",
		hosts:    []string{"1.1.1.1 a.lan b.lan", "2.2.2.2 c.lan", "4.4.4.4 keep.lan"},
	}
	backend := newPiholeBackend(t, fake)

	local := Records{
		record.MustDomainName("a.lan"):    record.MustIPAddress("1.1.1.1"),
		record.MustDomainName("c.lan"):    record.MustIPAddress("2.2.2.3"),
		record.MustDomainName("new.lan"):  record.MustIPAddress("5.5.5.5"),
		record.MustDomainName("keep.lan"): record.MustIPAddress("4.4.4.4"),
	}
	require.NoError(t, backend.Save(context.Background(), local))

	assert.Equal(t, []string{
		"DELETE 1.1.1.1 a.lan b.lan",
		"DELETE 2.2.2.2 c.lan",
		"PUT 1.1.1.1 a.lan",
		"PUT 2.2.2.3 c.lan",
		"PUT 5.5.5.5 new.lan",
	}, fake.calls)

	reloaded, err := backend.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, local, reloaded)

	// A second save has nothing to do.
	fake.calls = nil
	require.NoError(t, backend.Save(context.Background(), local))
	assert.Empty(t, fake.calls)
}

func TestPiholeBackend_SaveRemovesEveryLineOfADomain(t *testing.T) {
	fake := &fakePihole{
		password: "secret",
		hosts:    []string{"1.1.1.1 a.lan", "2.2.2.2 a.lan", "3.3.3.3 b.lan", "4.4.4.4 b.lan c.lan"},
	}
	backend := newPiholeBackend(t, fake)

	// a.lan is deleted and b.lan keeps the address it loaded with.
	local := Records{
		record.MustDomainName("b.lan"): record.MustIPAddress("4.4.4.4"),
		record.MustDomainName("c.lan"): record.MustIPAddress("4.4.4.4"),
	}
	require.NoError(t, backend.Save(context.Background(), local))

	assert.Equal(t, []string{
		"DELETE 1.1.1.1 a.lan",
		"DELETE 2.2.2.2 a.lan",
		"DELETE 3.3.3.3 b.lan",
		"DELETE 4.4.4.4 b.lan c.lan",
		"PUT 4.4.4.4 b.lan",
		"PUT 4.4.4.4 c.lan",
	}, fake.calls)
	assert.ElementsMatch(t, []string{"4.4.4.4 b.lan", "4.4.4.4 c.lan"}, fake.hosts)

	fake.calls = nil
	require.NoError(t, backend.Save(context.Background(), local))
	assert.Empty(t, fake.calls)
}

func TestPiholeBackend_RefreshesExpiredSession(t *testing.T) {
	fake := &fakePihole{password: "secret", hosts: []string{"1.1.1.1 a.lan"}}
	backend := newPiholeBackend(t, fake)

	fake.mu.Lock()
	fake.csrf = "rotated"
	fake.mu.Unlock()

	records, err := backend.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 2, fake.logins)
}
