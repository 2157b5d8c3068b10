package storage

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/n6g7/dnstable/internal/config"
	"github.com/n6g7/dnstable/internal/record"
	"github.com/n6g7/nomtail/pkg/log"
	"golang.org/x/exp/slices"
)

const piholeHostsPath = "/api/config/dns/hosts"

// PiholeBackend keeps the table in Pi-hole's local DNS hosts list. Each
// Pi-hole entry is an "IP HOST [HOST...]" line.
type PiholeBackend struct {
	logger   *log.Logger
	baseURL  string
	password string
	client   *JsonClient
}

func NewPiholeBackend(logger *log.Logger, conf config.PiholeConf) *PiholeBackend {
	return &PiholeBackend{
		logger:   logger.With("component", "pi-hole"),
		baseURL:  strings.TrimSuffix(conf.URL, "/"),
		password: conf.Password,
	}
}

// Send an HTTP request to the Pi-hole, with built-in CSRF token refresh.
func (ph *PiholeBackend) do(ctx context.Context, method, uri string, reqBody, respBody any) error {
	err := ph.client.Request(ctx, method, ph.baseURL+uri, reqBody, respBody)

	// A 401 probably means the session expired. Login again and retry once.
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusUnauthorized {
		if err := ph.login(ctx); err != nil {
			return fmt.Errorf("failed to login while refreshing CSRF token: %w", err)
		}
		return ph.client.Request(ctx, method, ph.baseURL+uri, reqBody, respBody)
	}
	return err
}

type loginRequest struct {
	Password string  `json:"password"`
	Totp     *string `json:"totp"`
}
type loginResponse struct {
	Session struct {
		Valid bool   `json:"valid"`
		Csrf  string `json:"csrf"`
	} `json:"session"`
}

func (ph *PiholeBackend) login(ctx context.Context) error {
	var response loginResponse
	err := ph.client.Request(
		ctx,
		http.MethodPost,
		ph.baseURL+"/api/auth",
		&loginRequest{Password: ph.password},
		&response,
	)
	if err != nil {
		return fmt.Errorf("pi-hole login failed: %w", err)
	}

	if !response.Session.Valid {
		return fmt.Errorf("pi-hole login failed due to invalid session")
	}

	ph.client.CsrfToken = response.Session.Csrf

	ph.logger.Debug("pi-hole login successful")
	return nil
}

func (ph *PiholeBackend) Init(ctx context.Context) error {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, // Ignore invalid certs
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return fmt.Errorf("cookie jar creation failed: %w", err)
	}
	ph.client = &JsonClient{Client: http.Client{
		Transport: transport,
		Jar:       jar,
	}}

	return ph.login(ctx)
}

type hostsResult struct {
	Config struct {
		DNS struct {
			Hosts []string `json:"hosts"`
		} `json:"dns"`
	} `json:"config"`
}

// piholeHosts is the parsed remote hosts list. entries maps each domain to
// the raw lines that declare it; a domain listed on several lines keeps the
// address of the last one.
type piholeHosts struct {
	records Records
	entries map[record.DomainName][]string
	domains map[string][]record.DomainName
}

func (ph *PiholeBackend) listHosts(ctx context.Context) (*piholeHosts, error) {
	output := &hostsResult{}
	if err := ph.do(ctx, http.MethodGet, piholeHostsPath, nil, output); err != nil {
		return nil, fmt.Errorf("error listing pi-hole hosts: %w", err)
	}

	hosts := &piholeHosts{
		records: Records{},
		entries: map[record.DomainName][]string{},
		domains: map[string][]record.DomainName{},
	}
	for _, entry := range output.Config.DNS.Hosts {
		fields := strings.Fields(entry)
		if len(fields) < 2 {
			ph.logger.Warn("skipping malformed pi-hole host entry", "entry", entry)
			continue
		}
		address, err := record.ParseIPAddress(fields[0])
		if err != nil {
			ph.logger.Warn("skipping pi-hole host entry", "entry", entry, "err", err)
			continue
		}
		for _, name := range fields[1:] {
			domain, err := record.ParseDomainName(name)
			if err != nil {
				ph.logger.Warn("skipping pi-hole host", "entry", entry, "host", name, "err", err)
				continue
			}
			hosts.records[domain] = address
			hosts.entries[domain] = append(hosts.entries[domain], entry)
			hosts.domains[entry] = append(hosts.domains[entry], domain)
		}
	}
	return hosts, nil
}

// duplicated returns the domains of records that are declared on more than
// one remote line.
func (h *piholeHosts) duplicated(records Records) mapset.Set[record.DomainName] {
	domains := mapset.NewThreadUnsafeSet[record.DomainName]()
	for domain, entries := range h.entries {
		if _, keep := records[domain]; keep && len(entries) > 1 {
			domains.Add(domain)
		}
	}
	return domains
}

func (ph *PiholeBackend) Load(ctx context.Context) (Records, error) {
	hosts, err := ph.listHosts(ctx)
	if err != nil {
		return nil, err
	}
	ph.logger.Debug("loaded records", "count", len(hosts.records))
	return hosts.records, nil
}

func hostPath(entry string) string {
	return piholeHostsPath + "/" + url.PathEscape(entry)
}

// Save removes every remote entry that declares a deleted or changed domain,
// then writes one entry per created, changed or collaterally removed domain.
func (ph *PiholeBackend) Save(ctx context.Context, records Records) error {
	hosts, err := ph.listHosts(ctx)
	if err != nil {
		return err
	}

	changes := Diff(hosts.records, records)
	duplicated := hosts.duplicated(records)
	if changes.Empty() && duplicated.Cardinality() == 0 {
		ph.logger.Debug("pi-hole is in sync, nothing to save")
		return nil
	}

	toWrite := changes.Create.Union(changes.Update).Union(duplicated)
	stale := mapset.NewThreadUnsafeSet[string]()
	for domain := range changes.Delete.Union(changes.Update).Union(duplicated).Iter() {
		stale.Append(hosts.entries[domain]...)
	}

	staleEntries := stale.ToSlice()
	slices.Sort(staleEntries)
	for _, entry := range staleEntries {
		ph.logger.Info("deleting host entry...", "entry", entry)
		if err := ph.do(ctx, http.MethodDelete, hostPath(entry), nil, nil); err != nil {
			return fmt.Errorf("host entry deletion failed: %w", err)
		}
		syncCounter.WithLabelValues(config.Pihole, "delete").Inc()

		// Hosts sharing the deleted line that we still want must be written back.
		for _, domain := range hosts.domains[entry] {
			if _, keep := records[domain]; keep {
				toWrite.Add(domain)
			}
		}
	}

	for _, domain := range sortedDomains(recordsOf(records, toWrite)) {
		entry := records[domain].String() + " " + domain.String()
		ph.logger.Info("creating host entry...", "entry", entry)
		if err := ph.do(ctx, http.MethodPut, hostPath(entry), nil, nil); err != nil {
			return fmt.Errorf("host entry creation failed: %w", err)
		}
		syncCounter.WithLabelValues(config.Pihole, "create").Inc()
	}
	return nil
}

func recordsOf(records Records, domains mapset.Set[record.DomainName]) Records {
	subset := Records{}
	for domain := range domains.Iter() {
		subset[domain] = records[domain]
	}
	return subset
}
