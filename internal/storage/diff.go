package storage

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/n6g7/dnstable/internal/record"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var syncCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "dnstable_synced_records_total",
	Help: "The total number of records written to or removed from a remote backend",
}, []string{"backend", "action"})

// Changes lists the domains a remote backend must touch to match the local table.
type Changes struct {
	Create mapset.Set[record.DomainName]
	Update mapset.Set[record.DomainName]
	Delete mapset.Set[record.DomainName]
}

func (c Changes) Empty() bool {
	return c.Create.Cardinality() == 0 && c.Update.Cardinality() == 0 && c.Delete.Cardinality() == 0
}

func domainSet(records Records) mapset.Set[record.DomainName] {
	set := mapset.NewThreadUnsafeSet[record.DomainName]()
	for domain := range records {
		set.Add(domain)
	}
	return set
}

func Diff(remote, local Records) Changes {
	remoteDomains := domainSet(remote)
	localDomains := domainSet(local)

	update := mapset.NewThreadUnsafeSet[record.DomainName]()
	for domain := range remoteDomains.Intersect(localDomains).Iter() {
		if remote[domain] != local[domain] {
			update.Add(domain)
		}
	}

	return Changes{
		Create: localDomains.Difference(remoteDomains), // L - R
		Update: update,                                 // L & R, different address
		Delete: remoteDomains.Difference(localDomains), // R - L
	}
}
