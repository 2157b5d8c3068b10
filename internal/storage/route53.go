package storage

import (
	"context"
	"fmt"
	"strings"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/route53/types"
	"github.com/n6g7/dnstable/internal/config"
	"github.com/n6g7/dnstable/internal/record"
	"github.com/n6g7/nomtail/pkg/log"
)

// route53API is the subset of *route53.Client the backend uses.
type route53API interface {
	ListHostedZonesByName(ctx context.Context, params *route53.ListHostedZonesByNameInput, optFns ...func(*route53.Options)) (*route53.ListHostedZonesByNameOutput, error)
	ListResourceRecordSets(ctx context.Context, params *route53.ListResourceRecordSetsInput, optFns ...func(*route53.Options)) (*route53.ListResourceRecordSetsOutput, error)
	ChangeResourceRecordSets(ctx context.Context, params *route53.ChangeResourceRecordSetsInput, optFns ...func(*route53.Options)) (*route53.ChangeResourceRecordSetsOutput, error)
}

// Route53Backend keeps the table as A records in a Route53 hosted zone.
type Route53Backend struct {
	logger     *log.Logger
	hostedZone string
	ttl        int64
	region     string

	hostedZoneId *string
	client       route53API
}

func NewRoute53Backend(logger *log.Logger, conf config.Route53Conf) *Route53Backend {
	return &Route53Backend{
		logger:     logger.With("component", "route53"),
		hostedZone: strings.TrimSuffix(conf.HostedZone, "."),
		ttl:        conf.TTL,
		region:     conf.AWSRegion,
	}
}

func (r *Route53Backend) Init(ctx context.Context) error {
	if r.client == nil {
		cfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(r.region))
		if err != nil {
			return fmt.Errorf("error loading AWS config: %w", err)
		}
		r.client = route53.NewFromConfig(cfg)
	}

	output, err := r.client.ListHostedZonesByName(ctx, &route53.ListHostedZonesByNameInput{
		DNSName: &r.hostedZone,
	})
	if err != nil {
		return fmt.Errorf("error listing hosted zones: %w", err)
	}

	// The listing starts at DNSName and continues in lexical order.
	var matches []types.HostedZone
	for _, zone := range output.HostedZones {
		if zone.Name != nil && strings.TrimSuffix(*zone.Name, ".") == r.hostedZone {
			matches = append(matches, zone)
		}
	}
	if len(matches) > 1 {
		return fmt.Errorf("found multiple (%d) hosted zones matching DNS name \"%s\", try a different name?", len(matches), r.hostedZone)
	}
	if len(matches) == 0 {
		return fmt.Errorf("could not find a hosted zone with DNS name \"%s\"", r.hostedZone)
	}
	r.hostedZoneId = matches[0].Id
	r.logger.Debug("found hosted zone", "hosted_zone", r.hostedZone, "id", *r.hostedZoneId)

	return nil
}

func (r *Route53Backend) listRecordSets(ctx context.Context) ([]types.ResourceRecordSet, error) {
	input := &route53.ListResourceRecordSetsInput{HostedZoneId: r.hostedZoneId}

	var rrsets []types.ResourceRecordSet
	for {
		output, err := r.client.ListResourceRecordSets(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("error listing records sets in %s: %w", r.hostedZone, err)
		}
		rrsets = append(rrsets, output.ResourceRecordSets...)
		if !output.IsTruncated {
			return rrsets, nil
		}
		input.StartRecordName = output.NextRecordName
		input.StartRecordType = output.NextRecordType
		input.StartRecordIdentifier = output.NextRecordIdentifier
	}
}

// aRecords indexes the zone's simple A record sets by domain.
func (r *Route53Backend) aRecords(ctx context.Context) (Records, map[record.DomainName]types.ResourceRecordSet, error) {
	rrsets, err := r.listRecordSets(ctx)
	if err != nil {
		return nil, nil, err
	}

	records := Records{}
	sets := map[record.DomainName]types.ResourceRecordSet{}
	for _, rrs := range rrsets {
		if rrs.Type != types.RRTypeA || rrs.Name == nil || len(rrs.ResourceRecords) == 0 {
			continue
		}
		name := strings.TrimSuffix(*rrs.Name, ".")
		domain, err := record.ParseDomainName(name)
		if err != nil {
			r.logger.Warn("skipping record set", "name", name, "err", err)
			continue
		}
		value := rrs.ResourceRecords[0].Value
		if value == nil {
			continue
		}
		address, err := record.ParseIPAddress(*value)
		if err != nil {
			r.logger.Warn("skipping record set", "name", name, "value", *value, "err", err)
			continue
		}
		if len(rrs.ResourceRecords) > 1 {
			r.logger.Debug("record set has several values, using the first one", "name", name)
		}
		records[domain] = address
		sets[domain] = rrs
	}
	return records, sets, nil
}

func (r *Route53Backend) Load(ctx context.Context) (Records, error) {
	records, _, err := r.aRecords(ctx)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("loaded records", "hosted_zone", r.hostedZone, "count", len(records))
	return records, nil
}

// Save upserts created and changed records and deletes stale ones in a single
// change batch.
func (r *Route53Backend) Save(ctx context.Context, records Records) error {
	remote, sets, err := r.aRecords(ctx)
	if err != nil {
		return err
	}

	changes := Diff(remote, records)
	if changes.Empty() {
		r.logger.Debug("hosted zone is in sync, nothing to save")
		return nil
	}

	var batch []types.Change
	for _, domain := range sortedDomains(recordsOf(remote, changes.Delete)) {
		rrs := sets[domain]
		batch = append(batch, types.Change{
			Action:            types.ChangeActionDelete,
			ResourceRecordSet: &rrs,
		})
	}
	upserts := recordsOf(records, changes.Create.Union(changes.Update))
	for _, domain := range sortedDomains(upserts) {
		name := domain.String()
		value := upserts[domain].String()
		batch = append(batch, types.Change{
			Action: types.ChangeActionUpsert,
			ResourceRecordSet: &types.ResourceRecordSet{
				Name: &name,
				Type: types.RRTypeA,
				TTL:  &r.ttl,
				ResourceRecords: []types.ResourceRecord{
					{
						Value: &value,
					},
				},
			},
		})
	}

	_, err = r.client.ChangeResourceRecordSets(ctx, &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: r.hostedZoneId,
		ChangeBatch: &types.ChangeBatch{
			Changes: batch,
		},
	})
	if err != nil {
		return fmt.Errorf("error while changing record sets in %s: %w", r.hostedZone, err)
	}

	syncCounter.WithLabelValues(config.Route53, "delete").Add(float64(changes.Delete.Cardinality()))
	syncCounter.WithLabelValues(config.Route53, "create").Add(float64(len(upserts)))
	r.logger.Info("saved records", "hosted_zone", r.hostedZone, "deleted", changes.Delete.Cardinality(), "upserted", len(upserts))
	return nil
}
