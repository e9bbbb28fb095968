// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package dns

import (
	"fmt"
	"net"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/route53"
)

const recordTTL = 60

type Route53DNS struct {
	svc    *route53.Route53
	domain string
	zoneID string
}

func NewRoute53DNS(session *session.Session, domain string, zoneID string) (*Route53DNS, error) {
	return &Route53DNS{
		svc:    route53.New(session),
		domain: domain,
		zoneID: zoneID,
	}, nil
}

func (route53DNS *Route53DNS) hostname(region string, slot int) string {
	return fmt.Sprintf("river-%s-%d.%s", region, slot, route53DNS.domain)
}

func (route53DNS *Route53DNS) UpdateRoute(region string, slot int, address net.IP) (string, error) {
	hostname := route53DNS.hostname(region, slot)
	_, err := route53DNS.svc.ChangeResourceRecordSets(&route53.ChangeResourceRecordSetsInput{
		ChangeBatch: &route53.ChangeBatch{
			Comment: aws.String("riverboat server slot"),
			Changes: []*route53.Change{
				{
					Action: aws.String(route53.ChangeActionUpsert),
					ResourceRecordSet: &route53.ResourceRecordSet{
						Name: aws.String(hostname),
						Type: aws.String(route53.RRTypeA),
						ResourceRecords: []*route53.ResourceRecord{
							{Value: aws.String(address.String())},
						},
						TTL: aws.Int64(recordTTL),
					},
				},
			},
		},
		HostedZoneId: aws.String(route53DNS.zoneID),
	})
	if err != nil {
		return "", fmt.Errorf("upsert %s: %w", hostname, err)
	}
	return hostname, nil
}
