// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"errors"
	"fmt"
	"net"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stalcup-dev/riverboat-tournament/server"
	"github.com/stalcup-dev/riverboat-tournament/server_main/cloud/db"
	"github.com/stalcup-dev/riverboat-tournament/server_main/cloud/dns"
	"github.com/stalcup-dev/riverboat-tournament/server_main/cloud/fs"
)

const (
	UpdatePeriod = 30 * time.Second

	// Archived results never change.
	resultsCacheSeconds = 60 * 60 * 24
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Cloud is a deployed server's view of AWS.
type Cloud struct {
	region     string
	serverSlot int
	ip         net.IP
	hostname   string
	database   db.Database
	dns        dns.DNS
	fs         fs.Filesystem
}

var _ server.Cloud = (*Cloud)(nil)

func (cloud *Cloud) String() string {
	return fmt.Sprintf("[%s %d %s %s]", cloud.region, cloud.serverSlot, cloud.ip, cloud.hostname)
}

// New claims a server slot and points its DNS name at this machine.
func New() (*Cloud, error) {
	userData, err := loadUserData()
	if err != nil {
		return nil, fmt.Errorf("user data: %w", err)
	}

	cloud := &Cloud{region: userData.Region}

	if cloud.ip, err = getPublicIP(); err != nil {
		return nil, fmt.Errorf("public ip: %w", err)
	}

	session, err := getAWSSession(cloud.region)
	if err != nil {
		return nil, fmt.Errorf("aws session: %w", err)
	}

	if cloud.database, err = db.NewDynamoDBDatabase(session, userData.Stage); err != nil {
		return nil, err
	}
	if cloud.dns, err = dns.NewRoute53DNS(session, userData.Domain, userData.Route53ZoneID); err != nil {
		return nil, err
	}
	if cloud.fs, err = fs.NewS3Filesystem(session, userData.Stage); err != nil {
		return nil, err
	}

	servers, err := cloud.database.ReadServersByRegion(cloud.region)
	if err != nil {
		return nil, fmt.Errorf("read servers: %w", err)
	}

	cloud.serverSlot = claimSlot(servers, cloud.ip, userData.ServerSlots)
	if cloud.serverSlot == -1 {
		return nil, errors.New("no empty server slot")
	}

	if cloud.hostname, err = cloud.dns.UpdateRoute(cloud.region, cloud.serverSlot, cloud.ip); err != nil {
		return nil, err
	}

	if err = cloud.UpdateServer(0, 0); err != nil {
		return nil, err
	}
	return cloud, nil
}

// claimSlot reclaims the slot already held by ip, or else the lowest free
// one. It returns -1 if every slot is taken.
func claimSlot(servers []db.Server, ip net.IP, slots int) int {
	for _, server := range servers {
		if ip.Equal(server.IP) {
			return server.Slot
		}
	}

scan:
	for slot := 0; slot < slots; slot++ {
		for _, server := range servers {
			if server.Slot == slot {
				continue scan
			}
		}
		return slot
	}
	return -1
}

func (cloud *Cloud) UpdatePeriod() time.Duration {
	return UpdatePeriod
}

// UpdateServer keeps this server's row alive. It expires shortly after
// the server stops calling.
func (cloud *Cloud) UpdateServer(rooms, players int) error {
	return cloud.database.UpdateServer(db.Server{
		Region:  cloud.region,
		Slot:    cloud.serverSlot,
		IP:      cloud.ip,
		Rooms:   rooms,
		Players: players,
		TTL:     time.Now().Unix() + int64(UpdatePeriod/time.Second) + 5,
	})
}

// ArchiveResults uploads the full results, then indexes them.
func (cloud *Cloud) ArchiveResults(record server.MatchRecord) error {
	buf, err := json.Marshal(record)
	if err != nil {
		return err
	}

	key := resultsKey(record.RoomID)
	if err = cloud.fs.UploadFile(key, resultsCacheSeconds, buf); err != nil {
		return err
	}

	result := db.MatchResult{
		Room:         record.RoomID,
		Name:         record.Name,
		Region:       cloud.region,
		Seed:         record.Seed,
		MatchStartMs: record.MatchStartMs,
		MatchEndMs:   record.MatchEndMs,
		Players:      len(record.Results.Leaderboard),
		ResultsKey:   key,
	}
	if len(record.Results.Leaderboard) > 0 {
		result.Champion = record.Results.Leaderboard[0].Name
		result.ChampionScore = record.Results.Leaderboard[0].Score
	}
	return cloud.database.PutMatchResult(result)
}

func resultsKey(roomID string) string {
	return "results/" + roomID + ".json"
}
