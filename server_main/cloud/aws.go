// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/user"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/credentials/ec2rolecreds"
	"github.com/aws/aws-sdk-go/aws/ec2metadata"
	"github.com/aws/aws-sdk-go/aws/session"
)

const AWSProfile = "riverboat"

// Instance metadata answers quickly or not at all.
var metadataClient = http.Client{Timeout: time.Second / 2}

type UserData struct {
	Domain        string
	Region        string
	Stage         string
	ServerSlots   int
	Route53ZoneID string
}

func getAWSSession(region string) (*session.Session, error) {
	usr, err := user.Current()
	if err != nil {
		return nil, err
	}
	path := fmt.Sprintf("%s/.aws/credentials", usr.HomeDir)

	var creds *credentials.Credentials
	if _, err := os.Stat(path); err == nil {
		creds = credentials.NewSharedCredentials(path, AWSProfile)
	} else {
		creds = credentials.NewCredentials(&ec2rolecreds.EC2RoleProvider{Client: ec2metadata.New(session.Must(session.NewSession()))})
	}

	return session.NewSession(&aws.Config{
		Region:      aws.String(region),
		Credentials: creds,
	})
}

func getPublicIP() (net.IP, error) {
	resp, err := http.Get("http://checkip.amazonaws.com")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	ipString := strings.TrimSpace(string(body))
	ip := net.ParseIP(ipString)
	if ip == nil {
		return nil, fmt.Errorf("could not parse IP address %q", ipString)
	}
	return ip, nil
}

// loadUserData parses the KEY="value" lines an instance is launched with.
func loadUserData() (*UserData, error) {
	response, err := metadataClient.Get("http://169.254.169.254/latest/user-data/")
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	data := &UserData{}
	scanner := bufio.NewScanner(response.Body)
	for scanner.Scan() {
		name, value, ok := strings.Cut(scanner.Text(), "=")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		value = strings.Trim(value, "\" ")

		switch name {
		case "DOMAIN":
			data.Domain = value
		case "REGION":
			data.Region = value
		case "STAGE":
			data.Stage = value
		case "SERVER_SLOTS":
			if data.ServerSlots, err = strconv.Atoi(value); err != nil {
				return nil, fmt.Errorf("server slots: %w", err)
			}
		case "ROUTE53_ZONEID":
			data.Route53ZoneID = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	switch {
	case data.Domain == "":
		return nil, errors.New("missing domain")
	case data.Region == "":
		return nil, errors.New("missing region")
	case data.Stage == "":
		return nil, errors.New("missing stage")
	case data.ServerSlots < 1:
		return nil, errors.New("missing server slots")
	case data.Route53ZoneID == "":
		return nil, errors.New("missing route53 zoneID")
	}
	return data, nil
}
