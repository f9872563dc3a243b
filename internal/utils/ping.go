// ping.go
//
// Applicant pipeline and activity service for training-provider application forms
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of enrol-pipeline.
// enrol-pipeline is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// enrol-pipeline is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with enrol-pipeline.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package utils

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"
)

const pingTimeout = 1500 * time.Millisecond

var schemePorts = map[string]string{
	"http":  "80",
	"https": "443",
	"smtp":  "25",
	"smtps": "465",
}

// serviceAddress resolves a service URL to host:port, taking the port from
// the scheme when the URL has none
func serviceAddress(serviceURL string) (string, error) {
	u, err := url.Parse(serviceURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("invalid URL %q: no host", serviceURL)
	}

	port := u.Port()
	if port == "" {
		var ok bool
		if port, ok = schemePorts[u.Scheme]; !ok {
			port = "80"
		}
	}
	return net.JoinHostPort(u.Hostname(), port), nil
}

// PingService checks if a service is reachable at the given URL
func PingService(serviceURL string, timeout time.Duration) error {
	address, err := serviceAddress(serviceURL)
	if err != nil {
		return err
	}
	return dial(address, timeout)
}

func dial(address string, timeout time.Duration) error {
	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", address, err)
	}
	return conn.Close()
}

// PingAuthorizer checks if the Authorizer service is reachable
func PingAuthorizer(authzURL string) error {
	return PingService(authzURL, pingTimeout)
}

// PingSMTP checks if the mail relay accepts TCP connections
func PingSMTP(host string, port int) error {
	return dial(net.JoinHostPort(host, strconv.Itoa(port)), pingTimeout)
}
