/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package models

import (
	"fmt"
	"net/url"
	"strconv"
)

// PoolURL is a parsed pool endpoint such as stratum+tcp://stratum.pool.io:3333.
type PoolURL struct {
	Scheme string `json:"scheme"`
	Host   string `json:"host"`
	Port   int    `json:"port"`
}

// ParsePoolURL parses a pool endpoint string.
func ParsePoolURL(raw string) (*PoolURL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid pool url %q: %w", raw, err)
	}

	port := 0
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid pool port in %q: %w", raw, err)
		}
	}

	return &PoolURL{
		Scheme: u.Scheme,
		Host:   u.Hostname(),
		Port:   port,
	}, nil
}

func (p PoolURL) String() string {
	if p.Port == 0 {
		return fmt.Sprintf("%s://%s", p.Scheme, p.Host)
	}

	return fmt.Sprintf("%s://%s:%d", p.Scheme, p.Host, p.Port)
}

// Pool is the per-pool slice of a harvest. Counters the device did not
// report stay nil.
type Pool struct {
	Index          *int     `json:"index,omitempty"`
	URL            *PoolURL `json:"url,omitempty"`
	User           *string  `json:"user,omitempty"`
	Accepted       *int64   `json:"accepted,omitempty"`
	Rejected       *int64   `json:"rejected,omitempty"`
	GetFailures    *int64   `json:"get_failures,omitempty"`
	RemoteFailures *int64   `json:"remote_failures,omitempty"`
	Active         *bool    `json:"active,omitempty"`
	Alive          *bool    `json:"alive,omitempty"`
}
