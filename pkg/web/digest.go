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

package web

import (
	"crypto/md5" //nolint:gosec // G501: RFC 2617 digest auth is MD5; miner firmwares support nothing newer
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var errNotDigestChallenge = errors.New("not a digest challenge")

// answerChallenge computes an RFC 2617 Authorization header for a
// WWW-Authenticate digest challenge. qop="auth" and algorithm=MD5 are the
// only variants stock miner firmwares issue.
func answerChallenge(challenge, username, password, method, uri string) (string, error) {
	const prefix = "Digest "

	if !strings.HasPrefix(challenge, prefix) {
		return "", fmt.Errorf("%w: %q", errNotDigestChallenge, challenge)
	}

	params := parseChallenge(challenge[len(prefix):])

	realm := params["realm"]
	nonce := params["nonce"]
	qop := params["qop"]

	cnonce, err := newCnonce()
	if err != nil {
		return "", err
	}

	ha1 := md5Hex(fmt.Sprintf("%s:%s:%s", username, realm, password))
	ha2 := md5Hex(fmt.Sprintf("%s:%s", method, uri))

	var response string

	if qop == "" {
		response = md5Hex(fmt.Sprintf("%s:%s:%s", ha1, nonce, ha2))
	} else {
		response = md5Hex(fmt.Sprintf("%s:%s:%08x:%s:%s:%s", ha1, nonce, 1, cnonce, qop, ha2))
	}

	var b strings.Builder

	fmt.Fprintf(&b, `Digest username=%q, realm=%q, nonce=%q, uri=%q, response=%q`,
		username, realm, nonce, uri, response)

	if qop != "" {
		fmt.Fprintf(&b, `, qop=%s, nc=%08x, cnonce=%q`, qop, 1, cnonce)
	}

	if opaque := params["opaque"]; opaque != "" {
		fmt.Fprintf(&b, `, opaque=%q`, opaque)
	}

	return b.String(), nil
}

func parseChallenge(s string) map[string]string {
	params := make(map[string]string)

	for _, part := range strings.Split(s, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}

		params[strings.ToLower(key)] = strings.Trim(value, `"`)
	}

	return params
}

func newCnonce() (string, error) {
	buf := make([]byte, 8)

	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate cnonce: %w", err)
	}

	return hex.EncodeToString(buf), nil
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s)) //nolint:gosec // G401: required by the digest scheme
	return hex.EncodeToString(sum[:])
}
