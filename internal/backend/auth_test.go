/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"strings"
	"testing"
	"time"
)

func TestToken_SignVerify(t *testing.T) {
	now := time.Now()
	tok, err := signToken("k", "alice", now.Add(time.Minute))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	sub, err := verifyToken("k", tok, now)
	if err != nil || sub != "alice" {
		t.Fatalf("verify: sub=%q err=%v", sub, err)
	}
	if _, err := verifyToken("other", tok, now); err != errTokenSignature {
		t.Fatalf("expected signature error, got %v", err)
	}
	if _, err := verifyToken("k", tok, now.Add(2*time.Minute)); err != errTokenExpired {
		t.Fatalf("expected expiry error, got %v", err)
	}
	for _, bad := range []string{"", "abc", "a.b.c", "!!.??"} {
		if _, err := verifyToken("k", bad, now); err != errTokenFormat {
			t.Fatalf("%q: expected format error, got %v", bad, err)
		}
	}
	payload, sig, _ := strings.Cut(tok, ".")
	if _, err := verifyToken("k", payload+"x."+sig, now); err == nil {
		t.Fatalf("tampered payload accepted")
	}
}
