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
	"errors"
	"fmt"
)

// ErrMalformedResponse is wrapped by errors for 2xx responses whose body is
// not the expected JSON.
var ErrMalformedResponse = errors.New("backend: malformed response")

// APIError is a non-2xx response.
type APIError struct {
	Method   string
	Endpoint string
	Status   int
	Message  string // server-provided error text, if any
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server %s %s: %d: %s", e.Method, e.Endpoint, e.Status, e.Message)
	}
	return fmt.Sprintf("server %s %s: %d", e.Method, e.Endpoint, e.Status)
}
