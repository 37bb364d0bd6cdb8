/*
 * Copyright 2022 ByteDance Inc.
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

package midend

import (
    `github.com/pkg/errors`

    `github.com/cloudwego/midend/ir`
)

// InvariantViolation occures when a pass finds the routine in a state it can
// not handle, such as a name defined twice in SSA form.
type InvariantViolation = ir.InvariantViolation

// MalformedGraph occures when the block graph itself is inconsistent.
type MalformedGraph = ir.MalformedGraph

// IsInvariantViolation reports whether err is caused by an InvariantViolation.
func IsInvariantViolation(err error) bool {
    _, ok := errors.Cause(err).(InvariantViolation)
    return ok
}

// IsMalformedGraph reports whether err is caused by a MalformedGraph.
func IsMalformedGraph(err error) bool {
    _, ok := errors.Cause(err).(MalformedGraph)
    return ok
}
