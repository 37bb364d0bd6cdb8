/*
 * Copyright 2022 CloudWeGo Authors
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

package ir

import (
    `fmt`

    `github.com/pkg/errors`
)

// InvariantViolation occures when a pass finds the routine in a state that an
// earlier pass (or the producer of the CFG) should never have left it in.
type InvariantViolation struct {
    Pass string
    Note string
}

func (self InvariantViolation) Error() string {
    return fmt.Sprintf("InvariantViolation(%s): %s", self.Pass, self.Note)
}

// MalformedGraph occures when the block graph itself is inconsistent, such as
// asymmetric edge lists or Phi nodes that disagree with their predecessors.
type MalformedGraph struct {
    Block BlockID
    Note  string
}

func (self MalformedGraph) Error() string {
    return fmt.Sprintf("MalformedGraph(bb_%d): %s", self.Block, self.Note)
}

func Invariantf(pass string, format string, args ...interface{}) error {
    return errors.WithStack(InvariantViolation {
        Pass: pass,
        Note: fmt.Sprintf(format, args...),
    })
}

func Malformedf(bb BlockID, format string, args ...interface{}) error {
    return errors.WithStack(MalformedGraph {
        Block: bb,
        Note : fmt.Sprintf(format, args...),
    })
}
