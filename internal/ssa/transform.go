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

package ssa

import (
    `github.com/containerd/log`

    `github.com/cloudwego/midend/ir`
)

// Stats summarizes a conversion into SSA form.
type Stats struct {
    Phis       int
    Versions   int
    Eliminated int
}

// Construct converts a routine into pruned SSA form: dominance frontiers,
// Phi placement, renaming, then removal of the definitions nothing reads.
func Construct(rt *ir.Routine) (Stats, error) {
    var err error
    var ret Stats

    /* make sure the dominator tree is fresh */
    rt.RebuildDominators()
    BuildFrontiers(rt)

    /* place Phi nodes and rename */
    ret.Phis = PlacePhis(rt)
    if err = Rename(rt); err != nil {
        return ret, err
    }

    /* prune the unused definitions */
    ret.Versions = len(rt.Locals)
    if ret.Eliminated, err = EliminateUnused(rt); err != nil {
        return ret, err
    }

    /* all done */
    log.L.WithFields(log.Fields {
        "routine"    : rt.Name,
        "phis"       : ret.Phis,
        "versions"   : ret.Versions,
        "eliminated" : ret.Eliminated,
    }).Debug("ssa: routine converted")
    return ret, nil
}
