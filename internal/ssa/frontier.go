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
    `github.com/cloudwego/midend/ir`
)

// BuildFrontiers computes the dominance frontier of every block. Blocks are
// visited in dominator tree post order, so the frontier of every child is
// complete before its parent merges it.
func BuildFrontiers(rt *ir.Routine) {
    for _, bb := range rt.Blocks() {
        bb.Frontier.Clear()
    }

    /* merge the local and the up-propagated frontiers */
    for _, bb := range rt.TopOrder() {
        for _, s := range bb.Succs {
            if rt.Block(s).Idom != bb.Id {
                bb.Frontier.Add(s)
            }
        }

        /* add the frontiers of the children that escape this block */
        for _, c := range bb.Children {
            rt.Block(c).Frontier.Each(func(d ir.BlockID) bool {
                if rt.Block(d).Idom != bb.Id {
                    bb.Frontier.Add(d)
                }
                return false
            })
        }
    }
}
