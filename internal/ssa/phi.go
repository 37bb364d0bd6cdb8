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
    mapset `github.com/deckarep/golang-set/v2`
    `github.com/oleiade/lane`
    `golang.org/x/exp/slices`

    `github.com/cloudwego/midend/ir`
)

func assigns(rt *ir.Routine, bb *ir.Block, name string) bool {
    for _, p := range rt.Body(bb) {
        for _, t := range p.LHS {
            if v, ok := t.(ir.Variable); ok && v.Name == name {
                return true
            }
        }
    }
    return false
}

func insertEntry(rt *ir.Routine) {
    lhs := make([]ir.Token, len(rt.Locals))
    for i, v := range rt.Locals {
        lhs[i] = v
    }
    rt.InsertStmt(rt.EntryBlock(), 0, rt.NewStmt(ir.OP_entry, lhs, nil))
}

func insertPhi(rt *ir.Routine, bb *ir.Block, v ir.Variable) {
    rhs := make([]ir.Token, len(bb.Preds))
    for i := range rhs {
        rhs[i] = v
    }
    rt.AddPhi(bb, rt.NewStmt(ir.OP_phi, []ir.Token { v }, rhs))
}

// PlacePhis inserts the synthetic Entry statement and places Phi nodes on the
// iterated dominance frontier of every local. It returns the number of Phi
// nodes inserted. The dominance frontiers must be up to date.
func PlacePhis(rt *ir.Routine) int {
    n := 0
    q := lane.NewQueue()

    /* every local is defined once at the very beginning */
    if len(rt.Locals) != 0 {
        insertEntry(rt)
    }

    /* insert Phi nodes for every variable */
    for _, v := range rt.Locals {
        queued := mapset.NewThreadUnsafeSet[ir.BlockID]()
        placed := mapset.NewThreadUnsafeSet[ir.BlockID]()

        /* find out all the definition sites */
        for _, bb := range rt.Blocks() {
            if assigns(rt, bb, v.Name) {
                queued.Add(bb.Id)
                q.Enqueue(bb.Id)
            }
        }

        /* iterate over the dominance frontiers */
        for !q.Empty() {
            df := rt.Block(q.Dequeue().(ir.BlockID)).Frontier.ToSlice()
            slices.Sort(df)

            /* place a Phi node on each frontier block once */
            for _, d := range df {
                if placed.Add(d) {
                    n++
                    insertPhi(rt, rt.Block(d), v)

                    /* the Phi node is a new definition site */
                    if queued.Add(d) {
                        q.Enqueue(d)
                    }
                }
            }
        }
    }

    /* all done */
    return n
}
