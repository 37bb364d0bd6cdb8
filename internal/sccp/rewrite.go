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

package sccp

import (
    mapset `github.com/deckarep/golang-set/v2`
    `golang.org/x/exp/maps`
    `golang.org/x/exp/slices`

    `github.com/cloudwego/midend/internal/ssa`
    `github.com/cloudwego/midend/ir`
)

// Solution is the fixed point reached by the propagation.
type Solution struct {
    Attrs  map[string]Attr
    Exec   mapset.Set[FlowEdge]
    Reach  map[ir.BlockID]int
    Rounds int
    du     *ssa.DefUse
}

// Result summarizes the changes made to a routine.
type Result struct {
    Rounds           int
    Constants        int
    BranchesResolved int
    BlocksRemoved    int
    EdgesRemoved     int
    DefsRemoved      int
}

// Changed reports whether the routine has been modified.
func (self Result) Changed() bool {
    return self.Constants != 0 ||
           self.BranchesResolved != 0 ||
           self.BlocksRemoved != 0 ||
           self.EdgesRemoved != 0 ||
           self.DefsRemoved != 0
}

// Merge accumulates the changes of another run into this one.
func (self *Result) Merge(other Result) {
    self.Rounds           += other.Rounds
    self.Constants        += other.Constants
    self.BranchesResolved += other.BranchesResolved
    self.BlocksRemoved    += other.BlocksRemoved
    self.EdgesRemoved     += other.EdgesRemoved
    self.DefsRemoved      += other.DefsRemoved
}

// Executable reports whether the edge from `src` to `dst` can ever be taken.
func (self *Solution) Executable(src ir.BlockID, dst ir.BlockID) bool {
    return self.Exec.Contains(FlowEdge { Src: src, Dst: dst })
}

// Reachable reports whether the block can ever be executed.
func (self *Solution) Reachable(bb ir.BlockID) bool {
    return self.Reach[bb] > 0
}

func (self *Solution) names(level Level) []string {
    var ret []string
    for _, n := range maps.Keys(self.Attrs) {
        if self.Attrs[n].Level == level {
            ret = append(ret, n)
        }
    }
    slices.Sort(ret)
    return ret
}

func (self *Solution) removeBlocks(rt *ir.Routine, ret *Result) error {
    for _, bb := range rt.Blocks() {
        if bb.Id != rt.Entry && !self.Reachable(bb.Id) {
            if err := rt.RemoveBlock(bb.Id); err != nil {
                return err
            }
            ret.BlocksRemoved++
        }
    }
    return nil
}

func (self *Solution) removeEdges(rt *ir.Routine, ret *Result) error {
    for _, bb := range rt.Blocks() {
        for _, s := range append([]ir.BlockID(nil), bb.Succs...) {
            if !self.Executable(bb.Id, s) {
                if err := rt.RemoveEdge(bb.Id, s); err != nil {
                    return err
                }
                ret.EdgesRemoved++
            }
        }
    }
    return nil
}

func (self *Solution) foldConstants(rt *ir.Routine, ret *Result) ([]string, error) {
    var dead []string
    for _, n := range self.names(Const) {
        def, err := self.du.DefinitionOf(n)
        if err != nil {
            return nil, err
        }

        /* replace every surviving use with the literal */
        lit := ir.Constant { V: self.Attrs[n].Value }
        for _, p := range self.du.UsesOf(n) {
            if p.Attached() {
                p.ReplaceUse(n, lit)
            }
        }

        /* the definition is no longer needed */
        if ret.Constants++; def.Attached() {
            ret.DefsRemoved++
            rt.RemoveStmt(def)
        }

        /* keep track of the removed variables */
        dead = append(dead, n)
    }
    return dead, nil
}

func (self *Solution) resolveBranches(rt *ir.Routine, ret *Result) {
    for _, bb := range rt.Blocks() {
        if p := rt.Terminator(bb); p != nil && p.Op.IsConditional() {
            if c, ok := p.RHS[0].(ir.Constant); ok {
                if ret.BranchesResolved++; c.V == p.Op.TakenOn() {
                    p.Op, p.RHS = ir.OP_br, nil
                } else {
                    rt.RemoveStmt(p)
                }
            }
        }
    }
}

func (self *Solution) removeUndefined(rt *ir.Routine, ret *Result) ([]string, error) {
    dead := mapset.NewThreadUnsafeSet[string]()
    more := true

    /* removing a definition may leave the names it read unused */
    for more {
        more = false
        for _, n := range self.names(Top) {
            if dead.Contains(n) {
                continue
            }

            /* every name in the solution has a definition */
            def, err := self.du.DefinitionOf(n)
            if err != nil {
                return nil, err
            }

            /* the definition went away with its block or Phi node */
            if !def.Attached() {
                dead.Add(n)
                continue
            }

            /* the Entry statement and the statements with side effects stay */
            if def.Op == ir.OP_entry || len(def.Defines()) != 1 || self.used(n, def) {
                continue
            }

            /* nothing reads it anymore */
            more = true
            dead.Add(n)
            ret.DefsRemoved++
            rt.RemoveStmt(def)
        }
    }

    /* sort the names for a stable local list */
    names := dead.ToSlice()
    slices.Sort(names)
    return names, nil
}

func (self *Solution) used(name string, def *ir.Stmt) bool {
    for _, p := range self.du.UsesOf(name) {
        if p.Attached() && p.Id != def.Id {
            for _, n := range p.Uses() {
                if n == name {
                    return true
                }
            }
        }
    }
    return false
}

func (self *Solution) rewrite(rt *ir.Routine) (Result, error) {
    var err error
    var dead []string
    var more []string

    /* the rounds it took to converge */
    ret := Result {
        Rounds: self.Rounds,
    }

    /* Step 1: remove the blocks that are never reached */
    if err = self.removeBlocks(rt, &ret); err != nil {
        return ret, err
    }

    /* Step 2: remove the edges that are never taken */
    if err = self.removeEdges(rt, &ret); err != nil {
        return ret, err
    }

    /* Step 3: fold the constants into their uses and resolve the branches */
    if dead, err = self.foldConstants(rt, &ret); err != nil {
        return ret, err
    }

    /* resolve the branches on literals */
    self.resolveBranches(rt, &ret)

    /* Step 4: remove the definitions that never receive a value */
    if more, err = self.removeUndefined(rt, &ret); err != nil {
        return ret, err
    }

    /* keep the local list and the dominator tree in sync */
    ssa.DropLocals(rt, append(dead, more...)...)
    if ret.BlocksRemoved != 0 || ret.EdgesRemoved != 0 {
        rt.RebuildDominators()
    }
    return ret, nil
}
