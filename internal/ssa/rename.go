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

const (
    _PassRename = "rename"
)

type _Renamer struct {
    rt    *ir.Routine
    defs  []ir.Variable
    local map[string]bool
    count map[string]int
    stack map[string][]int
}

func newRenamer(rt *ir.Routine) *_Renamer {
    ret := &_Renamer {
        rt    : rt,
        local : make(map[string]bool, len(rt.Locals)),
        count : make(map[string]int, len(rt.Locals)),
        stack : make(map[string][]int, len(rt.Locals)),
    }

    /* mark all the locals */
    for _, v := range rt.Locals {
        ret.local[v.Name] = true
    }
    return ret
}

func (self *_Renamer) popr(name string) {
    if n := len(self.stack[name]); n != 0 {
        self.stack[name] = self.stack[name][:n - 1]
    }
}

func (self *_Renamer) topr(v ir.Variable) (ir.Variable, error) {
    if !self.local[v.Name] {
        return v, ir.Invariantf(_PassRename, "variable %s is not a local of %s", v.Name, self.rt.Name)
    } else if n := len(self.stack[v.Name]); n == 0 {
        return v, ir.Invariantf(_PassRename, "use of %s before any definition", v.Name)
    } else {
        return v.Versioned(self.stack[v.Name][n - 1]), nil
    }
}

func (self *_Renamer) pushr(v ir.Variable) (ir.Variable, error) {
    if !self.local[v.Name] {
        return v, ir.Invariantf(_PassRename, "variable %s is not a local of %s", v.Name, self.rt.Name)
    }

    /* mint a new version */
    i := self.count[v.Name]
    self.count[v.Name] = i + 1
    self.stack[v.Name] = append(self.stack[v.Name], i)

    /* record the new SSA variable */
    r := v.Versioned(i)
    self.defs = append(self.defs, r)
    return r, nil
}

func (self *_Renamer) renameuses(p *ir.Stmt) (err error) {
    for i, t := range p.RHS {
        if v, ok := t.(ir.Variable); ok {
            if p.RHS[i], err = self.topr(v); err != nil {
                return
            }
        }
    }
    return
}

func (self *_Renamer) renamedefs(p *ir.Stmt, buf *[]string) (err error) {
    for i, t := range p.LHS {
        if v, ok := t.(ir.Variable); ok {
            if p.LHS[i], err = self.pushr(v); err != nil {
                return
            }
            *buf = append(*buf, v.Name)
        }
    }
    return
}

func (self *_Renamer) renamephis(bb *ir.Block, succ *ir.Block) error {
    i := succ.PredIndex(bb.Id)
    if i < 0 {
        return ir.Malformedf(succ.Id, "bb_%d is a successor of bb_%d but not the other way around", succ.Id, bb.Id)
    }

    /* rename the operand that flows in from this block */
    for _, phi := range self.rt.PhiNodes(succ) {
        if len(phi.RHS) != len(succ.Preds) {
            return ir.Malformedf(succ.Id, "Phi node %d has %d operands for %d predecessors", phi.Index, len(phi.RHS), len(succ.Preds))
        } else if v, err := self.topr(phi.PhiVar().Unversioned()); err != nil {
            return err
        } else {
            phi.RHS[i] = v
        }
    }
    return nil
}

func (self *_Renamer) renameblock(bb *ir.Block) error {
    var d []string

    /* rename Phi nodes */
    for _, p := range self.rt.PhiNodes(bb) {
        if err := self.renamedefs(p, &d); err != nil {
            return err
        }
    }

    /* rename body, uses before definitions */
    for _, p := range self.rt.Body(bb) {
        if err := self.renameuses(p); err != nil {
            return err
        }
        if err := self.renamedefs(p, &d); err != nil {
            return err
        }
    }

    /* rename all the Phi nodes of it's successors */
    for _, s := range bb.Succs {
        if err := self.renamephis(bb, self.rt.Block(s)); err != nil {
            return err
        }
    }

    /* rename all it's children in the dominator tree */
    for _, c := range bb.Children {
        if err := self.renameblock(self.rt.Block(c)); err != nil {
            return err
        }
    }

    /* pop the definitions */
    for _, s := range d {
        self.popr(s)
    }
    return nil
}

// Rename gives every definition of a local a fresh versioned name and points
// every use at the unique definition that reaches it. The local list of the
// routine is replaced by the versioned variables.
func Rename(rt *ir.Routine) error {
    rr := newRenamer(rt)
    if err := rr.renameblock(rt.EntryBlock()); err != nil {
        return err
    }
    rt.Locals = rr.defs
    return nil
}
