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
    `golang.org/x/exp/maps`
    `golang.org/x/exp/slices`

    `github.com/cloudwego/midend/ir`
)

const (
    _PassDefUse = "defuse"
)

// DefUse maps every SSA name to its unique defining statement and to the
// statements that read it.
type DefUse struct {
    rt   *ir.Routine
    defs map[string]ir.StmtID
    uses map[string][]ir.StmtID
}

func (self *DefUse) define(p *ir.Stmt) error {
    for _, n := range p.Defines() {
        if d, ok := self.defs[n]; ok {
            return ir.Invariantf(_PassDefUse, "%s is defined by both instr %d and instr %d", n, self.rt.Stmt(d).Index, p.Index)
        } else {
            self.defs[n] = p.Id
        }
    }
    return nil
}

func (self *DefUse) use(p *ir.Stmt) {
    for _, n := range p.Uses() {
        if v := self.uses[n]; len(v) == 0 || v[len(v) - 1] != p.Id {
            self.uses[n] = append(v, p.Id)
        }
    }
}

// Analyze builds the def-use chains of a routine in SSA form. Blocks are
// scanned in program order, Phi nodes before the body, so the use lists are
// ordered the same way.
func Analyze(rt *ir.Routine) (*DefUse, error) {
    ret := &DefUse {
        rt   : rt,
        defs : make(map[string]ir.StmtID),
        uses : make(map[string][]ir.StmtID),
    }

    /* scan every statement */
    for _, bb := range rt.Blocks() {
        for _, p := range append(rt.PhiNodes(bb), rt.Body(bb)...) {
            if err := ret.define(p); err != nil {
                return nil, err
            }
            ret.use(p)
        }
    }

    /* all done */
    return ret, nil
}

// Defined reports whether `name` has a definition.
func (self *DefUse) Defined(name string) bool {
    _, ok := self.defs[name]
    return ok
}

// DefinitionOf returns the statement defining `name`.
func (self *DefUse) DefinitionOf(name string) (*ir.Stmt, error) {
    if id, ok := self.defs[name]; !ok {
        return nil, ir.Invariantf(_PassDefUse, "%s has no definition", name)
    } else {
        return self.rt.Stmt(id), nil
    }
}

// UsesOf returns the statements reading `name`, each statement once.
func (self *DefUse) UsesOf(name string) []*ir.Stmt {
    ret := make([]*ir.Stmt, 0, len(self.uses[name]))
    for _, id := range self.uses[name] {
        ret = append(ret, self.rt.Stmt(id))
    }
    return ret
}

// Names returns every defined name in lexical order.
func (self *DefUse) Names() []string {
    ret := maps.Keys(self.defs)
    slices.Sort(ret)
    return ret
}

func (self *DefUse) unused(name string, def *ir.Stmt) bool {
    for _, id := range self.uses[name] {
        if id != def.Id {
            return false
        }
    }
    return true
}

func (self *DefUse) prune() (int, []string) {
    var ret []string

    /* Phi nodes only used by themselves are dead */
    for _, bb := range self.rt.Blocks() {
        for _, p := range self.rt.PhiNodes(bb) {
            if n := p.Defines()[0]; self.unused(n, p) {
                ret = append(ret, n)
                self.rt.RemoveStmt(p)
            }
        }
    }

    /* drop the Entry definitions that are never used */
    for _, p := range self.rt.Body(self.rt.EntryBlock()) {
        if p.Op == ir.OP_entry {
            lhs := p.LHS[:0]
            for _, t := range p.LHS {
                if n, ok := ir.NameOf(t); ok && len(self.uses[n]) == 0 {
                    ret = append(ret, n)
                } else {
                    lhs = append(lhs, t)
                }
            }

            /* remove the Entry statement if nothing is left */
            if p.LHS = lhs; len(lhs) == 0 {
                self.rt.RemoveStmt(p)
            }
        }
    }

    /* count the removed definitions */
    return len(ret), ret
}

// EliminateUnused repeatedly removes Phi nodes nothing reads and Entry
// definitions nothing reads until no more can be removed. It returns the
// number of definitions removed.
func EliminateUnused(rt *ir.Routine) (int, error) {
    var n int
    var dead []string

    /* iterate until converge */
    for {
        du, err := Analyze(rt)
        if err != nil {
            return 0, err
        }

        /* remove one layer of dead definitions */
        m, names := du.prune()
        if m == 0 {
            break
        }

        /* accumulate the removed names */
        n += m
        dead = append(dead, names...)
    }

    /* keep the local list in sync */
    DropLocals(rt, dead...)
    log.L.WithFields(log.Fields {
        "routine" : rt.Name,
        "removed" : n,
    }).Debug("defuse: eliminated unused definitions")
    return n, nil
}

// DropLocals removes the named SSA variables from the local list.
func DropLocals(rt *ir.Routine, names ...string) {
    if len(names) == 0 {
        return
    }

    /* filter in place */
    ret := rt.Locals[:0]
    for _, v := range rt.Locals {
        if !slices.Contains(names, v.Key()) {
            ret = append(ret, v)
        }
    }

    /* update the local list */
    rt.Locals = ret
}
