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
    `github.com/containerd/log`
    mapset `github.com/deckarep/golang-set/v2`
    `github.com/oleiade/lane`

    `github.com/cloudwego/midend/internal/ssa`
    `github.com/cloudwego/midend/ir`
)

const (
    _PassSCCP = "sccp"
)

// FlowEdge is a control flow edge. The virtual edge into the entry block has
// no source.
type FlowEdge struct {
    Src ir.BlockID
    Dst ir.BlockID
}

type _Propagator struct {
    rt     *ir.Routine
    du     *ssa.DefUse
    exec   mapset.Set[FlowEdge]
    reach  map[ir.BlockID]int
    attrs  map[string]Attr
    flow   *lane.Queue
    uses   *lane.Queue
    rounds int
    limit  int
}

func newPropagator(rt *ir.Routine, du *ssa.DefUse, limit int) *_Propagator {
    return &_Propagator {
        rt    : rt,
        du    : du,
        exec  : mapset.NewThreadUnsafeSet[FlowEdge](),
        reach : make(map[ir.BlockID]int),
        attrs : make(map[string]Attr),
        flow  : lane.NewQueue(),
        uses  : lane.NewQueue(),
        limit : limit,
    }
}

func (self *_Propagator) init() {
    for _, name := range self.du.Names() {
        self.attrs[name] = TopAttr
    }

    /* parameters come from the caller */
    for _, p := range self.rt.Body(self.rt.EntryBlock()) {
        if p.Op == ir.OP_entry {
            for _, t := range p.LHS {
                if v, ok := t.(ir.Variable); ok && v.IsParam() {
                    self.attrs[v.Key()] = BottomAttr
                }
            }
        }
    }

    /* the virtual edge into the entry block */
    self.flow.Enqueue(FlowEdge { Src: ir.NoBlock, Dst: self.rt.Entry })
}

func (self *_Propagator) attrOf(t ir.Token) Attr {
    switch v := t.(type) {
        case ir.Constant : return ConstAttr(v.V)
        case ir.Offset   : return ConstAttr(v.V)
        default          : return self.nameAttr(t)
    }
}

func (self *_Propagator) nameAttr(t ir.Token) Attr {
    if n, ok := ir.NameOf(t); !ok {
        return BottomAttr
    } else if a, ok := self.attrs[n]; !ok {
        return BottomAttr
    } else {
        return a
    }
}

func (self *_Propagator) update(name string, v Attr) {
    old, ok := self.attrs[name]
    if !ok {
        return
    }

    /* attributes only ever move down the lattice */
    if nv := old.Meet(v); nv != old {
        self.attrs[name] = nv
        self.uses.Enqueue(name)
    }
}

func (self *_Propagator) follow(src ir.BlockID, dst ir.BlockID) {
    e := FlowEdge { Src: src, Dst: dst }
    if !self.exec.Contains(e) {
        self.flow.Enqueue(e)
    }
}

func (self *_Propagator) followAll(bb *ir.Block) {
    for _, s := range bb.Succs {
        self.follow(bb.Id, s)
    }
}

func (self *_Propagator) visitPhi(bb *ir.Block, p *ir.Stmt) {
    v := TopAttr
    for i, t := range p.RHS {
        if i < len(bb.Preds) && self.exec.Contains(FlowEdge { Src: bb.Preds[i], Dst: bb.Id }) {
            v = v.Meet(self.attrOf(t))
        }
    }
    self.update(p.Defines()[0], v)
}

func (self *_Propagator) visitBranch(bb *ir.Block, p *ir.Stmt) {
    if !p.Op.IsConditional() {
        self.follow(bb.Id, p.Target)
        return
    }

    /* evaluate the condition */
    switch v := self.attrOf(p.RHS[0]); v.Level {
        case Top: {
            log.L.WithFields(log.Fields {
                "routine" : self.rt.Name,
                "block"   : bb.Id,
                "instr"   : p.Index,
            }).Warn("sccp: branch on an undefined value, assuming both edges are taken")
            self.followAll(bb)
        }

        case Const: {
            if v.Value == p.Op.TakenOn() {
                self.follow(bb.Id, p.Target)
            } else if s, ok := bb.OtherSucc(p.Target); ok {
                self.follow(bb.Id, s)
            } else {
                self.follow(bb.Id, p.Target)
            }
        }

        default: {
            self.followAll(bb)
        }
    }
}

func (self *_Propagator) visit(bb *ir.Block, p *ir.Stmt) {
    switch p.Kind() {
        case ir.K_phi    : self.visitPhi(bb, p)
        case ir.K_entry  : break
        case ir.K_branch : self.visitBranch(bb, p)
        case ir.K_move   : self.update(p.Defines()[0], self.attrOf(p.RHS[0]))
        case ir.K_arith  : self.visitArith(p)
        default          : self.visitOpaque(p)
    }
}

func (self *_Propagator) visitArith(p *ir.Stmt) {
    x := self.attrOf(p.RHS[0])
    y := TopAttr

    /* binary operators have two operands */
    if !p.Op.IsUnary() {
        y = self.attrOf(p.RHS[1])
    }

    /* update all the definitions */
    for _, n := range p.Defines() {
        self.update(n, transfer(p.Op, x, y))
    }
}

func (self *_Propagator) visitOpaque(p *ir.Stmt) {
    for _, n := range p.Defines() {
        self.update(n, BottomAttr)
    }
}

func (self *_Propagator) visitBlock(e FlowEdge) {
    bb := self.rt.Block(e.Dst)
    self.reach[e.Dst]++

    /* a new edge into a visited block only changes its Phi nodes */
    if self.reach[e.Dst] > 1 {
        for _, p := range self.rt.PhiNodes(bb) {
            self.visitPhi(bb, p)
        }
        return
    }

    /* first visit, evaluate everything */
    for _, p := range self.rt.PhiNodes(bb) {
        self.visitPhi(bb, p)
    }
    for _, p := range self.rt.Body(bb) {
        self.visit(bb, p)
    }

    /* blocks without a branch flow into all of their successors */
    if self.rt.Terminator(bb) == nil {
        self.followAll(bb)
    }
}

func (self *_Propagator) visitUses(name string) {
    for _, p := range self.du.UsesOf(name) {
        if p.Attached() && self.reach[p.Block] > 0 {
            self.visit(self.rt.Block(p.Block), p)
        }
    }
}

func (self *_Propagator) run() error {
    for !self.flow.Empty() || !self.uses.Empty() {
        if self.rounds++; self.limit > 0 && self.rounds > self.limit {
            return ir.Invariantf(_PassSCCP, "no fixed point after %d rounds", self.limit)
        }

        /* control flow edges first */
        if !self.flow.Empty() {
            if e := self.flow.Dequeue().(FlowEdge); self.exec.Add(e) {
                self.visitBlock(e)
            }
            continue
        }

        /* then the names whose attributes have changed */
        self.visitUses(self.uses.Dequeue().(string))
    }
    return nil
}

// Analyze runs the propagation to its fixed point without changing the
// routine. A `limit` of zero or less means no limit on the number of rounds.
func Analyze(rt *ir.Routine, limit int) (*Solution, error) {
    du, err := ssa.Analyze(rt)
    if err != nil {
        return nil, err
    }

    /* propagate until converge */
    sp := newPropagator(rt, du, limit)
    sp.init()
    if err = sp.run(); err != nil {
        return nil, err
    }

    /* collect the solution */
    return &Solution {
        Attrs  : sp.attrs,
        Exec   : sp.exec,
        Reach  : sp.reach,
        Rounds : sp.rounds,
        du     : du,
    }, nil
}

// Propagate performs sparse conditional constant propagation on a routine in
// SSA form, then folds every constant it finds and removes the blocks and
// edges that can never execute.
func Propagate(rt *ir.Routine, limit int) (Result, error) {
    sol, err := Analyze(rt, limit)
    if err != nil {
        return Result{}, err
    }

    /* rewrite the routine */
    ret, err := sol.rewrite(rt)
    if err != nil {
        return ret, err
    }

    /* all done */
    log.L.WithFields(log.Fields {
        "routine"   : rt.Name,
        "rounds"    : ret.Rounds,
        "constants" : ret.Constants,
        "branches"  : ret.BranchesResolved,
        "blocks"    : ret.BlocksRemoved,
        "edges"     : ret.EdgesRemoved,
        "defs"      : ret.DefsRemoved,
    }).Debug("sccp: routine optimized")
    return ret, nil
}
