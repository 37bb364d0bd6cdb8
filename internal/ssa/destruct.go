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

const (
    _PassDestruct = "destruct"
)

// DefaultSlotSize is the number of bytes every reconciled local occupies in
// the stack frame.
const DefaultSlotSize = 8

// RemovePhis lowers every Phi node into a Move at the end of each
// predecessor, right before its branch if it has one. It returns the number
// of Moves inserted.
func RemovePhis(rt *ir.Routine) (int, error) {
    n := 0
    for _, bb := range rt.Blocks() {
        for _, phi := range rt.PhiNodes(bb) {
            if len(phi.RHS) != len(bb.Preds) {
                return n, ir.Malformedf(bb.Id, "Phi node %d has %d operands for %d predecessors", phi.Index, len(phi.RHS), len(bb.Preds))
            }

            /* one Move per incoming edge */
            for i, src := range phi.RHS {
                n++
                mv := rt.NewStmt(ir.OP_move, []ir.Token { phi.LHS[0] }, []ir.Token { src })
                rt.InsertBeforeTerminator(rt.Block(bb.Preds[i]), mv)
            }

            /* the Phi node is now redundant */
            rt.RemoveStmt(phi)
        }
    }
    return n, nil
}

type _Reconciler struct {
    slot   int64
    frame  int64
    table  map[string]ir.Variable
    locals []ir.Variable
}

func (self *_Reconciler) alloc(v ir.Variable, param bool) ir.Variable {
    r := ir.Variable {
        Name   : v.Key(),
        Offset : v.Offset,
        Type   : v.Type,
    }

    /* parameters keep their incoming slot, everything else gets a new one */
    if !param {
        self.frame += self.slot
        r.Offset = -self.frame
    }

    /* add to the table */
    self.table[r.Name] = r
    self.locals = append(self.locals, r)
    return r
}

func (self *_Reconciler) resolve(tt []ir.Token) {
    for i, t := range tt {
        if v, ok := t.(ir.Variable); ok {
            if r, ok := self.table[v.Key()]; ok {
                tt[i] = r
            } else {
                tt[i] = self.alloc(v, false)
            }
        }
    }
}

func (self *_Reconciler) entry(rt *ir.Routine) {
    for _, p := range rt.Body(rt.EntryBlock()) {
        if p.Op == ir.OP_entry {
            for _, t := range p.LHS {
                if v, ok := t.(ir.Variable); ok {
                    self.alloc(v, v.IsParam())
                }
            }
            rt.RemoveStmt(p)
        }
    }
}

func (self *_Reconciler) patch(rt *ir.Routine) {
    for _, p := range rt.Body(rt.EntryBlock()) {
        if p.Op == ir.OP_enter {
            if len(p.RHS) == 0 {
                p.RHS = []ir.Token { ir.Constant { V: self.frame } }
            } else {
                p.RHS[0] = ir.Constant { V: self.frame }
            }
            return
        }
    }
}

// Reconcile turns every SSA variable into a plain local with a stack slot of
// its own. Parameters defined by the Entry statement keep their offsets,
// every other variable is given a fresh negative offset, `slot` bytes apart.
// The frame size of the `enter` instruction is updated to match.
func Reconcile(rt *ir.Routine, slot int64) error {
    if slot <= 0 {
        return ir.Invariantf(_PassDestruct, "invalid frame slot size %d", slot)
    }

    /* create the reconciler */
    rc := &_Reconciler {
        slot  : slot,
        table : make(map[string]ir.Variable),
    }

    /* the Entry statement goes first, then every other statement in program order */
    rc.entry(rt)
    for _, bb := range rt.Blocks() {
        if len(bb.Phis) != 0 {
            return ir.Invariantf(_PassDestruct, "bb_%d still has %d Phi nodes", bb.Id, len(bb.Phis))
        }
        for _, p := range rt.Body(bb) {
            rc.resolve(p.RHS)
            rc.resolve(p.LHS)
        }
    }

    /* update the routine */
    rc.patch(rt)
    rt.Locals = rc.locals
    log.L.WithFields(log.Fields {
        "routine" : rt.Name,
        "locals"  : len(rc.locals),
        "frame"   : rc.frame,
    }).Debug("destruct: reconciled variables")
    return nil
}

// Destruct converts a routine out of SSA form.
func Destruct(rt *ir.Routine, slot int64) error {
    if _, err := RemovePhis(rt); err != nil {
        return err
    } else {
        return Reconcile(rt, slot)
    }
}
