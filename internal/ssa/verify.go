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
    _PassVerify = "verify"
)

func verifyEdges(rt *ir.Routine, bb *ir.Block) error {
    for _, s := range bb.Succs {
        if p := rt.Block(s); p == nil {
            return ir.Malformedf(bb.Id, "successor bb_%d does not exist", s)
        } else if p.PredIndex(bb.Id) < 0 {
            return ir.Malformedf(bb.Id, "bb_%d is not a predecessor of its successor bb_%d", bb.Id, s)
        }
    }
    for _, s := range bb.Preds {
        if p := rt.Block(s); p == nil {
            return ir.Malformedf(bb.Id, "predecessor bb_%d does not exist", s)
        } else if p.SuccIndex(bb.Id) < 0 {
            return ir.Malformedf(bb.Id, "bb_%d is not a successor of its predecessor bb_%d", bb.Id, s)
        }
    }
    return nil
}

func verifyStmts(rt *ir.Routine, bb *ir.Block) error {
    for _, p := range rt.PhiNodes(bb) {
        if p.Block != bb.Id {
            return ir.Malformedf(bb.Id, "Phi node %d belongs to bb_%d", p.Index, p.Block)
        } else if len(p.RHS) != len(bb.Preds) {
            return ir.Malformedf(bb.Id, "Phi node %d has %d operands for %d predecessors", p.Index, len(p.RHS), len(bb.Preds))
        }
    }
    for i, p := range rt.Body(bb) {
        if p.Block != bb.Id {
            return ir.Malformedf(bb.Id, "instr %d belongs to bb_%d", p.Index, p.Block)
        } else if p.Kind() == ir.K_branch && i != len(bb.Body) - 1 {
            return ir.Malformedf(bb.Id, "branch instr %d is not the last instruction", p.Index)
        }
    }
    return nil
}

// Verify checks the structural invariants of a routine: the edge lists are
// symmetric, every Phi node has one operand per predecessor and every
// statement knows its block. If `ssa` is set, it also checks that every name
// is defined exactly once and that every definition dominates its uses. The
// dominator tree must be up to date.
func Verify(rt *ir.Routine, ssa bool) error {
    if rt.EntryBlock() == nil {
        return ir.Invariantf(_PassVerify, "routine %s has no entry block", rt.Name)
    }

    /* check every block */
    for _, bb := range rt.Blocks() {
        if err := verifyEdges(rt, bb); err != nil {
            return err
        } else if err = verifyStmts(rt, bb); err != nil {
            return err
        }
    }

    /* check the SSA properties if needed */
    if !ssa {
        return nil
    } else {
        return VerifyDominance(rt)
    }
}

// VerifyDominance checks that every use of a name is dominated by its single
// definition. A Phi operand is a use at the end of the matching predecessor.
func VerifyDominance(rt *ir.Routine) error {
    du, err := Analyze(rt)
    if err != nil {
        return err
    }

    /* check every use of every name */
    for _, bb := range rt.Blocks() {
        for _, p := range rt.PhiNodes(bb) {
            for i, t := range p.RHS {
                if n, ok := ir.NameOf(t); ok {
                    if err = checkUse(rt, du, n, p, bb.Preds[i]); err != nil {
                        return err
                    }
                }
            }
        }
        for _, p := range rt.Body(bb) {
            for _, n := range p.Uses() {
                if err = checkUse(rt, du, n, p, bb.Id); err != nil {
                    return err
                }
            }
        }
    }

    /* all checked */
    return nil
}

func checkUse(rt *ir.Routine, du *DefUse, name string, use *ir.Stmt, at ir.BlockID) error {
    def, err := du.DefinitionOf(name)
    if err != nil {
        return err
    }

    /* the defining block must dominate the use site */
    if !rt.Dominates(def.Block, at) {
        return ir.Invariantf(_PassVerify, "definition of %s in bb_%d does not dominate its use in bb_%d", name, def.Block, at)
    }

    /* Phi operands are used at the end of the predecessor */
    if def.Block != at || use.Op == ir.OP_phi || def.Op == ir.OP_phi {
        return nil
    }

    /* within a block, the definition must come first */
    for _, p := range rt.Body(rt.Block(at)) {
        switch p.Id {
            case def.Id : return nil
            case use.Id : return ir.Invariantf(_PassVerify, "%s is used by instr %d before it is defined", name, use.Index)
        }
    }
    return nil
}
