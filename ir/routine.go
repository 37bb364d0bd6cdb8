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
    `golang.org/x/exp/slices`
)

// Routine owns all of its blocks and statements. Blocks and statements are
// kept in arenas and referenced by id, removed blocks leave a nil slot and
// removed statements are detached (their Block is NoBlock).
type Routine struct {
    Name   string
    Entry  BlockID
    Locals []Variable
    order  []BlockID
    blocks []*Block
    stmts  []*Stmt
    index  int
}

func (self *Routine) Block(id BlockID) *Block {
    if id < 0 || int(id) >= len(self.blocks) {
        return nil
    } else {
        return self.blocks[id]
    }
}

func (self *Routine) Stmt(id StmtID) *Stmt {
    if id < 0 || int(id) >= len(self.stmts) {
        return nil
    } else {
        return self.stmts[id]
    }
}

func (self *Routine) EntryBlock() *Block {
    return self.Block(self.Entry)
}

// Blocks returns the live blocks in program order.
func (self *Routine) Blocks() []*Block {
    ret := make([]*Block, 0, len(self.order))
    for _, id := range self.order {
        ret = append(ret, self.blocks[id])
    }
    return ret
}

// MaxBlock is one past the largest block id ever allocated.
func (self *Routine) MaxBlock() int {
    return len(self.blocks)
}

func (self *Routine) Body(bb *Block) []*Stmt {
    return self.resolve(bb.Body)
}

func (self *Routine) PhiNodes(bb *Block) []*Stmt {
    return self.resolve(bb.Phis)
}

func (self *Routine) resolve(ids []StmtID) []*Stmt {
    ret := make([]*Stmt, len(ids))
    for i, id := range ids {
        ret[i] = self.stmts[id]
    }
    return ret
}

// LocalIndex returns the position of the local named `name`, or -1.
func (self *Routine) LocalIndex(name string) int {
    for i, v := range self.Locals {
        if v.Name == name {
            return i
        }
    }
    return -1
}

// NewStmt allocates a detached statement with a fresh instruction index.
func (self *Routine) NewStmt(op Op, lhs []Token, rhs []Token) *Stmt {
    self.index++
    return self.newStmtAt(self.index, op, lhs, rhs)
}

func (self *Routine) newStmtAt(index int, op Op, lhs []Token, rhs []Token) *Stmt {
    p := &Stmt {
        Id     : StmtID(len(self.stmts)),
        Index  : index,
        Op     : op,
        LHS    : lhs,
        RHS    : rhs,
        Block  : NoBlock,
        Target : NoBlock,
    }

    /* keep the instruction counter ahead of every index */
    if index > self.index {
        self.index = index
    }

    /* add to the arena */
    self.stmts = append(self.stmts, p)
    return p
}

// Terminator returns the branch ending the block, or nil if the block falls
// through or returns.
func (self *Routine) Terminator(bb *Block) *Stmt {
    if n := len(bb.Body); n == 0 {
        return nil
    } else if p := self.stmts[bb.Body[n - 1]]; p.Kind() != K_branch {
        return nil
    } else {
        return p
    }
}

func (self *Routine) AppendStmt(bb *Block, p *Stmt) {
    p.Block = bb.Id
    bb.Body = append(bb.Body, p.Id)
}

func (self *Routine) InsertStmt(bb *Block, at int, p *Stmt) {
    p.Block = bb.Id
    bb.Body = slices.Insert(bb.Body, at, p.Id)
}

// InsertBeforeTerminator places `p` right before the block's branch if it
// has one, or at the end otherwise.
func (self *Routine) InsertBeforeTerminator(bb *Block, p *Stmt) {
    if self.Terminator(bb) == nil {
        self.AppendStmt(bb, p)
    } else {
        self.InsertStmt(bb, len(bb.Body) - 1, p)
    }
}

func (self *Routine) AddPhi(bb *Block, p *Stmt) {
    if p.Op != OP_phi {
        panic("ir: not a Phi node: " + p.Op.String())
    }
    p.Block = bb.Id
    bb.Phis = append(bb.Phis, p.Id)
}

// RemoveStmt detaches a statement (or Phi node) from its block.
func (self *Routine) RemoveStmt(p *Stmt) {
    var bb *Block
    var buf *[]StmtID

    /* already detached */
    if bb = self.Block(p.Block); bb == nil {
        return
    }

    /* Phi nodes live in their own list */
    if p.Op == OP_phi {
        buf = &bb.Phis
    } else {
        buf = &bb.Body
    }

    /* remove from the list */
    if i := slices.Index(*buf, p.Id); i >= 0 {
        *buf = slices.Delete(*buf, i, i + 1)
    }

    /* mark as detached */
    p.Block = NoBlock
}

// ReplaceStmt puts `p` at the exact position of `old`, detaching `old`.
func (self *Routine) ReplaceStmt(old *Stmt, p *Stmt) {
    bb := self.Block(old.Block)
    if bb == nil {
        return
    }

    /* locate the old statement */
    i := slices.Index(bb.Body, old.Id)
    if i < 0 {
        return
    }

    /* swap them */
    p.Block = bb.Id
    old.Block = NoBlock
    bb.Body[i] = p.Id
}

// AddEdge links `src` to `dst`. Duplicate edges are ignored.
func (self *Routine) AddEdge(src *Block, dst *Block) {
    if src.SuccIndex(dst.Id) < 0 {
        src.Succs = append(src.Succs, dst.Id)
        dst.Preds = append(dst.Preds, src.Id)
    }
}

// RemoveEdge unlinks `src` from `dst`, dropping the matching operand of
// every Phi node in `dst`. A Phi node left without operands is removed.
func (self *Routine) RemoveEdge(src BlockID, dst BlockID) error {
    p := self.Block(src)
    q := self.Block(dst)

    /* both ends must exist */
    if p == nil || q == nil {
        return Malformedf(src, "dangling edge bb_%d -> bb_%d", src, dst)
    }

    /* locate the edge on both ends */
    i := p.SuccIndex(dst)
    j := q.PredIndex(src)

    /* the lists must be symmetric */
    if i < 0 || j < 0 {
        return Malformedf(src, "asymmetric edge bb_%d -> bb_%d", src, dst)
    }

    /* drop the positional operand of every Phi node */
    for _, phi := range self.PhiNodes(q) {
        if len(phi.RHS) != len(q.Preds) {
            return Malformedf(dst, "Phi node %d has %d operands for %d predecessors", phi.Index, len(phi.RHS), len(q.Preds))
        } else if phi.RHS = slices.Delete(phi.RHS, j, j + 1); len(phi.RHS) == 0 {
            self.RemoveStmt(phi)
        }
    }

    /* unlink the edge */
    p.Succs = slices.Delete(p.Succs, i, i + 1)
    q.Preds = slices.Delete(q.Preds, j, j + 1)
    return nil
}

// RemoveBlock detaches a block from the graph and deletes it together with
// every statement it contains.
func (self *Routine) RemoveBlock(id BlockID) error {
    bb := self.Block(id)
    if bb == nil {
        return Malformedf(id, "removing a block that does not exist")
    }

    /* unlink from all the predecessors */
    for len(bb.Preds) != 0 {
        if err := self.RemoveEdge(bb.Preds[0], id); err != nil {
            return err
        }
    }

    /* unlink from all the successors */
    for len(bb.Succs) != 0 {
        if err := self.RemoveEdge(id, bb.Succs[0]); err != nil {
            return err
        }
    }

    /* detach all the statements */
    for _, v := range bb.Phis { self.stmts[v].Block = NoBlock }
    for _, v := range bb.Body { self.stmts[v].Block = NoBlock }

    /* remove from the program order */
    if i := slices.Index(self.order, id); i >= 0 {
        self.order = slices.Delete(self.order, i, i + 1)
    }

    /* release the slot */
    self.blocks[id] = nil
    return nil
}
