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
    mapset `github.com/deckarep/golang-set/v2`
    `golang.org/x/exp/slices`
)

type BlockID int

const NoBlock BlockID = -1

// Block is a basic block. Every link to another block is an id into the
// owning routine, never a pointer.
type Block struct {
    Id       BlockID
    Label    int
    Body     []StmtID
    Phis     []StmtID
    Preds    []BlockID
    Succs    []BlockID
    Frontier mapset.Set[BlockID]
    Idom     BlockID
    Children []BlockID
}

func newBlock(id BlockID, label int) *Block {
    return &Block {
        Id       : id,
        Label    : label,
        Idom     : NoBlock,
        Frontier : mapset.NewThreadUnsafeSet[BlockID](),
    }
}

// PredIndex returns the position of `bb` in the predecessor list, or -1.
func (self *Block) PredIndex(bb BlockID) int {
    return slices.Index(self.Preds, bb)
}

func (self *Block) SuccIndex(bb BlockID) int {
    return slices.Index(self.Succs, bb)
}

// OtherSucc returns the successor that is not `bb`. A block whose successors
// all equal `bb` has no other successor.
func (self *Block) OtherSucc(bb BlockID) (BlockID, bool) {
    for _, s := range self.Succs {
        if s != bb {
            return s, true
        }
    }
    return NoBlock, false
}
