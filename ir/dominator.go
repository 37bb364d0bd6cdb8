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

/** This is an implementation of the Lengauer-Tarjan algorithm described in
 *  https://doi.org/10.1145%2F357062.357071
 */

package ir

import (
    `github.com/oleiade/lane`
)

// _DomTree holds the Lengauer-Tarjan state. Vertices are numbered in DFS
// pre-order and every per-vertex array is indexed by that number, with -1
// meaning "none".
type _DomTree struct {
    rt     *Routine
    vertex []BlockID
    number map[BlockID]int
    parent []int
    semi   []int
    idom   []int
    label  []int
    anc    []int
    pred   [][]int
    bucket [][]int
}

type _DfsItem struct {
    bb  BlockID
    src int
}

func newDomTree(rt *Routine) *_DomTree {
    return &_DomTree {
        rt     : rt,
        number : make(map[BlockID]int, len(rt.order)),
    }
}

func (self *_DomTree) visit(bb BlockID, src int) {
    i := len(self.vertex)
    self.number[bb] = i
    self.vertex = append(self.vertex, bb)
    self.parent = append(self.parent, src)
    self.semi   = append(self.semi, i)
    self.idom   = append(self.idom, -1)
    self.label  = append(self.label, i)
    self.anc    = append(self.anc, -1)
    self.pred   = append(self.pred, nil)
    self.bucket = append(self.bucket, nil)
}

func (self *_DomTree) dfs(entry BlockID) {
    s := lane.NewStack()
    s.Push(_DfsItem { bb: entry, src: -1 })

    /* successors are pushed in reverse, so they are numbered in order */
    for !s.Empty() {
        it := s.Pop().(_DfsItem)
        if _, ok := self.number[it.bb]; ok {
            continue
        }

        /* number the vertex */
        self.visit(it.bb, it.src)
        succs := self.rt.Block(it.bb).Succs

        /* descend into the unvisited successors */
        for i := len(succs) - 1; i >= 0; i-- {
            if _, ok := self.number[succs[i]]; !ok {
                s.Push(_DfsItem { bb: succs[i], src: self.number[it.bb] })
            }
        }
    }

    /* predecessors, restricted to the reachable vertices */
    for v, bb := range self.vertex {
        for _, w := range self.rt.Block(bb).Succs {
            self.pred[self.number[w]] = append(self.pred[self.number[w]], v)
        }
    }
}

func (self *_DomTree) eval(v int) int {
    if self.anc[v] < 0 {
        return v
    } else {
        self.compress(v)
        return self.label[v]
    }
}

func (self *_DomTree) compress(v int) {
    if a := self.anc[v]; self.anc[a] >= 0 {
        self.compress(a)
        if self.semi[self.label[a]] < self.semi[self.label[v]] {
            self.label[v] = self.label[a]
        }
        self.anc[v] = self.anc[a]
    }
}

func (self *_DomTree) solve() {
    for w := len(self.vertex) - 1; w > 0; w-- {
        p := self.parent[w]

        /* semi-dominator from the predecessors */
        for _, v := range self.pred[w] {
            if u := self.eval(v); self.semi[u] < self.semi[w] {
                self.semi[w] = self.semi[u]
            }
        }

        /* defer the vertex to its semi-dominator, then link it into the forest */
        self.bucket[self.semi[w]] = append(self.bucket[self.semi[w]], w)
        self.anc[w] = p

        /* implicit immediate dominators of the parent's bucket */
        for _, v := range self.bucket[p] {
            if u := self.eval(v); self.semi[u] < self.semi[v] {
                self.idom[v] = u
            } else {
                self.idom[v] = p
            }
        }

        /* the bucket is consumed */
        self.bucket[p] = self.bucket[p][:0]
    }

    /* explicit immediate dominators, in increasing order */
    for w := 1; w < len(self.vertex); w++ {
        if self.idom[w] != self.semi[w] {
            self.idom[w] = self.idom[self.idom[w]]
        }
    }
}

// RebuildDominators recomputes the immediate dominator and the dominator
// tree children of every block reachable from the entry. Blocks that can
// not be reached are left with no dominator.
func (self *Routine) RebuildDominators() {
    for _, bb := range self.Blocks() {
        bb.Idom = NoBlock
        bb.Children = nil
    }

    /* number the reachable blocks and compute the immediate dominators */
    dt := newDomTree(self)
    dt.dfs(self.Entry)
    dt.solve()

    /* children are added in DFS order */
    for w := 1; w < len(dt.vertex); w++ {
        bb := self.Block(dt.vertex[w])
        dom := self.Block(dt.vertex[dt.idom[w]])
        bb.Idom = dom.Id
        dom.Children = append(dom.Children, bb.Id)
    }
}

// Dominates reports whether `a` dominates `b`. Every block dominates itself.
func (self *Routine) Dominates(a BlockID, b BlockID) bool {
    for b != NoBlock {
        if a == b {
            return true
        } else if bb := self.Block(b); bb == nil {
            return false
        } else {
            b = bb.Idom
        }
    }
    return false
}

// TopOrder returns the blocks of the dominator tree in post order, so every
// block comes after all of its dominator tree children.
func (self *Routine) TopOrder() []*Block {
    s := lane.NewStack()
    v := make(map[BlockID]struct{})
    r := make([]*Block, 0, len(self.order))

    /* start from the entry */
    s.Push(self.Entry)
    v[self.Entry] = struct{}{}

    /* scan until the stack is empty */
    for !s.Empty() {
        tail := true
        this := self.Block(s.Head().(BlockID))

        /* descend into the first unvisited child */
        for _, p := range this.Children {
            if _, ok := v[p]; !ok {
                tail = false
                v[p] = struct{}{}
                s.Push(p)
                break
            }
        }

        /* all the children are visited, pop the current node */
        if tail {
            s.Pop()
            r = append(r, this)
        }
    }
    return r
}
