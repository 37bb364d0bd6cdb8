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
    `fmt`
    `testing`

    `github.com/brianvoe/gofakeit/v6`
    `github.com/stretchr/testify/require`
    `gonum.org/v1/gonum/graph/flow`
    `gonum.org/v1/gonum/graph/simple`
)

// randomRoutine builds a routine of `n` labelled blocks with random jumps.
func randomRoutine(fk *gofakeit.Faker, n int) *Routine {
    p := NewBuilder("random")
    for i := 0; i < n; i++ {
        p.Label(fmt.Sprintf("L%d", i))
        p.Nop()
        switch to := fmt.Sprintf("L%d", fk.Number(0, n - 1)); fk.Number(0, 3) {
            case 0  : p.Br(to)
            case 1  : p.Blbc(Constant { V: 0 }, to)
            case 2  : p.Blbs(Constant { V: 1 }, to)
            default : break
        }
    }
    p.Ret(0)
    rt, err := p.Build()
    if err != nil {
        panic(err)
    }
    return rt
}

func idomOracle(rt *Routine) map[BlockID]BlockID {
    g := simple.NewDirectedGraph()
    for _, bb := range rt.Blocks() {
        g.AddNode(simple.Node(bb.Id))
    }
    for _, bb := range rt.Blocks() {
        for _, s := range bb.Succs {
            if s != bb.Id {
                g.SetEdge(g.NewEdge(simple.Node(bb.Id), simple.Node(s)))
            }
        }
    }

    /* ask gonum for the immediate dominators */
    ret := make(map[BlockID]BlockID)
    tree := flow.Dominators(simple.Node(rt.Entry), g)
    for _, bb := range rt.Blocks() {
        if d := tree.DominatorOf(int64(bb.Id)); d == nil {
            ret[bb.Id] = NoBlock
        } else {
            ret[bb.Id] = BlockID(d.ID())
        }
    }
    return ret
}

func TestDominator_MatchesOracle(t *testing.T) {
    fk := gofakeit.New(20221018)
    for i := 0; i < 200; i++ {
        rt := randomRoutine(fk, fk.Number(1, 24))
        exp := idomOracle(rt)
        for _, bb := range rt.Blocks() {
            require.Equal(t, exp[bb.Id], bb.Idom, "idom of bb_%d in case %d\n%s", bb.Id, i, rt.Dump(DumpGeneric))
        }
    }
}

func TestDominator_TreeIsConsistent(t *testing.T) {
    fk := gofakeit.New(42)
    for i := 0; i < 50; i++ {
        rt := randomRoutine(fk, fk.Number(1, 16))
        order := rt.TopOrder()
        require.Len(t, order, len(rt.Blocks()))
        seen := make(map[BlockID]bool)
        for _, bb := range order {
            for _, c := range bb.Children {
                require.True(t, seen[c], "child bb_%d must come before bb_%d", c, bb.Id)
                require.Equal(t, bb.Id, rt.Block(c).Idom)
                require.True(t, rt.Dominates(bb.Id, c))
            }
            seen[bb.Id] = true
        }
        require.Equal(t, rt.Entry, order[len(order) - 1].Id)
    }
}

func TestDominator_Loop(t *testing.T) {
    p := NewBuilder("loop")
    i := p.Local("i", -8)
    p.Move(Constant { V: 0 }, i)
    p.Label("head")
    p.Blbc(p.Arith(OP_cmplt, i, Constant { V: 10 }), "exit")
    p.Move(p.Arith(OP_add, i, Constant { V: 1 }), i)
    p.Br("head")
    p.Label("exit")
    p.Ret(0)
    rt, err := p.Build()
    require.NoError(t, err)
    require.Len(t, rt.Blocks(), 4)
    require.Equal(t, BlockID(0), rt.Block(1).Idom)
    require.Equal(t, BlockID(1), rt.Block(2).Idom)
    require.Equal(t, BlockID(1), rt.Block(3).Idom)
    require.True(t, rt.Dominates(1, 2))
    require.False(t, rt.Dominates(2, 3))
}

func TestDominator_ChildrenInDepthFirstOrder(t *testing.T) {
    p := NewBuilder("diamond")
    p.Blbc(Constant { V: 0 }, "else")
    p.Nop()
    p.Br("join")
    p.Label("else")
    p.Nop()
    p.Label("join")
    p.Br("join")
    rt, err := p.Build()
    require.NoError(t, err)
    require.Len(t, rt.Blocks(), 4)

    /* the join is reached through the first arm before the second arm is visited */
    require.Equal(t, []BlockID { 1, 3, 2 }, rt.Block(0).Children)
    require.Equal(t, BlockID(0), rt.Block(3).Idom)

    /* a self loop does not make a block its own dominator */
    require.Equal(t, []BlockID { 3 }, rt.Block(3).Succs)
    require.Empty(t, rt.Block(3).Children)

    /* rebuilding gives the same tree */
    rt.RebuildDominators()
    require.Equal(t, []BlockID { 1, 3, 2 }, rt.Block(0).Children)
}
