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
    `testing`

    `github.com/davecgh/go-spew/spew`
    `github.com/pkg/errors`
    `github.com/stretchr/testify/require`

    `github.com/cloudwego/midend/internal/samples`
    `github.com/cloudwego/midend/ir`
)

func build(t *testing.T, fn func() (*ir.Routine, error)) *ir.Routine {
    rt, err := fn()
    require.NoError(t, err)
    return rt
}

func frontier(rt *ir.Routine, id ir.BlockID) []ir.BlockID {
    ret := rt.Block(id).Frontier.ToSlice()
    if ret == nil {
        ret = []ir.BlockID{}
    }
    return ret
}

func TestFrontier_Diamond(t *testing.T) {
    rt := build(t, samples.Diamond)
    BuildFrontiers(rt)
    require.Empty(t, frontier(rt, 0))
    require.Equal(t, []ir.BlockID { 3 }, frontier(rt, 1))
    require.Equal(t, []ir.BlockID { 3 }, frontier(rt, 2))
    require.Empty(t, frontier(rt, 3))
}

func TestFrontier_Loop(t *testing.T) {
    rt := build(t, samples.Loop)
    BuildFrontiers(rt)
    require.Empty(t, frontier(rt, 0))
    require.Equal(t, []ir.BlockID { 1 }, frontier(rt, 1))
    require.Equal(t, []ir.BlockID { 1 }, frontier(rt, 2))
    require.Empty(t, frontier(rt, 3))
}

func TestFrontier_Idempotent(t *testing.T) {
    rt := build(t, samples.Nested)
    BuildFrontiers(rt)
    exp := make(map[ir.BlockID][]ir.BlockID)
    for _, bb := range rt.Blocks() {
        exp[bb.Id] = frontier(rt, bb.Id)
    }
    BuildFrontiers(rt)
    for _, bb := range rt.Blocks() {
        require.ElementsMatch(t, exp[bb.Id], frontier(rt, bb.Id))
    }
}

func TestPhi_Diamond(t *testing.T) {
    rt := build(t, samples.Diamond)
    BuildFrontiers(rt)
    require.Equal(t, 1, PlacePhis(rt))

    /* the Entry statement comes first */
    entry := rt.Body(rt.EntryBlock())[0]
    require.Equal(t, ir.OP_entry, entry.Op)
    require.Len(t, entry.LHS, 2)

    /* one Phi node for x in the join block */
    phis := rt.PhiNodes(rt.Block(3))
    require.Len(t, phis, 1)
    require.Equal(t, "x", phis[0].PhiVar().Name)
    require.Len(t, phis[0].RHS, 2)
}

func TestPhi_Loop(t *testing.T) {
    rt := build(t, samples.Loop)
    BuildFrontiers(rt)
    require.Equal(t, 2, PlacePhis(rt))
    var names []string
    for _, p := range rt.PhiNodes(rt.Block(1)) {
        names = append(names, p.PhiVar().Name)
    }
    require.Equal(t, []string { "i", "s" }, names)
}

func TestRename_Diamond(t *testing.T) {
    rt := build(t, samples.Diamond)
    BuildFrontiers(rt)
    PlacePhis(rt)
    require.NoError(t, Rename(rt))
    phi := rt.PhiNodes(rt.Block(3))[0]
    require.Equal(t, "x$2", phi.PhiVar().Key())
    require.Equal(t, []string { "x$1", "x$3" }, phi.Uses())

    /* the write reads the Phi node */
    require.Equal(t, []string { "x$2" }, rt.Body(rt.Block(3))[0].Uses())
    require.NoError(t, Verify(rt, true))
}

func TestRename_UndeclaredVariable(t *testing.T) {
    rt := build(t, samples.Straight)
    rt.Locals = rt.Locals[:1]
    BuildFrontiers(rt)
    PlacePhis(rt)
    err := Rename(rt)
    require.Error(t, err)
    require.IsType(t, ir.InvariantViolation{}, errors.Cause(err))
}

func TestConstruct_AllSamples(t *testing.T) {
    for _, s := range samples.All {
        rt := build(t, s.Build)
        _, err := Construct(rt)
        require.NoError(t, err, s.Name)
        require.NoError(t, Verify(rt, true), "%s\n%s", s.Name, rt.Dump(ir.DumpSSA))

        /* every name is defined exactly once */
        du, err := Analyze(rt)
        require.NoError(t, err)
        for _, v := range rt.Locals {
            require.True(t, du.Defined(v.Key()), "%s: %s", s.Name, v.Key())
        }
    }
}

func TestConstruct_Pruned(t *testing.T) {
    rt := build(t, samples.Diamond)
    st, err := Construct(rt)
    require.NoError(t, err)
    require.Equal(t, 1, st.Phis)
    require.Equal(t, 1, st.Eliminated)

    /* x$0 is never read, so the Entry statement only defines p */
    entry := rt.Body(rt.EntryBlock())[0]
    require.Equal(t, ir.OP_entry, entry.Op)
    require.Equal(t, []string { "p$0" }, entry.Defines())
    t.Log(spew.Sdump(rt.Locals))
}

func TestDefUse_Chains(t *testing.T) {
    rt := build(t, samples.Loop)
    _, err := Construct(rt)
    require.NoError(t, err)
    du, err := Analyze(rt)
    require.NoError(t, err)

    /* the loop counter is read by the comparison and the increment */
    def, err := du.DefinitionOf("i$2")
    require.NoError(t, err)
    require.Equal(t, ir.OP_phi, def.Op)
    var ops []ir.Op
    for _, p := range du.UsesOf("i$2") {
        ops = append(ops, p.Op)
    }
    require.Equal(t, []ir.Op { ir.OP_cmplt, ir.OP_add }, ops)

    /* undefined names */
    _, err = du.DefinitionOf("nothing")
    require.Error(t, err)
    require.Empty(t, du.UsesOf("nothing"))
    require.Contains(t, du.Names(), "n$0")
}

func TestDefUse_DuplicateDefinition(t *testing.T) {
    rt := build(t, samples.Straight)
    _, err := Construct(rt)
    require.NoError(t, err)
    bb := rt.EntryBlock()
    dup := rt.NewStmt(ir.OP_move, []ir.Token { rt.Locals[0] }, []ir.Token { ir.Constant { V: 9 } })
    rt.InsertBeforeTerminator(bb, dup)
    _, err = Analyze(rt)
    require.Error(t, err)
    require.IsType(t, ir.InvariantViolation{}, errors.Cause(err))
}

func TestEliminateUnused_SelfReferencingPhi(t *testing.T) {
    p := ir.NewBuilder("selfref")
    x := p.Local("x", -8)
    i := p.Local("i", -16)
    p.Move(ir.Constant { V: 0 }, x)
    p.Move(ir.Constant { V: 0 }, i)
    p.Label("head")
    p.Blbc(p.Arith(ir.OP_cmplt, i, ir.Constant { V: 3 }), "exit")
    p.Move(p.Arith(ir.OP_add, i, ir.Constant { V: 1 }), i)
    p.Blbc(p.Arith(ir.OP_cmplt, i, ir.Constant { V: 2 }), "cont")
    p.Move(ir.Constant { V: 1 }, x)
    p.Br("head")
    p.Label("cont")
    p.Br("head")
    p.Label("exit")
    p.Ret(0)
    rt, err := p.Build()
    require.NoError(t, err)

    /* the Phi node for x merges itself along the second back edge */
    BuildFrontiers(rt)
    PlacePhis(rt)
    require.NoError(t, Rename(rt))
    var xphi *ir.Stmt
    for _, phi := range rt.PhiNodes(rt.Block(1)) {
        if phi.PhiVar().Name == "x" {
            xphi = phi
        }
    }
    require.NotNil(t, xphi)
    require.Contains(t, xphi.Uses(), xphi.Defines()[0])

    /* x is never read, so the Phi node goes away */
    _, err = EliminateUnused(rt)
    require.NoError(t, err)
    require.False(t, xphi.Attached())
    for _, bb := range rt.Blocks() {
        for _, phi := range rt.PhiNodes(bb) {
            require.NotEqual(t, "x", phi.PhiVar().Name)
        }
    }
    require.NoError(t, Verify(rt, true))
}

func TestVerify_DetectsBrokenDominance(t *testing.T) {
    rt := build(t, samples.Diamond)
    _, err := Construct(rt)
    require.NoError(t, err)

    /* read x$1 from the else branch, which it does not dominate */
    wr := rt.NewStmt(ir.OP_write, nil, []ir.Token { ir.Var("x", -8).Versioned(1) })
    rt.InsertStmt(rt.Block(2), 0, wr)
    err = Verify(rt, true)
    require.Error(t, err)
    require.IsType(t, ir.InvariantViolation{}, errors.Cause(err))
}

func TestVerify_DetectsAsymmetricEdges(t *testing.T) {
    rt := build(t, samples.Diamond)
    rt.Block(3).Preds = rt.Block(3).Preds[:1]
    err := Verify(rt, false)
    require.Error(t, err)
    require.IsType(t, ir.MalformedGraph{}, errors.Cause(err))
}

func TestDestruct_Diamond(t *testing.T) {
    rt := build(t, samples.Diamond)
    _, err := Construct(rt)
    require.NoError(t, err)
    require.NoError(t, Destruct(rt, DefaultSlotSize))
    require.NoError(t, Verify(rt, false))

    /* no Phi node and no Entry statement is left */
    for _, bb := range rt.Blocks() {
        require.Empty(t, bb.Phis)
        for _, p := range rt.Body(bb) {
            require.NotEqual(t, ir.OP_entry, p.Op)
            for _, t1 := range append(append([]ir.Token(nil), p.LHS...), p.RHS...) {
                if v, ok := t1.(ir.Variable); ok {
                    require.Empty(t, v.SSAName)
                }
            }
        }
    }

    /* the parameter keeps its slot, everything else gets a fresh one */
    offs := make(map[string]int64)
    for _, v := range rt.Locals {
        offs[v.Name] = v.Offset
    }
    require.Equal(t, map[string]int64 {
        "p$0": 16,
        "x$1": -8,
        "x$2": -16,
        "x$3": -24,
    }, offs)

    /* the frame grows to hold them */
    enter := rt.Body(rt.EntryBlock())[0]
    require.Equal(t, ir.OP_enter, enter.Op)
    require.Equal(t, []ir.Token { ir.Constant { V: 24 } }, enter.RHS)
}

func TestDestruct_MovesBeforeBranch(t *testing.T) {
    rt := build(t, samples.Loop)
    _, err := Construct(rt)
    require.NoError(t, err)
    n, err := RemovePhis(rt)
    require.NoError(t, err)
    require.Equal(t, 4, n)

    /* the back edge block ends with the two moves then the branch */
    body := rt.Body(rt.Block(2))
    require.Equal(t, ir.OP_br, body[len(body) - 1].Op)
    require.Equal(t, ir.OP_move, body[len(body) - 2].Op)
    require.Equal(t, ir.OP_move, body[len(body) - 3].Op)
}

func TestReconcile_InvalidSlot(t *testing.T) {
    rt := build(t, samples.Straight)
    err := Reconcile(rt, 0)
    require.Error(t, err)
}
