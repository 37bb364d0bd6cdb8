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
    `testing`

    `github.com/pkg/errors`
    `github.com/stretchr/testify/require`
)

func buildDiamond(t *testing.T) *Routine {
    p := NewBuilder("diamond")
    x := p.Local("x", -8)
    p.Blbc(Constant { V: 0 }, "else")
    p.Move(Constant { V: 1 }, x)
    p.Br("join")
    p.Label("else")
    p.Move(Constant { V: 2 }, x)
    p.Label("join")
    p.Write(x)
    p.Ret(0)
    rt, err := p.Build()
    require.NoError(t, err)
    return rt
}

func addPhi(rt *Routine, bb *Block, lhs Token, rhs ...Token) *Stmt {
    p := rt.NewStmt(OP_phi, []Token { lhs }, rhs)
    rt.AddPhi(bb, p)
    return p
}

func TestRoutine_RemoveEdgeDropsPhiOperand(t *testing.T) {
    rt := buildDiamond(t)
    join := rt.Block(3)
    phi := addPhi(rt, join, Var("x", -8).Versioned(2), Var("x", -8).Versioned(0), Var("x", -8).Versioned(1))
    require.NoError(t, rt.RemoveEdge(1, 3))
    require.Equal(t, []BlockID { 2 }, join.Preds)
    require.Empty(t, rt.Block(1).Succs)
    require.Equal(t, []Token { Var("x", -8).Versioned(1) }, phi.RHS)
    require.True(t, phi.Attached())

    /* the last operand goes away with the Phi node */
    require.NoError(t, rt.RemoveEdge(2, 3))
    require.False(t, phi.Attached())
    require.Empty(t, join.Phis)
}

func TestRoutine_RemoveEdgeErrors(t *testing.T) {
    rt := buildDiamond(t)
    err := rt.RemoveEdge(1, 2)
    require.Error(t, err)
    require.IsType(t, MalformedGraph{}, errors.Cause(err))

    /* Phi arity mismatch */
    addPhi(rt, rt.Block(3), Var("x", -8), Var("x", -8))
    err = rt.RemoveEdge(1, 3)
    require.Error(t, err)
    require.IsType(t, MalformedGraph{}, errors.Cause(err))
}

func TestRoutine_RemoveBlock(t *testing.T) {
    rt := buildDiamond(t)
    body := rt.Body(rt.Block(1))
    require.NoError(t, rt.RemoveBlock(1))
    require.Nil(t, rt.Block(1))
    require.Len(t, rt.Blocks(), 3)
    require.Equal(t, []BlockID { 2 }, rt.Block(0).Succs)
    require.Equal(t, []BlockID { 2 }, rt.Block(3).Preds)
    for _, p := range body {
        require.False(t, p.Attached())
    }
    require.Error(t, rt.RemoveBlock(1))
}

func TestRoutine_StatementEditing(t *testing.T) {
    rt := buildDiamond(t)
    bb := rt.Block(1)
    mv := rt.NewStmt(OP_move, []Token { Var("x", -8) }, []Token { Constant { V: 3 } })
    rt.InsertBeforeTerminator(bb, mv)
    body := rt.Body(bb)
    require.Equal(t, mv, body[len(body) - 2])
    require.Equal(t, OP_br, body[len(body) - 1].Op)

    /* blocks without a branch get the statement appended */
    join := rt.Block(3)
    nop := rt.NewStmt(OP_nop, nil, nil)
    rt.InsertBeforeTerminator(join, nop)
    require.Equal(t, nop.Id, join.Body[len(join.Body) - 1])
    require.Nil(t, rt.Terminator(join))

    /* replacing keeps the position */
    wr := rt.NewStmt(OP_write, nil, []Token { Constant { V: 9 } })
    rt.ReplaceStmt(nop, wr)
    require.False(t, nop.Attached())
    require.Equal(t, wr.Id, join.Body[len(join.Body) - 1])

    /* fresh statements never reuse an instruction index */
    require.Greater(t, wr.Index, mv.Index)
}

func TestStmt_Uses(t *testing.T) {
    x := Var("x", -8).Versioned(1)
    p := &Stmt { Op: OP_add, LHS: []Token { Register { N: 4 } }, RHS: []Token { x, x } }
    require.Equal(t, []string { "x$1", "x$1" }, p.Uses())
    require.Equal(t, []string { "(4)" }, p.Defines())
    require.Equal(t, 2, p.ReplaceUse("x$1", Constant { V: 7 }))
    require.Equal(t, []Token { Constant { V: 7 }, Constant { V: 7 } }, p.RHS)
}

func TestOp_Kinds(t *testing.T) {
    require.Equal(t, K_branch, OP_blbs.Kind())
    require.Equal(t, K_objcmp, OP_istype.Kind())
    require.True(t, OP_checktype.Defines())
    require.False(t, OP_checknull.Defines())
    require.Equal(t, int64(0), OP_blbc.TakenOn())
    require.Equal(t, int64(1), OP_blbs.TakenOn())
    require.Panics(t, func() { OP_br.TakenOn() })
    require.Panics(t, func() { Op(200).Kind() })
}

func TestEval(t *testing.T) {
    v, ok := Eval(OP_div, 7, 2)
    require.True(t, ok)
    require.Equal(t, int64(3), v)
    _, ok = Eval(OP_mod, 7, 0)
    require.False(t, ok)
    v, _ = Eval(OP_cmple, 2, 2)
    require.Equal(t, int64(1), v)
    v, _ = Eval(OP_neg, 5, 0)
    require.Equal(t, int64(-5), v)
}
