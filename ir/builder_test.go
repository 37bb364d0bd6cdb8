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

    `github.com/stretchr/testify/require`
)

func succsOf(rt *Routine, id BlockID) []BlockID {
    return append([]BlockID(nil), rt.Block(id).Succs...)
}

func TestBuilder_Straight(t *testing.T) {
    p := NewBuilder("straight")
    a := p.Local("a", -8)
    p.Enter(8)
    p.Move(Constant { V: 1 }, a)
    p.Write(a)
    p.Ret(0)
    rt, err := p.Build()
    require.NoError(t, err)
    require.Len(t, rt.Blocks(), 1)
    require.Len(t, rt.Body(rt.EntryBlock()), 4)
    require.Equal(t, []Variable { { Name: "a", Offset: -8, Type: "int" } }, rt.Locals)
    require.Equal(t, NoBlock, rt.EntryBlock().Idom)
}

func TestBuilder_Diamond(t *testing.T) {
    p := NewBuilder("diamond")
    x := p.Local("x", -8)
    r := p.Arith(OP_cmplt, Constant { V: 1 }, Constant { V: 2 })
    p.Blbc(r, "else")
    p.Move(Constant { V: 1 }, x)
    p.Br("join")
    p.Label("else")
    p.Move(Constant { V: 2 }, x)
    p.Label("join")
    p.Write(x)
    p.Ret(0)
    rt, err := p.Build()
    require.NoError(t, err)
    require.Len(t, rt.Blocks(), 4)
    require.Equal(t, Register { N: 1 }, r)

    /* the fall-through edge comes first */
    require.Equal(t, []BlockID { 1, 2 }, succsOf(rt, 0))
    require.Equal(t, []BlockID { 3 }, succsOf(rt, 1))
    require.Equal(t, []BlockID { 3 }, succsOf(rt, 2))
    require.Equal(t, []BlockID { 1, 2 }, rt.Block(3).Preds)

    /* branch targets and labels */
    require.Equal(t, BlockID(2), rt.Terminator(rt.Block(0)).Target)
    require.Equal(t, BlockID(3), rt.Terminator(rt.Block(1)).Target)
    require.Equal(t, 5, rt.Block(2).Label)
    require.Equal(t, "[5]", rt.Label(2))

    /* the join block is dominated by the entry */
    require.Equal(t, BlockID(0), rt.Block(3).Idom)
    require.ElementsMatch(t, []BlockID { 1, 2, 3 }, rt.Block(0).Children)
}

func TestBuilder_UnreachableBlocksAreDropped(t *testing.T) {
    p := NewBuilder("unreachable")
    p.Br("end")
    p.Write(Constant { V: 1 })
    p.Label("end")
    p.Ret(0)
    rt, err := p.Build()
    require.NoError(t, err)
    require.Len(t, rt.Blocks(), 2)
    require.Equal(t, []BlockID { 1 }, succsOf(rt, 0))
}

func TestBuilder_Errors(t *testing.T) {
    p := NewBuilder("dangling")
    p.Ret(0)
    p.Label("nowhere")
    _, err := p.Build()
    require.Error(t, err)

    p = NewBuilder("unresolved")
    p.Br("nowhere")
    _, err = p.Build()
    require.Error(t, err)

    p = NewBuilder("undeclared")
    p.Write(Var("x", -8))
    _, err = p.Build()
    require.Error(t, err)

    p = NewBuilder("duplicated")
    p.Local("x", -8)
    p.Local("x", -16)
    p.Ret(0)
    _, err = p.Build()
    require.Error(t, err)

    p = NewBuilder("relabel")
    p.Label("x")
    p.Nop()
    p.Label("x")
    p.Ret(0)
    _, err = p.Build()
    require.Error(t, err)
}

func TestBuilder_Empty(t *testing.T) {
    rt, err := NewBuilder("empty").Build()
    require.NoError(t, err)
    require.Len(t, rt.Blocks(), 1)
    require.Equal(t, OP_nop, rt.Body(rt.EntryBlock())[0].Op)
}

func TestBuilder_BuildTwice(t *testing.T) {
    p := NewBuilder("twice")
    a := p.Local("a", -8)
    p.Move(Constant { V: 1 }, a)
    p.Write(a)
    p.Ret(0)
    r1, err := p.Build()
    require.NoError(t, err)
    r2, err := p.Build()
    require.NoError(t, err)

    /* rewriting the operands of one routine leaves the other alone */
    mv := r1.Body(r1.EntryBlock())[0]
    mv.LHS[0] = a.Versioned(1)
    r1.Body(r1.EntryBlock())[1].ReplaceUse("a", Constant { V: 2 })
    require.Equal(t, []Token { a }, r2.Body(r2.EntryBlock())[0].LHS)
    require.Equal(t, []Token { a }, r2.Body(r2.EntryBlock())[1].RHS)
    require.Equal(t, []Token { Constant { V: 2 } }, r1.Body(r1.EntryBlock())[1].RHS)
}
