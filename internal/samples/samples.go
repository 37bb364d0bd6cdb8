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

// Package samples holds small routines shared by the tests of every pass.
package samples

import (
    `github.com/cloudwego/midend/ir`
)

// Sample is a routine together with an input it can be run against.
type Sample struct {
    Name  string
    Args  map[int64]int64
    Input []int64
    Build func() (*ir.Routine, error)
}

func c(v int64) ir.Constant {
    return ir.Constant { V: v }
}

// Straight is a single block: a := 3; b := 4; write(a + b).
func Straight() (*ir.Routine, error) {
    p := ir.NewBuilder("straight")
    a := p.Local("a", -8)
    b := p.Local("b", -16)
    p.Enter(16)
    p.Move(c(3), a)
    p.Move(c(4), b)
    p.Write(p.Arith(ir.OP_add, a, b))
    p.Wrl()
    p.Ret(0)
    return p.Build()
}

// Diamond picks x from the sign of the parameter p.
//
//     if p < 0 { x := 1 } else { x := 2 }
//     write(x)
func Diamond() (*ir.Routine, error) {
    p := ir.NewBuilder("diamond")
    x := p.Local("x", -8)
    n := p.Local("p", 16)
    p.Enter(8)
    p.Blbc(p.Arith(ir.OP_cmplt, n, c(0)), "else")
    p.Move(c(1), x)
    p.Br("join")
    p.Label("else")
    p.Move(c(2), x)
    p.Label("join")
    p.Write(x)
    p.Wrl()
    p.Ret(8)
    return p.Build()
}

// ConstBranch branches on a condition that is always true.
//
//     k := 1
//     if k == 1 { x := 10 } else { x := 20 }
//     write(x)
func ConstBranch() (*ir.Routine, error) {
    p := ir.NewBuilder("constbranch")
    k := p.Local("k", -8)
    x := p.Local("x", -16)
    p.Enter(16)
    p.Move(c(1), k)
    p.Blbc(p.Arith(ir.OP_cmpeq, k, c(1)), "else")
    p.Move(c(10), x)
    p.Br("join")
    p.Label("else")
    p.Move(c(20), x)
    p.Label("join")
    p.Write(x)
    p.Wrl()
    p.Ret(0)
    return p.Build()
}

// Loop sums the integers below the parameter n.
//
//     i := 0; s := 0
//     while i < n { s := s + i; i := i + 1 }
//     write(s)
func Loop() (*ir.Routine, error) {
    p := ir.NewBuilder("loop")
    i := p.Local("i", -8)
    s := p.Local("s", -16)
    n := p.Local("n", 16)
    p.Enter(16)
    p.Move(c(0), i)
    p.Move(c(0), s)
    p.Label("head")
    p.Blbc(p.Arith(ir.OP_cmplt, i, n), "exit")
    p.Move(p.Arith(ir.OP_add, s, i), s)
    p.Move(p.Arith(ir.OP_add, i, c(1)), i)
    p.Br("head")
    p.Label("exit")
    p.Write(s)
    p.Wrl()
    p.Ret(8)
    return p.Build()
}

// ConstLoop keeps a value constant around a loop while the counter varies.
//
//     k := 5; i := 0
//     while i < 3 { k := k * 1; i := i + 1 }
//     write(k); write(i)
func ConstLoop() (*ir.Routine, error) {
    p := ir.NewBuilder("constloop")
    k := p.Local("k", -8)
    i := p.Local("i", -16)
    p.Enter(16)
    p.Move(c(5), k)
    p.Move(c(0), i)
    p.Label("head")
    p.Blbc(p.Arith(ir.OP_cmplt, i, c(3)), "exit")
    p.Move(p.Arith(ir.OP_mul, k, c(1)), k)
    p.Move(p.Arith(ir.OP_add, i, c(1)), i)
    p.Br("head")
    p.Label("exit")
    p.Write(k)
    p.Write(i)
    p.Wrl()
    p.Ret(0)
    return p.Build()
}

// DeadCode contains a branch that can never be taken, guarding a block that
// reads from the input.
//
//     z := 0
//     if z != 0 { y := read() } else { y := 7 }
//     write(y * 2)
func DeadCode() (*ir.Routine, error) {
    p := ir.NewBuilder("deadcode")
    z := p.Local("z", -8)
    y := p.Local("y", -16)
    p.Enter(16)
    p.Move(c(0), z)
    p.Blbs(p.Arith(ir.OP_cmpeq, z, c(0)), "else")
    p.Move(p.Read(), y)
    p.Br("join")
    p.Label("else")
    p.Move(c(7), y)
    p.Label("join")
    p.Write(p.Arith(ir.OP_mul, y, c(2)))
    p.Wrl()
    p.Ret(0)
    return p.Build()
}

// Nested has a loop inside a loop, with the inner bound read from memory.
//
//     t := new(8); store(3, t)
//     i := 0
//     while i < n {
//         j := 0
//         while j < load(t) { s := s + j; j := j + 1 }
//         i := i + 1
//     }
//     write(s)
func Nested() (*ir.Routine, error) {
    p := ir.NewBuilder("nested")
    i := p.Local("i", -8)
    j := p.Local("j", -16)
    s := p.Local("s", -24)
    t := p.Local("t", -32)
    n := p.Local("n", 16)
    p.Enter(32)
    p.Move(p.New(c(8)), t)
    p.CheckNull(t)
    p.Store(c(3), t)
    p.Move(c(0), s)
    p.Move(c(0), i)
    p.Label("outer")
    p.Blbc(p.Arith(ir.OP_cmplt, i, n), "done")
    p.Move(c(0), j)
    p.Label("inner")
    p.Blbc(p.Arith(ir.OP_cmplt, j, p.Load(t)), "next")
    p.Move(p.Arith(ir.OP_add, s, j), s)
    p.Move(p.Arith(ir.OP_add, j, c(1)), j)
    p.Br("inner")
    p.Label("next")
    p.Move(p.Arith(ir.OP_add, i, c(1)), i)
    p.Br("outer")
    p.Label("done")
    p.Write(s)
    p.Wrl()
    p.Ret(8)
    return p.Build()
}

// Swap exchanges two variables around a loop, the classic case where Phi
// nodes must be read in parallel.
//
//     a := 1; b := 2; i := 0
//     while i < n { t := a; a := b; b := t; i := i + 1 }
//     write(a); write(b)
func Swap() (*ir.Routine, error) {
    p := ir.NewBuilder("swap")
    a := p.Local("a", -8)
    b := p.Local("b", -16)
    t := p.Local("t", -24)
    i := p.Local("i", -32)
    n := p.Local("n", 16)
    p.Enter(32)
    p.Move(c(1), a)
    p.Move(c(2), b)
    p.Move(c(0), i)
    p.Label("head")
    p.Blbc(p.Arith(ir.OP_cmplt, i, n), "exit")
    p.Move(a, t)
    p.Move(b, a)
    p.Move(t, b)
    p.Move(p.Arith(ir.OP_add, i, c(1)), i)
    p.Br("head")
    p.Label("exit")
    p.Write(a)
    p.Write(b)
    p.Wrl()
    p.Ret(8)
    return p.Build()
}

// Calls passes the parameter through a call and a dynamic field.
//
//     o := newlist(4)
//     stdynamic(p, o, 8)
//     param(lddynamic(o, 8)); r := call [1]
//     if istype(o, 2) { write(r) }
func Calls() (*ir.Routine, error) {
    p := ir.NewBuilder("calls")
    o := p.Local("o", -8)
    r := p.Local("r", -16)
    n := p.Local("p", 16)
    p.Enter(16)
    p.Move(p.NewList(c(4)), o)
    p.CheckBounds(c(1), c(4))
    p.StDynamic(n, o, ir.Offset { Name: "f", V: 8 })
    p.Param(p.LdDynamic(o, ir.Offset { Name: "f", V: 8 }))
    p.Move(p.Call(1), r)
    p.Blbc(p.IsType(o, c(2)), "skip")
    p.Write(r)
    p.Label("skip")
    p.Wrl()
    p.Ret(8)
    return p.Build()
}

// All is every sample with an input that exercises it.
var All = []Sample {
    { Name: "straight"    , Build: Straight },
    { Name: "diamond"     , Build: Diamond     , Args: map[int64]int64 { 16: -5 } },
    { Name: "diamond+"    , Build: Diamond     , Args: map[int64]int64 { 16: 5 } },
    { Name: "constbranch" , Build: ConstBranch },
    { Name: "loop"        , Build: Loop        , Args: map[int64]int64 { 16: 10 } },
    { Name: "loop0"       , Build: Loop        , Args: map[int64]int64 { 16: 0 } },
    { Name: "constloop"   , Build: ConstLoop },
    { Name: "deadcode"    , Build: DeadCode    , Input: []int64 { 100 } },
    { Name: "nested"      , Build: Nested      , Args: map[int64]int64 { 16: 4 } },
    { Name: "swap"        , Build: Swap        , Args: map[int64]int64 { 16: 3 } },
    { Name: "calls"       , Build: Calls       , Args: map[int64]int64 { 16: 42 } },
}
