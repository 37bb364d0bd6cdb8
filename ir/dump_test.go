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

func TestDump_Routine(t *testing.T) {
    p := NewBuilder("dump")
    x := p.Local("x", -8)
    n := p.Local("n", 16)
    p.Enter(8)
    p.Blbs(p.Arith(OP_cmpeq, n, Constant { V: 0 }), "skip")
    p.Move(Constant { V: 1 }, x)
    p.Label("skip")
    p.Write(x)
    p.Ret(8)
    rt, err := p.Build()
    require.NoError(t, err)
    require.Equal(t, "" +
        "routine dump (locals: x#-8 n#16)\n" +
        "bb_0 [1]: preds = {}, succs = {bb_1, bb_2}\n" +
        "    instr 1: enter 8\n" +
        "    instr 2: cmpeq n#16 0\n" +
        "    instr 3: blbs (2) [5]\n" +
        "bb_1 [4]: preds = {bb_0}, succs = {bb_2}\n" +
        "    instr 4: move 1 x#-8\n" +
        "bb_2 [5]: preds = {bb_0, bb_1}, succs = {}\n" +
        "    instr 5: write x#-8\n" +
        "    instr 6: ret 8\n",
        rt.Dump(DumpIR),
    )
}

func TestDump_SSA(t *testing.T) {
    rt := buildDiamond(t)
    v := Var("x", -8)
    addPhi(rt, rt.Block(3), v.Versioned(2), v.Versioned(0), v.Versioned(1))
    require.Equal(t, "    instr 7: x$2 := phi(x$0, x$1)", rt.Format(rt.PhiNodes(rt.Block(3))[0], DumpSSA))
    require.Equal(t, "    instr 7: x$2#-8 := phi(x$0#-8, x$1#-8)", rt.Format(rt.PhiNodes(rt.Block(3))[0], DumpGeneric))
}
