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

package sccp

import (
    `testing`

    `github.com/stretchr/testify/require`

    `github.com/cloudwego/midend/ir`
)

var lattice = []Attr {
    TopAttr,
    ConstAttr(0),
    ConstAttr(1),
    ConstAttr(-7),
    BottomAttr,
}

func TestLattice_Meet(t *testing.T) {
    for _, a := range lattice {
        require.Equal(t, a, TopAttr.Meet(a))
        require.Equal(t, BottomAttr, BottomAttr.Meet(a))
        require.Equal(t, a, a.Meet(a))
        for _, b := range lattice {
            require.Equal(t, a.Meet(b), b.Meet(a), "%v meet %v", a, b)
            for _, c := range lattice {
                require.Equal(t, a.Meet(b).Meet(c), a.Meet(b.Meet(c)))
            }
        }
    }
    require.Equal(t, BottomAttr, ConstAttr(1).Meet(ConstAttr(2)))
}

func TestLattice_MeetNeverRises(t *testing.T) {
    rank := func(a Attr) int { return int(a.Level) }
    for _, a := range lattice {
        for _, b := range lattice {
            require.GreaterOrEqual(t, rank(a.Meet(b)), rank(a))
        }
    }
}

func TestLattice_Transfer(t *testing.T) {
    require.Equal(t, ConstAttr(7), transfer(ir.OP_add, ConstAttr(3), ConstAttr(4)))
    require.Equal(t, ConstAttr(-3), transfer(ir.OP_neg, ConstAttr(3), TopAttr))
    require.Equal(t, ConstAttr(1), transfer(ir.OP_cmple, ConstAttr(3), ConstAttr(3)))
    require.Equal(t, ConstAttr(0), transfer(ir.OP_cmplt, ConstAttr(3), ConstAttr(3)))
    require.Equal(t, TopAttr, transfer(ir.OP_mul, TopAttr, ConstAttr(3)))
    require.Equal(t, BottomAttr, transfer(ir.OP_mul, TopAttr, BottomAttr))
    require.Equal(t, BottomAttr, transfer(ir.OP_sub, ConstAttr(1), BottomAttr))
    require.Equal(t, BottomAttr, transfer(ir.OP_div, ConstAttr(1), ConstAttr(0)))
    require.Equal(t, BottomAttr, transfer(ir.OP_mod, ConstAttr(1), ConstAttr(0)))
}

func TestLattice_String(t *testing.T) {
    require.Equal(t, "⊤", TopAttr.String())
    require.Equal(t, "⊥", BottomAttr.String())
    require.Equal(t, "const(42)", ConstAttr(42).String())
}
