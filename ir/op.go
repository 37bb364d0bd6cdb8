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
)

type Op uint8

const (
    OP_nop Op = iota
    OP_enter
    OP_ret
    OP_entry
    OP_add
    OP_sub
    OP_mul
    OP_div
    OP_mod
    OP_neg
    OP_cmpeq
    OP_cmple
    OP_cmplt
    OP_br
    OP_blbc
    OP_blbs
    OP_move
    OP_phi
    OP_load
    OP_store
    OP_lddynamic
    OP_stdynamic
    OP_new
    OP_newlist
    OP_checknull
    OP_checkbounds
    OP_checktype
    OP_istype
    OP_call
    OP_param
    OP_read
    OP_write
    OP_wrl
)

type Kind uint8

const (
    K_other Kind = iota
    K_entry
    K_arith
    K_move
    K_branch
    K_phi
    K_memory
    K_dynamic
    K_alloc
    K_objcmp
    K_safety
)

var _OpNames = [...]string {
    OP_nop         : "nop",
    OP_enter       : "enter",
    OP_ret         : "ret",
    OP_entry       : "entry",
    OP_add         : "add",
    OP_sub         : "sub",
    OP_mul         : "mul",
    OP_div         : "div",
    OP_mod         : "mod",
    OP_neg         : "neg",
    OP_cmpeq       : "cmpeq",
    OP_cmple       : "cmple",
    OP_cmplt       : "cmplt",
    OP_br          : "br",
    OP_blbc        : "blbc",
    OP_blbs        : "blbs",
    OP_move        : "move",
    OP_phi         : "phi",
    OP_load        : "load",
    OP_store       : "store",
    OP_lddynamic   : "lddynamic",
    OP_stdynamic   : "stdynamic",
    OP_new         : "new",
    OP_newlist     : "newlist",
    OP_checknull   : "checknull",
    OP_checkbounds : "checkbounds",
    OP_checktype   : "checktype",
    OP_istype      : "istype",
    OP_call        : "call",
    OP_param       : "param",
    OP_read        : "read",
    OP_write       : "write",
    OP_wrl         : "wrl",
}

var _OpKinds = [...]Kind {
    OP_nop         : K_other,
    OP_enter       : K_other,
    OP_ret         : K_other,
    OP_entry       : K_entry,
    OP_add         : K_arith,
    OP_sub         : K_arith,
    OP_mul         : K_arith,
    OP_div         : K_arith,
    OP_mod         : K_arith,
    OP_neg         : K_arith,
    OP_cmpeq       : K_arith,
    OP_cmple       : K_arith,
    OP_cmplt       : K_arith,
    OP_br          : K_branch,
    OP_blbc        : K_branch,
    OP_blbs        : K_branch,
    OP_move        : K_move,
    OP_phi         : K_phi,
    OP_load        : K_memory,
    OP_store       : K_memory,
    OP_lddynamic   : K_dynamic,
    OP_stdynamic   : K_dynamic,
    OP_new         : K_alloc,
    OP_newlist     : K_alloc,
    OP_checknull   : K_safety,
    OP_checkbounds : K_safety,
    OP_checktype   : K_safety,
    OP_istype      : K_objcmp,
    OP_call        : K_other,
    OP_param       : K_other,
    OP_read        : K_other,
    OP_write       : K_other,
    OP_wrl         : K_other,
}

var _KindNames = [...]string {
    K_other   : "other",
    K_entry   : "entry",
    K_arith   : "arith",
    K_move    : "move",
    K_branch  : "branch",
    K_phi     : "phi",
    K_memory  : "memory",
    K_dynamic : "dynamic",
    K_alloc   : "alloc",
    K_objcmp  : "objcmp",
    K_safety  : "safety",
}

func (self Op) String() string {
    if int(self) < len(_OpNames) {
        return _OpNames[self]
    } else {
        return fmt.Sprintf("op(%d)", self)
    }
}

func (self Op) Kind() Kind {
    if int(self) < len(_OpKinds) {
        return _OpKinds[self]
    } else {
        panic(fmt.Sprintf("ir: invalid operator: %d", self))
    }
}

// IsConditional reports whether the operator is a two-way branch on the
// value of its operand.
func (self Op) IsConditional() bool {
    return self == OP_blbc || self == OP_blbs
}

// TakenOn returns the operand value that makes a conditional branch jump to
// its target: blbc jumps on 0, blbs jumps on 1.
func (self Op) TakenOn() int64 {
    switch self {
        case OP_blbc : return 0
        case OP_blbs : return 1
        default      : panic("ir: not a conditional branch: " + self.String())
    }
}

// IsUnary reports whether an arithmetic operator takes one operand.
func (self Op) IsUnary() bool {
    return self == OP_neg
}

// Defines reports whether instructions of this operator produce a value in
// the register named after their index.
func (self Op) Defines() bool {
    switch self.Kind() {
        case K_arith, K_alloc, K_objcmp : return true
        case K_memory                   : return self == OP_load
        case K_dynamic                  : return self == OP_lddynamic
        case K_safety                   : return self == OP_checktype
        default                         : return self == OP_read || self == OP_call
    }
}

func (self Kind) String() string {
    if int(self) < len(_KindNames) {
        return _KindNames[self]
    } else {
        return fmt.Sprintf("kind(%d)", self)
    }
}
