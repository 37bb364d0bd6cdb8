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

type StmtID int

const NoStmt StmtID = -1

// Stmt is a single instruction. Its kind is fully determined by Op, so
// passes dispatch on Kind() rather than on a concrete type.
type Stmt struct {
    Id     StmtID
    Index  int
    Op     Op
    LHS    []Token
    RHS    []Token
    Block  BlockID
    Target BlockID
}

func (self *Stmt) Kind() Kind {
    return self.Op.Kind()
}

// Attached reports whether the statement still belongs to a block.
func (self *Stmt) Attached() bool {
    return self.Block != NoBlock
}

// Defines returns the names of all the variables and registers this
// statement assigns.
func (self *Stmt) Defines() []string {
    ret := make([]string, 0, len(self.LHS))
    for _, t := range self.LHS {
        if n, ok := NameOf(t); ok {
            ret = append(ret, n)
        }
    }
    return ret
}

// Uses returns the names of all the variables and registers this statement
// reads, in operand order. A name used twice appears twice.
func (self *Stmt) Uses() []string {
    ret := make([]string, 0, len(self.RHS))
    for _, t := range self.RHS {
        if n, ok := NameOf(t); ok {
            ret = append(ret, n)
        }
    }
    return ret
}

// ReplaceUse replaces every operand named `name` with `tok`, returning the
// number of operands replaced.
func (self *Stmt) ReplaceUse(name string, tok Token) int {
    n := 0
    for i, t := range self.RHS {
        if v, ok := NameOf(t); ok && v == name {
            n++
            self.RHS[i] = tok
        }
    }
    return n
}

// PhiVar is the variable a Phi node merges.
func (self *Stmt) PhiVar() Variable {
    if self.Op != OP_phi {
        panic("ir: not a Phi node: " + self.Op.String())
    } else {
        return self.LHS[0].(Variable)
    }
}
