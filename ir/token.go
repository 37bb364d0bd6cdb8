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
    `strconv`
)

// Token is an instruction operand. The set of implementations is closed,
// every switch over a Token handles exactly the types declared in this file.
type Token interface {
    fmt.Stringer
    token()
}

func (Variable) token() {}
func (Register) token() {}
func (Constant) token() {}
func (Offset)   token() {}
func (Code)     token() {}
func (GP)       token() {}

// Variable is a named storage slot. SSAName is empty until the renamer
// assigns a version, after reconciliation the versioned name becomes Name.
type Variable struct {
    Name    string
    SSAName string
    Offset  int64
    Type    string
}

func Var(name string, offset int64) Variable {
    return Variable {
        Name   : name,
        Offset : offset,
    }
}

// Key is the name the variable is currently known by.
func (self Variable) Key() string {
    if self.SSAName != "" {
        return self.SSAName
    } else {
        return self.Name
    }
}

func (self Variable) IsParam() bool {
    return self.Offset > 0
}

func (self Variable) Versioned(n int) Variable {
    self.SSAName = self.Name + "$" + strconv.Itoa(n)
    return self
}

func (self Variable) Unversioned() Variable {
    self.SSAName = ""
    return self
}

func (self Variable) String() string {
    return fmt.Sprintf("%s#%d", self.Key(), self.Offset)
}

// Register is the value produced by the instruction with index N.
type Register struct {
    N int
}

func (self Register) Key() string {
    return "(" + strconv.Itoa(self.N) + ")"
}

func (self Register) String() string {
    return self.Key()
}

type Constant struct {
    V int64
}

func (self Constant) String() string {
    return strconv.FormatInt(self.V, 10)
}

// Offset is a field or frame offset literal, constant for the optimizer.
type Offset struct {
    Name string
    V    int64
}

func (self Offset) String() string {
    if self.Name == "" {
        return strconv.FormatInt(self.V, 10)
    } else {
        return fmt.Sprintf("%s#%d", self.Name, self.V)
    }
}

// Code is a reference to the instruction labelled N.
type Code struct {
    N int
}

func (self Code) String() string {
    return "[" + strconv.Itoa(self.N) + "]"
}

// GP is the global pointer.
type GP struct{}

func (GP) String() string {
    return "GP"
}

// NameOf returns the SSA-level name a token is tracked under, or false
// if the token is not a variable or a register.
func NameOf(t Token) (string, bool) {
    switch v := t.(type) {
        case Variable : return v.Key(), true
        case Register : return v.Key(), true
        default       : return "", false
    }
}
