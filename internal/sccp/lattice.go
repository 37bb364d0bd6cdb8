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
    `fmt`

    `github.com/cloudwego/midend/ir`
)

type Level uint8

const (
    Top Level = iota
    Const
    Bottom
)

// Attr is a point of the constant propagation lattice. Value is only
// meaningful at the Const level.
type Attr struct {
    Level Level
    Value int64
}

var (
    TopAttr    = Attr { Level: Top }
    BottomAttr = Attr { Level: Bottom }
)

func ConstAttr(v int64) Attr {
    return Attr { Level: Const, Value: v }
}

func (self Attr) IsTop() bool    { return self.Level == Top }
func (self Attr) IsConst() bool  { return self.Level == Const }
func (self Attr) IsBottom() bool { return self.Level == Bottom }

// Meet is the greatest lower bound of two attributes.
func (self Attr) Meet(other Attr) Attr {
    switch {
        case self.IsTop()        : return other
        case other.IsTop()       : return self
        case self.IsBottom()     : return BottomAttr
        case other.IsBottom()    : return BottomAttr
        case self == other       : return self
        default                  : return BottomAttr
    }
}

func (self Attr) String() string {
    switch self.Level {
        case Top    : return "⊤"
        case Bottom : return "⊥"
        default     : return fmt.Sprintf("const(%d)", self.Value)
    }
}

// transfer evaluates an arithmetic operator over the lattice.
func transfer(op ir.Op, x Attr, y Attr) Attr {
    if op.IsUnary() {
        y = ConstAttr(0)
    }

    /* Bottom wins over Top, which wins over constants */
    switch {
        case x.IsBottom() || y.IsBottom() : return BottomAttr
        case x.IsTop() || y.IsTop()       : return TopAttr
    }

    /* fold the constants, undefined results are not constants */
    if v, ok := ir.Eval(op, x.Value, y.Value); ok {
        return ConstAttr(v)
    } else {
        return BottomAttr
    }
}
