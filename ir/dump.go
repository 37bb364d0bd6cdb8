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
    `strings`
)

type DumpMode uint8

const (
    DumpGeneric DumpMode = iota
    DumpIR
    DumpSSA
)

func (self DumpMode) token(t Token) string {
    switch v := t.(type) {
        case Variable: {
            switch self {
                case DumpIR  : return fmt.Sprintf("%s#%d", v.Name, v.Offset)
                case DumpSSA : return v.Key()
                default      : return v.String()
            }
        }
        default: {
            return t.String()
        }
    }
}

func (self DumpMode) tokens(tt []Token) string {
    return self.join(tt, " ")
}

func (self DumpMode) join(tt []Token, sep string) string {
    buf := make([]string, len(tt))
    for i, t := range tt {
        buf[i] = self.token(t)
    }
    return strings.Join(buf, sep)
}

// Label is the instruction label a branch to `bb` jumps to.
func (self *Routine) Label(bb BlockID) string {
    if p := self.Block(bb); p == nil {
        return "[?]"
    } else {
        return fmt.Sprintf("[%d]", p.Label)
    }
}

// Format renders a single statement.
func (self *Routine) Format(p *Stmt, mode DumpMode) string {
    var sb strings.Builder
    fmt.Fprintf(&sb, "    instr %d: ", p.Index)

    /* format by statement kind */
    switch p.Kind() {
        case K_phi: {
            fmt.Fprintf(&sb, "%s := phi(%s)", mode.token(p.LHS[0]), mode.join(p.RHS, ", "))
        }

        case K_entry: {
            fmt.Fprintf(&sb, "entry %s", mode.tokens(p.LHS))
        }

        case K_move: {
            fmt.Fprintf(&sb, "move %s %s", mode.tokens(p.RHS), mode.tokens(p.LHS))
        }

        case K_branch: {
            if sb.WriteString(p.Op.String()); len(p.RHS) != 0 {
                sb.WriteString(" " + mode.tokens(p.RHS))
            }
            sb.WriteString(" " + self.Label(p.Target))
        }

        default: {
            if sb.WriteString(p.Op.String()); len(p.RHS) != 0 {
                sb.WriteString(" " + mode.tokens(p.RHS))
            }
            if len(p.LHS) != 0 && !isSelfRegister(p) {
                sb.WriteString(" -> " + mode.tokens(p.LHS))
            }
        }
    }

    /* all done */
    return sb.String()
}

func isSelfRegister(p *Stmt) bool {
    if len(p.LHS) != 1 {
        return false
    } else if r, ok := p.LHS[0].(Register); !ok {
        return false
    } else {
        return r.N == p.Index
    }
}

// DumpBlock renders a block header followed by its Phi nodes and body.
func (self *Routine) DumpBlock(bb *Block, mode DumpMode) string {
    var sb strings.Builder
    fmt.Fprintf(&sb, "bb_%d %s: preds = %s, succs = %s\n", bb.Id, self.Label(bb.Id), blocklist(bb.Preds), blocklist(bb.Succs))

    /* dump Phi nodes */
    for _, p := range self.PhiNodes(bb) {
        sb.WriteString(self.Format(p, mode))
        sb.WriteByte('\n')
    }

    /* dump the body */
    for _, p := range self.Body(bb) {
        sb.WriteString(self.Format(p, mode))
        sb.WriteByte('\n')
    }
    return sb.String()
}

// Dump renders the whole routine.
func (self *Routine) Dump(mode DumpMode) string {
    var sb strings.Builder
    fmt.Fprintf(&sb, "routine %s (locals: %s)\n", self.Name, mode.tokens(varTokens(self.Locals)))
    for _, bb := range self.Blocks() {
        sb.WriteString(self.DumpBlock(bb, mode))
    }
    return sb.String()
}

func varTokens(vv []Variable) []Token {
    ret := make([]Token, len(vv))
    for i, v := range vv {
        ret[i] = v
    }
    return ret
}

func blocklist(ids []BlockID) string {
    buf := make([]string, len(ids))
    for i, id := range ids {
        buf[i] = fmt.Sprintf("bb_%d", id)
    }
    return "{" + strings.Join(buf, ", ") + "}"
}
