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
    `github.com/oleiade/lane`
    `github.com/pkg/errors`
)

type _Instr struct {
    idx    int
    op     Op
    lhs    []Token
    rhs    []Token
    br     string
    labels []string
}

func (self *_Instr) isBranch() bool {
    return self.op.Kind() == K_branch
}

func (self *_Instr) isTerminal() bool {
    return self.isBranch() || self.op == OP_ret
}

// Builder assembles a routine from a linear instruction stream with
// symbolic labels, then splits it into basic blocks.
type Builder struct {
    name   string
    ins    []*_Instr
    locals []Variable
    refs   map[string]int
    pends  []string
    errs   []error
}

func NewBuilder(name string) *Builder {
    return &Builder {
        name : name,
        refs : make(map[string]int),
    }
}

func (self *Builder) fail(format string, args ...interface{}) {
    self.errs = append(self.errs, errors.Errorf(format, args...))
}

func (self *Builder) add(op Op, lhs []Token, rhs ...Token) *_Instr {
    p := &_Instr {
        idx    : len(self.ins) + 1,
        op     : op,
        lhs    : lhs,
        rhs    : rhs,
        labels : self.pends,
    }

    /* resolve the pending labels onto this instruction */
    for _, lb := range self.pends {
        self.refs[lb] = len(self.ins)
    }

    /* add to instruction buffer */
    self.pends = nil
    self.ins = append(self.ins, p)
    return p
}

func (self *Builder) value(op Op, rhs ...Token) Register {
    p := self.add(op, nil, rhs...)
    p.lhs = []Token { Register { N: p.idx } }
    return Register { N: p.idx }
}

func (self *Builder) jump(op Op, to string, rhs ...Token) {
    self.add(op, nil, rhs...).br = to
}

// Local declares a local variable. Positive offsets denote parameters.
func (self *Builder) Local(name string, offset int64) Variable {
    for _, v := range self.locals {
        if v.Name == name {
            self.fail("local %s has already been declared", name)
        }
    }
    v := Var(name, offset)
    v.Type = "int"
    self.locals = append(self.locals, v)
    return v
}

func (self *Builder) Label(to string) {
    if _, ok := self.refs[to]; ok {
        self.fail("label %s has already been linked", to)
    } else {
        self.refs[to] = -1
        self.pends = append(self.pends, to)
    }
}

func (self *Builder) Nop()                           { self.add(OP_nop, nil) }
func (self *Builder) Enter(frame int64)              { self.add(OP_enter, nil, Constant { V: frame }) }
func (self *Builder) Ret(argsize int64)              { self.add(OP_ret, nil, Constant { V: argsize }) }
func (self *Builder) Neg(x Token) Register           { return self.value(OP_neg, x) }
func (self *Builder) Load(addr Token) Register       { return self.value(OP_load, addr) }
func (self *Builder) Store(val Token, addr Token)    { self.add(OP_store, nil, val, addr) }
func (self *Builder) New(size Token) Register        { return self.value(OP_new, size) }
func (self *Builder) NewList(n Token) Register       { return self.value(OP_newlist, n) }
func (self *Builder) CheckNull(p Token)              { self.add(OP_checknull, nil, p) }
func (self *Builder) CheckBounds(i Token, n Token)   { self.add(OP_checkbounds, nil, i, n) }
func (self *Builder) CheckType(p Token, t Token) Register { return self.value(OP_checktype, p, t) }
func (self *Builder) IsType(p Token, t Token) Register    { return self.value(OP_istype, p, t) }
func (self *Builder) Read() Register                 { return self.value(OP_read) }
func (self *Builder) Write(x Token)                  { self.add(OP_write, nil, x) }
func (self *Builder) Wrl()                           { self.add(OP_wrl, nil) }
func (self *Builder) Param(x Token)                  { self.add(OP_param, nil, x) }
func (self *Builder) Call(fn int) Register           { return self.value(OP_call, Code { N: fn }) }
func (self *Builder) Br(to string)                   { self.jump(OP_br, to) }
func (self *Builder) Blbc(x Token, to string)        { self.jump(OP_blbc, to, x) }
func (self *Builder) Blbs(x Token, to string)        { self.jump(OP_blbs, to, x) }

func (self *Builder) LdDynamic(obj Token, field Token) Register {
    return self.value(OP_lddynamic, obj, field)
}

func (self *Builder) StDynamic(val Token, obj Token, field Token) {
    self.add(OP_stdynamic, nil, val, obj, field)
}

// Arith emits a binary arithmetic or comparison instruction.
func (self *Builder) Arith(op Op, x Token, y Token) Register {
    if op.Kind() != K_arith || op.IsUnary() {
        self.fail("%s is not a binary arithmetic operator", op)
    }
    return self.value(op, x, y)
}

// Move copies `src` into the local `dst`.
func (self *Builder) Move(src Token, dst Variable) {
    self.add(OP_move, []Token { dst }, src)
}

// Build resolves all labels, splits the instruction stream into basic blocks
// and computes the dominator tree. Blocks that can not be reached from the
// first instruction are discarded.
func (self *Builder) Build() (*Routine, error) {
    if len(self.errs) != 0 {
        return nil, errors.Wrapf(self.errs[0], "build %s", self.name)
    }

    /* check for dangling labels */
    if len(self.pends) != 0 {
        return nil, errors.Errorf("build %s: label %s is not followed by an instruction", self.name, self.pends[0])
    }

    /* check for unresolved labels */
    for _, p := range self.ins {
        if p.br != "" {
            if _, ok := self.refs[p.br]; !ok {
                return nil, errors.Errorf("build %s: labels are not fully resolved: %s", self.name, p.br)
            }
        }
    }

    /* empty routines still have an entry block */
    if len(self.ins) == 0 {
        self.Nop()
    }

    /* every local use must refer to a declared local */
    for _, p := range self.ins {
        for _, t := range append(append([]Token(nil), p.lhs...), p.rhs...) {
            if v, ok := t.(Variable); ok && self.local(v.Name) < 0 {
                return nil, errors.Errorf("build %s: instruction %d refers to undeclared variable %s", self.name, p.idx, v.Name)
            }
        }
    }

    /* mark all the branch targets and the instructions following a terminator */
    pin := make([]bool, len(self.ins))
    pin[0] = true
    for i, p := range self.ins {
        if p.br != "" {
            pin[self.refs[p.br]] = true
        }
        if p.isTerminal() && i + 1 < len(self.ins) {
            pin[i + 1] = true
        }
    }

    /* split into spans of instructions */
    var spans [][2]int
    for i := range self.ins {
        if pin[i] {
            spans = append(spans, [2]int { i, i })
        }
        spans[len(spans) - 1][1] = i + 1
    }

    /* find the span each instruction starts */
    start := make(map[int]int, len(spans))
    for i, s := range spans {
        start[s[0]] = i
    }

    /* compute span successors, fall-through first */
    succs := make([][]int, len(spans))
    for i, s := range spans {
        last := self.ins[s[1] - 1]
        next := i + 1

        /* the fall-through edge */
        if last.op != OP_ret && last.op != OP_br && next < len(spans) {
            succs[i] = append(succs[i], next)
        }

        /* the branch edge */
        if last.br != "" {
            if to := start[self.refs[last.br]]; len(succs[i]) == 0 || succs[i][0] != to {
                succs[i] = append(succs[i], to)
            }
        }
    }

    /* find all the spans reachable from the entry */
    q := lane.NewQueue()
    vis := map[int]bool { 0: true }
    for q.Enqueue(0); !q.Empty(); {
        for _, s := range succs[q.Dequeue().(int)] {
            if !vis[s] {
                vis[s] = true
                q.Enqueue(s)
            }
        }
    }

    /* create the routine */
    rt := &Routine {
        Name   : self.name,
        Entry  : 0,
        Locals : append([]Variable(nil), self.locals...),
    }

    /* create all the reachable blocks */
    ids := make(map[int]BlockID, len(spans))
    for i, s := range spans {
        if vis[i] {
            id := BlockID(len(rt.blocks))
            ids[i] = id
            rt.order = append(rt.order, id)
            rt.blocks = append(rt.blocks, newBlock(id, self.ins[s[0]].idx))
        }
    }

    /* fill in the statements */
    for i, s := range spans {
        if vis[i] {
            bb := rt.blocks[ids[i]]
            for _, p := range self.ins[s[0]:s[1]] {
                st := rt.newStmtAt(p.idx, p.op, append([]Token(nil), p.lhs...), append([]Token(nil), p.rhs...))
                if p.br != "" { st.Target = ids[start[self.refs[p.br]]] }
                rt.AppendStmt(bb, st)
            }
        }
    }

    /* link the blocks */
    for i := range spans {
        if vis[i] {
            for _, s := range succs[i] {
                rt.AddEdge(rt.blocks[ids[i]], rt.blocks[ids[s]])
            }
        }
    }

    /* build the dominator tree */
    rt.RebuildDominators()
    return rt, nil
}

func (self *Builder) local(name string) int {
    for i, v := range self.locals {
        if v.Name == name {
            return i
        }
    }
    return -1
}
