/*
 * Copyright 2022 ByteDance Inc.
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

package emu

import (
    `fmt`
    `strings`

    `github.com/pkg/errors`

    `github.com/cloudwego/midend/ir`
)

const (
    _GP       = 1 << 20
    _HeapBase = 1 << 24
)

// DefaultMaxSteps bounds the number of statements a single run may execute.
const DefaultMaxSteps = 1 << 20

// Func implements the callee of a `call` instruction.
type Func func(args []int64) int64

// Emulator interprets a routine in any of its forms: before SSA, in SSA
// form and after it has been converted back.
type Emulator struct {
    Args  map[int64]int64
    Input []int64
    Funcs map[int]Func
    Steps int

    rt    *ir.Routine
    bb    *ir.Block
    prev  ir.BlockID
    next  ir.BlockID
    done  bool
    heap  int64
    args  []int64
    out   strings.Builder
    vars  map[string]int64
    regs  map[int]int64
    mem   map[int64]int64
}

// LoadRoutine creates an emulator positioned at the entry of `rt`.
func LoadRoutine(rt *ir.Routine) *Emulator {
    return &Emulator {
        Args  : make(map[int64]int64),
        Funcs : make(map[int]Func),
        Steps : DefaultMaxSteps,
        rt    : rt,
        heap  : _HeapBase,
        vars  : make(map[string]int64),
        regs  : make(map[int]int64),
        mem   : make(map[int64]int64),
    }
}

var dispatchTab = [...]func(e *Emulator, p *ir.Stmt) error {
    ir.OP_nop         : (*Emulator).emu_OP_nop,
    ir.OP_enter       : (*Emulator).emu_OP_nop,
    ir.OP_ret         : (*Emulator).emu_OP_ret,
    ir.OP_entry       : (*Emulator).emu_OP_entry,
    ir.OP_add         : (*Emulator).emu_OP_arith,
    ir.OP_sub         : (*Emulator).emu_OP_arith,
    ir.OP_mul         : (*Emulator).emu_OP_arith,
    ir.OP_div         : (*Emulator).emu_OP_arith,
    ir.OP_mod         : (*Emulator).emu_OP_arith,
    ir.OP_neg         : (*Emulator).emu_OP_arith,
    ir.OP_cmpeq       : (*Emulator).emu_OP_arith,
    ir.OP_cmple       : (*Emulator).emu_OP_arith,
    ir.OP_cmplt       : (*Emulator).emu_OP_arith,
    ir.OP_br          : (*Emulator).emu_OP_br,
    ir.OP_blbc        : (*Emulator).emu_OP_bcond,
    ir.OP_blbs        : (*Emulator).emu_OP_bcond,
    ir.OP_move        : (*Emulator).emu_OP_move,
    ir.OP_phi         : (*Emulator).emu_OP_phi,
    ir.OP_load        : (*Emulator).emu_OP_load,
    ir.OP_store       : (*Emulator).emu_OP_store,
    ir.OP_lddynamic   : (*Emulator).emu_OP_lddynamic,
    ir.OP_stdynamic   : (*Emulator).emu_OP_stdynamic,
    ir.OP_new         : (*Emulator).emu_OP_new,
    ir.OP_newlist     : (*Emulator).emu_OP_new,
    ir.OP_checknull   : (*Emulator).emu_OP_checknull,
    ir.OP_checkbounds : (*Emulator).emu_OP_checkbounds,
    ir.OP_checktype   : (*Emulator).emu_OP_checktype,
    ir.OP_istype      : (*Emulator).emu_OP_istype,
    ir.OP_call        : (*Emulator).emu_OP_call,
    ir.OP_param       : (*Emulator).emu_OP_param,
    ir.OP_read        : (*Emulator).emu_OP_read,
    ir.OP_write       : (*Emulator).emu_OP_write,
    ir.OP_wrl         : (*Emulator).emu_OP_wrl,
}

// Output is everything the routine has written so far.
func (self *Emulator) Output() string {
    return self.out.String()
}

func (self *Emulator) fault(p *ir.Stmt, format string, args ...interface{}) error {
    return errors.Errorf("emu: %s: instr %d: %s", self.rt.Name, p.Index, fmt.Sprintf(format, args...))
}

func (self *Emulator) value(p *ir.Stmt, t ir.Token) (int64, error) {
    switch v := t.(type) {
        case ir.Constant : return v.V, nil
        case ir.Offset   : return v.V, nil
        case ir.Code     : return int64(v.N), nil
        case ir.GP       : return _GP, nil
        case ir.Register : return self.register(p, v)
        case ir.Variable : return self.variable(v), nil
        default          : return 0, self.fault(p, "invalid operand %v", t)
    }
}

func (self *Emulator) register(p *ir.Stmt, r ir.Register) (int64, error) {
    if v, ok := self.regs[r.N]; !ok {
        return 0, self.fault(p, "register %s is read before written", r)
    } else {
        return v, nil
    }
}

func (self *Emulator) variable(v ir.Variable) int64 {
    if x, ok := self.vars[v.Key()]; ok {
        return x
    } else if v.IsParam() {
        return self.Args[v.Offset]
    } else {
        return 0
    }
}

func (self *Emulator) operand(p *ir.Stmt, i int) (int64, error) {
    if i >= len(p.RHS) {
        return 0, self.fault(p, "missing operand %d", i)
    } else {
        return self.value(p, p.RHS[i])
    }
}

func (self *Emulator) assign(t ir.Token, v int64) {
    switch r := t.(type) {
        case ir.Variable : self.vars[r.Key()] = v
        case ir.Register : self.regs[r.N] = v
    }
}

func (self *Emulator) result(p *ir.Stmt, v int64) {
    if len(p.LHS) != 0 {
        self.assign(p.LHS[0], v)
    } else {
        self.regs[p.Index] = v
    }
}

func (self *Emulator) emu_OP_nop(_ *ir.Stmt) error {
    return nil
}

func (self *Emulator) emu_OP_ret(_ *ir.Stmt) error {
    self.done = true
    return nil
}

func (self *Emulator) emu_OP_entry(p *ir.Stmt) error {
    for _, t := range p.LHS {
        if v, ok := t.(ir.Variable); ok {
            if v.IsParam() {
                self.assign(v, self.Args[v.Offset])
            } else {
                self.assign(v, 0)
            }
        }
    }
    return nil
}

func (self *Emulator) emu_OP_arith(p *ir.Stmt) error {
    var err error
    var x, y int64

    /* load the operands */
    if x, err = self.operand(p, 0); err != nil {
        return err
    }
    if !p.Op.IsUnary() {
        if y, err = self.operand(p, 1); err != nil {
            return err
        }
    }

    /* evaluate the operator */
    if v, ok := ir.Eval(p.Op, x, y); !ok {
        return self.fault(p, "division by zero")
    } else {
        self.result(p, v)
        return nil
    }
}

func (self *Emulator) emu_OP_br(p *ir.Stmt) error {
    self.next = p.Target
    return nil
}

func (self *Emulator) emu_OP_bcond(p *ir.Stmt) error {
    v, err := self.operand(p, 0)
    if err != nil {
        return err
    }

    /* jump to the target if taken */
    if v == p.Op.TakenOn() {
        self.next = p.Target
        return nil
    }

    /* otherwise fall through */
    if s, ok := self.bb.OtherSucc(p.Target); ok {
        self.next = s
    } else {
        self.next = p.Target
    }
    return nil
}

func (self *Emulator) emu_OP_move(p *ir.Stmt) error {
    if v, err := self.operand(p, 0); err != nil {
        return err
    } else {
        self.assign(p.LHS[0], v)
        return nil
    }
}

func (self *Emulator) emu_OP_phi(p *ir.Stmt) error {
    return self.fault(p, "Phi node evaluated out of order")
}

func (self *Emulator) emu_OP_load(p *ir.Stmt) error {
    if a, err := self.operand(p, 0); err != nil {
        return err
    } else {
        self.result(p, self.mem[a])
        return nil
    }
}

func (self *Emulator) emu_OP_store(p *ir.Stmt) error {
    if v, err := self.operand(p, 0); err != nil {
        return err
    } else if a, err := self.operand(p, 1); err != nil {
        return err
    } else {
        self.mem[a] = v
        return nil
    }
}

func (self *Emulator) emu_OP_lddynamic(p *ir.Stmt) error {
    if a, err := self.operand(p, 0); err != nil {
        return err
    } else if f, err := self.operand(p, 1); err != nil {
        return err
    } else {
        self.result(p, self.mem[a + f])
        return nil
    }
}

func (self *Emulator) emu_OP_stdynamic(p *ir.Stmt) error {
    if v, err := self.operand(p, 0); err != nil {
        return err
    } else if a, err := self.operand(p, 1); err != nil {
        return err
    } else if f, err := self.operand(p, 2); err != nil {
        return err
    } else {
        self.mem[a + f] = v
        return nil
    }
}

func (self *Emulator) emu_OP_new(p *ir.Stmt) error {
    n, err := self.operand(p, 0)
    if err != nil {
        return err
    } else if n < 0 {
        return self.fault(p, "negative allocation size %d", n)
    }

    /* bump allocate, never returning the same address twice */
    ret := self.heap
    self.heap += n + 8
    self.result(p, ret)
    return nil
}

func (self *Emulator) emu_OP_checknull(p *ir.Stmt) error {
    if v, err := self.operand(p, 0); err != nil {
        return err
    } else if v == 0 {
        return self.fault(p, "null pointer")
    } else {
        return nil
    }
}

func (self *Emulator) emu_OP_checkbounds(p *ir.Stmt) error {
    if i, err := self.operand(p, 0); err != nil {
        return err
    } else if n, err := self.operand(p, 1); err != nil {
        return err
    } else if i < 0 || i >= n {
        return self.fault(p, "index %d out of range [0, %d)", i, n)
    } else {
        return nil
    }
}

func (self *Emulator) emu_OP_checktype(p *ir.Stmt) error {
    if v, err := self.operand(p, 0); err != nil {
        return err
    } else {
        self.result(p, v)
        return nil
    }
}

func (self *Emulator) emu_OP_istype(p *ir.Stmt) error {
    if v, err := self.operand(p, 0); err != nil {
        return err
    } else if v == 0 {
        self.result(p, 0)
        return nil
    } else {
        self.result(p, 1)
        return nil
    }
}

func (self *Emulator) emu_OP_call(p *ir.Stmt) error {
    var fn Func
    var ret int64

    /* resolve the callee */
    if c, ok := p.RHS[0].(ir.Code); ok {
        fn = self.Funcs[c.N]
    }

    /* unknown callees return 0 */
    if fn != nil {
        ret = fn(self.args)
    }

    /* consume the arguments */
    self.args = self.args[:0]
    self.result(p, ret)
    return nil
}

func (self *Emulator) emu_OP_param(p *ir.Stmt) error {
    if v, err := self.operand(p, 0); err != nil {
        return err
    } else {
        self.args = append(self.args, v)
        return nil
    }
}

func (self *Emulator) emu_OP_read(p *ir.Stmt) error {
    if len(self.Input) == 0 {
        return self.fault(p, "end of input")
    } else {
        self.result(p, self.Input[0])
        self.Input = self.Input[1:]
        return nil
    }
}

func (self *Emulator) emu_OP_write(p *ir.Stmt) error {
    if v, err := self.operand(p, 0); err != nil {
        return err
    } else {
        fmt.Fprintf(&self.out, " %d", v)
        return nil
    }
}

func (self *Emulator) emu_OP_wrl(_ *ir.Stmt) error {
    self.out.WriteByte('\n')
    return nil
}

func (self *Emulator) enter(bb *ir.Block) error {
    i := bb.PredIndex(self.prev)
    phis := self.rt.PhiNodes(bb)
    vals := make([]int64, len(phis))

    /* no Phi nodes, nothing to do */
    if len(phis) == 0 {
        return nil
    }

    /* the entry block can not have Phi nodes */
    if i < 0 {
        return errors.Errorf("emu: %s: bb_%d is entered from bb_%d which is not a predecessor", self.rt.Name, bb.Id, self.prev)
    }

    /* evaluate all the Phi nodes in parallel */
    for j, p := range phis {
        if v, err := self.value(p, p.RHS[i]); err != nil {
            return err
        } else {
            vals[j] = v
        }
    }

    /* then assign them */
    for j, p := range phis {
        self.assign(p.LHS[0], vals[j])
    }
    return nil
}

// Run executes the routine until it returns, falls off the last block, or
// runs out of steps.
func (self *Emulator) Run() error {
    self.prev = ir.NoBlock
    self.bb = self.rt.EntryBlock()

    /* execute block by block */
    for self.bb != nil && !self.done {
        if err := self.enter(self.bb); err != nil {
            return err
        }

        /* fall through by default */
        if s := self.bb.Succs; len(s) != 0 {
            self.next = s[0]
        } else {
            self.next = ir.NoBlock
        }

        /* execute the body */
        for _, p := range self.rt.Body(self.bb) {
            if self.Steps--; self.Steps < 0 {
                return errors.Errorf("emu: %s: step limit exceeded", self.rt.Name)
            }
            if err := dispatchTab[p.Op](self, p); err != nil {
                return err
            }
            if self.done {
                return nil
            }
        }

        /* move to the next block */
        self.prev = self.bb.Id
        self.bb = self.rt.Block(self.next)
    }
    return nil
}

// Run interprets `rt` with the given arguments (keyed by frame offset) and
// input, returning everything it writes.
func Run(rt *ir.Routine, args map[int64]int64, input ...int64) (string, error) {
    emu := LoadRoutine(rt)
    emu.Input = input

    /* copy the arguments */
    for k, v := range args {
        emu.Args[k] = v
    }

    /* run the routine */
    if err := emu.Run(); err != nil {
        return emu.Output(), err
    } else {
        return emu.Output(), nil
    }
}
