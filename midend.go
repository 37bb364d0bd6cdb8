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

package midend

import (
	"github.com/containerd/log"
	"github.com/pkg/errors"

	"github.com/cloudwego/midend/debug"
	"github.com/cloudwego/midend/internal/opts"
	"github.com/cloudwego/midend/internal/sccp"
	"github.com/cloudwego/midend/internal/ssa"
	"github.com/cloudwego/midend/ir"
)

// Stats collects what every pass did to a routine.
type Stats struct {
	SSA      ssa.Stats
	SCCP     sccp.Result
	SCCPRuns int
}

// Unit is a routine going through the pipeline.
type Unit struct {
	Routine *ir.Routine
	Options opts.Options
	Stats   Stats
	InSSA   bool
	seq     int
}

type Pass interface {
	Apply(*Unit) error
}

type PassDescriptor struct {
	Pass Pass
	Name string
}

var Passes = [...]PassDescriptor{
	{Name: "SSA Construction", Pass: new(Construct)},
	{Name: "Constant Propagation", Pass: new(ConstProp)},
	{Name: "SSA Destruction", Pass: new(Destruct)}, // The routine is no longer in SSA form after this pass.
}

// Construct converts the routine into SSA form.
type Construct struct{}

func (Construct) Apply(u *Unit) error {
	if u.InSSA {
		return ir.Invariantf("construct", "routine %s is already in SSA form", u.Routine.Name)
	}
	st, err := ssa.Construct(u.Routine)
	if err != nil {
		return err
	}
	u.Stats.SSA = st
	u.InSSA = true
	return nil
}

// ConstProp runs sparse conditional constant propagation if enabled.
type ConstProp struct{}

func (ConstProp) Apply(u *Unit) error {
	if !u.Options.EnableSCCP {
		return nil
	}
	if !u.InSSA {
		return ir.Invariantf("sccp", "routine %s is not in SSA form", u.Routine.Name)
	}

	/* run until a round changes nothing, or the round limit is reached */
	for n := u.Options.SCCPLimit(); n == 0 || u.Stats.SCCPRuns < n; {
		ret, err := sccp.Propagate(u.Routine, 0)
		if err != nil {
			return err
		}
		u.Stats.SCCPRuns++
		u.Stats.SCCP.Merge(ret)
		if !ret.Changed() {
			break
		}
	}
	return nil
}

// Destruct converts the routine out of SSA form.
type Destruct struct{}

func (Destruct) Apply(u *Unit) error {
	if !u.InSSA {
		return ir.Invariantf("destruct", "routine %s is not in SSA form", u.Routine.Name)
	}
	if err := ssa.Destruct(u.Routine, u.Options.SlotSize()); err != nil {
		return err
	}
	u.InSSA = false
	return nil
}

func newUnit(rt *ir.Routine, inSSA bool, options []Option) (*Unit, error) {
	u := &Unit{
		Routine: rt,
		Options: opts.GetDefaultOptions(),
		InSSA:   inSSA,
	}

	/* apply all the options */
	for _, fn := range options {
		fn(&u.Options)
	}

	/* the configuration file must have been loaded */
	if u.Options.ConfigError != nil {
		return nil, u.Options.ConfigError
	}

	/* adjust the log level if needed */
	if u.Options.LogLevel != "" {
		if err := log.SetLevel(u.Options.LogLevel); err != nil {
			return nil, errors.Wrap(err, "midend: invalid log level")
		}
	}
	return u, nil
}

func (self *Unit) after(name string) error {
	mode := ir.DumpIR
	if self.InSSA {
		mode = ir.DumpSSA
	}

	/* verify the routine if needed */
	if self.Options.Verify {
		if err := ssa.Verify(self.Routine, self.InSSA); err != nil {
			return errors.Wrapf(err, "after %s", name)
		}
	}

	/* dump the routine if needed */
	if self.seq++; self.Options.DumpDir != "" {
		return debug.DumpRoutine(self.Options.DumpDir, self.seq, name, self.Routine, mode)
	}
	return nil
}

func (self *Unit) run(passes ...PassDescriptor) error {
	for _, p := range passes {
		log.L.WithField("routine", self.Routine.Name).Debugf("midend: running pass: %s", p.Name)
		if err := p.Pass.Apply(self); err != nil {
			return errors.Wrapf(err, "%s", p.Name)
		}
		if err := self.after(p.Name); err != nil {
			return err
		}
	}
	return nil
}

// Optimize takes a routine through every pass: into SSA form, constant
// propagation, then back out of SSA form.
func Optimize(rt *ir.Routine, options ...Option) (Stats, error) {
	u, err := newUnit(rt, false, options)
	if err != nil {
		return Stats{}, err
	}
	err = u.run(Passes[:]...)
	return u.Stats, err
}

// ToSSA converts a routine into SSA form.
func ToSSA(rt *ir.Routine, options ...Option) (Stats, error) {
	u, err := newUnit(rt, false, options)
	if err != nil {
		return Stats{}, err
	}
	err = u.run(Passes[0])
	return u.Stats, err
}

// FromSSA converts a routine in SSA form back into plain locals.
func FromSSA(rt *ir.Routine, options ...Option) (Stats, error) {
	u, err := newUnit(rt, true, options)
	if err != nil {
		return Stats{}, err
	}
	err = u.run(Passes[len(Passes)-1])
	return u.Stats, err
}
