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

package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"

	"github.com/cloudwego/midend/internal/sccp"
	"github.com/cloudwego/midend/ir"
)

var dumper = spew.ConfigState{
	Indent:                  "    ",
	SortKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

// DumpAttrs writes the lattice value of every name in a propagation result.
func DumpAttrs(w io.Writer, sol *sccp.Solution) {
	dumper.Fdump(w, sol.Attrs)
}

// DumpRoutine writes a routine both as text and as an SVG drawing into `dir`.
// The file names are made of the routine name, a sequence number and the
// name of the pass that produced it.
func DumpRoutine(dir string, seq int, pass string, rt *ir.Routine, mode ir.DumpMode) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "midend: cannot create dump directory")
	}

	/* build the file name */
	name := strings.ToLower(strings.ReplaceAll(pass, " ", "_"))
	base := filepath.Join(dir, fmt.Sprintf("%s.%02d.%s", rt.Name, seq, name))

	/* the text form */
	if err := os.WriteFile(base+".txt", []byte(rt.Dump(mode)), 0644); err != nil {
		return errors.Wrap(err, "midend: cannot write dump")
	}

	/* the graph */
	fp, err := os.OpenFile(base+".svg", os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Wrap(err, "midend: cannot write dump")
	}
	DrawCFG(fp, rt, mode)
	return errors.Wrap(fp.Close(), "midend: cannot write dump")
}
