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
	"fmt"

	"github.com/cloudwego/midend/internal/opts"
)

// Option is the property setter function for opts.Options.
type Option func(*opts.Options)

// WithSCCP enables or disables sparse conditional constant propagation.
//
// The default value of this option is "true".
func WithSCCP(enable bool) Option {
	return func(o *opts.Options) { o.EnableSCCP = enable }
}

// WithMaxSCCPRounds limits the number of times constant propagation is
// re-run on a routine. Propagation normally stops as soon as a run changes
// nothing; once the limit is reached it stops even if the last run did
// change the routine.
//
// Set this option to "0" disables this limit.
//
// The default value of this option is "0".
func WithMaxSCCPRounds(n int) Option {
	if n < 0 {
		panic(fmt.Sprintf("midend: invalid SCCP round limit: %d", n))
	} else {
		return func(o *opts.Options) { o.MaxSCCPRounds = n }
	}
}

// WithFrameSlotSize sets the number of bytes each local occupies in the stack
// frame once the routine has been converted out of SSA form.
//
// The default value of this option is "8".
func WithFrameSlotSize(size int) Option {
	if size <= 0 {
		panic(fmt.Sprintf("midend: invalid frame slot size: %d", size))
	} else {
		return func(o *opts.Options) { o.FrameSlotSize = size }
	}
}

// WithVerify controls whether the routine is verified after every pass.
//
// The default value of this option is "true".
func WithVerify(enable bool) Option {
	return func(o *opts.Options) { o.Verify = enable }
}

// WithLogLevel sets the level of the pass logs, such as "debug" or "warn".
func WithLogLevel(level string) Option {
	return func(o *opts.Options) { o.LogLevel = level }
}

// WithDumpDir makes every pass dump the routine into `dir`, both as text and
// as an SVG drawing of the block graph.
func WithDumpDir(dir string) Option {
	return func(o *opts.Options) { o.DumpDir = dir }
}

// WithConfigFile loads the options from a TOML file. Options given after
// this one take precedence over the file. A file that can not be loaded
// makes the pipeline fail before running any pass.
func WithConfigFile(path string) Option {
	return func(o *opts.Options) {
		if o.ConfigError != nil {
			return
		} else if v, err := opts.LoadFile(path, *o); err != nil {
			o.ConfigError = err
		} else {
			*o = v
		}
	}
}

// SetMaxSCCPRounds sets the default SCCP round limit for all routines from
// now on.
//
// This value can also be configured with the `MIDEND_MAX_SCCP_ROUNDS`
// environment variable.
//
// Returns the old opts.MaxSCCPRounds value.
func SetMaxSCCPRounds(n int) int {
	n, opts.MaxSCCPRounds = opts.MaxSCCPRounds, n
	return n
}

// SetFrameSlotSize sets the default frame slot size for all routines from
// now on.
//
// This value can also be configured with the `MIDEND_FRAME_SLOT_SIZE`
// environment variable.
//
// Returns the old opts.FrameSlotSize value.
func SetFrameSlotSize(size int) int {
	size, opts.FrameSlotSize = opts.FrameSlotSize, size
	return size
}
