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

package opts

import (
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Parse reads a TOML configuration and applies every key it defines on top
// of `base`. Keys that are absent keep the value from `base`.
func Parse(r io.Reader, base Options) (Options, error) {
	var cfg Options
	meta, err := toml.DecodeReader(r, &cfg)
	if err != nil {
		return base, errors.Wrap(err, "midend: invalid configuration")
	}

	/* reject keys we do not know about */
	if keys := meta.Undecoded(); len(keys) != 0 {
		return base, errors.Errorf("midend: unknown configuration key %q", keys[0].String())
	}

	if meta.IsDefined("enable_sccp") {
		base.EnableSCCP = cfg.EnableSCCP
	}
	if meta.IsDefined("max_sccp_rounds") {
		base.MaxSCCPRounds = cfg.MaxSCCPRounds
	}
	if meta.IsDefined("frame_slot_size") {
		if cfg.FrameSlotSize <= 0 {
			return base, errors.Errorf("midend: invalid frame slot size %d", cfg.FrameSlotSize)
		}
		base.FrameSlotSize = cfg.FrameSlotSize
	}
	if meta.IsDefined("verify") {
		base.Verify = cfg.Verify
	}
	if meta.IsDefined("log_level") {
		base.LogLevel = cfg.LogLevel
	}
	if meta.IsDefined("dump_dir") {
		base.DumpDir = cfg.DumpDir
	}
	return base, nil
}

// LoadFile is like Parse, but reads the configuration from a file.
func LoadFile(path string, base Options) (Options, error) {
	f, err := os.Open(path)
	if err != nil {
		return base, errors.Wrap(err, "midend: cannot open configuration")
	}
	defer f.Close()
	return Parse(f, base)
}
