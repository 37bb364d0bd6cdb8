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

type Options struct {
	EnableSCCP    bool   `toml:"enable_sccp"`
	MaxSCCPRounds int    `toml:"max_sccp_rounds"`
	FrameSlotSize int    `toml:"frame_slot_size"`
	Verify        bool   `toml:"verify"`
	LogLevel      string `toml:"log_level"`
	DumpDir       string `toml:"dump_dir"`

	// ConfigError is the first error met while loading a configuration file.
	ConfigError error `toml:"-"`
}

// SCCPLimit is the maximum number of constant propagation runs, 0 means
// unlimited.
func (self *Options) SCCPLimit() int {
	if self.MaxSCCPRounds < 0 {
		return 0
	} else {
		return self.MaxSCCPRounds
	}
}

func (self *Options) SlotSize() int64 {
	if self.FrameSlotSize <= 0 {
		return _DefaultFrameSlotSize
	} else {
		return int64(self.FrameSlotSize)
	}
}

func GetDefaultOptions() Options {
	return Options{
		EnableSCCP:    true,
		MaxSCCPRounds: MaxSCCPRounds,
		FrameSlotSize: FrameSlotSize,
		Verify:        true,
	}
}
