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

func bool2int(v bool) int64 {
    if v {
        return 1
    } else {
        return 0
    }
}

// Eval computes an arithmetic or comparison operator on 64-bit two's
// complement integers. Comparisons yield 1 or 0. It returns false if the
// result is undefined, which is division or modulo by zero, or if `op` is
// not an arithmetic operator. `y` is ignored by unary operators.
func Eval(op Op, x int64, y int64) (int64, bool) {
    switch op {
        case OP_add   : return x + y, true
        case OP_sub   : return x - y, true
        case OP_mul   : return x * y, true
        case OP_neg   : return -x, true
        case OP_cmpeq : return bool2int(x == y), true
        case OP_cmple : return bool2int(x <= y), true
        case OP_cmplt : return bool2int(x < y), true
        case OP_div   : if y == 0 { return 0, false } else { return x / y, true }
        case OP_mod   : if y == 0 { return 0, false } else { return x % y, true }
        default       : return 0, false
    }
}
