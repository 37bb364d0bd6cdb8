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

package debug

import (
    `fmt`
    `io`
    `strings`

    `github.com/ajstarks/svgo`

    `github.com/cloudwego/midend/ir`
)

const (
    _LineHeight = 24
    _CharWidth  = 9
    _Margin     = 40
    _BlockGap   = 48
    _EdgeStep   = 12
)

type _BlockBox struct {
    y int
    h int
}

func blockLines(rt *ir.Routine, bb *ir.Block, mode ir.DumpMode) []string {
    var ret []string
    for _, line := range strings.Split(strings.TrimRight(rt.DumpBlock(bb, mode), "\n"), "\n") {
        ret = append(ret, strings.TrimSpace(line))
    }
    return ret
}

// DrawCFG renders the block graph of a routine as SVG. Blocks are stacked in
// program order, forward edges are drawn on the left and backward edges on
// the right.
func DrawCFG(w io.Writer, rt *ir.Routine, mode ir.DumpMode) {
    maxw := 0
    line := make(map[ir.BlockID][]string)
    bbox := make(map[ir.BlockID]_BlockBox)
    blocks := rt.Blocks()

    /* measure every block */
    y := _Margin
    for _, bb := range blocks {
        ss := blockLines(rt, bb, mode)
        line[bb.Id] = ss
        for _, s := range ss {
            if len(s) > maxw {
                maxw = len(s)
            }
        }
        bbox[bb.Id] = _BlockBox { y: y, h: len(ss) * _LineHeight + 8 }
        y += len(ss) * _LineHeight + 8 + _BlockGap
    }

    /* leave room for the edges on both sides */
    boxw := maxw * _CharWidth + 24
    left := _Margin + (len(blocks) + 1) * _EdgeStep
    width := left + boxw + (len(blocks) + 1) * _EdgeStep + _Margin

    /* create the canvas */
    p := svg.New(w)
    p.Start(width, y + _Margin)
    p.Rect(0, 0, width, y + _Margin, "fill:white")

    /* draw the blocks */
    for _, bb := range blocks {
        box := bbox[bb.Id]
        p.Rect(left, box.y, boxw, box.h, "fill:none;stroke:black;stroke-width:1")
        for i, s := range line[bb.Id] {
            style := "fill:black;font-size:16px;font-family:monospace"
            if i == 0 {
                style = "fill:gray;font-size:16px;font-family:monospace"
            }
            p.Text(left + 12, box.y + (i + 1) * _LineHeight - 4, s, style)
        }
    }

    /* draw the edges */
    for i, bb := range blocks {
        for _, s := range bb.Succs {
            src := bbox[bb.Id]
            dst := bbox[s]
            sy := src.y + src.h
            dy := dst.y

            /* straight down to the next block */
            if dy == sy + _BlockGap {
                p.Line(left + boxw / 2, sy, left + boxw / 2, dy, "stroke:black;stroke-width:2")
                continue
            }

            /* route around the blocks */
            if dy > sy {
                x := left - (i + 1) * _EdgeStep
                p.Polyline([]int { left, x, x, left }, []int { sy - 4, sy - 4, dy + 4, dy + 4 }, "fill:none;stroke:blue;stroke-width:2")
            } else {
                x := left + boxw + (i + 1) * _EdgeStep
                p.Polyline([]int { left + boxw, x, x, left + boxw }, []int { sy - 4, sy - 4, dy + 4, dy + 4 }, "fill:none;stroke:red;stroke-width:2")
            }
        }
    }

    /* title */
    p.Text(_Margin, _Margin / 2 + 6, fmt.Sprintf("routine %s", rt.Name), "fill:black;font-size:16px;font-family:monospace")
    p.End()
}
