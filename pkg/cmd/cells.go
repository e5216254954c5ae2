// Copyright go-klv Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"fmt"

	"github.com/atlas-reps/go-klv/pkg/wgraph"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var cellsCmd = &cobra.Command{
	Use:   "cells [flags] block_file",
	Short: "compute the cell decomposition of a block.",
	Long: `Fill the KLV table of the block described by the given file, derive
	its W-graph and print the decomposition into cells.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		// Configure log level
		if GetFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}
		// Parse and fill
		blk := readBlockFile(args[0])
		ctx := fillTable(cmd, blk)
		// Derive graph and cells
		g := wgraph.FromContext(ctx)
		d := wgraph.Decompose(g)
		//
		fmt.Printf("%d cells in a block of size %d\n", d.NumCells(), g.Size())
		//
		for c := uint(0); c < d.NumCells(); c++ {
			fmt.Printf("cell %d:", c)
			//
			for _, x := range d.Members(c) {
				fmt.Printf(" %d", x)
			}
			//
			if targets := d.InducedEdges(c); len(targets) > 0 {
				fmt.Printf("  ->")
				//
				for _, t := range targets {
					fmt.Printf(" %d", t)
				}
			}
			//
			fmt.Println()
		}
	},
}

func init() {
	rootCmd.AddCommand(cellsCmd)
}
