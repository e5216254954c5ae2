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
	"os"

	"github.com/atlas-reps/go-klv/pkg/block"
	"github.com/atlas-reps/go-klv/pkg/kl"
	"github.com/atlas-reps/go-klv/pkg/klio"
	"github.com/atlas-reps/go-klv/pkg/store"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var computeCmd = &cobra.Command{
	Use:   "compute [flags] block_file",
	Short: "fill the KLV table of a block.",
	Long: `Fill the complete Kazhdan-Lusztig-Vogan polynomial table of the
	block described by the given file, then write the resulting matrix and
	polynomial streams.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		// Configure log level
		if GetFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}
		//
		matrixFile := GetString(cmd, "matrix")
		polyFile := GetString(cmd, "polys")
		// Parse and fill
		blk := readBlockFile(args[0])
		ctx := fillTable(cmd, blk)
		// Report
		st := ctx.Store()
		used, reserved := st.MemoryFootprint()
		fmt.Printf("%d distinct polynomials (%d bytes used, %d reserved)\n",
			st.Size(), used, reserved)
		// Write out streams
		if matrixFile != "" {
			writeMatrixFile(matrixFile, ctx)
		}
		//
		if polyFile != "" {
			writePolyFile(polyFile, st)
		}
	},
}

func writeMatrixFile(filename string, ctx *kl.Context) {
	var m klio.Matrix
	//
	for y := block.Elt(0); y < ctx.Size(); y++ {
		m.Rows = append(m.Rows, ctx.PrimitiveRow(y))
		m.Indices = append(m.Indices, ctx.Row(y))
	}
	//
	f, err := os.Create(filename)
	if err == nil {
		err = klio.WriteMatrix(f, &m)
	}
	//
	if err == nil {
		err = f.Close()
	}
	//
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func writePolyFile(filename string, st *store.Store) {
	f, err := os.Create(filename)
	if err == nil {
		err = klio.WritePolys(f, st)
	}
	//
	if err == nil {
		err = f.Close()
	}
	//
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(computeCmd)
	computeCmd.Flags().String("matrix", "", "write the matrix stream to this file")
	computeCmd.Flags().String("polys", "", "write the polynomial stream to this file")
}
