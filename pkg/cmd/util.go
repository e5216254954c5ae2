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
	"github.com/spf13/cobra"
)

// GetFlag gets an expected flag, or panic if an error arises.
func GetFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// GetUint gets an expected uint flag, or panic if an error arises.
func GetUint(cmd *cobra.Command, flag string) uint {
	r, err := cmd.Flags().GetUint(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// GetString gets an expected string flag, or panic if an error arises.
func GetString(cmd *cobra.Command, flag string) string {
	r, err := cmd.Flags().GetString(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// Parse a block description file, reporting any failure and exiting.
func readBlockFile(filename string) *block.TableBlock {
	f, err := os.Open(filename)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	//
	defer f.Close()
	//
	blk, err := klio.ReadBlock(f)
	if err != nil {
		fmt.Printf("%s: %s\n", filename, err)
		os.Exit(2)
	}
	//
	return blk
}

// Construct a context for the given block and fill the table, applying the
// thread count requested on the command line.
func fillTable(cmd *cobra.Command, blk block.Block) *kl.Context {
	ctx := kl.NewContext(blk)
	//
	if threads := GetUint(cmd, "threads"); threads > 0 {
		ctx.SetThreads(threads)
	}
	//
	if err := ctx.Fill(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	//
	return ctx
}
