// Copyright Consensys Software Inc.
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

	"github.com/consensys/go-mau/pkg/device"
	"github.com/spf13/cobra"
)

var targetsCmd = &cobra.Command{
	Use:   "targets [flags] [target(s)]",
	Short: "list built-in target devices.",
	Long: `List the names of all built-in target devices or, when targets are given,
print their descriptors as JSON (suitable as a starting point for --device).`,
	Run: func(cmd *cobra.Command, args []string) {
		configureLogging(cmd)
		//
		if len(args) == 0 {
			for _, name := range device.Targets() {
				fmt.Println(name)
			}
			//
			return
		}
		//
		for _, name := range args {
			dev, err := device.Lookup(name)
			if err != nil {
				fmt.Println(err)
				os.Exit(exitFailure)
			}
			//
			bytes, err := dev.Marshal()
			if err != nil {
				fmt.Println(err)
				os.Exit(exitFailure)
			}
			//
			fmt.Println(string(bytes))
		}
	},
}

func init() {
	rootCmd.AddCommand(targetsCmd)
}
