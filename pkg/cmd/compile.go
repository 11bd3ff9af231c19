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

	"github.com/consensys/go-mau/pkg/compiler"
	"github.com/consensys/go-mau/pkg/device"
	"github.com/consensys/go-mau/pkg/diag"
	"github.com/consensys/go-mau/pkg/salu"
	"github.com/segmentio/encoding/json"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var compileCmd = &cobra.Command{
	Use:   "compile [flags] source_file(s)",
	Short: "compile gateways and register actions.",
	Long:  `Compile all gateway conditions, const-entry tables and register actions in the given source files.`,
	Run: func(cmd *cobra.Command, args []string) {
		runCompiler(cmd, args, true, true)
	},
}

var gatewayCmd = &cobra.Command{
	Use:   "gateway [flags] source_file(s)",
	Short: "compile gateways only.",
	Long:  `Compile the gateway conditions and const-entry tables in the given source files into gateway row lists.`,
	Run: func(cmd *cobra.Command, args []string) {
		runCompiler(cmd, args, true, false)
	},
}

var saluCmd = &cobra.Command{
	Use:   "salu [flags] source_file(s)",
	Short: "compile register actions only.",
	Long:  `Compile the register actions in the given source files into stateful ALU instructions.`,
	Run: func(cmd *cobra.Command, args []string) {
		runCompiler(cmd, args, false, true)
	},
}

// Output produced by the compiler for a single source file in JSON mode.
type jsonOutput struct {
	File        string     `json:"file"`
	Gateways    any        `json:"gateways,omitempty"`
	Units       []jsonUnit `json:"units,omitempty"`
	Diagnostics []jsonDiag `json:"diagnostics,omitempty"`
}

type jsonUnit struct {
	Register string              `json:"register"`
	Type     string              `json:"type"`
	Inputs   []string            `json:"inputs,omitempty"`
	RegFile  []string            `json:"regfile,omitempty"`
	Math     string              `json:"math,omitempty"`
	Actions  map[string][]string `json:"actions"`
}

type jsonDiag struct {
	Category string `json:"category"`
	Context  string `json:"context,omitempty"`
	Message  string `json:"message"`
	Start    *int   `json:"start,omitempty"`
	End      *int   `json:"end,omitempty"`
}

func runCompiler(cmd *cobra.Command, args []string, gateways bool, units bool) {
	var (
		asJSON = GetFlag(cmd, "json")
		failed bool
	)
	//
	configureLogging(cmd)
	//
	if len(args) == 0 {
		fmt.Println(cmd.UsageString())
		os.Exit(exitFailure)
	}
	//
	dev := getDevice(cmd)
	//
	for _, u := range readSourceFiles(args) {
		var (
			sink   = diag.NewSink()
			result compiler.Result
			err    error
		)
		//
		log.Debugf("compiling %s", u.srcfile.Filename())
		//
		result, err = compile(u, &dev, sink, gateways, units)
		if err != nil {
			fmt.Println(err)
			os.Exit(exitFailure)
		}
		//
		if asJSON {
			printJSON(u.srcfile.Filename(), result, sink, &dev)
			failed = failed || sink.ErrorCount() > 0
		} else {
			printResult(result)
			failed = printDiagnostics(u.srcfile, sink) || failed
		}
	}
	//
	if failed {
		os.Exit(exitDiagnostics)
	}
}

func compile(u unit, dev *device.Device, sink *diag.Sink, gateways bool, units bool) (res compiler.Result,
	err error) {
	defer diag.Recover(&err)
	//
	res = compiler.NewCompiler(u.program, dev, sink).Only(gateways, units).Compile()
	//
	return res, nil
}

func printResult(result compiler.Result) {
	for _, g := range result.Gateways {
		fmt.Print(g.String())
	}
	//
	for _, u := range result.Units {
		fmt.Print(u.String())
	}
}

func printJSON(filename string, result compiler.Result, sink *diag.Sink, dev *device.Device) {
	out := jsonOutput{File: filename}
	//
	if len(result.Gateways) > 0 {
		out.Gateways = result.Gateways
	}
	//
	for _, u := range result.Units {
		out.Units = append(out.Units, toJSONUnit(u, dev.Salu.CmpUnits))
	}
	//
	for _, d := range sink.Diagnostics() {
		jd := jsonDiag{Category: d.Category.String(), Context: d.Context, Message: d.Message}
		//
		if d.Span != nil {
			start, end := d.Span.Start(), d.Span.End()
			jd.Start, jd.End = &start, &end
		}
		//
		out.Diagnostics = append(out.Diagnostics, jd)
	}
	//
	bytes, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Println(err)
		os.Exit(exitFailure)
	}
	//
	fmt.Println(string(bytes))
}

func toJSONUnit(u *salu.Unit, cmpUnits []string) jsonUnit {
	ju := jsonUnit{
		Register: u.Register.Name,
		Type:     u.Register.String(),
		Actions:  make(map[string][]string),
	}
	//
	for _, in := range u.Inputs {
		ju.Inputs = append(ju.Inputs, in.Field)
	}
	//
	for _, r := range u.RegFile.Rows() {
		ju.RegFile = append(ju.RegFile, r.String())
	}
	//
	if u.Math != nil {
		ju.Math = u.Math.String()
	}
	//
	for _, a := range u.Actions {
		var instrs []string
		//
		for _, in := range a.Instructions {
			instrs = append(instrs, in.Format(cmpUnits))
		}
		//
		ju.Actions[a.Name] = instrs
	}
	//
	return ju
}

func init() {
	for _, c := range []*cobra.Command{compileCmd, gatewayCmd, saluCmd} {
		c.Flags().Bool("json", false, "produce JSON output")
		rootCmd.AddCommand(c)
	}
}
