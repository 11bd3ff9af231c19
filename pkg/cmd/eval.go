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
	"math/big"
	"os"
	"strconv"
	"strings"

	"github.com/consensys/go-mau/pkg/ir"
	"github.com/consensys/go-mau/pkg/ir/parser"
	"github.com/spf13/cobra"
)

var evalCmd = &cobra.Command{
	Use:   "eval [flags] expression [field[:width]=value ...]",
	Short: "evaluate a condition for given field values.",
	Long: `Evaluate an expression for the given field values.  Each field is written
name[:width]=value, where width is the number of bits (default 32) optionally
prefixed with 's' for signed fields, e.g. hdr.d:s16=-3.`,
	Run: func(cmd *cobra.Command, args []string) {
		configureLogging(cmd)
		//
		if len(args) == 0 {
			fmt.Println(cmd.UsageString())
			os.Exit(exitFailure)
		}
		//
		fields, env, err := parseBindings(args[1:])
		if err != nil {
			fmt.Println(err)
			os.Exit(exitFailure)
		}
		//
		valid, _ := cmd.Flags().GetStringSlice("valid")
		for _, h := range valid {
			env.SetValid(h, true)
		}
		//
		expr, errs := parser.ParseExpr(args[0], fields...)
		for _, e := range errs {
			printSyntaxError(&e)
		}
		//
		if len(errs) > 0 {
			os.Exit(exitFailure)
		}
		//
		result := ir.Eval(expr, env)
		//
		if ir.IsBoolean(expr) {
			fmt.Println(result.Sign() != 0)
		} else {
			fmt.Println(result.String())
		}
	},
}

// Parse field bindings of the form name[:width]=value.
func parseBindings(args []string) ([]*ir.Field, *ir.Env, error) {
	var (
		fields []*ir.Field
		env    = ir.NewEnv()
	)
	//
	for _, arg := range args {
		lhs, rhs, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, nil, fmt.Errorf("invalid binding \"%s\" (expected name=value)", arg)
		}
		//
		field := &ir.Field{Name: lhs, Width: 32}
		//
		if name, width, ok := strings.Cut(lhs, ":"); ok {
			field.Name = name
			field.Signed = strings.HasPrefix(width, "s")
			//
			w, err := strconv.ParseUint(strings.TrimPrefix(width, "s"), 10, 16)
			if err != nil || w == 0 {
				return nil, nil, fmt.Errorf("invalid width in binding \"%s\"", arg)
			}
			//
			field.Width = uint(w)
		}
		//
		value, ok := new(big.Int).SetString(rhs, 0)
		if !ok {
			return nil, nil, fmt.Errorf("invalid value in binding \"%s\"", arg)
		}
		//
		fields = append(fields, field)
		env.SetBig(field.Name, value)
	}
	//
	return fields, env, nil
}

func init() {
	evalCmd.Flags().StringSlice("valid", nil, "headers which are valid")
	rootCmd.AddCommand(evalCmd)
}
