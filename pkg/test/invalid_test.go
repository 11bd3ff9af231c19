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
package test

import (
	"testing"

	"github.com/consensys/go-mau/pkg/test/util"
)

func Test_Invalid_Decl_01(t *testing.T) {
	util.CheckInvalid(t, "invalid/decl_01")
}

func Test_Invalid_Gateway_01(t *testing.T) {
	util.CheckInvalid(t, "invalid/gateway_01")
}

func Test_Invalid_Gateway_02(t *testing.T) {
	util.CheckInvalid(t, "invalid/gateway_02")
}

func Test_Invalid_Salu_01(t *testing.T) {
	util.CheckInvalid(t, "invalid/salu_01")
}

func Test_Invalid_Salu_02(t *testing.T) {
	util.CheckInvalid(t, "invalid/salu_02")
}

func Test_Invalid_Salu_03(t *testing.T) {
	util.CheckInvalid(t, "invalid/salu_03")
}

func Test_Invalid_Salu_04(t *testing.T) {
	util.CheckInvalid(t, "invalid/salu_04")
}
