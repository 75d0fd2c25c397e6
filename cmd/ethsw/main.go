/*
 * Copyright 2025 Hewlett Packard Enterprise Development LP
 * Other additional copyright holders may be indicated within.
 *
 * The entirety of this work is licensed under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 *
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

package main

import (
	"github.com/alecthomas/kong"

	"github.com/NearNodeFlash/nnf-ethsw/internal/cli"
)

func main() {
	var c cli.CLI

	ctx := kong.Parse(&c,
		kong.Name("ethsw"),
		kong.Description("Ethernet switch indirect register access."),
		kong.UsageOnError())

	err := ctx.Run(c.Context())
	ctx.FatalIfErrorf(err)
}
