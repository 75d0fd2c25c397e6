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

package cli

// CLI is the ethsw command line
type CLI struct {
	Config  string `kong:"optional,short='c',type='existingfile',env='ETHSW_CONFIG',help='System configuration file.'"`
	Debug   bool   `kong:"optional,help='Enable debug'"`
	Verbose int    `kong:"optional,short='v',type='counter',help='Log verbosity level.'"`

	Ext     ExtCmd     `kong:"cmd,help='Extended Port Control window commands.'"`
	Fc      FcCmd      `kong:"cmd,help='Flow-Control window commands.'"`
	Feature FeatureCmd `kong:"cmd,help='Port feature commands.'"`
	Status  StatusCmd  `kong:"cmd,help='Check the windows of every port of a device.'"`
	Journal JournalCmd `kong:"cmd,help='Write journal commands.'"`
	Chips   ChipsCmd   `kong:"cmd,help='List the supported chips.'"`
	Serve   ServeCmd   `kong:"cmd,help='Serve the REST API.'"`
}

// Context returns the context the commands run with
func (c *CLI) Context() *Context {
	return &Context{
		Config:  c.Config,
		Verbose: c.Verbose,
		Debug:   c.Debug,
	}
}
