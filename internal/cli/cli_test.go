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

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	var c CLI

	parser, err := kong.New(&c, kong.Name("ethsw"), kong.Exit(func(int) { t.Fatal("exit") }))
	if err != nil {
		t.Fatal(err)
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		t.Fatalf("%v: %v", args, err)
	}

	out := new(bytes.Buffer)
	ctx := c.Context()
	ctx.Out = out

	err = kctx.Run(ctx)
	return out.String(), err
}

func writeConfig(t *testing.T) string {
	dir := t.TempDir()

	config := fmt.Sprintf(`
version: v1
journal: %s
devices:
  - name: sw0
    chip: Spruce
    backend: mock
`, filepath.Join(dir, "journal"))

	path := filepath.Join(dir, "ethsw.yaml")
	if err := os.WriteFile(path, []byte(config), 0644); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestChips(t *testing.T) {
	out, err := runCommand(t, "chips")
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"Bonsai", "Oak", "Spruce"} {
		if !strings.Contains(out, name) {
			t.Errorf("Chip %s not listed", name)
		}
	}
}

func TestWindows(t *testing.T) {
	if _, err := runCommand(t, "ext", "write", "sw0", "1", "0x20", "0xBEEF"); err != nil {
		t.Error(err)
	}

	if _, err := runCommand(t, "fc", "write", "sw0", "1", "0x10", "0x55"); err != nil {
		t.Error(err)
	}

	out, err := runCommand(t, "ext", "read", "sw0", "2", "0x01")
	if err != nil {
		t.Error(err)
	}
	if !strings.Contains(out, "Port 2") {
		t.Errorf("Unexpected output: %s", out)
	}

	if _, err := runCommand(t, "ext", "read", "sw0", "11", "0x01"); err == nil {
		t.Error("Read of port 11 succeeded")
	}

	if _, err := runCommand(t, "fc", "read", "sw0", "0", "0x80"); err == nil {
		t.Error("Read of pointer 0x80 succeeded")
	}

	if _, err := runCommand(t, "ext", "read", "sw9", "0", "0x01"); err == nil {
		t.Error("Read of unknown device succeeded")
	}
}

func TestStatus(t *testing.T) {
	out, err := runCommand(t, "status", "sw0")
	if err != nil {
		t.Fatal(err)
	}

	if strings.Count(out, "ext OK") != 11 {
		t.Errorf("Unexpected status:\n%s", out)
	}
}

func TestFeatures(t *testing.T) {
	out, err := runCommand(t, "feature", "list")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "queue-to-pause") {
		t.Errorf("Unexpected features:\n%s", out)
	}

	if _, err := runCommand(t, "feature", "set", "sw0", "3", "pfc", "1", "--index", "2"); err != nil {
		t.Error(err)
	}

	if _, err := runCommand(t, "feature", "set", "sw0", "3", "mtu", "20"); err == nil {
		t.Error("MTU of 20 accepted")
	}

	if _, err := runCommand(t, "feature", "get", "sw0", "3", "speed"); err == nil {
		t.Error("Unknown feature accepted")
	}
}

func TestJournal(t *testing.T) {
	config := writeConfig(t)

	if _, err := runCommand(t, "--config", config, "feature", "set", "sw0", "4", "mtu", "9000"); err != nil {
		t.Fatal(err)
	}

	if _, err := runCommand(t, "--config", config, "feature", "set", "sw0", "4", "mtu", "9216"); err != nil {
		t.Fatal(err)
	}

	out, err := runCommand(t, "--config", config, "journal", "dump", "sw0")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Spruce") || strings.Count(out, "ExtendedPortControl port 4") != 2 {
		t.Errorf("Unexpected journal:\n%s", out)
	}

	out, err = runCommand(t, "--config", config, "journal", "compact", "sw0")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Dropped 1 entries") {
		t.Errorf("Unexpected compaction: %s", out)
	}

	out, err = runCommand(t, "--config", config, "journal", "restore", "sw0")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Restored 1 entries") {
		t.Errorf("Unexpected restore: %s", out)
	}

	out, err = runCommand(t, "--config", config, "journal", "verify")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Verified 1 device journals") {
		t.Errorf("Unexpected verify: %s", out)
	}

	out, err = runCommand(t, "--config", config, "journal", "raw")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Key JRsw0") || !strings.Contains(out, "(1 records)") {
		t.Errorf("Unexpected raw journal:\n%s", out)
	}

	if _, err := runCommand(t, "journal", "verify"); err == nil {
		t.Error("Journal verify without a journal succeeded")
	}
}
