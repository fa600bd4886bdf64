// Package test holds integration scenarios run by cmd/testrunner against a
// live delved.
package test

import (
	"fmt"

	"github.com/lawnchairsociety/opendelve/internal/delve"
	"github.com/lawnchairsociety/opendelve/internal/testclient"
)

// Verbose controls whether detailed logging is shown during tests
var Verbose = false

// TestResult represents the result of a test
type TestResult struct {
	Name    string
	Passed  bool
	Message string
}

func logAction(testName, action string) {
	if Verbose {
		fmt.Printf("  [%s] %s\n", testName, action)
	}
}

func logResult(testName string, success bool, detail string) {
	if Verbose {
		status := "OK"
		if !success {
			status = "FAIL"
		}
		fmt.Printf("  [%s] %s: %s\n", testName, status, detail)
	}
}

func fail(name, format string, args ...any) TestResult {
	return TestResult{Name: name, Passed: false, Message: fmt.Sprintf(format, args...)}
}

func pass(name, format string, args ...any) TestResult {
	return TestResult{Name: name, Passed: true, Message: fmt.Sprintf(format, args...)}
}

// RunAllTests runs every scenario against the server at address
func RunAllTests(address string, seed int64) []TestResult {
	return []TestResult{
		TestBasicConnection(address, seed),
		TestLookCommand(address, seed),
		TestSameSeedSameLevel(address, seed),
		TestBlockedMove(address, seed),
		TestDescend(address, seed),
	}
}

// PrintResults prints a summary table
func PrintResults(results []TestResult) {
	passed, failed := 0, 0

	fmt.Println("============================================================")
	fmt.Println("Integration Test Results")
	fmt.Println("============================================================")
	fmt.Println()

	for _, r := range results {
		status := "PASS"
		if r.Passed {
			passed++
		} else {
			status = "FAIL"
			failed++
		}
		fmt.Printf("[%s] %s: %s\n", status, r.Name, r.Message)
	}

	fmt.Println()
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Total: %d | Passed: %d | Failed: %d\n", len(results), passed, failed)
	fmt.Println("------------------------------------------------------------")
}

// TestBasicConnection checks the welcome snapshot
func TestBasicConnection(address string, seed int64) TestResult {
	const testName = "Basic Connection"

	logAction(testName, "Connecting...")
	client, err := testclient.NewTestClient("conn", address, seed)
	if err != nil {
		return fail(testName, "Failed to connect: %v", err)
	}
	defer client.Close()

	snap := client.Welcome.Snapshot
	if snap == nil {
		return fail(testName, "Welcome had no snapshot")
	}
	logResult(testName, snap.Depth == 1, fmt.Sprintf("depth %d", snap.Depth))
	if snap.Depth != 1 || len(snap.Visible) == 0 {
		return fail(testName, "Unexpected welcome: depth %d, %d visible tiles", snap.Depth, len(snap.Visible))
	}
	return pass(testName, "Connected at depth 1 seeing %d tiles", len(snap.Visible))
}

// TestLookCommand checks that look draws the explorer
func TestLookCommand(address string, seed int64) TestResult {
	const testName = "Look Command"

	client, err := testclient.NewTestClient("look", address, seed)
	if err != nil {
		return fail(testName, "Failed to connect: %v", err)
	}
	defer client.Close()

	logAction(testName, "Sending look")
	reply, err := client.SendCommand("look")
	if err != nil {
		return fail(testName, "look failed: %v", err)
	}
	if reply.Snapshot == nil || len(reply.Map) != reply.Snapshot.Height {
		return fail(testName, "look returned %d map rows", len(reply.Map))
	}
	p := reply.Snapshot.Player
	if reply.Map[p.Y][p.X] != '@' {
		return fail(testName, "explorer not drawn at %+v", p)
	}
	return pass(testName, "Map has %d rows with the explorer at (%d,%d)", len(reply.Map), p.X, p.Y)
}

// TestSameSeedSameLevel checks two clients on one seed see the same level
func TestSameSeedSameLevel(address string, seed int64) TestResult {
	const testName = "Same Seed Same Level"

	a, err := testclient.NewTestClient("a", address, seed)
	if err != nil {
		return fail(testName, "Failed to connect: %v", err)
	}
	defer a.Close()
	b, err := testclient.NewTestClient("b", address, seed)
	if err != nil {
		return fail(testName, "Failed to connect second client: %v", err)
	}
	defer b.Close()

	for _, d := range []delve.Direction{delve.North, delve.East, delve.South, delve.West} {
		ra, errA := a.Move(d)
		rb, errB := b.Move(d)
		if errA != nil || errB != nil {
			return fail(testName, "move failed: %v / %v", errA, errB)
		}
		if ra.Snapshot == nil || rb.Snapshot == nil {
			return fail(testName, "move %s returned no snapshot", d)
		}
		logAction(testName, fmt.Sprintf("%s: %s / %s", d, ra.Outcome, rb.Outcome))
		if ra.Outcome != rb.Outcome || ra.Snapshot.Player != rb.Snapshot.Player {
			return fail(testName, "clients diverged on %s", d)
		}
	}
	return pass(testName, "Both clients followed the same path")
}

// TestBlockedMove walks west until a wall stops the explorer
func TestBlockedMove(address string, seed int64) TestResult {
	const testName = "Blocked Move"

	client, err := testclient.NewTestClient("blocked", address, seed)
	if err != nil {
		return fail(testName, "Failed to connect: %v", err)
	}
	defer client.Close()

	for i := 0; i < 100; i++ {
		reply, err := client.Move(delve.West)
		if err != nil {
			return fail(testName, "move failed: %v", err)
		}
		if reply.Outcome == delve.OutcomeBlocked.String() {
			logResult(testName, true, fmt.Sprintf("blocked after %d steps", i))
			return pass(testName, "Wall reached after %d steps", i)
		}
	}
	return fail(testName, "Never hit a wall walking west")
}

// TestDescend explores until the stairs down are found and taken
func TestDescend(address string, seed int64) TestResult {
	const testName = "Descend"

	client, err := testclient.NewTestClient("descend", address, seed)
	if err != nil {
		return fail(testName, "Failed to connect: %v", err)
	}
	defer client.Close()

	steps, err := exploreToStairs(client, 5000)
	if err != nil {
		return fail(testName, "%v", err)
	}
	return pass(testName, "Reached depth 2 in %d steps", steps)
}
