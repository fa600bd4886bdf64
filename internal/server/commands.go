package server

import (
	"errors"
	"strings"

	"github.com/lawnchairsociety/opendelve/internal/delve"
)

// Reply is the JSON object sent for every command.
type Reply struct {
	Outcome  string          `json:"outcome,omitempty"`
	Message  string          `json:"message,omitempty"`
	Error    string          `json:"error,omitempty"`
	Snapshot *delve.Snapshot `json:"snapshot,omitempty"`
	Map      []string        `json:"map,omitempty"`
}

const helpText = "Commands: move <n|s|e|w>, n/s/e/w, look, help, quit"

func welcomeReply(session *delve.Session) Reply {
	snap := session.Snapshot()
	return Reply{
		Message:  snap.Message + " " + helpText,
		Snapshot: &snap,
	}
}

// handleCommand runs one command line. quit is true when the client asked
// to leave.
func handleCommand(session *delve.Session, line string) (reply Reply, quit bool) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return Reply{Error: "empty command"}, false
	}

	verb, args := fields[0], fields[1:]
	switch verb {
	case "quit", "exit":
		snap := session.Snapshot()
		return Reply{Message: "You leave the dungeon.", Snapshot: &snap}, true
	case "help", "?":
		return Reply{Message: helpText}, false
	case "look":
		snap := session.Snapshot()
		return Reply{Snapshot: &snap, Map: session.Render()}, false
	case "move", "go":
		if len(args) != 1 {
			return Reply{Error: "usage: move <direction>"}, false
		}
		return move(session, args[0]), false
	}

	if len(fields) == 1 {
		if _, err := delve.ParseDirection(verb); err == nil {
			return move(session, verb), false
		}
	}
	return Reply{Error: "unknown command: " + verb}, false
}

func move(session *delve.Session, arg string) Reply {
	dir, err := delve.ParseDirection(arg)
	if err != nil {
		return Reply{Error: err.Error()}
	}

	outcome, err := session.Move(dir)
	if err != nil {
		if errors.Is(err, delve.ErrUnknownDirection) {
			return Reply{Error: err.Error()}
		}
		return Reply{Outcome: outcome.String(), Error: "the way is shut"}
	}

	snap := session.Snapshot()
	reply := Reply{Outcome: outcome.String(), Snapshot: &snap}
	switch outcome {
	case delve.OutcomeBlocked:
		reply.Message = "You can't go that way."
	case delve.OutcomeDescended, delve.OutcomeAscended:
		reply.Message = snap.Message
	}
	return reply
}
