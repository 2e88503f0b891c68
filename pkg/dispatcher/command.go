package dispatcher

import (
	"errors"
	"fmt"
	"strings"
)

var ErrMalformedCommand = errors.New("malformed command")

type Command string

const (
	CommandStatus    Command = "send-status"
	CommandWatchlist Command = "show-watchlist"
	CommandLogin     Command = "login"
	CommandRefresh   Command = "refresh"
)

const loginPrefix = string(CommandLogin) + ":"

// Request is a parsed client command
type Request struct {
	Command Command
	User    string
	Secret  string
}

// Parse reads one command. Trailing CR and LF are ignored. The login payload
// is split on the first colon so secrets may contain colons.
func Parse(raw string) (Request, error) {
	raw = strings.TrimRight(raw, "\r\n")

	switch Command(raw) {
	case CommandStatus, CommandWatchlist, CommandRefresh:
		return Request{Command: Command(raw)}, nil
	}

	if payload, ok := strings.CutPrefix(raw, loginPrefix); ok {
		user, secret, found := strings.Cut(payload, ":")
		if !found || user == "" {
			return Request{}, fmt.Errorf("%w: login needs login:<user>:<pass>", ErrMalformedCommand)
		}
		return Request{Command: CommandLogin, User: user, Secret: secret}, nil
	}

	return Request{}, fmt.Errorf("%w: %q", ErrMalformedCommand, truncate(raw, 64))
}

// String renders the request in wire form
func (r Request) String() string {
	if r.Command == CommandLogin {
		return loginPrefix + r.User + ":" + r.Secret
	}
	return string(r.Command)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
